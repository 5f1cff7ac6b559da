package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
)

type ClientsHandler struct {
	Clients *orders.ClientRepo
}

type ClientReq struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Company  string `json:"company"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (h *ClientsHandler) Register(r chi.Router) {
	r.Get("/clients", h.list)
	r.Get("/clients/mine", h.listMine)
	r.Get("/clients/{id}", h.get)
	r.Post("/clients", h.create)
	r.Put("/clients/{id}", h.update)
	r.Delete("/clients/{id}", h.delete)
}

func (h *ClientsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	cs, err := h.Clients.ListClients(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *ClientsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	cs, err := h.Clients.ListClientsBySeller(ctx, ActorFrom(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// get is ownership-gated like every single-client access.
func (h *ClientsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	c, err := h.Clients.GetClient(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := orders.Authorize(ActorFrom(r).ID, c.SellerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ClientsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req ClientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.Lastname == "" || req.Company == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	emailTaken, companyTaken, err := h.Clients.EmailOrCompanyTaken(ctx, req.Email, req.Company)
	if err != nil {
		writeError(w, err)
		return
	}
	if emailTaken {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
		return
	}
	if companyTaken {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "company already exists"})
		return
	}

	c := orders.Client{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Lastname:  req.Lastname,
		Company:   req.Company,
		Email:     req.Email,
		Phone:     req.Phone,
		SellerID:  ActorFrom(r).ID, // the creating seller owns the client
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Clients.InsertClient(ctx, c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ClientsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req ClientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	c, err := h.Clients.GetClient(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := orders.Authorize(ActorFrom(r).ID, c.SellerID); err != nil {
		writeError(w, err)
		return
	}

	c.Name, c.Lastname, c.Company, c.Email, c.Phone =
		req.Name, req.Lastname, req.Company, req.Email, req.Phone
	if err := h.Clients.UpdateClient(ctx, c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ClientsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	c, err := h.Clients.GetClient(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := orders.Authorize(ActorFrom(r).ID, c.SellerID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Clients.DeleteClient(ctx, c.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": c.ID})
}
