package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-sales-crm.git/internal/auth"
	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
)

type UsersHandler struct {
	Users  *orders.UserRepo
	Tokens *auth.TokenManager
}

type SignupReq struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResp struct {
	Token string `json:"token"`
}

func (h *UsersHandler) Register(r *chi.Mux) {
	r.Post("/users", h.signup)
	r.Post("/auth/token", h.token)
}

func (h *UsersHandler) RegisterProtected(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *UsersHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.Lastname == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	taken, err := h.Users.EmailTaken(ctx, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if taken {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "user already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	u := orders.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Lastname:     req.Lastname,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Users.InsertUser(ctx, u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, UserResp{
		ID: u.ID, Name: u.Name, Lastname: u.Lastname, Email: u.Email, CreatedAt: u.CreatedAt,
	})
}

func (h *UsersHandler) token(w http.ResponseWriter, r *http.Request) {
	var req TokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	u, err := h.Users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		var nf *orders.NotFoundError
		if errors.As(err, &nf) {
			// same answer as a bad password; no user enumeration
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeError(w, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	tok, err := h.Tokens.Issue(u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResp{Token: tok})
}

func (h *UsersHandler) me(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"id": actor.ID, "name": actor.Name, "lastname": actor.Lastname, "email": actor.Email,
	})
}
