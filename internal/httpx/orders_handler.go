package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-sales-crm.git/internal/kafka"
	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
	"github.com/ariefcatur/go-sales-crm.git/internal/redisx"
)

type OrdersHandler struct {
	Manager *orders.Manager
	Repo    *orders.OrderRepo // list reads bypass the lifecycle layer
	Redis   *redis.Client

	PlacedProducer    *kafkax.Producer
	AmendedProducer   *kafkax.Producer
	CancelledProducer *kafkax.Producer
	Service           string
}

type PlaceOrderReq struct {
	ClientID string             `json:"client_id"`
	Lines    []orders.LineInput `json:"lines"`
}

type AmendOrderReq struct {
	ClientID *string             `json:"client_id"`
	Lines    *[]orders.LineInput `json:"lines"` // null = keep current items
	Status   *string             `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Get("/orders/mine", h.listMine)
	r.Get("/orders/status/{status}", h.listByStatus)
	r.Get("/orders/{id}", h.get)
	r.Post("/orders", h.place)
	r.Put("/orders/{id}", h.amend)
	r.Delete("/orders/{id}", h.cancel)
}

func (h *OrdersHandler) place(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ClientID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing client_id"})
		return
	}

	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	o, err := h.Manager.Place(ctx, ActorFrom(r), req.ClientID, req.Lines)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheOrder(ctx, o)
	h.publish(h.PlacedProducer, orders.EventOrderPlaced, o.ID, r,
		orders.OrderPlacedPayload{
			OrderID: o.ID, ClientID: o.ClientID, SellerID: o.SellerID,
			Items: o.Items, TotalCents: o.TotalCents,
		})
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) amend(w http.ResponseWriter, r *http.Request) {
	var req AmendOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	amend := orders.AmendRequest{ClientID: req.ClientID}
	if req.Lines != nil {
		amend.Lines = *req.Lines
		if amend.Lines == nil {
			amend.Lines = []orders.LineInput{} // "lines": null means keep, [] means clear (rejected later)
		}
	}
	if req.Status != nil {
		st, ok := orders.ParseStatus(*req.Status)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown status %q", *req.Status)})
			return
		}
		amend.Status = &st
	}

	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	o, err := h.Manager.Amend(ctx, ActorFrom(r), chi.URLParam(r, "id"), amend)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheOrder(ctx, o)
	h.publish(h.AmendedProducer, orders.EventOrderAmended, o.ID, r,
		orders.OrderAmendedPayload{
			OrderID: o.ID, ClientID: o.ClientID, SellerID: o.SellerID,
			Items: o.Items, TotalCents: o.TotalCents, Status: o.Status,
		})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	o, err := h.Manager.Cancel(ctx, ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrder, o.ID)).Err()
	released := o.Items
	if o.Status != orders.StatusPending {
		released = nil
	}
	h.publish(h.CancelledProducer, orders.EventOrderCancelled, o.ID, r,
		orders.OrderCancelledPayload{
			OrderID: o.ID, SellerID: o.SellerID, Status: o.Status, ReleasedItems: released,
		})
	writeJSON(w, http.StatusOK, map[string]string{"deleted": o.ID})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	// cache first; the cached copy carries seller_id, so the ownership
	// gate still runs before anything is served
	key := fmt.Sprintf(redisx.KeyOrder, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		var o orders.Order
		if json.Unmarshal([]byte(s), &o) == nil {
			if err := orders.Authorize(ActorFrom(r).ID, o.SellerID); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	o, err := h.Manager.Get(ctx, ActorFrom(r), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	os, err := h.Repo.ListOrders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	os, err := h.Repo.ListOrdersBySeller(ctx, ActorFrom(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) listByStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := orders.ParseStatus(chi.URLParam(r, "status"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	os, err := h.Repo.ListOrdersBySellerStatus(ctx, ActorFrom(r).ID, st)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

// cacheOrder is best effort; the DB stays the source of truth.
func (h *OrdersHandler) cacheOrder(ctx context.Context, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrder, o.ID)
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(o), redisx.TTLOrderCache).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType, orderID string, r *http.Request, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
