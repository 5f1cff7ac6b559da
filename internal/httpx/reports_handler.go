package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
	"github.com/ariefcatur/go-sales-crm.git/internal/redisx"
)

// ReportsHandler serves the ranking views. Reads go to the Redis cache
// first (kept warm by the reporting worker) and fall back to the DB.
type ReportsHandler struct {
	Reports *orders.ReportRepo
	Redis   *redis.Client
}

const (
	TopClientsLimit = 5
	TopSellersLimit = 3
)

func (h *ReportsHandler) Register(r chi.Router) {
	r.Get("/reports/top-clients", h.topClients)
	r.Get("/reports/top-sellers", h.topSellers)
}

func (h *ReportsHandler) topClients(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	if s, err := h.Redis.Get(ctx, redisx.KeyTopClients).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	tc, err := h.Reports.TopClients(ctx, TopClientsLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if b, err := json.Marshal(tc); err == nil {
		_ = h.Redis.Set(ctx, redisx.KeyTopClients, b, redisx.TTLReportCache).Err()
	}
	writeJSON(w, http.StatusOK, tc)
}

func (h *ReportsHandler) topSellers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	if s, err := h.Redis.Get(ctx, redisx.KeyTopSellers).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	ts, err := h.Reports.TopSellers(ctx, TopSellersLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if b, err := json.Marshal(ts); err == nil {
		_ = h.Redis.Set(ctx, redisx.KeyTopSellers, b, redisx.TTLReportCache).Err()
	}
	writeJSON(w, http.StatusOK, ts)
}
