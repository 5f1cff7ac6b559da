package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
)

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain's typed errors onto status codes. The
// insufficient-stock body keeps name/requested/available so clients can
// render a useful message without parsing error text.
func writeError(w http.ResponseWriter, err error) {
	var (
		nf *orders.NotFoundError
		pe *orders.PermissionError
		is *orders.InsufficientStockError
		ve *orders.ValidationError
	)
	switch {
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": nf.Error()})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": pe.Error()})
	case errors.As(err, &is):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      is.Error(),
			"product_id": is.ProductID,
			"name":       is.Name,
			"requested":  is.Requested,
			"available":  is.Available,
		})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
