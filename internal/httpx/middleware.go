package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-sales-crm.git/internal/auth"
	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
)

type ctxKey int

const actorKey ctxKey = 0

// Auth verifies the Bearer token and stores the resulting Actor in the
// request context. Handlers pull it out with ActorFrom and pass it as
// an explicit parameter into the lifecycle layer.
func Auth(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if !strings.HasPrefix(raw, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			actor, err := tm.Verify(strings.TrimPrefix(raw, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func ActorFrom(r *http.Request) orders.Actor {
	actor, _ := r.Context().Value(actorKey).(orders.Actor)
	return actor
}
