package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/negoride/platform/internal/infra"
)

// HealthHandler reports service liveness and the postgres dependency.
func HealthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		resp := map[string]string{
			"service":  "negoride-pay",
			"status":   "healthy",
			"postgres": "up",
		}
		if err := infra.HealthCheck(r.Context(), pool); err != nil {
			resp["status"] = "unhealthy"
			resp["postgres"] = "down: " + err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
