package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"skylark/opscommand/internal/models/dtos"
)

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		services := make(map[string]dtos.ServiceStatus, len(deps.Health))
		overallStatus := "ok"
		for name, check := range deps.Health {
			status := dtos.ServiceStatus{Status: "ok", Details: "reachable"}
			if err := check(ctx); err != nil {
				status = dtos.ServiceStatus{Status: "down", Details: err.Error()}
				overallStatus = "down"
			}
			services[name] = status
		}

		resp := dtos.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Uptime:   time.Since(deps.UpSince).Round(time.Second).String(),
		}

		code := http.StatusOK
		if overallStatus != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
