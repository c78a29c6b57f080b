package api

import (
	"net/http"
	"strconv"
	"time"

	"skylark/opscommand/internal/common"
	"skylark/opscommand/internal/models"
	"skylark/opscommand/internal/models/dtos"
)

// ListAuditHandler handles GET /api/v1/audit?session_id=&limit=
func ListAuditHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if deps.Audit == nil {
			common.RespondError(w, initTime, nil, "Tool audit log is not enabled", http.StatusNotFound)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				common.RespondError(w, initTime, err, "Invalid value for 'limit'", http.StatusBadRequest)
				return
			}
			limit = n
		}

		rows, err := deps.Audit.List(r.Context(), r.URL.Query().Get("session_id"), limit)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to load tool audit log", http.StatusInternalServerError)
			return
		}

		entries := make([]dtos.AuditEntryResponse, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, dtos.AuditEntryResponse{
				ID:         row.ID,
				SessionID:  row.SessionID,
				Resolver:   row.Resolver,
				Tool:       row.Tool,
				Arguments:  row.Arguments,
				Outcome:    row.Outcome,
				DurationMs: row.DurationMs,
				CreatedAt:  row.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		common.RespondSuccess(w, initTime, "Tool audit log fetched", entries)
	}
}

// AuditSummaryHandler handles GET /api/v1/audit/summary?tool=
func AuditSummaryHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if deps.Audit == nil {
			common.RespondError(w, initTime, nil, "Tool audit log is not enabled", http.StatusNotFound)
			return
		}

		tool, err := models.ParseToolName(r.URL.Query().Get("tool"))
		if err != nil {
			common.RespondError(w, initTime, err, err.Error(), http.StatusBadRequest)
			return
		}

		counts, err := deps.Audit.CountByOutcome(r.Context(), string(tool))
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to summarise tool audit log", http.StatusInternalServerError)
			return
		}
		common.RespondSuccess(w, initTime, "Tool audit summary fetched", dtos.AuditSummaryResponse{
			Tool:     string(tool),
			Outcomes: counts,
		})
	}
}
