package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"skylark/opscommand/internal/common"
	"skylark/opscommand/internal/models"
	"skylark/opscommand/internal/models/dtos"
	"skylark/opscommand/internal/services"
)

// GetRosterHandler handles GET /api/v1/pilots?skill=&available=
func GetRosterHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		onlyAvailable, err := common.ParseBoolParam(r.URL.Query().Get("available"))
		if err != nil {
			common.RespondError(w, initTime, err, "Invalid value for 'available'", http.StatusBadRequest)
			return
		}

		result := deps.Roster.LookupRoster(r.Context(), services.RosterQuery{
			Skill:         strings.TrimSpace(r.URL.Query().Get("skill")),
			OnlyAvailable: onlyAvailable,
		})

		if result.Outcome == services.RosterUnavailable {
			common.RespondError(w, initTime, nil, services.FormatRoster(result), http.StatusServiceUnavailable)
			return
		}

		pilots := result.Pilots
		if pilots == nil {
			pilots = []models.Pilot{}
		}
		common.RespondSuccess(w, initTime, services.FormatRoster(result), dtos.RosterResponse{
			Outcome: string(result.Outcome),
			Pilots:  pilots,
		})
	}
}

// CheckConflictHandler handles GET /api/v1/pilots/{pilotID}/conflicts?date=
func CheckConflictHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		pilotID := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "pilotID")))
		v := deps.Roster.CheckConflict(r.Context(), pilotID, r.URL.Query().Get("date"))

		resp := dtos.ConflictResponse{
			Outcome:  string(v.Outcome),
			PilotID:  v.PilotID,
			Date:     v.Date,
			Conflict: v.Conflict(),
			Message:  v.Message(),
		}
		if v.Mission != nil {
			resp.MissionID = v.Mission.MissionID
		} else if v.Outcome == services.ConflictAssigned && v.Pilot != nil {
			resp.MissionID = v.Pilot.CurrentAssignment
		}

		switch v.Outcome {
		case services.ConflictInvalidDate:
			common.RespondError(w, initTime, nil, resp.Message, http.StatusBadRequest)
		case services.ConflictPilotNotFound:
			common.RespondError(w, initTime, nil, resp.Message, http.StatusNotFound)
		case services.ConflictUnavailable:
			common.RespondError(w, initTime, nil, resp.Message, http.StatusServiceUnavailable)
		default:
			common.RespondSuccess(w, initTime, resp.Message, resp)
		}
	}
}

// UpdateStatusHandler handles PATCH /api/v1/pilots/{pilotID}/status
func UpdateStatusHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		pilotID := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "pilotID")))

		var req dtos.StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}

		var result services.UpdateResult
		status, err := models.ParsePilotStatus(req.Status)
		if err != nil {
			result = services.UpdateResult{Outcome: services.UpdateInvalidStatus, PilotID: pilotID, Status: req.Status}
		} else {
			result = deps.Roster.UpdatePilotStatus(r.Context(), pilotID, status)
		}

		resp := dtos.StatusUpdateResponse{
			Outcome:   string(result.Outcome),
			PilotID:   result.PilotID,
			PilotName: result.PilotName,
			Status:    result.Status,
			Message:   result.Message(),
		}

		switch result.Outcome {
		case services.UpdateApplied:
			common.RespondSuccess(w, initTime, resp.Message, resp)
		case services.UpdateInvalidStatus:
			common.RespondError(w, initTime, nil, resp.Message, http.StatusBadRequest)
		case services.UpdateNotFound:
			common.RespondError(w, initTime, nil, resp.Message, http.StatusNotFound)
		default:
			common.RespondError(w, initTime, nil, resp.Message, http.StatusServiceUnavailable)
		}
	}
}
