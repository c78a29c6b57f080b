package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/common"
	"skylark/opscommand/internal/dispatch"
	"skylark/opscommand/internal/models/dtos"
)

const maxMessageLength = 4000

// CreateSessionHandler handles POST /api/v1/sessions
func CreateSessionHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		h, err := deps.Sessions.CreateSession(r.Context())
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Session created", dtos.SessionResponse{
			SessionID: h.SessionID,
			ExpiresIn: deps.Sessions.TTL().String(),
		}, http.StatusCreated)
	}
}

// PostMessageHandler handles POST /api/v1/sessions/{sessionID}/messages
func PostMessageHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		sessionID := chi.URLParam(r, "sessionID")

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.ChatMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}
		text := strings.TrimSpace(req.Message)
		if text == "" {
			common.RespondError(w, initTime, nil, "Message is required", http.StatusBadRequest)
			return
		}
		if len(text) > maxMessageLength {
			common.RespondError(w, initTime, nil, "Message is too long", http.StatusBadRequest)
			return
		}

		var opts []dispatch.TurnOption
		if !claims.CanWrite() {
			opts = append(opts, dispatch.ReadOnly())
		}

		_, turn, err := deps.Dispatcher.ProcessSessionTurn(r.Context(), deps.Sessions, sessionID, text, opts...)
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Message processed", dtos.ChatReplyResponse{
			SessionID:  sessionID,
			Reply:      turn.Reply,
			Kind:       string(turn.Kind),
			Tool:       string(turn.Tool),
			Outcome:    turn.Outcome,
			ToolResult: turn.ToolResult,
		})
	}
}

// GetHistoryHandler handles GET /api/v1/sessions/{sessionID}/messages
func GetHistoryHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		sessionID := chi.URLParam(r, "sessionID")

		history, err := deps.Sessions.GetSession(r.Context(), sessionID)
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "History fetched", dtos.HistoryResponse{
			SessionID: sessionID,
			Messages:  history.Visible(),
		})
	}
}

// DeleteSessionHandler handles DELETE /api/v1/sessions/{sessionID}
func DeleteSessionHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := deps.Sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Session deleted", nil)
	}
}
