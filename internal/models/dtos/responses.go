package dtos

import "skylark/opscommand/internal/models"

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	ExpiresIn string `json:"expires_in"`
}

type ChatReplyResponse struct {
	SessionID  string `json:"session_id"`
	Reply      string `json:"reply"`
	Kind       string `json:"kind"`
	Tool       string `json:"tool,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	ToolResult string `json:"tool_result,omitempty"`
}

type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []models.Message `json:"messages"`
}

type RosterResponse struct {
	Outcome string         `json:"outcome"`
	Pilots  []models.Pilot `json:"pilots"`
}

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Services map[string]ServiceStatus `json:"services"`
	Uptime   string                   `json:"uptime"`
}

type ConflictResponse struct {
	Outcome   string `json:"outcome"`
	PilotID   string `json:"pilot_id"`
	Date      string `json:"date,omitempty"`
	Conflict  bool   `json:"conflict"`
	MissionID string `json:"mission_id,omitempty"`
	Message   string `json:"message"`
}

type StatusUpdateResponse struct {
	Outcome   string `json:"outcome"`
	PilotID   string `json:"pilot_id"`
	PilotName string `json:"pilot_name,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type AuditEntryResponse struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Resolver   string `json:"resolver"`
	Tool       string `json:"tool"`
	Arguments  string `json:"arguments"`
	Outcome    string `json:"outcome"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

type AuditSummaryResponse struct {
	Tool     string           `json:"tool"`
	Outcomes map[string]int64 `json:"outcomes"`
}
