package models

import (
	"encoding/json"
	"fmt"
)

// ToolName identifies one of the three supported operations
type ToolName string

const (
	ToolRoster   ToolName = "get_pilot_roster"
	ToolConflict ToolName = "check_conflicts"
	ToolUpdate   ToolName = "update_pilot_status"
)

// ParseToolName accepts only the fixed set of tool names
func ParseToolName(s string) (ToolName, error) {
	switch ToolName(s) {
	case ToolRoster, ToolConflict, ToolUpdate:
		return ToolName(s), nil
	default:
		return "", fmt.Errorf("unknown tool %q", s)
	}
}

// ToolArguments holds the normalized arguments of every tool.
// Only the fields relevant to the invoked tool are set.
type ToolArguments struct {
	Skill         string `json:"skill,omitempty"`
	OnlyAvailable bool   `json:"only_available,omitempty"`
	PilotID       string `json:"pilot_id,omitempty"`
	Date          string `json:"date,omitempty"`
	Status        string `json:"status,omitempty"`
}

// ToolInvocation is a validated request to run one tool
type ToolInvocation struct {
	Tool      ToolName      `json:"tool"`
	Arguments ToolArguments `json:"arguments"`
}

// JSON renders the invocation in the shape the model is asked to emit
func (t ToolInvocation) JSON() string {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Sprintf(`{"tool":%q}`, t.Tool)
	}
	return string(b)
}

// MissingArguments lists required arguments that are empty
func (t ToolInvocation) MissingArguments() []string {
	var missing []string
	switch t.Tool {
	case ToolConflict:
		if t.Arguments.PilotID == "" {
			missing = append(missing, "pilot_id")
		}
	case ToolUpdate:
		if t.Arguments.PilotID == "" {
			missing = append(missing, "pilot_id")
		}
		if t.Arguments.Status == "" {
			missing = append(missing, "status")
		}
	}
	return missing
}
