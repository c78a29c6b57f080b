package models

import (
	"testing"
	"time"
)

func TestParsePilotStatus(t *testing.T) {
	tests := map[string]PilotStatus{
		"Available":  StatusAvailable,
		"on  leave":  StatusOnLeave,
		" ASSIGNED ": StatusAssigned,
		"busy":       StatusBusy,
	}
	for in, want := range tests {
		got, err := ParsePilotStatus(in)
		if err != nil || got != want {
			t.Errorf("ParsePilotStatus(%q) = %q, %v; expected %q", in, got, err, want)
		}
	}

	if _, err := ParsePilotStatus("Sleeping"); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestMissionCoversIsInclusive(t *testing.T) {
	m, err := MissionFromRecord(map[string]string{
		"mission_id": "PRJ1", "assigned_pilot_id": "P1", "start_date": "2025-03-01", "end_date": "2025-03-05",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	day := func(s string) time.Time {
		d, _ := time.Parse("2006-01-02", s)
		return d
	}
	for s, want := range map[string]bool{
		"2025-02-28": false,
		"2025-03-01": true,
		"2025-03-03": true,
		"2025-03-05": true,
		"2025-03-06": false,
	} {
		if got := m.Covers(day(s)); got != want {
			t.Errorf("Covers(%s) = %v, expected %v", s, got, want)
		}
	}

	if _, err := MissionFromRecord(map[string]string{"start_date": "03/01/2025", "end_date": "2025-03-05"}); err == nil {
		t.Error("Expected error for malformed start date")
	}
}

func TestHistoryAppendDoesNotMutate(t *testing.T) {
	h := NewHistory("s1", "system")
	h2 := h.Append(Message{Role: RoleUser, Content: "hi"})

	if len(h.Messages) != 1 {
		t.Errorf("Expected original history to keep 1 message, got %d", len(h.Messages))
	}
	if len(h2.Messages) != 2 || h2.SessionID != "s1" {
		t.Errorf("Unexpected appended history %+v", h2)
	}
}

func TestHistoryVisibleHidesSystemAndToolTraffic(t *testing.T) {
	h := NewHistory("s1", "system").Append(
		Message{Role: RoleUser, Content: "mark P1 on leave"},
		Message{Role: RoleAssistant, Content: `{"tool":"update_pilot_status"}`, Hidden: true},
		Message{Role: RoleUser, Content: "Tool result", Hidden: true},
		Message{Role: RoleAssistant, Content: "Done."},
	)

	visible := h.Visible()
	if len(visible) != 2 {
		t.Fatalf("Expected 2 visible messages, got %d", len(visible))
	}
	if visible[0].Content != "mark P1 on leave" || visible[1].Content != "Done." {
		t.Errorf("Unexpected visible messages %+v", visible)
	}
}

func TestToolInvocation(t *testing.T) {
	if _, err := ParseToolName("drop_tables"); err == nil {
		t.Error("Expected error for unknown tool")
	}

	inv := ToolInvocation{Tool: ToolUpdate, Arguments: ToolArguments{PilotID: "P1"}}
	if got := inv.MissingArguments(); len(got) != 1 || got[0] != "status" {
		t.Errorf("Expected [status], got %v", got)
	}
	if got := inv.JSON(); got != `{"tool":"update_pilot_status","arguments":{"pilot_id":"P1"}}` {
		t.Errorf("Unexpected JSON %s", got)
	}
	if got := (ToolInvocation{Tool: ToolRoster}).MissingArguments(); got != nil {
		t.Errorf("Expected roster to need no arguments, got %v", got)
	}
}
