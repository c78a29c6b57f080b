package services

import (
	"fmt"
	"strings"

	"skylark/opscommand/internal/models"
)

var statusIcons = map[models.PilotStatus]string{
	models.StatusAvailable: "🟢",
	models.StatusOnLeave:   "🔴",
	models.StatusBusy:      "🟡",
	models.StatusAssigned:  "🔵",
}

// StatusIcon returns the roster icon for a raw status cell
func StatusIcon(raw string) string {
	if st, err := models.ParsePilotStatus(raw); err == nil {
		return statusIcons[st]
	}
	return "⚪"
}

// FormatRoster renders a roster result as markdown
func FormatRoster(r RosterResult) string {
	switch r.Outcome {
	case RosterUnavailable:
		return "Pilot roster is unavailable right now. Please try again shortly."
	case RosterEmpty:
		return "The pilot roster is empty."
	case RosterNoMatch:
		return "No matching pilots found."
	}

	var b strings.Builder
	b.WriteString("### 👨‍✈️ Pilot Roster\n\n")
	b.WriteString("| Pilot | Name | Skills | Location | Status |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, p := range r.Pilots {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s %s |\n",
			cell(p.PilotID), cell(p.Name), cell(p.Skills), cell(p.Location), StatusIcon(p.Status), cell(p.Status))
	}
	return b.String()
}

// FormatToolResult renders any tool result for the transcript
func FormatToolResult(result any) string {
	switch r := result.(type) {
	case RosterResult:
		return FormatRoster(r)
	case ConflictVerdict:
		return "### ⚠️ Conflict Result\n\n" + r.Message()
	case UpdateResult:
		if r.Outcome == UpdateApplied {
			return "### ✅ Status Updated\n\n" + r.Message()
		}
		return r.Message()
	case string:
		return r
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", result)
}

// cell keeps pipes inside values from breaking the table
func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
