package models

import (
	"fmt"
	"strings"
	"time"

	"skylark/opscommand/internal/constants"
)

// PilotStatus is the availability state of a pilot
type PilotStatus string

const (
	StatusAvailable PilotStatus = "Available"
	StatusOnLeave   PilotStatus = "On Leave"
	StatusAssigned  PilotStatus = "Assigned"
	StatusBusy      PilotStatus = "Busy"
)

// AllStatuses lists the canonical statuses in display order
var AllStatuses = []PilotStatus{StatusAvailable, StatusOnLeave, StatusAssigned, StatusBusy}

func (s PilotStatus) String() string { return string(s) }

// StatusNames returns AllStatuses as strings
func StatusNames() []string {
	names := make([]string, len(AllStatuses))
	for i, st := range AllStatuses {
		names[i] = st.String()
	}
	return names
}

// ParsePilotStatus maps free text onto a canonical status.
// Matching ignores case and collapses inner whitespace, so "on  leave" and
// "ON LEAVE" both resolve to StatusOnLeave.
func ParsePilotStatus(s string) (PilotStatus, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	for _, st := range AllStatuses {
		if strings.ToLower(string(st)) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid pilot status %q", s)
}

// Is compares a raw status cell with a canonical status, ignoring case
func (s PilotStatus) Is(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), string(s))
}

// Pilot is one row of the Pilots worksheet
type Pilot struct {
	PilotID           string `json:"pilot_id"`
	Name              string `json:"name"`
	Skills            string `json:"skills"`
	Certifications    string `json:"certifications,omitempty"`
	Location          string `json:"location"`
	Status            string `json:"status"`
	CurrentAssignment string `json:"current_assignment,omitempty"`
}

// PilotFromRecord builds a Pilot from a key-normalized row
func PilotFromRecord(rec map[string]string) Pilot {
	return Pilot{
		PilotID:           rec[constants.ColPilotID],
		Name:              rec[constants.ColName],
		Skills:            rec[constants.ColSkills],
		Certifications:    rec[constants.ColCertifications],
		Location:          rec[constants.ColLocation],
		Status:            rec[constants.ColStatus],
		CurrentAssignment: rec[constants.ColCurrentAssignment],
	}
}

// RosterView projects the pilot to the columns shown in roster listings
func (p Pilot) RosterView() Pilot {
	return Pilot{
		PilotID:  p.PilotID,
		Name:     p.Name,
		Skills:   p.Skills,
		Location: p.Location,
		Status:   p.Status,
	}
}

// Mission is one row of the Missions worksheet
type Mission struct {
	MissionID       string    `json:"mission_id"`
	AssignedPilotID string    `json:"assigned_pilot_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
}

// MissionFromRecord builds a Mission from a key-normalized row.
// Rows with unparseable dates are rejected.
func MissionFromRecord(rec map[string]string) (Mission, error) {
	start, err := time.Parse(constants.DateLayout, strings.TrimSpace(rec[constants.ColStartDate]))
	if err != nil {
		return Mission{}, fmt.Errorf("mission %q: bad start_date: %w", rec[constants.ColMissionID], err)
	}
	end, err := time.Parse(constants.DateLayout, strings.TrimSpace(rec[constants.ColEndDate]))
	if err != nil {
		return Mission{}, fmt.Errorf("mission %q: bad end_date: %w", rec[constants.ColMissionID], err)
	}
	return Mission{
		MissionID:       rec[constants.ColMissionID],
		AssignedPilotID: rec[constants.ColAssignedPilotID],
		StartDate:       start,
		EndDate:         end,
	}, nil
}

// Covers reports whether day falls inside the mission window, both ends inclusive
func (m Mission) Covers(day time.Time) bool {
	return !day.Before(m.StartDate) && !day.After(m.EndDate)
}
