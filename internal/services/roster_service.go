package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/models"
	"skylark/opscommand/internal/providers"
)

// RosterService implements the three pilot operations on top of a RowStore
type RosterService struct {
	store         providers.RowStore
	pilotsTable   string
	missionsTable string
	statusColumn  int
	missionChecks bool
}

// RosterServiceConfig fixes the worksheet names and status column. Mission
// schedule checks run unless SkipMissionChecks is set.
type RosterServiceConfig struct {
	PilotsTable       string
	MissionsTable     string
	StatusColumn      int
	SkipMissionChecks bool
}

// NewRosterService creates a new roster service
func NewRosterService(store providers.RowStore, cfg RosterServiceConfig) *RosterService {
	if cfg.PilotsTable == "" {
		cfg.PilotsTable = constants.TablePilots
	}
	if cfg.MissionsTable == "" {
		cfg.MissionsTable = constants.TableMissions
	}
	if cfg.StatusColumn == 0 {
		cfg.StatusColumn = constants.DefaultStatusColumn
	}
	return &RosterService{
		store:         store,
		pilotsTable:   cfg.PilotsTable,
		missionsTable: cfg.MissionsTable,
		statusColumn:  cfg.StatusColumn,
		missionChecks: !cfg.SkipMissionChecks,
	}
}

// ============================================================================
// Roster lookup
// ============================================================================

// RosterOutcome tags a roster lookup result
type RosterOutcome string

const (
	RosterFound       RosterOutcome = "found"
	RosterNoMatch     RosterOutcome = "no_match"
	RosterEmpty       RosterOutcome = "empty_roster"
	RosterUnavailable RosterOutcome = "unavailable"
)

// RosterQuery holds the optional roster filters
type RosterQuery struct {
	Skill         string
	OnlyAvailable bool
}

// RosterResult is the tagged result of LookupRoster
type RosterResult struct {
	Outcome RosterOutcome
	Query   RosterQuery
	Pilots  []models.Pilot
}

// LookupRoster lists pilots, optionally only Available ones and/or those whose
// skills contain q.Skill (case-insensitive).
func (s *RosterService) LookupRoster(ctx context.Context, q RosterQuery) RosterResult {
	rows, err := s.store.Fetch(ctx, s.pilotsTable)
	if err != nil {
		return RosterResult{Outcome: RosterUnavailable, Query: q}
	}
	if len(rows) == 0 {
		return RosterResult{Outcome: RosterEmpty, Query: q}
	}

	skill := strings.ToLower(strings.TrimSpace(q.Skill))
	var pilots []models.Pilot
	for _, row := range rows {
		p := models.PilotFromRecord(row)
		if q.OnlyAvailable && !models.StatusAvailable.Is(p.Status) {
			continue
		}
		if skill != "" && !strings.Contains(strings.ToLower(p.Skills), skill) {
			continue
		}
		pilots = append(pilots, p.RosterView())
	}

	if len(pilots) == 0 {
		return RosterResult{Outcome: RosterNoMatch, Query: q}
	}
	return RosterResult{Outcome: RosterFound, Query: q, Pilots: pilots}
}

// ============================================================================
// Conflict check
// ============================================================================

// ConflictOutcome tags a conflict verdict
type ConflictOutcome string

const (
	ConflictPilotNotFound  ConflictOutcome = "pilot_not_found"
	ConflictOnLeave        ConflictOutcome = "on_leave"
	ConflictAssigned       ConflictOutcome = "assigned"
	ConflictMissionOverlap ConflictOutcome = "mission_overlap"
	ConflictClear          ConflictOutcome = "clear"
	ConflictInvalidDate    ConflictOutcome = "invalid_date"
	ConflictUnavailable    ConflictOutcome = "unavailable"
)

// ConflictVerdict is the tagged result of CheckConflict
type ConflictVerdict struct {
	Outcome ConflictOutcome
	PilotID string
	Date    string
	Pilot   *models.Pilot
	Mission *models.Mission
	// MissionsChecked is false when no date was given or the Missions
	// worksheet was not consulted (status-only verdict).
	MissionsChecked bool
	// MissionsSkipped says why a dated verdict is status-only
	MissionsSkipped MissionSkipReason
}

// MissionSkipReason tags why the Missions worksheet was not consulted
type MissionSkipReason string

const (
	MissionsDisabled    MissionSkipReason = "disabled"
	MissionsUnavailable MissionSkipReason = "unavailable"
)

// Conflict reports whether the verdict blocks an assignment
func (v ConflictVerdict) Conflict() bool {
	switch v.Outcome {
	case ConflictOnLeave, ConflictAssigned, ConflictMissionOverlap:
		return true
	}
	return false
}

// Message renders the verdict as plain text
func (v ConflictVerdict) Message() string {
	who := v.PilotID
	if v.Pilot != nil && v.Pilot.Name != "" {
		who = fmt.Sprintf("%s (%s)", v.PilotID, v.Pilot.Name)
	}

	switch v.Outcome {
	case ConflictPilotNotFound:
		return fmt.Sprintf("Pilot not found: %s.", v.PilotID)
	case ConflictOnLeave:
		return fmt.Sprintf("CONFLICT: Pilot %s is %s.", who, models.StatusOnLeave)
	case ConflictAssigned:
		assignment := "an unnamed assignment"
		if v.Pilot != nil && v.Pilot.CurrentAssignment != "" {
			assignment = v.Pilot.CurrentAssignment
		}
		return fmt.Sprintf("CONFLICT: Pilot %s is assigned to %s.", who, assignment)
	case ConflictMissionOverlap:
		return fmt.Sprintf("CONFLICT: Pilot %s is scheduled on mission %s (%s to %s), which covers %s.",
			who, v.Mission.MissionID,
			v.Mission.StartDate.Format(constants.DateLayout),
			v.Mission.EndDate.Format(constants.DateLayout),
			v.Date)
	case ConflictInvalidDate:
		return fmt.Sprintf("Date %q is not in YYYY-MM-DD format.", v.Date)
	case ConflictUnavailable:
		return "Pilot data is unavailable right now. Please try again shortly."
	}

	msg := fmt.Sprintf("No conflicts. Pilot %s is free", who)
	if v.Date != "" {
		msg += " on " + v.Date
	}
	msg += "."
	switch v.MissionsSkipped {
	case MissionsDisabled:
		msg += " (Mission schedule checks are turned off; this is a status-only check.)"
	case MissionsUnavailable:
		msg += " (Mission schedule could not be checked; this is a status-only check.)"
	}
	return msg
}

// CheckConflict decides whether a pilot can take work, optionally on a given
// date. Pilots and Missions are read concurrently; a Missions outage degrades
// to the status-only check instead of failing.
func (s *RosterService) CheckConflict(ctx context.Context, pilotID, date string) ConflictVerdict {
	v := ConflictVerdict{PilotID: pilotID, Date: date}

	var day time.Time
	if date != "" {
		parsed, err := time.Parse(constants.DateLayout, date)
		if err != nil {
			v.Outcome = ConflictInvalidDate
			return v
		}
		day = parsed
	}

	checkMissions := s.missionChecks && date != ""
	if date != "" && !s.missionChecks {
		v.MissionsSkipped = MissionsDisabled
	}

	var pilotRows, missionRows []providers.Record
	var missionErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.Fetch(gctx, s.pilotsTable)
		pilotRows = rows
		return err
	})
	if checkMissions {
		g.Go(func() error {
			rows, err := s.store.Fetch(gctx, s.missionsTable)
			missionRows, missionErr = rows, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		v.Outcome = ConflictUnavailable
		return v
	}

	pilot, ok := findPilot(pilotRows, pilotID)
	if !ok {
		v.Outcome = ConflictPilotNotFound
		return v
	}
	v.Pilot = &pilot

	if models.StatusOnLeave.Is(pilot.Status) {
		v.Outcome = ConflictOnLeave
		return v
	}
	if models.StatusAssigned.Is(pilot.Status) {
		v.Outcome = ConflictAssigned
		return v
	}

	if checkMissions && missionErr == nil {
		v.MissionsChecked = true
		if m, found := overlappingMission(missionRows, pilot.PilotID, day); found {
			v.Outcome = ConflictMissionOverlap
			v.Mission = &m
			return v
		}
	} else if checkMissions {
		v.MissionsSkipped = MissionsUnavailable
		logging.Warn("Mission schedule unavailable, falling back to status-only conflict check",
			"pilot_id", pilotID,
			"error", missionErr.Error(),
		)
	}

	v.Outcome = ConflictClear
	return v
}

func overlappingMission(rows []providers.Record, pilotID string, day time.Time) (models.Mission, bool) {
	for _, row := range rows {
		if !providers.KeyMatches(row[constants.ColAssignedPilotID], pilotID) {
			continue
		}
		m, err := models.MissionFromRecord(row)
		if err != nil {
			logging.Warn("Skipping malformed mission row", "error", err.Error())
			continue
		}
		if m.Covers(day) {
			return m, true
		}
	}
	return models.Mission{}, false
}

// ============================================================================
// Status update
// ============================================================================

// UpdateOutcome tags a status update result
type UpdateOutcome string

const (
	UpdateApplied       UpdateOutcome = "updated"
	UpdateNotFound      UpdateOutcome = "not_found"
	UpdateUnavailable   UpdateOutcome = "unavailable"
	UpdateInvalidStatus UpdateOutcome = "invalid_status"
	UpdateForbidden     UpdateOutcome = "forbidden"
)

// UpdateResult is the tagged result of UpdatePilotStatus
type UpdateResult struct {
	Outcome   UpdateOutcome
	PilotID   string
	PilotName string
	Status    string
}

// Message renders the result as plain text
func (r UpdateResult) Message() string {
	switch r.Outcome {
	case UpdateApplied:
		if r.PilotName != "" {
			return fmt.Sprintf("Updated %s (%s) to %s.", r.PilotID, r.PilotName, r.Status)
		}
		return fmt.Sprintf("Updated %s to %s.", r.PilotID, r.Status)
	case UpdateNotFound:
		return fmt.Sprintf("Pilot ID not found: %s.", r.PilotID)
	case UpdateInvalidStatus:
		return fmt.Sprintf("%q is not a valid status. Use one of: %s.", r.Status, strings.Join(models.StatusNames(), ", "))
	case UpdateForbidden:
		return "Your role can view the roster but cannot change pilot status."
	}
	return "Pilot data is unavailable right now, so the status was not changed."
}

// UpdatePilotStatus overwrites the status cell of pilotID. The pilot is looked
// up first so that an unknown id never reaches the write path. Repeating an
// update with the same status succeeds.
func (s *RosterService) UpdatePilotStatus(ctx context.Context, pilotID string, status models.PilotStatus) UpdateResult {
	res := UpdateResult{PilotID: pilotID, Status: status.String()}

	rows, err := s.store.Fetch(ctx, s.pilotsTable)
	if err != nil {
		res.Outcome = UpdateUnavailable
		return res
	}

	pilot, ok := findPilot(rows, pilotID)
	if !ok {
		res.Outcome = UpdateNotFound
		return res
	}
	res.PilotName = pilot.Name

	err = s.store.UpdateCell(ctx, s.pilotsTable, constants.ColPilotID, pilotID, s.statusColumn, status.String())
	switch {
	case err == nil:
		res.Outcome = UpdateApplied
	case errors.Is(err, providers.ErrNotFound):
		// removed between the read and the write
		res.Outcome = UpdateNotFound
	default:
		res.Outcome = UpdateUnavailable
	}
	return res
}

func findPilot(rows []providers.Record, pilotID string) (models.Pilot, bool) {
	for _, row := range rows {
		if providers.KeyMatches(row[constants.ColPilotID], pilotID) {
			return models.PilotFromRecord(row), true
		}
	}
	return models.Pilot{}, false
}
