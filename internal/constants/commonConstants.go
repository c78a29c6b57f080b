package constants

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixSession CachePrefix = "SESSION_"
)

// Worksheet names in the row store
const (
	TablePilots   = "Pilots"
	TableMissions = "Missions"
)

// Normalized column names of the Pilots worksheet, in sheet order
const (
	ColPilotID           = "pilot_id"
	ColName              = "name"
	ColSkills            = "skills"
	ColCertifications    = "certifications"
	ColLocation          = "location"
	ColStatus            = "status"
	ColCurrentAssignment = "current_assignment"
)

// Normalized column names of the Missions worksheet, in sheet order
const (
	ColMissionID       = "mission_id"
	ColAssignedPilotID = "assigned_pilot_id"
	ColStartDate       = "start_date"
	ColEndDate         = "end_date"
)

// PilotColumns is the fixed layout of the Pilots worksheet
var PilotColumns = []string{
	ColPilotID,
	ColName,
	ColSkills,
	ColCertifications,
	ColLocation,
	ColStatus,
	ColCurrentAssignment,
}

// MissionColumns is the fixed layout of the Missions worksheet
var MissionColumns = []string{
	ColMissionID,
	ColAssignedPilotID,
	ColStartDate,
	ColEndDate,
}

// DefaultStatusColumn is the 1-based index of the status column (column F)
const DefaultStatusColumn = 6

// DateLayout is the only accepted date format (YYYY-MM-DD)
const DateLayout = "2006-01-02"
