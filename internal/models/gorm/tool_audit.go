package gorm

import "time"

// ToolAudit records one tool invocation made by the dispatch loop
type ToolAudit struct {
	ID         string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	SessionID  string    `gorm:"column:session_id;type:varchar(64);index;not null"`
	Resolver   string    `gorm:"column:resolver;type:varchar(20);not null"`
	Tool       string    `gorm:"column:tool;type:varchar(50);not null"`
	Arguments  string    `gorm:"column:arguments;type:text"`
	Outcome    string    `gorm:"column:outcome;type:varchar(30);not null"`
	DurationMs int64     `gorm:"column:duration_ms"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ToolAudit) TableName() string {
	return "tool_audit"
}
