package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"

	"skylark/opscommand/internal/dispatch"
	"skylark/opscommand/internal/models/gorm"
)

// ToolAuditRepo stores one row per executed tool call
type ToolAuditRepo struct {
	db *gormlib.DB
}

// Ensure ToolAuditRepo can be handed to the dispatcher
var _ dispatch.AuditRecorder = (*ToolAuditRepo)(nil)

// NewToolAuditRepo creates a new tool audit repository
func NewToolAuditRepo(db *gormlib.DB) *ToolAuditRepo {
	return &ToolAuditRepo{db: db}
}

// Create inserts an audit row, assigning an id when missing
func (r *ToolAuditRepo) Create(ctx context.Context, audit *gorm.ToolAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(audit).Error; err != nil {
		return fmt.Errorf("failed to insert tool audit: %w", err)
	}
	return nil
}

// RecordToolCall implements dispatch.AuditRecorder
func (r *ToolAuditRepo) RecordToolCall(ctx context.Context, e dispatch.AuditEntry) error {
	return r.Create(ctx, &gorm.ToolAudit{
		SessionID:  e.SessionID,
		Resolver:   e.Resolver,
		Tool:       string(e.Tool),
		Arguments:  e.Arguments,
		Outcome:    e.Outcome,
		DurationMs: e.Duration.Milliseconds(),
	})
}

// List returns the newest audit rows first. An empty sessionID lists all sessions.
func (r *ToolAuditRepo) List(ctx context.Context, sessionID string, limit int) ([]gorm.ToolAudit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}

	var audits []gorm.ToolAudit
	if err := q.Find(&audits).Error; err != nil {
		return nil, fmt.Errorf("failed to list tool audits: %w", err)
	}
	return audits, nil
}

// CountByOutcome aggregates calls of one tool by outcome
func (r *ToolAuditRepo) CountByOutcome(ctx context.Context, tool string) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&gorm.ToolAudit{}).
		Select("outcome, COUNT(*) AS total").
		Where("tool = ?", tool).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tool audits: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Total
	}
	return counts, nil
}

// DeleteOlderThan removes audit rows created before cutoff
func (r *ToolAuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&gorm.ToolAudit{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune tool audits: %w", res.Error)
	}
	return res.RowsAffected, nil
}
