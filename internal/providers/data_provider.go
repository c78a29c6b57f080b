package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skylark/opscommand/internal/constants"
)

// RowStore defines the interface for the external tabular store holding the
// Pilots and Missions worksheets. Implementations never cache: every call
// goes to the backend, and concurrent writers race with last-write-wins.
type RowStore interface {
	// Fetch returns all rows of a worksheet with lower-cased, trimmed column names.
	// Backend failures are returned as errors matching ErrBackendUnavailable.
	Fetch(ctx context.Context, table string) ([]Record, error)

	// UpdateCell overwrites the 1-based column of the first row whose
	// keyColumn equals rowKey. Returns an error matching ErrNotFound when no
	// row matches.
	UpdateCell(ctx context.Context, table, keyColumn, rowKey string, column int, value string) error

	// GetProviderType returns the provider type identifier
	GetProviderType() string
}

// Record is one row keyed by normalized column name
type Record map[string]string

var (
	// ErrBackendUnavailable matches every failure of the backend itself
	ErrBackendUnavailable = errors.New("row store unavailable")
	// ErrNotFound matches UpdateCell calls whose key matched no row
	ErrNotFound = errors.New("row not found")
)

// NormalizeColumn lower-cases and trims a column header
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeRecord rewrites the keys of a raw row with NormalizeColumn
func NormalizeRecord(raw map[string]string) Record {
	rec := make(Record, len(raw))
	for k, v := range raw {
		rec[NormalizeColumn(k)] = v
	}
	return rec
}

// KeyMatches compares a row's key cell with a requested key
func KeyMatches(cell, key string) bool {
	return strings.TrimSpace(cell) == strings.TrimSpace(key)
}

// Layouts maps a worksheet name to its column names in sheet order
type Layouts map[string][]string

// DefaultLayouts returns the fixed Pilots and Missions layouts under the given worksheet names
func DefaultLayouts(pilotsTable, missionsTable string) Layouts {
	return Layouts{
		pilotsTable:   constants.PilotColumns,
		missionsTable: constants.MissionColumns,
	}
}

// Column resolves a 1-based column index to its normalized name
func (l Layouts) Column(table string, column int) (string, error) {
	cols, ok := l[table]
	if !ok {
		return "", &ProviderError{
			Code:    constants.ErrCodeTableNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeTableNotFound),
			Details: table,
		}
	}
	if column < 1 || column > len(cols) {
		return "", &ProviderError{
			Code:    constants.ErrCodeColumnNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeColumnNotFound),
			Details: fmt.Sprintf("%s column %d", table, column),
		}
	}
	return cols[column-1], nil
}

// HasColumn reports whether name is part of the table's layout
func (l Layouts) HasColumn(table, name string) bool {
	for _, c := range l[table] {
		if c == name {
			return true
		}
	}
	return false
}

// ProviderError represents a row-store-specific error
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Details)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets callers branch on ErrNotFound / ErrBackendUnavailable without
// inspecting codes.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == constants.ErrCodeRowNotFound
	case ErrBackendUnavailable:
		return e.Code != constants.ErrCodeRowNotFound
	}
	return false
}

func notFound(table, keyColumn, rowKey string) error {
	return &ProviderError{
		Code:    constants.ErrCodeRowNotFound,
		Message: constants.GetErrorMessage(constants.ErrCodeRowNotFound),
		Details: fmt.Sprintf("%s.%s = %q", table, keyColumn, rowKey),
	}
}

func backendError(code string, err error) error {
	return &ProviderError{
		Code:    code,
		Message: constants.GetErrorMessage(code),
		Err:     err,
	}
}
