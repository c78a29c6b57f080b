package providers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"skylark/opscommand/internal/constants"
)

// SQLStore implements RowStore on top of SQL tables mirroring the worksheets.
// Each table has the worksheet's columns plus a row_no column giving sheet order.
type SQLStore struct {
	db      *sqlx.DB
	layouts Layouts
}

// NewSQLStore wraps an open sqlx connection
func NewSQLStore(db *sqlx.DB, layouts Layouts) *SQLStore {
	return &SQLStore{db: db, layouts: layouts}
}

// GetProviderType returns the provider type identifier
func (s *SQLStore) GetProviderType() string {
	return "postgres"
}

// Fetch selects every row in row_no order
func (s *SQLStore) Fetch(ctx context.Context, table string) ([]Record, error) {
	cols, ok := s.layouts[table]
	if !ok {
		return nil, &ProviderError{
			Code:    constants.ErrCodeTableNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeTableNotFound),
			Details: table,
		}
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	query := fmt.Sprintf(constants.SelectAllRows, strings.Join(quoted, ", "), quoteIdent(table))

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, backendError(constants.ErrCodeBackendFailure, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		raw := map[string]interface{}{}
		if err := rows.MapScan(raw); err != nil {
			return nil, backendError(constants.ErrCodeInvalidDataFormat, err)
		}
		rec := make(Record, len(raw))
		for k, v := range raw {
			rec[NormalizeColumn(k)] = sqlValueString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, backendError(constants.ErrCodeBackendFailure, err)
	}
	return records, nil
}

// UpdateCell updates the first row (lowest row_no) whose key column matches
func (s *SQLStore) UpdateCell(ctx context.Context, table, keyColumn, rowKey string, column int, value string) error {
	colName, err := s.layouts.Column(table, column)
	if err != nil {
		return err
	}
	if !s.layouts.HasColumn(table, keyColumn) {
		return &ProviderError{
			Code:    constants.ErrCodeColumnNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeColumnNotFound),
			Details: fmt.Sprintf("%s.%s", table, keyColumn),
		}
	}

	var rowNo int64
	query := s.db.Rebind(fmt.Sprintf(constants.SelectFirstRowNo, quoteIdent(table), quoteIdent(keyColumn)))
	if err := s.db.GetContext(ctx, &rowNo, query, strings.TrimSpace(rowKey)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(table, keyColumn, rowKey)
		}
		return backendError(constants.ErrCodeBackendFailure, err)
	}

	update := s.db.Rebind(fmt.Sprintf(constants.UpdateCellByRowNo, quoteIdent(table), quoteIdent(colName)))
	if _, err := s.db.ExecContext(ctx, update, value, rowNo); err != nil {
		return backendError(constants.ErrCodeBackendFailure, err)
	}
	return nil
}

// quoteIdent double-quotes an identifier. Only layout names reach this.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlValueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
