package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"skylark/opscommand/internal/constants"
)

// SheetsStore implements RowStore for a Google Sheets spreadsheet. The first
// row of each worksheet is the header row.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsStore authenticates with a service account. credentialsJSON takes
// precedence; credentialsFile is the local-development fallback.
func NewSheetsStore(ctx context.Context, spreadsheetID string, credentialsJSON []byte, credentialsFile string, extra ...option.ClientOption) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case len(credentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	case credentialsFile != "":
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("service account file %s: %w", credentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, extra...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// GetProviderType returns the provider type identifier
func (s *SheetsStore) GetProviderType() string {
	return "sheets"
}

// Fetch returns all data rows of the worksheet keyed by header
func (s *SheetsStore) Fetch(ctx context.Context, table string) ([]Record, error) {
	header, rows, err := s.values(ctx, table)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToRecord(header, row))
	}
	return records, nil
}

// UpdateCell writes value into the 1-based column of the first matching row
func (s *SheetsStore) UpdateCell(ctx context.Context, table, keyColumn, rowKey string, column int, value string) error {
	if column < 1 {
		return &ProviderError{
			Code:    constants.ErrCodeColumnNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeColumnNotFound),
			Details: fmt.Sprintf("%s column %d", table, column),
		}
	}

	header, rows, err := s.values(ctx, table)
	if err != nil {
		return err
	}

	keyIdx := -1
	for i, h := range header {
		if h == keyColumn {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return &ProviderError{
			Code:    constants.ErrCodeColumnNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeColumnNotFound),
			Details: fmt.Sprintf("%s.%s", table, keyColumn),
		}
	}

	sheetRow := 0
	for i, row := range rows {
		if keyIdx < len(row) && KeyMatches(fmt.Sprintf("%v", row[keyIdx]), rowKey) {
			sheetRow = i + 2 // header is row 1
			break
		}
	}
	if sheetRow == 0 {
		return notFound(table, keyColumn, rowKey)
	}

	rng := fmt.Sprintf("%s!%s%d", quoteSheetName(table), ColumnLetter(column), sheetRow)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return backendError(constants.ErrCodeBackendFailure, err)
	}
	return nil
}

func (s *SheetsStore) values(ctx context.Context, table string) ([]string, [][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheetName(table)).Context(ctx).Do()
	if err != nil {
		return nil, nil, backendError(constants.ErrCodeNetworkError, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}

	header := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		header[i] = NormalizeColumn(fmt.Sprintf("%v", h))
	}
	return header, resp.Values[1:], nil
}

// rowToRecord pads short rows: the API drops trailing empty cells
func rowToRecord(header []string, row []interface{}) Record {
	rec := make(Record, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(row) {
			rec[h] = fmt.Sprintf("%v", row[i])
		} else {
			rec[h] = ""
		}
	}
	return rec
}

// ColumnLetter converts a 1-based column index to A1 letters (1 → A, 27 → AA)
func ColumnLetter(column int) string {
	var b []byte
	for column > 0 {
		column--
		b = append([]byte{byte('A' + column%26)}, b...)
		column /= 26
	}
	return string(b)
}

func quoteSheetName(name string) string {
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
