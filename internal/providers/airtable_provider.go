package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skylark/opscommand/internal/constants"
)

const defaultAirtableBaseURL = "https://api.airtable.com/v0"

// AirtableStore implements RowStore for an Airtable base. Each worksheet is
// an Airtable table in the base.
type AirtableStore struct {
	BaseURL string
	BaseID  string
	APIKey  string
	Client  *http.Client
	layouts Layouts
}

// NewAirtableStore creates a new Airtable row store
func NewAirtableStore(baseURL, baseID, apiKey string, layouts Layouts) *AirtableStore {
	if baseURL == "" {
		baseURL = defaultAirtableBaseURL
	}
	return &AirtableStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		BaseID:  baseID,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		layouts: layouts,
	}
}

// GetProviderType returns the provider type identifier
func (p *AirtableStore) GetProviderType() string {
	return "airtable"
}

// Fetch returns every record of the table, following pagination offsets
func (p *AirtableStore) Fetch(ctx context.Context, table string) ([]Record, error) {
	raw, err := p.listAll(ctx, table)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(raw))
	for i, rec := range raw {
		records[i] = NormalizeRecord(stringifyFields(rec.Fields))
	}
	return records, nil
}

// UpdateCell locates the first record whose key column matches and patches one field
func (p *AirtableStore) UpdateCell(ctx context.Context, table, keyColumn, rowKey string, column int, value string) error {
	colName, err := p.layouts.Column(table, column)
	if err != nil {
		return err
	}

	raw, err := p.listAll(ctx, table)
	if err != nil {
		return err
	}

	// Airtable omits empty fields, so the original field spelling is
	// collected across all records before falling back to the layout name.
	fieldName := colName
	var target *AirtableRecordResponse
	for i := range raw {
		for k := range raw[i].Fields {
			if NormalizeColumn(k) == colName {
				fieldName = k
			}
		}
		if target == nil {
			rec := NormalizeRecord(stringifyFields(raw[i].Fields))
			if KeyMatches(rec[keyColumn], rowKey) {
				target = &raw[i]
			}
		}
	}
	if target == nil {
		return notFound(table, keyColumn, rowKey)
	}

	payload := map[string]interface{}{
		"fields": map[string]interface{}{fieldName: value},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/%s", p.BaseURL, p.BaseID, url.PathEscape(table), target.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.Client.Do(req)
	if err != nil {
		return backendError(constants.ErrCodeNetworkError, err)
	}
	defer resp.Body.Close()

	return p.handleHTTPError(resp)
}

func (p *AirtableStore) listAll(ctx context.Context, table string) ([]AirtableRecordResponse, error) {
	var all []AirtableRecordResponse
	offset := ""
	for {
		page, err := p.listPage(ctx, table, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

func (p *AirtableStore) listPage(ctx context.Context, table, offset string) (*AirtableListResponse, error) {
	payload := map[string]interface{}{}
	if offset != "" {
		payload["offset"] = offset
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/listRecords", p.BaseURL, p.BaseID, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, backendError(constants.ErrCodeNetworkError, err)
	}
	defer resp.Body.Close()

	if err := p.handleHTTPError(resp); err != nil {
		return nil, err
	}

	var list AirtableListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, backendError(constants.ErrCodeInvalidDataFormat, err)
	}
	return &list, nil
}

func (p *AirtableStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// handleHTTPError converts HTTP errors to ProviderError
func (p *AirtableStore) handleHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: constants.GetErrorMessage(constants.ErrCodeInvalidAPIKey),
			Details: string(body),
		}
	case http.StatusNotFound:
		return &ProviderError{
			Code:    constants.ErrCodeTableNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeTableNotFound),
			Details: string(body),
		}
	case http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: string(body),
		}
	default:
		return &ProviderError{
			Code:    constants.ErrCodeBackendFailure,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
			Details: string(body),
		}
	}
}

// stringifyFields flattens Airtable cell values to text. Multi-select and
// linked-record cells arrive as arrays and are joined with ", ".
func stringifyFields(fields map[string]interface{}) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			out[k] = strings.Join(parts, ", ")
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

// Airtable API response structures

type AirtableRecordResponse struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type AirtableListResponse struct {
	Records []AirtableRecordResponse `json:"records"`
	Offset  string                   `json:"offset,omitempty"`
}
