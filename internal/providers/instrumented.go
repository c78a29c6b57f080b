package providers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"skylark/opscommand/internal/config"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/metrics"
)

// InstrumentedStore decorates a RowStore with metrics and failure logging
type InstrumentedStore struct {
	inner   RowStore
	metrics *metrics.MetricsRegistry
}

// NewInstrumentedStore wraps inner; m may be nil
func NewInstrumentedStore(inner RowStore, m *metrics.MetricsRegistry) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: m}
}

// GetProviderType returns the wrapped provider's type
func (s *InstrumentedStore) GetProviderType() string {
	return s.inner.GetProviderType()
}

func (s *InstrumentedStore) Fetch(ctx context.Context, table string) ([]Record, error) {
	start := time.Now()
	rows, err := s.inner.Fetch(ctx, table)
	s.metrics.ObserveRowStoreOp(s.inner.GetProviderType(), "fetch", err, time.Since(start))
	if err != nil {
		logging.Warn("Row store fetch failed",
			"backend", s.inner.GetProviderType(),
			"table", table,
			"error", err.Error(),
		)
	}
	return rows, err
}

func (s *InstrumentedStore) UpdateCell(ctx context.Context, table, keyColumn, rowKey string, column int, value string) error {
	start := time.Now()
	err := s.inner.UpdateCell(ctx, table, keyColumn, rowKey, column, value)
	s.metrics.ObserveRowStoreOp(s.inner.GetProviderType(), "update_cell", err, time.Since(start))
	if err != nil {
		logging.Warn("Row store update failed",
			"backend", s.inner.GetProviderType(),
			"table", table,
			"row_key", rowKey,
			"column", column,
			"error", err.Error(),
		)
	} else {
		logging.Info("Row store cell updated",
			"backend", s.inner.GetProviderType(),
			"table", table,
			"row_key", rowKey,
			"column", column,
		)
	}
	return err
}

// NewFromConfig builds the configured backend. sqlDB is only required for the
// postgres backend.
func NewFromConfig(ctx context.Context, cfg *config.Config, sqlDB *sqlx.DB, m *metrics.MetricsRegistry) (RowStore, error) {
	layouts := DefaultLayouts(cfg.RowStore.PilotsTable, cfg.RowStore.MissionsTable)

	var store RowStore
	switch cfg.RowStore.Backend {
	case "sheets":
		var creds []byte
		if cfg.RowStore.ServiceAccountJSON != "" {
			creds = []byte(cfg.RowStore.ServiceAccountJSON)
		}
		s, err := NewSheetsStore(ctx, cfg.RowStore.SpreadsheetID, creds, cfg.RowStore.ServiceAccountFile)
		if err != nil {
			return nil, err
		}
		store = s
	case "airtable":
		if cfg.RowStore.AirtableBaseID == "" || cfg.RowStore.AirtableAPIKey == "" {
			return nil, fmt.Errorf("airtable backend needs AIRTABLE_BASE_ID and AIRTABLE_API_KEY")
		}
		store = NewAirtableStore(cfg.RowStore.AirtableBaseURL, cfg.RowStore.AirtableBaseID, cfg.RowStore.AirtableAPIKey, layouts)
	case "postgres":
		if sqlDB == nil {
			return nil, fmt.Errorf("postgres backend needs a database connection")
		}
		store = NewSQLStore(sqlDB, layouts)
	case "memory":
		mem := NewMemoryStore(layouts)
		if cfg.RowStore.FixturePath != "" {
			if _, err := os.Stat(cfg.RowStore.FixturePath); err == nil {
				if err := mem.LoadFixture(cfg.RowStore.FixturePath); err != nil {
					return nil, err
				}
			}
		}
		store = mem
	default:
		return nil, fmt.Errorf("unknown row store backend %q", cfg.RowStore.Backend)
	}

	logging.Info("Row store initialized", "backend", store.GetProviderType())
	return NewInstrumentedStore(store, m), nil
}
