package providers

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"skylark/opscommand/internal/constants"
)

// MemoryStore is an in-process RowStore used for demos and tests
type MemoryStore struct {
	mu          sync.Mutex
	layouts     Layouts
	tables      map[string][]Record
	unavailable map[string]bool
	writes      int
}

// NewMemoryStore creates an empty store for the given layouts
func NewMemoryStore(layouts Layouts) *MemoryStore {
	return &MemoryStore{
		layouts:     layouts,
		tables:      map[string][]Record{},
		unavailable: map[string]bool{},
	}
}

// fixtureFile is the YAML shape accepted by LoadFixture:
//
//	tables:
//	  Pilots:
//	    - pilot_id: P1
//	      name: Arjun
type fixtureFile struct {
	Tables map[string][]map[string]string `yaml:"tables"`
}

// LoadFixture seeds the store from a YAML file
func (m *MemoryStore) LoadFixture(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	var fx fixtureFile
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	for table, rows := range fx.Tables {
		m.Seed(table, rows...)
	}
	return nil
}

// Seed appends rows to a table
func (m *MemoryStore) Seed(table string, rows ...map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.tables[table] = append(m.tables[table], NormalizeRecord(r))
	}
}

// SetUnavailable makes every call on table fail as a backend outage
func (m *MemoryStore) SetUnavailable(table string, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable[table] = down
}

// Writes returns the number of successful UpdateCell calls
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// GetProviderType returns the provider type identifier
func (m *MemoryStore) GetProviderType() string {
	return "memory"
}

// Fetch returns copies of the table's rows
func (m *MemoryStore) Fetch(_ context.Context, table string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable[table] {
		return nil, backendError(constants.ErrCodeNetworkError, fmt.Errorf("table %s is offline", table))
	}

	rows := m.tables[table]
	out := make([]Record, len(rows))
	for i, r := range rows {
		cp := make(Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

// UpdateCell overwrites one cell of the first matching row
func (m *MemoryStore) UpdateCell(_ context.Context, table, keyColumn, rowKey string, column int, value string) error {
	colName, err := m.layouts.Column(table, column)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable[table] {
		return backendError(constants.ErrCodeNetworkError, fmt.Errorf("table %s is offline", table))
	}

	for _, r := range m.tables[table] {
		if KeyMatches(r[keyColumn], rowKey) {
			r[colName] = value
			m.writes++
			return nil
		}
	}
	return notFound(table, keyColumn, rowKey)
}
