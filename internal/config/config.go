package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"skylark/opscommand/internal/constants"
)

// Config is the full runtime configuration. Values come from an optional YAML
// file and are then overridden by environment variables.
type Config struct {
	AppEnv     string `yaml:"app_env"`
	ListenAddr string `yaml:"listen_addr"`

	Model    ModelConfig    `yaml:"model"`
	RowStore RowStoreConfig `yaml:"row_store"`
	Intent   IntentConfig   `yaml:"intent"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Limits   LimitsConfig   `yaml:"limits"`
	Audit    AuditConfig    `yaml:"audit"`
}

// ModelConfig selects the language model backend
type ModelConfig struct {
	Provider string        `yaml:"provider"` // groq | openai | gemini
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RowStoreConfig selects and addresses the pilot row store
type RowStoreConfig struct {
	Backend              string `yaml:"backend"` // sheets | airtable | postgres | memory
	SpreadsheetID        string `yaml:"spreadsheet_id"`
	ServiceAccountJSON   string `yaml:"service_account_json"`
	ServiceAccountFile   string `yaml:"service_account_file"`
	AirtableBaseID       string `yaml:"airtable_base_id"`
	AirtableAPIKey       string `yaml:"airtable_api_key"`
	AirtableBaseURL      string `yaml:"airtable_base_url"`
	FixturePath          string `yaml:"fixture_path"`
	StatusColumn         int    `yaml:"status_column"`
	PilotsTable          string `yaml:"pilots_table"`
	MissionsTable        string `yaml:"missions_table"`
	MissionChecksEnabled bool   `yaml:"mission_checks_enabled"`
}

// IntentConfig selects the intent resolution strategy
type IntentConfig struct {
	Strategy string `yaml:"strategy"` // structured | heuristic
}

// SessionConfig controls chat session storage
type SessionConfig struct {
	Store string        `yaml:"store"` // memory | redis
	TTL   time.Duration `yaml:"ttl"`
}

// AuthConfig holds the staff token signing secret
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Disabled  bool          `yaml:"disabled"`
}

// PostgresConfig addresses the audit database (and the postgres row store)
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
}

// RedisConfig addresses the session cache
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LimitsConfig holds per-IP rate limits for the HTTP API
type LimitsConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// AuditConfig controls how long tool audit rows are kept
type AuditConfig struct {
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		AppEnv:     "development",
		ListenAddr: ":8080",
		Model: ModelConfig{
			Provider: "groq",
			Model:    "llama-3.3-70b-versatile",
			Timeout:  60 * time.Second,
		},
		RowStore: RowStoreConfig{
			Backend:              "sheets",
			ServiceAccountFile:   "service_account.json",
			StatusColumn:         constants.DefaultStatusColumn,
			PilotsTable:          constants.TablePilots,
			MissionsTable:        constants.TableMissions,
			MissionChecksEnabled: true,
		},
		Intent:  IntentConfig{Strategy: "structured"},
		Session: SessionConfig{Store: "memory", TTL: 12 * time.Hour},
		Auth:    AuthConfig{TokenTTL: 24 * time.Hour},
		Redis:   RedisConfig{Host: "localhost", Port: "6379"},
		Limits:  LimitsConfig{RequestsPerSecond: 1, Burst: 5},
		Audit:   AuditConfig{Retention: 30 * 24 * time.Hour, PruneInterval: time.Hour},
	}
}

// Load reads the YAML file at path (skipped when path is empty or missing),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// env-only configuration
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.ListenAddr, "LISTEN_ADDR")

	setString(&c.Model.Provider, "MODEL_PROVIDER")
	setString(&c.Model.Model, "MODEL_NAME")
	setString(&c.Model.BaseURL, "MODEL_BASE_URL")
	setString(&c.Model.APIKey, "MODEL_API_KEY")
	// Provider-specific key names win when the generic one is unset
	if c.Model.APIKey == "" {
		switch c.Model.Provider {
		case "groq":
			setString(&c.Model.APIKey, "GROQ_API_KEY")
		case "openai":
			setString(&c.Model.APIKey, "OPENAI_API_KEY")
		case "gemini":
			setString(&c.Model.APIKey, "GEMINI_API_KEY")
		}
	}
	if err := setDuration(&c.Model.Timeout, "MODEL_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.RowStore.Backend, "ROW_STORE")
	setString(&c.RowStore.SpreadsheetID, "SPREADSHEET_ID")
	setString(&c.RowStore.ServiceAccountJSON, "GCP_SERVICE_ACCOUNT")
	setString(&c.RowStore.ServiceAccountFile, "GCP_SERVICE_ACCOUNT_FILE")
	setString(&c.RowStore.AirtableBaseID, "AIRTABLE_BASE_ID")
	setString(&c.RowStore.AirtableAPIKey, "AIRTABLE_API_KEY")
	setString(&c.RowStore.AirtableBaseURL, "AIRTABLE_BASE_URL")
	setString(&c.RowStore.FixturePath, "ROW_STORE_FIXTURE")
	if err := setInt(&c.RowStore.StatusColumn, "ROSTER_STATUS_COLUMN"); err != nil {
		return err
	}
	if err := setBool(&c.RowStore.MissionChecksEnabled, "MISSION_CHECKS_ENABLED"); err != nil {
		return err
	}

	setString(&c.Intent.Strategy, "INTENT_STRATEGY")

	setString(&c.Session.Store, "SESSION_STORE")
	if err := setDuration(&c.Session.TTL, "SESSION_TTL"); err != nil {
		return err
	}

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	if err := setDuration(&c.Auth.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := setBool(&c.Auth.Disabled, "AUTH_DISABLED"); err != nil {
		return err
	}

	setString(&c.Postgres.Host, "PG_HOST")
	setString(&c.Postgres.Port, "PG_PORT")
	setString(&c.Postgres.User, "PG_USER")
	setString(&c.Postgres.Password, "PG_PASSWORD")
	setString(&c.Postgres.DB, "PG_DB")

	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	if err := setDuration(&c.Audit.Retention, "AUDIT_RETENTION"); err != nil {
		return err
	}
	return nil
}

// Validate checks enumerated settings and required secrets
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "groq", "openai", "gemini":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	switch c.RowStore.Backend {
	case "sheets", "airtable", "postgres", "memory":
	default:
		return fmt.Errorf("unknown row store backend %q", c.RowStore.Backend)
	}
	switch c.Intent.Strategy {
	case "structured", "heuristic":
	default:
		return fmt.Errorf("unknown intent strategy %q", c.Intent.Strategy)
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	if c.Audit.Retention <= 0 || c.Audit.PruneInterval <= 0 {
		return fmt.Errorf("audit retention and prune interval must be positive")
	}
	if c.RowStore.StatusColumn < 1 || c.RowStore.StatusColumn > len(constants.PilotColumns) {
		return fmt.Errorf("status column %d outside the Pilots layout (1-%d)",
			c.RowStore.StatusColumn, len(constants.PilotColumns))
	}
	return nil
}

// PostgresEnabled reports whether an audit database is configured
func (c *Config) PostgresEnabled() bool {
	return c.Postgres.Host != "" && c.Postgres.DB != ""
}

// PostgresDSN builds the lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.Postgres.User, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.DB)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
