package api

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	gormlib "gorm.io/gorm"

	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/common"
	"skylark/opscommand/internal/config"
	"skylark/opscommand/internal/db"
	"skylark/opscommand/internal/db/repositories"
	"skylark/opscommand/internal/dispatch"
	"skylark/opscommand/internal/intent"
	"skylark/opscommand/internal/llm"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/metrics"
	gormmodels "skylark/opscommand/internal/models/gorm"
	"skylark/opscommand/internal/providers"
	"skylark/opscommand/internal/services"
	"skylark/opscommand/internal/workers"
)

// AuditLog lists recorded tool calls
type AuditLog interface {
	List(ctx context.Context, sessionID string, limit int) ([]gormmodels.ToolAudit, error)
	CountByOutcome(ctx context.Context, tool string) (map[string]int64, error)
}

// HealthCheck reports whether one backing service is reachable
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Config     *config.Config
	Metrics    *metrics.MetricsRegistry
	Tokens     *auth.TokenService
	Sessions   *common.SessionService
	Roster     *services.RosterService
	Dispatcher *dispatch.Dispatcher
	Audit      AuditLog
	// AuditRetention is set when the audit log is enabled; the server starts it
	AuditRetention *workers.AuditRetentionWorker
	Health         map[string]HealthCheck
	UpSince        time.Time
}

// InitDependencies builds every service from cfg except Tokens, which only
// the HTTP server needs. The returned func closes database and cache connections.
func InitDependencies(ctx context.Context, cfg *config.Config, metricsReg *metrics.MetricsRegistry) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Config:  cfg,
		Metrics: metricsReg,
		Health:  make(map[string]HealthCheck),
		UpSince: time.Now(),
	}

	// Postgres carries the audit log and optionally the roster itself
	var (
		sqlDB *sqlx.DB
		ormDB *gormlib.DB
	)
	if cfg.PostgresEnabled() {
		conn, err := db.InitPostgres(cfg.PostgresDSN())
		if err != nil {
			return nil, cleanup, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		sqlDB = conn

		ormDB, err = db.InitPostgresORM(conn)
		if err != nil {
			return nil, cleanup, fmt.Errorf("gorm: %w", err)
		}
		if err := db.Migrate(ormDB); err != nil {
			return nil, cleanup, fmt.Errorf("migrate: %w", err)
		}
		deps.Health["postgres"] = func(ctx context.Context) error { return conn.PingContext(ctx) }
	}

	store, err := providers.NewFromConfig(ctx, cfg, sqlDB, metricsReg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("row store: %w", err)
	}
	deps.Roster = services.NewRosterService(store, services.RosterServiceConfig{
		PilotsTable:       cfg.RowStore.PilotsTable,
		MissionsTable:     cfg.RowStore.MissionsTable,
		StatusColumn:      cfg.RowStore.StatusColumn,
		SkipMissionChecks: !cfg.RowStore.MissionChecksEnabled,
	})

	var cache common.CacheInterface
	switch cfg.Session.Store {
	case "redis":
		client := common.NewRedisClient(cfg.Redis)
		cache = common.NewRedisCacheService(client)
		deps.Health["redis"] = redisCheck(client)
	default:
		cache = common.NewCacheService(cfg.Session.TTL, 10*time.Minute)
	}
	closers = append(closers, func() { _ = cache.Close() })
	deps.Sessions = common.NewSessionService(cache, cfg.Session.TTL, intent.SystemPrompt)

	model, err := llm.NewFromConfig(ctx, cfg.Model, metricsReg)
	if err != nil {
		if cfg.Intent.Strategy == intent.StrategyStructured {
			return nil, cleanup, fmt.Errorf("model: %w", err)
		}
		logging.Warn("No language model configured; replies use formatted tool results", "error", err.Error())
		model = nil
	}

	resolver, err := intent.New(cfg.Intent.Strategy, model)
	if err != nil {
		return nil, cleanup, err
	}

	opts := []dispatch.Option{dispatch.WithMetrics(metricsReg)}
	if ormDB != nil {
		auditRepo := repositories.NewToolAuditRepo(ormDB)
		opts = append(opts, dispatch.WithAudit(auditRepo))
		deps.Audit = auditRepo
		deps.AuditRetention = workers.NewAuditRetentionWorker(auditRepo, cfg.Audit.Retention)
	}
	deps.Dispatcher = dispatch.NewDispatcher(resolver, model, deps.Roster, opts...)

	logging.Info("Dependencies initialized",
		"row_store", cfg.RowStore.Backend,
		"session_store", cfg.Session.Store,
		"intent_strategy", resolver.Name(),
		"model_provider", cfg.Model.Provider,
		"audit_enabled", deps.Audit != nil,
	)
	return deps, cleanup, nil
}

func redisCheck(client *redis.Client) HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
