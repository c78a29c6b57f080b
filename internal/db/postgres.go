package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"skylark/opscommand/internal/logging"
)

// InitPostgres connects to dsn, retrying while the database starts up
func InitPostgres(dsn string) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)

	for i := 0; i < 10; i++ {
		conn, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			logging.Info("Connected to Postgres via sqlx")
			return conn, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, err
}
