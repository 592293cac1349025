package database

import (
	"database/sql"

	"tango-agenda/core/logger"
)

type dbMigration struct {
	Version int
	Queries []string
}

// Migrate executes all pending schema migrations in order. Applied versions
// are tracked in the migrations table, so running it at every startup is
// safe.
func Migrate(db IDatabase) error {
	sqlxDB := db.SQLx()

	_, err := sqlxDB.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		logger.Error("Database:Migrate: failed to create migrations table", err)
		return err
	}

	for _, mig := range migrations {
		var applied int
		err := sqlxDB.QueryRow(`SELECT version FROM migrations WHERE version = $1`, mig.Version).Scan(&applied)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			logger.Error("Database:Migrate: failed to read migration state", err)
			return err
		}

		logger.Info("Applying database migration", "version", mig.Version)
		for _, query := range mig.Queries {
			if _, err := sqlxDB.Exec(query); err != nil {
				logger.Error("Database:Migrate: migration query failed", err, "version", mig.Version)
				return err
			}
		}
		if _, err := sqlxDB.Exec(`INSERT INTO migrations (version) VALUES ($1)`, mig.Version); err != nil {
			logger.Error("Database:Migrate: failed to record migration", err, "version", mig.Version)
			return err
		}
	}

	return nil
}

var migrations = []dbMigration{
	{
		Version: 1,
		Queries: []string{
			`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
			`CREATE TABLE users (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name VARCHAR(255) NOT NULL DEFAULT '',
				email VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255),
				roles TEXT[] NOT NULL DEFAULT '{member}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE events (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				title VARCHAR(255) NOT NULL,
				link TEXT,
				start_date DATE NOT NULL,
				end_date DATE,
				city VARCHAR(128) NOT NULL DEFAULT '',
				country VARCHAR(128) NOT NULL DEFAULT '',
				categories TEXT[] NOT NULL DEFAULT '{}',
				recurrence VARCHAR(16) NOT NULL DEFAULT 'none',
				excluded_dates JSONB NOT NULL DEFAULT '[]',
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				flyer_url TEXT,
				content_ref VARCHAR(64),
				created_by UUID REFERENCES users(id) ON DELETE SET NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX idx_events_window ON events (start_date, end_date)`,
			`CREATE INDEX idx_events_status ON events (status)`,
			`CREATE TABLE subscriptions (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				slug VARCHAR(128) NOT NULL UNIQUE,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				active BOOLEAN NOT NULL DEFAULT TRUE,
				public BOOLEAN NOT NULL DEFAULT TRUE,
				interval_days INTEGER NOT NULL DEFAULT 7,
				next_run_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE subscribers (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				subscription_id UUID NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, subscription_id)
			)`,
		},
	},
}
