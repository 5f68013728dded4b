package database

import (
	"context"
	"database/sql"
	"sync"
)

// The three tables are created lazily, exactly once per process.  Every
// statement is CREATE TABLE IF NOT EXISTS, so racing initializations are
// harmless; the sync.Once only saves the round trips.
//
// No created_at column carries a CURRENT_TIMESTAMP default: that evaluates
// in the server session's time zone, while the window and range queries
// compare against UTC_TIMESTAMP().  The repositories write every timestamp
// explicitly in UTC instead.
var (
	schemaOnce sync.Once
	schemaErr  error
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS codes (
		code_hash  CHAR(64)     NOT NULL,
		expires_at DATETIME     NOT NULL,
		max_uses   INT UNSIGNED NOT NULL,
		uses       INT UNSIGNED NOT NULL DEFAULT 0,
		created_at DATETIME     NOT NULL,
		PRIMARY KEY (code_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS spins (
		id          CHAR(36)     NOT NULL,
		code_hash   CHAR(64)     NOT NULL,
		prize_cents INT UNSIGNED NOT NULL,
		ip_hash     CHAR(64)     NULL,
		created_at  DATETIME     NOT NULL,
		PRIMARY KEY (id),
		KEY idx_spins_created_at (created_at),
		CONSTRAINT fk_spins_code FOREIGN KEY (code_hash) REFERENCES codes (code_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id         CHAR(36) NOT NULL,
		ip_hash    CHAR(64) NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_attempts_ip_created (ip_hash, created_at)
	)`,
}

// EnsureSchema creates the codes, spins and attempts tables if they do not
// exist yet.  The first caller pays for the round trips; subsequent calls
// return the cached result.  A failed first attempt is never retried within
// the process, matching the fail-fast startup path in main.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	schemaOnce.Do(func() {
		for _, stmt := range schemaStatements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				schemaErr = err
				return
			}
		}
	})
	return schemaErr
}
