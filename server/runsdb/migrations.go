package runsdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/logs"

	"github.com/tseten14/cvscan/pkg/dbh"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE run(
			id INTEGER PRIMARY KEY,
			created_at INT NOT NULL,
			lat REAL,
			lng REAL,
			source TEXT NOT NULL,
			state TEXT NOT NULL,
			detector TEXT,
			fallback_used INT NOT NULL DEFAULT 0,
			detection_count INT NOT NULL DEFAULT 0,
			processing_time_ms INT NOT NULL DEFAULT 0,
			error TEXT
		);

		CREATE INDEX idx_run_created_at ON run (created_at);

		CREATE TABLE variable(
			key TEXT PRIMARY KEY,
			value TEXT
		);
		`))

	return migs
}
