package runsdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"gorm.io/gorm"

	"github.com/tseten14/cvscan/pkg/dbh"
)

// Package runsdb records the history of detection runs, so the dashboard can
// show what was analyzed and how, across restarts. It also stores server
// configuration variables.

type RunsDB struct {
	Log logs.Log
	DB  *gorm.DB
}

func NewRunsDB(logger logs.Log, dbFilename string) (*RunsDB, error) {
	os.MkdirAll(filepath.Dir(dbFilename), 0777)
	runsDB, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbFilename), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open database %v: %w", dbFilename, err)
	}
	return &RunsDB{
		Log: logger,
		DB:  runsDB,
	}, nil
}

// AddRun appends a run record
func (r *RunsDB) AddRun(run *Run) error {
	return r.DB.Create(run).Error
}

// LatestRuns returns the most recent runs, newest first
func (r *RunsDB) LatestRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := []Run{}
	if err := r.DB.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// PurgeOlderThan deletes runs older than the given record count, keeping the
// newest 'keep' records.
func (r *RunsDB) PurgeOlderThan(keep int) error {
	return r.DB.Exec("DELETE FROM run WHERE id NOT IN (SELECT id FROM run ORDER BY id DESC LIMIT ?)", keep).Error
}
