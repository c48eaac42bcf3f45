package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "friends: tracked relationships",
		SQL: `
CREATE TABLE friends (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    tier           TEXT NOT NULL CHECK (tier IN ('close', 'casual')),
    cadence_days   INTEGER NOT NULL CHECK (cadence_days >= 1),

    -- Streak state
    last_meeting   INTEGER,
    streak_count   INTEGER NOT NULL DEFAULT 0,
    multiplier     REAL NOT NULL DEFAULT 1.0,
    total_meetings INTEGER NOT NULL DEFAULT 0,

    archived       INTEGER NOT NULL DEFAULT 0,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX idx_friends_archived ON friends(archived);
`,
	},
	{
		Version:     2,
		Description: "meetings: append-only contact events",
		SQL: `
-- No foreign key to friends: imports may carry orphaned meetings, which
-- are tolerated and filtered at read time.
CREATE TABLE meetings (
    id          TEXT PRIMARY KEY,
    friend_id   TEXT NOT NULL,
    timestamp   INTEGER NOT NULL,
    note        TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_meetings_friend    ON meetings(friend_id);
CREATE INDEX idx_meetings_timestamp ON meetings(timestamp);
`,
	},
	{
		Version:     3,
		Description: "settings: single-row app settings",
		SQL: `
CREATE TABLE settings (
    id                  INTEGER PRIMARY KEY CHECK (id = 1),
    theme               TEXT NOT NULL DEFAULT 'dark',
    onboarding_complete INTEGER NOT NULL DEFAULT 0
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
