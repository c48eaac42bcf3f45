package store

import (
	"database/sql"
	"fmt"

	"github.com/mwhite/orbit/internal/model"
)

// SaveSnapshot writes the complete snapshot in one transaction,
// replacing whatever was there. Last writer wins — there is exactly one
// logical writer.
func (db *DB) SaveSnapshot(s *model.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM friends", "DELETE FROM meetings", "DELETE FROM settings"} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	for _, f := range s.Friends {
		var lastMeeting sql.NullInt64
		if f.LastMeeting != nil {
			lastMeeting = sql.NullInt64{Int64: *f.LastMeeting, Valid: true}
		}
		archived := 0
		if f.Archived {
			archived = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO friends (id, name, tier, cadence_days, last_meeting, streak_count,
				multiplier, total_meetings, archived, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, f.ID, f.Name, string(f.Tier), f.CadenceDays, lastMeeting, f.StreakCount,
			f.Multiplier, f.TotalMeetings, archived, f.CreatedAt, f.UpdatedAt); err != nil {
			return fmt.Errorf("insert friend %s: %w", f.ID, err)
		}
	}

	for _, m := range s.Meetings {
		if _, err := tx.Exec(`
			INSERT INTO meetings (id, friend_id, timestamp, note, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, m.ID, m.FriendID, m.Timestamp, m.Note, m.CreatedAt); err != nil {
			return fmt.Errorf("insert meeting %s: %w", m.ID, err)
		}
	}

	onboarding := 0
	if s.Settings.OnboardingComplete {
		onboarding = 1
	}
	if _, err := tx.Exec(`
		INSERT INTO settings (id, theme, onboarding_complete) VALUES (1, ?, ?)
	`, s.Settings.Theme, onboarding); err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LoadSnapshot reads the last saved snapshot, or nil if none was ever
// saved (no settings row means the database is fresh).
func (db *DB) LoadSnapshot() (*model.Snapshot, error) {
	s := &model.Snapshot{Friends: []model.Friend{}, Meetings: []model.Meeting{}}

	var onboarding int
	err := db.QueryRow("SELECT theme, onboarding_complete FROM settings WHERE id = 1").
		Scan(&s.Settings.Theme, &onboarding)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	s.Settings.OnboardingComplete = onboarding != 0

	rows, err := db.Query(`
		SELECT id, name, tier, cadence_days, last_meeting, streak_count,
			multiplier, total_meetings, archived, created_at, updated_at
		FROM friends ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f model.Friend
		var tier string
		var lastMeeting sql.NullInt64
		var archived int
		if err := rows.Scan(&f.ID, &f.Name, &tier, &f.CadenceDays, &lastMeeting,
			&f.StreakCount, &f.Multiplier, &f.TotalMeetings, &archived,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		f.Tier = model.Tier(tier)
		f.Archived = archived != 0
		if lastMeeting.Valid {
			f.LastMeeting = &lastMeeting.Int64
		}
		s.Friends = append(s.Friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := db.Query(`
		SELECT id, friend_id, timestamp, note, created_at
		FROM meetings ORDER BY timestamp
	`)
	if err != nil {
		return nil, fmt.Errorf("load meetings: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var m model.Meeting
		var note sql.NullString
		if err := mrows.Scan(&m.ID, &m.FriendID, &m.Timestamp, &note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		m.Note = note.String
		s.Meetings = append(s.Meetings, m)
	}
	if err := mrows.Err(); err != nil {
		return nil, err
	}

	return s, nil
}
