package engine

import (
	"encoding/json"
	"fmt"

	"github.com/mwhite/orbit/internal/model"
)

// BackupVersion tags exported bundles so future formats can be told apart.
const BackupVersion = 1

// Backup is the self-describing export bundle. It carries the full
// snapshot plus a format version and export timestamp, and round-trips
// losslessly back through Import.
type Backup struct {
	Version    int             `json:"version"`
	ExportedAt int64           `json:"exported_at"`
	Friends    []model.Friend  `json:"friends"`
	Meetings   []model.Meeting `json:"meetings"`
	Settings   model.Settings  `json:"settings"`
}

// Export serializes the current snapshot as an import-ready bundle.
func (e *Engine) Export() ([]byte, error) {
	e.mu.Lock()
	snap := e.snap.Clone()
	now := e.Clock().UnixMilli()
	e.mu.Unlock()

	b := Backup{
		Version:    BackupVersion,
		ExportedAt: now,
		Friends:    snap.Friends,
		Meetings:   snap.Meetings,
		Settings:   snap.Settings,
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

// Import validates the candidate and, on acceptance, replaces the entire
// live snapshot with it. The onboarding flag is forced on — importing data
// implies the user has already onboarded — and the undo buffer is cleared
// since anything it held belongs to the replaced state. Any rejection
// leaves the live snapshot untouched.
func (e *Engine) Import(data []byte) error {
	snap, err := parseBackup(data)
	if err != nil {
		return err
	}
	snap.Settings.OnboardingComplete = true

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = snap
	e.undo = nil
	e.persist()
	return nil
}
