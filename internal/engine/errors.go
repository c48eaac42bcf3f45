package engine

import "errors"

// Every failure the engine can surface is one of these sentinels, wrapped
// with detail. Callers branch with errors.Is and show the message as-is.
var (
	// Import pipeline, in rejection order.
	ErrTooLarge  = errors.New("backup file too large")
	ErrParse     = errors.New("could not read backup file")
	ErrBadShape  = errors.New("backup has wrong shape")
	ErrBadRecord = errors.New("backup contains a corrupted record")

	// Friend mutations.
	ErrCapacity   = errors.New("friend limit reached")
	ErrEmptyName  = errors.New("name must not be empty")
	ErrBadTier    = errors.New("unknown relationship tier")
	ErrBadCadence = errors.New("cadence must be at least 1 day")
	ErrNoteTooLong = errors.New("note too long")
	ErrNotFound    = errors.New("friend not found")

	ErrNothingToUndo = errors.New("nothing to undo")
)
