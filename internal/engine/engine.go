// Package engine owns the live snapshot and every state transition over
// it: friend mutations, the streak machine, health scoring, backup
// import/export and the delete-undo buffer. All reads of "now" go through
// the injectable Clock.
package engine

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mwhite/orbit/internal/cadence"
	"github.com/mwhite/orbit/internal/model"
	"github.com/mwhite/orbit/internal/store"
)

// Engine is the single owner of the in-memory snapshot. Mutations are
// computed into full candidate values and swapped in under the mutex, then
// written through to the store.
type Engine struct {
	mu   sync.Mutex
	db   *store.DB // nil runs memory-only (tests, degraded mode)
	snap *model.Snapshot
	undo *undoEntry

	// persistDown flips on the first failed save; the session continues
	// memory-only from then on. Saves are never retried.
	persistDown bool

	// Clock is the time source for every mutation and derived view.
	Clock func() time.Time
}

type undoEntry struct {
	friend   model.Friend
	meetings []model.Meeting
}

// New loads the last snapshot from the store (or starts empty) and returns
// an engine. A nil db is allowed and means no persistence.
func New(db *store.DB) (*Engine, error) {
	e := &Engine{db: db, Clock: time.Now}
	if db != nil {
		snap, err := db.LoadSnapshot()
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if snap != nil {
			// The stored multiplier is advisory; re-derive so the
			// invariant holds even if the database was written by hand.
			for i := range snap.Friends {
				snap.Friends[i].Multiplier = model.MultiplierFor(snap.Friends[i].StreakCount)
			}
			e.snap = snap
		}
	}
	if e.snap == nil {
		e.snap = model.Empty()
	}
	return e, nil
}

// persist writes the snapshot through to the store. Failures degrade the
// session to memory-only: logged once as a warning, never fatal, no
// rollback of the in-memory state. Callers hold e.mu.
func (e *Engine) persist() {
	if e.db == nil || e.persistDown {
		return
	}
	if err := e.db.SaveSnapshot(e.snap); err != nil {
		log.Printf("warning: save snapshot failed, continuing memory-only: %v", err)
		e.persistDown = true
	}
}

// --- friend mutations ---

// AddFriend creates a friend. Capacity (10 non-archived) is enforced here,
// at creation time only.
func (e *Engine) AddFriend(name string, tier model.Tier, cadenceDays int) (model.Friend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Friend{}, ErrEmptyName
	}
	if !model.ValidTier(tier) {
		return model.Friend{}, fmt.Errorf("%w: %q", ErrBadTier, tier)
	}
	if cadenceDays < 1 {
		return model.Friend{}, ErrBadCadence
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap.ActiveCount() >= model.MaxActiveFriends {
		return model.Friend{}, fmt.Errorf("%w: %d friends already active", ErrCapacity, model.MaxActiveFriends)
	}

	now := e.Clock().UnixMilli()
	f := model.Friend{
		ID:          model.NewID(),
		Name:        name,
		Tier:        tier,
		CadenceDays: cadenceDays,
		Multiplier:  model.MultiplierFor(0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.snap.Friends = append(e.snap.Friends, f)
	e.persist()
	return f, nil
}

// UpdateFriend edits name, tier and cadence. Streak state is untouched.
func (e *Engine) UpdateFriend(id, name string, tier model.Tier, cadenceDays int) (model.Friend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Friend{}, ErrEmptyName
	}
	if !model.ValidTier(tier) {
		return model.Friend{}, fmt.Errorf("%w: %q", ErrBadTier, tier)
	}
	if cadenceDays < 1 {
		return model.Friend{}, ErrBadCadence
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.snap.FriendByID(id)
	if f == nil {
		return model.Friend{}, ErrNotFound
	}
	f.Name = name
	f.Tier = tier
	f.CadenceDays = cadenceDays
	f.UpdatedAt = e.Clock().UnixMilli()
	e.persist()
	return *f, nil
}

// SetArchived soft-deletes or restores a friend. Archived friends drop out
// of every aggregate but keep their history.
func (e *Engine) SetArchived(id string, archived bool) (model.Friend, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.snap.FriendByID(id)
	if f == nil {
		return model.Friend{}, ErrNotFound
	}
	f.Archived = archived
	f.UpdatedAt = e.Clock().UnixMilli()
	e.persist()
	return *f, nil
}

// LogMeeting records a contact event and runs the streak transition. The
// friend update and the meeting append land as one swap.
func (e *Engine) LogMeeting(friendID, note string) (model.Friend, model.Meeting, error) {
	if len(note) > model.MaxNoteLen {
		return model.Friend{}, model.Meeting{}, fmt.Errorf("%w: %d chars (max %d)", ErrNoteTooLong, len(note), model.MaxNoteLen)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.snap.FriendByID(friendID)
	if f == nil {
		return model.Friend{}, model.Meeting{}, ErrNotFound
	}

	now := e.Clock().UnixMilli()
	updated := applyMeeting(*f, now)
	m := model.Meeting{
		ID:        model.NewID(),
		FriendID:  friendID,
		Timestamp: now,
		Note:      note,
		CreatedAt: now,
	}

	*f = updated
	e.snap.Meetings = append(e.snap.Meetings, m)
	e.persist()
	return updated, m, nil
}

// DeleteFriend removes a friend and all of their meetings, parking the
// removed records in the single-slot undo buffer. A later delete
// supersedes whatever the slot held.
func (e *Engine) DeleteFriend(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.snap.FriendByID(id)
	if f == nil {
		return ErrNotFound
	}

	entry := &undoEntry{friend: *f}
	friends := e.snap.Friends[:0]
	for _, fr := range e.snap.Friends {
		if fr.ID != id {
			friends = append(friends, fr)
		}
	}
	meetings := make([]model.Meeting, 0, len(e.snap.Meetings))
	for _, m := range e.snap.Meetings {
		if m.FriendID == id {
			entry.meetings = append(entry.meetings, m)
		} else {
			meetings = append(meetings, m)
		}
	}
	e.snap.Friends = friends
	e.snap.Meetings = meetings
	e.undo = entry
	e.persist()
	return nil
}

// Undo re-inserts the last deleted friend and meetings verbatim — same
// ids, same field values — so streaks and scores continue where they left
// off. The slot is one-shot.
func (e *Engine) Undo() (model.Friend, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.undo == nil {
		return model.Friend{}, ErrNothingToUndo
	}
	entry := e.undo
	e.undo = nil
	e.snap.Friends = append(e.snap.Friends, entry.friend)
	e.snap.Meetings = append(e.snap.Meetings, entry.meetings...)
	e.persist()
	return entry.friend, nil
}

// UndoAvailable reports whether the undo slot is occupied.
func (e *Engine) UndoAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.undo != nil
}

// Reset discards all state and starts from an empty snapshot.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = model.Empty()
	e.undo = nil
	e.persist()
}

// --- settings ---

func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Settings
}

func (e *Engine) SetTheme(theme string) model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Settings.Theme = theme
	e.persist()
	return e.snap.Settings
}

func (e *Engine) CompleteOnboarding() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Settings.OnboardingComplete = true
	e.persist()
	return e.snap.Settings
}

// --- derived reads ---

// FriendView is a friend plus everything derived from the clock: elapsed
// time, days until due, status band and health score. Recomputed from a
// single "now" sample per call, never cached.
type FriendView struct {
	model.Friend
	Elapsed      cadence.Elapsed `json:"elapsed"`
	DaysUntilDue int             `json:"days_until_due"`
	Status       cadence.Status  `json:"status"`
	HealthScore  int             `json:"health_score"`
}

func (e *Engine) view(f model.Friend, now int64) FriendView {
	return FriendView{
		Friend:       f,
		Elapsed:      cadence.ElapsedSince(f.LastMeeting, now),
		DaysUntilDue: cadence.DaysUntilDue(f.LastMeeting, f.CadenceDays, now),
		Status:       cadence.StatusFor(f.LastMeeting, f.CadenceDays, now),
		HealthScore:  HealthScore(f, e.snap.Meetings),
	}
}

// Friends returns derived views, excluding archived friends unless asked.
func (e *Engine) Friends(includeArchived bool) []FriendView {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.Clock().UnixMilli()
	out := make([]FriendView, 0, len(e.snap.Friends))
	for _, f := range e.snap.Friends {
		if f.Archived && !includeArchived {
			continue
		}
		out = append(out, e.view(f, now))
	}
	return out
}

// Friend returns a single derived view.
func (e *Engine) Friend(id string) (FriendView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.snap.FriendByID(id)
	if f == nil {
		return FriendView{}, ErrNotFound
	}
	return e.view(*f, e.Clock().UnixMilli()), nil
}

// Meetings returns a friend's meetings, oldest first.
func (e *Engine) Meetings(friendID string) ([]model.Meeting, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap.FriendByID(friendID) == nil {
		return nil, ErrNotFound
	}
	return e.snap.MeetingsFor(friendID), nil
}

// Stats summarizes the active roster. Archived friends are excluded from
// every aggregate.
type Stats struct {
	ActiveFriends int `json:"active_friends"`
	TotalMeetings int `json:"total_meetings"`
	Overdue       int `json:"overdue"`
	AvgHealth     int `json:"avg_health"`
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.Clock().UnixMilli()

	var s Stats
	var healthSum int
	for _, f := range e.snap.Friends {
		if f.Archived {
			continue
		}
		s.ActiveFriends++
		s.TotalMeetings += f.TotalMeetings
		healthSum += HealthScore(f, e.snap.Meetings)
		if cadence.StatusFor(f.LastMeeting, f.CadenceDays, now) == cadence.StatusOverdue {
			s.Overdue++
		}
	}
	if s.ActiveFriends > 0 {
		s.AvgHealth = healthSum / s.ActiveFriends
	}
	return s
}
