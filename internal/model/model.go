package model

import (
	"sort"

	"github.com/google/uuid"
)

// Limits enforced by the engine.
const (
	MaxActiveFriends = 10
	MaxNoteLen       = 200
	MaxMultiplier    = 3.0
)

// Tier is the user-chosen relationship tier. Informational only —
// it never enters the scoring math.
type Tier string

const (
	TierClose  Tier = "close"
	TierCasual Tier = "casual"
)

// ValidTier reports whether t is one of the known tiers.
func ValidTier(t Tier) bool {
	return t == TierClose || t == TierCasual
}

// Friend is a tracked relationship. All timestamps are Unix milliseconds.
// LastMeeting is nil until the first meeting is logged.
type Friend struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Tier          Tier    `json:"tier"`
	CadenceDays   int     `json:"cadence_days"`
	LastMeeting   *int64  `json:"last_meeting,omitempty"`
	StreakCount   int     `json:"streak_count"`
	Multiplier    float64 `json:"multiplier"`
	TotalMeetings int     `json:"total_meetings"`
	Archived      bool    `json:"archived"`
	CreatedAt     int64   `json:"created_at"`
	UpdatedAt     int64   `json:"updated_at"`
}

// Meeting is an immutable contact event. Meetings are never mutated once
// created — only deleted with their Friend or bulk-replaced by import.
type Meeting struct {
	ID        string `json:"id"`
	FriendID  string `json:"friend_id"`
	Timestamp int64  `json:"timestamp"`
	Note      string `json:"note,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Settings is process-wide configuration bundled into the snapshot.
// No scoring relevance.
type Settings struct {
	Theme              string `json:"theme"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}

// Snapshot is the complete persisted application state.
type Snapshot struct {
	Friends  []Friend  `json:"friends"`
	Meetings []Meeting `json:"meetings"`
	Settings Settings  `json:"settings"`
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// MultiplierFor derives the multiplier from a streak count. This is the
// single source of the invariant multiplier = min(3.0, 1.0 + 0.1*streak);
// the stored Multiplier field must always be written through it.
func MultiplierFor(streak int) float64 {
	m := 1.0 + 0.1*float64(streak)
	if m > MaxMultiplier {
		return MaxMultiplier
	}
	return m
}

// ActiveCount returns the number of non-archived friends.
func (s *Snapshot) ActiveCount() int {
	n := 0
	for i := range s.Friends {
		if !s.Friends[i].Archived {
			n++
		}
	}
	return n
}

// FriendByID returns a pointer into the snapshot's friend slice, or nil.
func (s *Snapshot) FriendByID(id string) *Friend {
	for i := range s.Friends {
		if s.Friends[i].ID == id {
			return &s.Friends[i]
		}
	}
	return nil
}

// MeetingsFor returns the friend's meetings sorted ascending by timestamp.
// Orphaned meetings (unknown friend id) never show up here, which is how
// the engine tolerates them after an import.
func (s *Snapshot) MeetingsFor(friendID string) []Meeting {
	var out []Meeting
	for _, m := range s.Meetings {
		if m.FriendID == friendID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Clone returns a deep copy of the snapshot. Mutations are computed on a
// clone and swapped in whole, so a mid-computation fault can never leave
// the live snapshot partially updated.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Friends:  make([]Friend, len(s.Friends)),
		Meetings: make([]Meeting, len(s.Meetings)),
		Settings: s.Settings,
	}
	copy(out.Friends, s.Friends)
	copy(out.Meetings, s.Meetings)
	for i := range out.Friends {
		if lm := out.Friends[i].LastMeeting; lm != nil {
			v := *lm
			out.Friends[i].LastMeeting = &v
		}
	}
	return out
}

// Empty returns a fresh snapshot with default settings.
func Empty() *Snapshot {
	return &Snapshot{
		Friends:  []Friend{},
		Meetings: []Meeting{},
		Settings: Settings{Theme: "dark"},
	}
}
