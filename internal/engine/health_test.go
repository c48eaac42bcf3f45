package engine

import (
	"testing"

	"github.com/mwhite/orbit/internal/model"
)

// meetingsAtGaps builds a meeting series for friendID starting at t0 with
// the given day-gaps between consecutive meetings.
func meetingsAtGaps(friendID string, gaps ...float64) []model.Meeting {
	out := []model.Meeting{{ID: "m0", FriendID: friendID, Timestamp: t0}}
	ts := t0
	for i, g := range gaps {
		ts += days(g)
		out = append(out, model.Meeting{ID: string(rune('a' + i)), FriendID: friendID, Timestamp: ts})
	}
	return out
}

func TestHealthNeutralUnderTwoMeetings(t *testing.T) {
	f := model.Friend{ID: "a", CadenceDays: 7, TotalMeetings: 0, Multiplier: 1.0}
	if got := HealthScore(f, nil); got != 50 {
		t.Errorf("score with no meetings = %d, want 50", got)
	}

	f.TotalMeetings = 1
	m := []model.Meeting{{ID: "m0", FriendID: "a", Timestamp: t0}}
	if got := HealthScore(f, m); got != 50 {
		t.Errorf("score with one meeting = %d, want 50", got)
	}
}

func TestHealthNeutralWhenHistoryMissing(t *testing.T) {
	// TotalMeetings says 3 but only one meeting survives in the list
	// (the rest were orphaned away by an import).
	f := model.Friend{ID: "a", CadenceDays: 7, TotalMeetings: 3, Multiplier: 1.0}
	m := []model.Meeting{{ID: "m0", FriendID: "a", Timestamp: t0}}
	if got := HealthScore(f, m); got != 50 {
		t.Errorf("score = %d, want 50", got)
	}
}

func TestHealthPerfectCadence(t *testing.T) {
	// Five meetings exactly 7 days apart on a 7-day cadence, streak 5.
	// consistency 100, stability 15, gapScore 100, bonus 5:
	// 40 + 4.5 + 20 + 5 = 69.5 -> 70.
	f := model.Friend{ID: "a", CadenceDays: 7, TotalMeetings: 5, StreakCount: 5, Multiplier: 1.5}
	m := meetingsAtGaps("a", 7, 7, 7, 7)
	if got := HealthScore(f, m); got != 70 {
		t.Errorf("score = %d, want 70", got)
	}
}

func TestHealthIgnoresOtherFriends(t *testing.T) {
	f := model.Friend{ID: "a", CadenceDays: 7, TotalMeetings: 5, StreakCount: 5, Multiplier: 1.5}
	m := meetingsAtGaps("a", 7, 7, 7, 7)
	m = append(m, model.Meeting{ID: "x", FriendID: "other", Timestamp: t0 + days(1)})
	if got := HealthScore(f, m); got != 70 {
		t.Errorf("score with interleaved foreign meetings = %d, want 70", got)
	}
}

func TestHealthTrailingWindow(t *testing.T) {
	// Wildly irregular early history followed by 10 evenly spaced
	// meetings. Only the window should count: consistency 100,
	// gapScore 100, no streak, no bonus -> 60.
	f := model.Friend{ID: "a", CadenceDays: 7, TotalMeetings: 14, Multiplier: 1.0}
	m := meetingsAtGaps("a", 1, 40, 2, 60, 7, 7, 7, 7, 7, 7, 7, 7, 7)
	if got := HealthScore(f, m); got != 60 {
		t.Errorf("score = %d, want 60", got)
	}
}

func TestHealthVariancePenalty(t *testing.T) {
	// Gaps alternating 2 and 12 average to 7 but with variance 25:
	// consistency max(0, 100 - 25/7*50) = 0. gapScore stays 100.
	f := model.Friend{ID: "a", CadenceDays: 7, TotalMeetings: 5, Multiplier: 1.0}
	m := meetingsAtGaps("a", 2, 12, 2, 12)
	if got := HealthScore(f, m); got != 20 {
		t.Errorf("score = %d, want 20", got)
	}
}

func TestHealthCadenceDrift(t *testing.T) {
	// Perfectly consistent but at double the declared cadence: gapScore
	// collapses to 0 while consistency stays 100 -> score 40.
	f := model.Friend{ID: "a", CadenceDays: 7, TotalMeetings: 4, Multiplier: 1.0}
	m := meetingsAtGaps("a", 14, 14, 14)
	if got := HealthScore(f, m); got != 40 {
		t.Errorf("score = %d, want 40", got)
	}
}
