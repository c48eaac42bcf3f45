package engine

import "github.com/mwhite/orbit/internal/model"

const msPerDay = 86400000

// applyMeeting returns the friend as it stands after logging a meeting at
// now. Pure: the caller swaps the result in as one step, so a reader never
// sees TotalMeetings bumped without the matching streak and multiplier.
//
// The streak rule: a first-ever meeting starts at 1; a meeting within the
// cadence extends the streak; a late meeting resets it to 1, not 0 — the
// act of meeting always counts for at least one.
func applyMeeting(f model.Friend, now int64) model.Friend {
	daysSinceLast := 0
	if f.LastMeeting != nil {
		daysSinceLast = int((now - *f.LastMeeting) / msPerDay)
	}

	switch {
	case f.LastMeeting == nil:
		f.StreakCount = 1
	case daysSinceLast <= f.CadenceDays:
		f.StreakCount++
	default:
		f.StreakCount = 1
	}

	ts := now
	f.LastMeeting = &ts
	f.Multiplier = model.MultiplierFor(f.StreakCount)
	f.TotalMeetings++
	f.UpdatedAt = now
	return f
}
