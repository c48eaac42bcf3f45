package engine

import (
	"math"
	"sort"

	"github.com/mwhite/orbit/internal/model"
)

// neutralScore is returned when there isn't enough history to judge
// consistency (fewer than two meetings).
const neutralScore = 50

// healthWindow caps how much history feeds the score. Older meetings fall
// out of the trailing window and stop influencing it.
const healthWindow = 10

// HealthScore blends gap variance, streak stability, cadence adherence and
// the multiplier bonus into a consistency score on a nominal 0-100 scale.
//
// The result is intentionally not clamped at the top: a maxed multiplier on
// top of perfect consistency can push it past 100. Display layers clamp;
// the engine reports the raw signal.
func HealthScore(f model.Friend, meetings []model.Meeting) int {
	if f.TotalMeetings < 2 {
		return neutralScore
	}

	var own []model.Meeting
	for _, m := range meetings {
		if m.FriendID == f.ID {
			own = append(own, m)
		}
	}
	sort.Slice(own, func(i, j int) bool { return own[i].Timestamp < own[j].Timestamp })
	if len(own) > healthWindow {
		own = own[len(own)-healthWindow:]
	}
	if len(own) < 2 {
		return neutralScore
	}

	gaps := make([]float64, 0, len(own)-1)
	for i := 1; i < len(own); i++ {
		gaps = append(gaps, float64((own[i].Timestamp-own[i-1].Timestamp)/msPerDay))
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	avgGap := sum / float64(len(gaps))

	var variance float64
	for _, g := range gaps {
		d := g - avgGap
		variance += d * d
	}
	variance /= float64(len(gaps))

	consistency := math.Max(0, 100-(variance/math.Max(avgGap, 1))*50)

	streakStability := math.Min(float64(f.StreakCount)*3, 30)

	cadence := float64(f.CadenceDays)
	gapScore := math.Max(0, 100-(math.Abs(avgGap-cadence)/cadence)*100)

	multiplierBonus := (f.Multiplier - 1.0) * 10

	return int(math.Round(consistency*0.4 + streakStability*0.3 + gapScore*0.2 + multiplierBonus))
}
