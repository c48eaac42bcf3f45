package engine

import (
	"encoding/json"
	"fmt"

	"github.com/mwhite/orbit/internal/model"
)

// maxImportBytes is the ceiling on an import candidate. Anything larger is
// rejected before parsing with a size-specific reason.
const maxImportBytes = 5 << 20

// parseBackup validates raw import bytes and builds the replacement
// snapshot. Rejections happen in a fixed order — size, parse, shape,
// record — each with its own sentinel, and nothing is mutated on the way:
// the caller only sees a fully-built snapshot or an error.
func parseBackup(data []byte) (*model.Snapshot, error) {
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), maxImportBytes)
	}

	var top struct {
		Friends  json.RawMessage `json:"friends"`
		Meetings json.RawMessage `json:"meetings"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var rawFriends []json.RawMessage
	if top.Friends == nil || json.Unmarshal(top.Friends, &rawFriends) != nil {
		return nil, fmt.Errorf("%w: friends is not a sequence", ErrBadShape)
	}
	var rawMeetings []json.RawMessage
	if top.Meetings == nil || json.Unmarshal(top.Meetings, &rawMeetings) != nil {
		return nil, fmt.Errorf("%w: meetings is not a sequence", ErrBadShape)
	}
	var settings model.Settings
	if top.Settings == nil || json.Unmarshal(top.Settings, &settings) != nil {
		return nil, fmt.Errorf("%w: settings is not a record", ErrBadShape)
	}

	snap := &model.Snapshot{
		Friends:  make([]model.Friend, 0, len(rawFriends)),
		Meetings: make([]model.Meeting, 0, len(rawMeetings)),
		Settings: settings,
	}

	for i, raw := range rawFriends {
		f, err := parseFriend(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: friend %d: %v", ErrBadRecord, i, err)
		}
		snap.Friends = append(snap.Friends, f)
	}
	for i, raw := range rawMeetings {
		m, err := parseMeeting(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: meeting %d: %v", ErrBadRecord, i, err)
		}
		snap.Meetings = append(snap.Meetings, m)
	}

	// Referential integrity between meetings and friends is deliberately
	// not checked: orphaned meetings are filtered out wherever meetings
	// are joined to a friend.
	return snap, nil
}

// parseFriend validates one friend record. Id, name and a positive cadence
// are required; everything else defaults. The stored multiplier is
// discarded and re-derived from the streak so the invariant holds no
// matter what the file claims.
func parseFriend(raw json.RawMessage) (model.Friend, error) {
	var lf struct {
		ID            *string  `json:"id"`
		Name          *string  `json:"name"`
		Tier          string   `json:"tier"`
		CadenceDays   *float64 `json:"cadence_days"`
		LastMeeting   *float64 `json:"last_meeting"`
		StreakCount   float64  `json:"streak_count"`
		TotalMeetings float64  `json:"total_meetings"`
		Archived      bool     `json:"archived"`
		CreatedAt     float64  `json:"created_at"`
		UpdatedAt     float64  `json:"updated_at"`
	}
	if err := json.Unmarshal(raw, &lf); err != nil {
		return model.Friend{}, err
	}
	if lf.ID == nil || *lf.ID == "" {
		return model.Friend{}, fmt.Errorf("missing id")
	}
	if lf.Name == nil || *lf.Name == "" {
		return model.Friend{}, fmt.Errorf("missing name")
	}
	if lf.CadenceDays == nil || *lf.CadenceDays < 1 {
		return model.Friend{}, fmt.Errorf("cadence_days must be a positive number")
	}

	tier := model.Tier(lf.Tier)
	if !model.ValidTier(tier) {
		tier = model.TierCasual
	}
	streak := int(lf.StreakCount)
	if streak < 0 {
		streak = 0
	}

	f := model.Friend{
		ID:            *lf.ID,
		Name:          *lf.Name,
		Tier:          tier,
		CadenceDays:   int(*lf.CadenceDays),
		StreakCount:   streak,
		Multiplier:    model.MultiplierFor(streak),
		TotalMeetings: int(lf.TotalMeetings),
		Archived:      lf.Archived,
		CreatedAt:     int64(lf.CreatedAt),
		UpdatedAt:     int64(lf.UpdatedAt),
	}
	if lf.LastMeeting != nil {
		ts := int64(*lf.LastMeeting)
		f.LastMeeting = &ts
	}
	return f, nil
}

func parseMeeting(raw json.RawMessage) (model.Meeting, error) {
	var lm struct {
		ID        *string  `json:"id"`
		FriendID  *string  `json:"friend_id"`
		Timestamp *float64 `json:"timestamp"`
		Note      string   `json:"note"`
		CreatedAt float64  `json:"created_at"`
	}
	if err := json.Unmarshal(raw, &lm); err != nil {
		return model.Meeting{}, err
	}
	if lm.ID == nil || *lm.ID == "" {
		return model.Meeting{}, fmt.Errorf("missing id")
	}
	if lm.FriendID == nil || *lm.FriendID == "" {
		return model.Meeting{}, fmt.Errorf("missing friend_id")
	}
	if lm.Timestamp == nil {
		return model.Meeting{}, fmt.Errorf("missing timestamp")
	}
	return model.Meeting{
		ID:        *lm.ID,
		FriendID:  *lm.FriendID,
		Timestamp: int64(*lm.Timestamp),
		Note:      lm.Note,
		CreatedAt: int64(lm.CreatedAt),
	}, nil
}
