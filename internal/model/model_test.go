package model

import "testing"

func TestMultiplierFor(t *testing.T) {
	tests := []struct {
		streak int
		want   float64
	}{
		{0, 1.0},
		{1, 1.1},
		{5, 1.5},
		{19, 2.9},
		{20, 3.0},
		{50, 3.0}, // capped
	}
	for _, tt := range tests {
		got := MultiplierFor(tt.streak)
		if got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("MultiplierFor(%d) = %v, want %v", tt.streak, got, tt.want)
		}
	}
}

func TestActiveCount(t *testing.T) {
	s := Empty()
	s.Friends = []Friend{
		{ID: "a"},
		{ID: "b", Archived: true},
		{ID: "c"},
	}
	if got := s.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
}

func TestMeetingsForSortsAndFilters(t *testing.T) {
	s := Empty()
	s.Meetings = []Meeting{
		{ID: "m3", FriendID: "a", Timestamp: 300},
		{ID: "m1", FriendID: "a", Timestamp: 100},
		{ID: "mx", FriendID: "b", Timestamp: 200},
		{ID: "m2", FriendID: "a", Timestamp: 200},
	}
	got := s.MeetingsFor("a")
	if len(got) != 3 {
		t.Fatalf("got %d meetings, want 3", len(got))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if got[i].ID != want {
			t.Errorf("meeting %d = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	ts := int64(12345)
	s := Empty()
	s.Friends = []Friend{{ID: "a", Name: "Ana", LastMeeting: &ts}}
	s.Meetings = []Meeting{{ID: "m1", FriendID: "a"}}

	c := s.Clone()
	c.Friends[0].Name = "changed"
	*c.Friends[0].LastMeeting = 99999
	c.Meetings[0].FriendID = "b"

	if s.Friends[0].Name != "Ana" {
		t.Error("clone shares friend values with original")
	}
	if *s.Friends[0].LastMeeting != 12345 {
		t.Error("clone shares LastMeeting pointer with original")
	}
	if s.Meetings[0].FriendID != "a" {
		t.Error("clone shares meeting values with original")
	}
}
