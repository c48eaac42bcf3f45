package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

// addFriend creates a friend over the API and returns its id.
func addFriend(t *testing.T, srv *Server, name string, cadence int) string {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/friends",
		`{"name":"`+name+`","tier":"close","cadence_days":`+strconv.Itoa(cadence)+`}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add friend: status = %d, body: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp["id"].(string)
}

func TestAddAndListFriends(t *testing.T) {
	srv, _ := testServer(t)

	id := addFriend(t, srv, "Ana", 7)
	if id == "" {
		t.Fatal("expected friend id in response")
	}

	w := doJSON(t, srv, "GET", "/api/friends", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w.Code)
	}
	var resp struct {
		Count   int `json:"count"`
		Friends []struct {
			Name        string `json:"name"`
			Status      string `json:"status"`
			HealthScore int    `json:"health_score"`
		} `json:"friends"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 || resp.Friends[0].Name != "Ana" {
		t.Errorf("list = %+v", resp)
	}
	if resp.Friends[0].Status != "fresh" {
		t.Errorf("status = %s, want fresh", resp.Friends[0].Status)
	}
	if resp.Friends[0].HealthScore != 50 {
		t.Errorf("health = %d, want neutral 50", resp.Friends[0].HealthScore)
	}
}

func TestAddFriendRejections(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "POST", "/api/friends", `{"name":"","cadence_days":7}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name: status = %d, want 400", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/friends", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d, want 400", w.Code)
	}
}

func TestCapacityConflict(t *testing.T) {
	srv, _ := testServer(t)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for _, n := range names {
		addFriend(t, srv, n, 7)
	}

	w := doJSON(t, srv, "POST", "/api/friends", `{"name":"k","cadence_days":7}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("11th friend: status = %d, want %d; body: %s", w.Code, http.StatusConflict, w.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp["error"], "limit") {
		t.Errorf("error = %q, want capacity-specific reason", resp["error"])
	}
}

func TestLogMeetingRoute(t *testing.T) {
	srv, _ := testServer(t)
	id := addFriend(t, srv, "Ana", 7)

	w := doJSON(t, srv, "POST", "/api/friends/"+id+"/meetings", `{"note":"coffee"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("log: status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Friend struct {
			StreakCount   int     `json:"streak_count"`
			Multiplier    float64 `json:"multiplier"`
			TotalMeetings int     `json:"total_meetings"`
		} `json:"friend"`
		Meeting struct {
			Note string `json:"note"`
		} `json:"meeting"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Friend.StreakCount != 1 || resp.Friend.Multiplier != 1.1 || resp.Friend.TotalMeetings != 1 {
		t.Errorf("friend after log = %+v", resp.Friend)
	}
	if resp.Meeting.Note != "coffee" {
		t.Errorf("note = %q", resp.Meeting.Note)
	}

	w = doJSON(t, srv, "GET", "/api/friends/"+id+"/meetings", "")
	var list struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count != 1 {
		t.Errorf("meetings count = %d, want 1", list.Count)
	}
}

func TestLogMeetingUnknownFriendRoute(t *testing.T) {
	srv, _ := testServer(t)
	w := doJSON(t, srv, "POST", "/api/friends/nope/meetings", `{}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteUndoRoutes(t *testing.T) {
	srv, _ := testServer(t)
	id := addFriend(t, srv, "Ana", 7)
	doJSON(t, srv, "POST", "/api/friends/"+id+"/meetings", `{}`)

	w := doJSON(t, srv, "DELETE", "/api/friends/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}

	w = doJSON(t, srv, "GET", "/api/friends/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/undo", "")
	if w.Code != http.StatusOK {
		t.Fatalf("undo: status = %d, body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, "GET", "/api/friends/"+id, "")
	if w.Code != http.StatusOK {
		t.Errorf("get after undo: status = %d, want 200", w.Code)
	}

	// The slot is spent.
	w = doJSON(t, srv, "POST", "/api/undo", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("second undo: status = %d, want 400", w.Code)
	}
}

func TestExportImportRoutes(t *testing.T) {
	srv, _ := testServer(t)
	id := addFriend(t, srv, "Ana", 7)
	doJSON(t, srv, "POST", "/api/friends/"+id+"/meetings", `{"note":"x"}`)

	w := doJSON(t, srv, "GET", "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: status = %d", w.Code)
	}
	backup := w.Body.String()

	// Wipe, then import the backup back.
	doJSON(t, srv, "POST", "/api/reset", "")
	w = doJSON(t, srv, "GET", "/api/friends", "")
	var empty struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &empty)
	if empty.Count != 0 {
		t.Fatalf("friends after reset = %d, want 0", empty.Count)
	}

	w = doJSON(t, srv, "POST", "/api/import", backup)
	if w.Code != http.StatusOK {
		t.Fatalf("import: status = %d, body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, "GET", "/api/friends/"+id, "")
	if w.Code != http.StatusOK {
		t.Errorf("friend missing after import round-trip: %d", w.Code)
	}
}

func TestImportRejectionStatuses(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "POST", "/api/import", `not json at all`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("parse failure: status = %d, want 400", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/import", `{"friends": 5, "meetings": [], "settings": {}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("shape failure: status = %d, want 422", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/import",
		`{"friends": [{"id":"x","cadence_days":3}], "meetings": [], "settings": {}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("record failure: status = %d, want 422", w.Code)
	}
}

func TestSettingsRoutes(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "PUT", "/api/settings", `{"theme":"light","onboarding_complete":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put settings: status = %d", w.Code)
	}

	w = doJSON(t, srv, "GET", "/api/settings", "")
	var resp struct {
		Theme              string `json:"theme"`
		OnboardingComplete bool   `json:"onboarding_complete"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Theme != "light" || !resp.OnboardingComplete {
		t.Errorf("settings = %+v", resp)
	}
}

func TestStatsRoute(t *testing.T) {
	srv, _ := testServer(t)
	id := addFriend(t, srv, "Ana", 7)
	doJSON(t, srv, "POST", "/api/friends/"+id+"/meetings", `{}`)
	addFriend(t, srv, "Ben", 9)

	w := doJSON(t, srv, "GET", "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", w.Code)
	}
	var resp struct {
		ActiveFriends int `json:"active_friends"`
		TotalMeetings int `json:"total_meetings"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ActiveFriends != 2 || resp.TotalMeetings != 1 {
		t.Errorf("stats = %+v", resp)
	}
}
