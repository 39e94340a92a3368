//go:build e2e
// +build e2e

package e2e

import (
	"net/http"
)

type preferencesBody struct {
	UserID      string `json:"user_id"`
	Active      bool   `json:"active"`
	Preferences struct {
		MaxAssignedPRs int    `json:"max_assigned_prs"`
		PingAfterDays  int    `json:"ping_after_days"`
		Visibility     string `json:"visibility"`
	} `json:"preferences"`
}

func (s *E2ETestSuite) TestPreferences_DefaultsForRosterReviewer() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	resp, body := s.doRequest(http.MethodGet, "/reviewers/alice/preferences", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var prefs preferencesBody
	mustUnmarshal(s, body, &prefs)
	s.Equal("alice", prefs.UserID)
	s.Equal(5, prefs.Preferences.MaxAssignedPRs)
	s.Equal(20, prefs.Preferences.PingAfterDays)
	s.Equal("public", prefs.Preferences.Visibility)
}

func (s *E2ETestSuite) TestPreferences_WriteThenRead() {
	resp, body := s.doRequest(http.MethodPut, "/reviewers/alice/preferences",
		jsonBody(`{"max_assigned_prs": 2, "ping_after_days": 7}`))
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.doRequest(http.MethodGet, "/reviewers/alice/preferences", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var prefs preferencesBody
	mustUnmarshal(s, body, &prefs)
	s.Equal(2, prefs.Preferences.MaxAssignedPRs)
	s.Equal(7, prefs.Preferences.PingAfterDays)
}

func (s *E2ETestSuite) TestPreferences_WriteDoesNotClobberRoster() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	resp, _ := s.doRequest(http.MethodPut, "/reviewers/alice/preferences",
		jsonBody(`{"ping_after_days": 5}`))
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var teamName string
	s.Require().NoError(s.db.Table("reviewers").
		Where("user_id = ?", "alice").Pluck("team_name", &teamName).Error)
	s.Equal("infra", teamName)
}

func (s *E2ETestSuite) TestPreferences_ValidationErrors() {
	tests := []struct {
		name string
		body string
	}{
		{"negative capacity", `{"max_assigned_prs": -1}`},
		{"zero ping threshold", `{"ping_after_days": 0}`},
		{"unknown visibility", `{"visibility": "secret"}`},
	}

	for _, tt := range tests {
		resp, body := s.doRequest(http.MethodPut, "/reviewers/alice/preferences",
			jsonBody(tt.body))
		s.Equal(http.StatusBadRequest, resp.StatusCode,
			"%s: %s", tt.name, string(body))
	}
}

func (s *E2ETestSuite) TestPreferences_UnknownReviewerIs404() {
	resp, body := s.doRequest(http.MethodGet, "/reviewers/ghost/preferences", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode, string(body))
}

func (s *E2ETestSuite) TestPreferences_TeamVisibilityHidesFromOutsiders() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob")
	s.host.setTeam("api", []string{"org/api"}, "carol")
	s.syncRoster()

	resp, _ := s.doRequest(http.MethodPut, "/reviewers/alice/preferences",
		jsonBody(`{"visibility": "team"}`))
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// A teammate still sees the preferences.
	resp, _ = s.doRequest(http.MethodGet, "/reviewers/alice/preferences?viewer_id=bob", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	// An outsider does not.
	resp, _ = s.doRequest(http.MethodGet, "/reviewers/alice/preferences?viewer_id=carol", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *E2ETestSuite) TestWorkload_ReflectsAssignments() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob")
	s.syncRoster()
	s.host.setPull("org/infra", 1, daysAgo(1), "carol", "alice")
	s.fullSync()

	resp, body := s.doRequest(http.MethodGet, "/workload", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var workload struct {
		Reviewers []struct {
			UserID        string `json:"user_id"`
			AssignedCount int    `json:"assigned_count"`
		} `json:"reviewers"`
		Total int `json:"total"`
	}
	mustUnmarshal(s, body, &workload)
	s.Equal(2, workload.Total)
	for _, r := range workload.Reviewers {
		if r.UserID == "alice" {
			s.Equal(1, r.AssignedCount)
		}
	}
}

func (s *E2ETestSuite) TestWorkqueue_FiltersByReviewer() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob")
	s.syncRoster()
	s.host.setPull("org/infra", 1, daysAgo(1), "carol", "alice")
	s.host.setPull("org/infra", 2, daysAgo(1), "carol", "bob")
	s.fullSync()

	resp, body := s.doRequest(http.MethodGet, "/workqueue?user_id=alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var queue struct {
		PullRequests []struct {
			Number int64 `json:"number"`
		} `json:"pull_requests"`
		Total int `json:"total"`
	}
	mustUnmarshal(s, body, &queue)
	s.Require().Equal(1, queue.Total)
	s.Equal(int64(1), queue.PullRequests[0].Number)
}

func (s *E2ETestSuite) TestHealth() {
	resp, body := s.doRequest(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, resp.StatusCode, string(body))
}
