//go:build e2e
// +build e2e

package e2e

import (
	"fmt"
	"net/http"
	"time"
)

func (s *E2ETestSuite) TestRosterSync_CreatesTeamsAndReviewers() {
	s.host.setTeam("infra", []string{"org/infra", "org/deploy"}, "alice", "bob")
	s.host.setTeam("api", []string{"org/api"}, "carol")

	s.syncRoster()

	var reviewerCount int64
	s.Require().NoError(s.db.Table("reviewers").Count(&reviewerCount).Error)
	s.Equal(int64(3), reviewerCount)

	var team string
	s.Require().NoError(s.db.Table("repo_teams").
		Where("repo = ?", "org/deploy").Pluck("team_name", &team).Error)
	s.Equal("infra", team)
}

func (s *E2ETestSuite) TestRosterSync_DeactivatesRemovedReviewer() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob")
	s.syncRoster()

	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	var active bool
	s.Require().NoError(s.db.Table("reviewers").
		Where("user_id = ?", "bob").Pluck("active", &active).Error)
	s.False(active)
}

func (s *E2ETestSuite) TestFullSync_IngestsAndAssigns() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob")
	s.syncRoster()

	// Unassigned open PR authored by someone outside the team.
	s.host.setPull("org/infra", 1, daysAgo(1), "carol")

	s.fullSync()

	s.Equal("OPEN", s.stateOf("org/infra", 1))
	assignees := s.assigneesOf("org/infra", 1)
	s.Require().Len(assignees, 1)
	s.Contains([]string{"alice", "bob"}, assignees[0])
}

func (s *E2ETestSuite) TestFullSync_NeverAssignsAuthor() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob")
	s.syncRoster()

	s.host.setPull("org/infra", 1, daysAgo(1), "alice")

	s.fullSync()

	s.Equal([]string{"bob"}, s.assigneesOf("org/infra", 1))
}

func (s *E2ETestSuite) TestFullSync_PaginatesPastPageSize() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob", "carol")
	s.syncRoster()

	// PageSize is 2; five PRs force three pages.
	for n := int64(1); n <= 5; n++ {
		s.host.setPull("org/infra", n, daysAgo(1), "dave")
	}

	s.fullSync()

	var count int64
	s.Require().NoError(s.db.Table("pull_requests").
		Where("state = ?", "OPEN").Count(&count).Error)
	s.Equal(int64(5), count)
}

func (s *E2ETestSuite) TestFullSync_ClosesDriftedPullRequest() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	s.host.setPull("org/infra", 1, daysAgo(2), "carol")
	s.host.setPull("org/infra", 2, daysAgo(2), "carol")
	s.fullSync()
	s.Equal("OPEN", s.stateOf("org/infra", 1))

	// PR 1 was merged remotely but the webhook never arrived.
	s.host.removePull("org/infra", 1)
	s.fullSync()

	s.Equal("CLOSED", s.stateOf("org/infra", 1))
	s.Equal("OPEN", s.stateOf("org/infra", 2))
}

func (s *E2ETestSuite) TestDeltaEvent_AppliesAndAssigns() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice", "bob")
	s.syncRoster()

	event := `{
		"repo": "org/infra",
		"number": 7,
		"author_id": "carol",
		"state": "OPEN",
		"created_at": "2025-06-01T10:00:00Z",
		"updated_at": "2025-06-01T10:00:00Z",
		"assignees": []
	}`
	resp, body := s.doRequest(http.MethodPost, "/events", jsonBody(event))
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var result struct {
		Applied bool `json:"applied"`
	}
	mustUnmarshal(s, body, &result)
	s.True(result.Applied)

	s.Len(s.assigneesOf("org/infra", 7), 1)
}

func (s *E2ETestSuite) TestDeltaEvent_StaleDeliveryIsDiscarded() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	closeEvent := `{
		"repo": "org/infra",
		"number": 7,
		"author_id": "carol",
		"state": "CLOSED",
		"created_at": "2025-06-01T10:00:00Z",
		"updated_at": "2025-06-01T12:00:00Z",
		"assignees": []
	}`
	resp, _ := s.doRequest(http.MethodPost, "/events", jsonBody(closeEvent))
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// An older OPEN delivery arrives late; it must not resurrect the PR.
	staleOpen := `{
		"repo": "org/infra",
		"number": 7,
		"author_id": "carol",
		"state": "OPEN",
		"created_at": "2025-06-01T10:00:00Z",
		"updated_at": "2025-06-01T11:00:00Z",
		"assignees": []
	}`
	resp, body := s.doRequest(http.MethodPost, "/events", jsonBody(staleOpen))
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var result struct {
		Applied bool `json:"applied"`
	}
	mustUnmarshal(s, body, &result)
	s.False(result.Applied)
	s.Equal("CLOSED", s.stateOf("org/infra", 7))
}

func (s *E2ETestSuite) TestDeltaEvent_RejectsInvalidPayload() {
	resp, body := s.doRequest(http.MethodPost, "/events", jsonBody(`{
		"repo": "org/infra",
		"number": 0,
		"state": "OPEN",
		"updated_at": "2025-06-01T10:00:00Z"
	}`))
	s.Equal(http.StatusBadRequest, resp.StatusCode, string(body))
}

func (s *E2ETestSuite) TestSyncTrigger_RunsInBackground() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()
	s.host.setPull("org/infra", 1, daysAgo(1), "carol")

	resp, _ := s.doRequest(http.MethodPost, "/sync/trigger", nil)
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)

	s.Require().Eventually(func() bool {
		var count int64
		if err := s.db.Table("pull_requests").Count(&count).Error; err != nil {
			return false
		}
		return count == 1
	}, 10*time.Second, 100*time.Millisecond, "triggered sync never landed")
}

func (s *E2ETestSuite) TestReminderSweep_NotifiesOverdueReview() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	// Assigned 30 days ago, default threshold is 20.
	s.host.setPull("org/infra", 1, daysAgo(30), "carol", "alice")
	s.fullSync()

	s.Require().NoError(s.reminders.Sweep(s.ctx))
	s.Equal(1, s.host.reminderCount())

	// Within the debounce window nothing fires again.
	s.Require().NoError(s.reminders.Sweep(s.ctx))
	s.Equal(1, s.host.reminderCount())
}

func (s *E2ETestSuite) TestReminderSweep_DoesNotMaskNewerRemoteEvents() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	s.host.setPull("org/infra", 1, daysAgo(30), "carol", "alice")
	s.fullSync()

	// The sweep writes reminder bookkeeping; the version watermark must
	// stay where the remote last set it or the close below is dropped.
	s.Require().NoError(s.reminders.Sweep(s.ctx))
	s.Equal(1, s.host.reminderCount())

	closeEvent := fmt.Sprintf(`{
		"repo": "org/infra",
		"number": 1,
		"author_id": "carol",
		"state": "CLOSED",
		"created_at": %q,
		"updated_at": %q,
		"assignees": []
	}`, daysAgo(30).Format(time.RFC3339), daysAgo(29).Format(time.RFC3339))
	resp, body := s.doRequest(http.MethodPost, "/events", jsonBody(closeEvent))
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var result struct {
		Applied bool `json:"applied"`
	}
	mustUnmarshal(s, body, &result)
	s.True(result.Applied)
	s.Equal("CLOSED", s.stateOf("org/infra", 1))
}

func (s *E2ETestSuite) TestCapacity_RespectedAcrossSync() {
	s.host.setTeam("infra", []string{"org/infra"}, "alice")
	s.syncRoster()

	resp, _ := s.doRequest(http.MethodPut, "/reviewers/alice/preferences",
		jsonBody(`{"max_assigned_prs": 1}`))
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.host.setPull("org/infra", 1, daysAgo(1), "carol")
	s.host.setPull("org/infra", 2, daysAgo(1), "carol")
	s.fullSync()

	total := len(s.assigneesOf("org/infra", 1)) + len(s.assigneesOf("org/infra", 2))
	s.Equal(1, total, "only one assignment fits alice's capacity")
}
