package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReviewer_Resolved(t *testing.T) {
	t.Run("fills defaults when unset", func(t *testing.T) {
		r := Reviewer{UserID: "alice"}

		prefs := r.Resolved()

		assert.Equal(t, DefaultMaxAssignedPRs, prefs.MaxAssignedPRs)
		assert.Equal(t, DefaultPingAfterDays, prefs.PingAfterDays)
		assert.Equal(t, VisibilityPublic, prefs.Visibility)
		assert.Nil(t, prefs.OnLeaveUntil)
	})

	t.Run("explicit values win", func(t *testing.T) {
		capacity := 2
		ping := 7
		until := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		r := Reviewer{
			UserID:         "alice",
			MaxAssignedPRs: &capacity,
			PingAfterDays:  &ping,
			OnLeaveUntil:   &until,
			Visibility:     VisibilityTeam,
		}

		prefs := r.Resolved()

		assert.Equal(t, 2, prefs.MaxAssignedPRs)
		assert.Equal(t, 7, prefs.PingAfterDays)
		assert.Equal(t, VisibilityTeam, prefs.Visibility)
		assert.Equal(t, &until, prefs.OnLeaveUntil)
	})

	t.Run("zero capacity is a valid explicit value", func(t *testing.T) {
		capacity := 0
		r := Reviewer{UserID: "alice", MaxAssignedPRs: &capacity}

		assert.Equal(t, 0, r.Resolved().MaxAssignedPRs)
	})
}

func TestReviewer_OnLeaveAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("no leave set", func(t *testing.T) {
		r := Reviewer{UserID: "alice"}
		assert.False(t, r.OnLeaveAt(now))
	})

	t.Run("on leave until a future date", func(t *testing.T) {
		until := now.Add(24 * time.Hour)
		r := Reviewer{UserID: "alice", OnLeaveUntil: &until}
		assert.True(t, r.OnLeaveAt(now))
	})

	t.Run("leave expired", func(t *testing.T) {
		until := now.Add(-time.Minute)
		r := Reviewer{UserID: "alice", OnLeaveUntil: &until}
		assert.False(t, r.OnLeaveAt(now))
	})

	t.Run("leave ending exactly now is over", func(t *testing.T) {
		until := now
		r := Reviewer{UserID: "alice", OnLeaveUntil: &until}
		assert.False(t, r.OnLeaveAt(now))
	})
}

func TestReviewer_EligibleAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("active and present", func(t *testing.T) {
		r := Reviewer{UserID: "alice", Active: true}
		assert.True(t, r.EligibleAt(now))
	})

	t.Run("inactive", func(t *testing.T) {
		r := Reviewer{UserID: "alice", Active: false}
		assert.False(t, r.EligibleAt(now))
	})

	t.Run("active but on leave", func(t *testing.T) {
		until := now.Add(24 * time.Hour)
		r := Reviewer{UserID: "alice", Active: true, OnLeaveUntil: &until}
		assert.False(t, r.EligibleAt(now))
	})
}
