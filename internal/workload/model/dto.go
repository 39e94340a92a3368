// Package model provides DTOs for the workload module.
package model

import (
	"time"
)

// ReviewerWorkload is one reviewer's current open assignment count
// against their resolved capacity.
type ReviewerWorkload struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	TeamName       string `json:"team_name"`
	AssignedCount  int    `json:"assigned_count"`
	MaxAssignedPRs int    `json:"max_assigned_prs"`
	Active         bool   `json:"active"`
	OnLeave        bool   `json:"on_leave"`
}

// WorkloadSnapshotResponse is the response for the workload endpoint.
type WorkloadSnapshotResponse struct {
	Reviewers []ReviewerWorkload `json:"reviewers"`
	Total     int                `json:"total"`
}

// WorkqueueItem is one open pull request in the workqueue view.
type WorkqueueItem struct {
	Repo              string     `json:"repo"`
	Number            int64      `json:"number"`
	AuthorID          string     `json:"author_id"`
	Assignees         []string   `json:"assignees"`
	Labels            []string   `json:"labels"`
	ReviewRequestedAt *time.Time `json:"review_requested_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// WorkqueueResponse is the response for the workqueue endpoint.
type WorkqueueResponse struct {
	PullRequests []WorkqueueItem `json:"pull_requests"`
	Total        int             `json:"total"`
}
