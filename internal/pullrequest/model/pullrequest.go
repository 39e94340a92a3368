// Package model defines pull request domain entities and errors.
package model

import (
	"time"
)

// Pull request lifecycle states.
const (
	StateOpen   = "OPEN"
	StateClosed = "CLOSED"
)

// PullRequest represents a tracked pull request in the system.
// Matches the pull_requests table schema. UpdatedAt is the
// remote-authoritative version watermark: writes apply only when the
// incoming watermark is strictly newer than the stored one. GORM's
// automatic touch of updated_at is disabled so local bookkeeping
// writes (reminders, assignments, drift closes) never move it.
type PullRequest struct {
	Repo               string     `gorm:"primaryKey;column:repo;type:varchar(255)"                                json:"repo"`
	Number             int64      `gorm:"primaryKey;column:number"                                                json:"number"`
	AuthorID           string     `gorm:"column:author_id;type:varchar(255);not null;default:''"                  json:"author_id"`
	State              string     `gorm:"column:state;type:varchar(16);not null;index:idx_pull_requests_state"    json:"state"`
	CreatedAt          time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"               json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;type:timestamptz;not null;autoUpdateTime:false"        json:"updated_at"`
	ReviewRequestedAt  *time.Time `gorm:"column:review_requested_at;type:timestamptz"                             json:"review_requested_at,omitempty"`
	LastReminderSentAt *time.Time `gorm:"column:last_reminder_sent_at;type:timestamptz"                           json:"last_reminder_sent_at,omitempty"`

	Assignees []Assignee `gorm:"foreignKey:Repo,Number;references:Repo,Number" json:"assignees,omitempty"`
	Labels    []Label    `gorm:"foreignKey:Repo,Number;references:Repo,Number" json:"labels,omitempty"`
}

// TableName specifies the table name for GORM.
func (PullRequest) TableName() string {
	return "pull_requests"
}

// IsOpen reports whether the pull request still holds review capacity.
func (p *PullRequest) IsOpen() bool {
	return p.State == StateOpen
}

// HasAssignee reports whether userID is currently assigned to the pull request.
func (p *PullRequest) HasAssignee(userID string) bool {
	for _, a := range p.Assignees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// Assignee represents a reviewer assignment on a pull request.
// Matches the pull_request_assignees table schema.
type Assignee struct {
	ID         int64     `gorm:"primaryKey;column:id"                                       json:"id"`
	Repo       string    `gorm:"column:repo;type:varchar(255);not null"                     json:"repo"`
	Number     int64     `gorm:"column:number;not null"                                     json:"number"`
	UserID     string    `gorm:"column:user_id;type:varchar(255);not null;index:idx_pr_assignees_user_id" json:"user_id"`
	AssignedAt time.Time `gorm:"column:assigned_at;type:timestamptz;not null;default:now()" json:"assigned_at"`
}

// TableName specifies the table name for GORM.
func (Assignee) TableName() string {
	return "pull_request_assignees"
}

// Label represents a label attached to a pull request.
// Matches the pull_request_labels table schema.
type Label struct {
	ID     int64  `gorm:"primaryKey;column:id"                   json:"id"`
	Repo   string `gorm:"column:repo;type:varchar(255);not null" json:"repo"`
	Number int64  `gorm:"column:number;not null"                 json:"number"`
	Label  string `gorm:"column:label;type:varchar(255);not null" json:"label"`
}

// TableName specifies the table name for GORM.
func (Label) TableName() string {
	return "pull_request_labels"
}
