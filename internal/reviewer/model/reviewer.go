// Package model provides domain models and DTOs for the reviewer module.
package model

import (
	"time"

	"gorm.io/gorm"
)

// Preference visibility values. Public preferences are readable by anyone;
// team preferences only by members of the same team (and the owner).
const (
	VisibilityPublic = "public"
	VisibilityTeam   = "team"
)

// Defaults applied when a reviewer has no explicit preference set.
const (
	DefaultMaxAssignedPRs = 5
	DefaultPingAfterDays  = 20
)

// Reviewer represents a team member who can be assigned reviews.
// Matches the reviewers table schema. Nil preference columns mean "unset";
// readers resolve them through Resolved().
type Reviewer struct {
	UserID         string     `gorm:"primaryKey;column:user_id;type:varchar(255)"                              json:"user_id"`
	Username       string     `gorm:"column:username;type:varchar(255);not null;default:''"                    json:"username"`
	TeamName       string     `gorm:"column:team_name;type:varchar(255);not null;default:'';index:idx_reviewers_team_name" json:"team_name"`
	Active         bool       `gorm:"column:active;type:boolean;not null;default:true"                         json:"active"`
	OnLeaveUntil   *time.Time `gorm:"column:on_leave_until;type:timestamptz"                                   json:"on_leave_until,omitempty"`
	MaxAssignedPRs *int       `gorm:"column:max_assigned_prs;type:integer"                                     json:"max_assigned_prs,omitempty"`
	PingAfterDays  *int       `gorm:"column:ping_after_days;type:integer"                                      json:"ping_after_days,omitempty"`
	Visibility     string     `gorm:"column:visibility;type:varchar(16);not null;default:'public'"             json:"visibility"`
	LastAssignedAt *time.Time `gorm:"column:last_assigned_at;type:timestamptz"                                 json:"last_assigned_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"                json:"-"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"                json:"-"`
}

// TableName specifies the table name for GORM.
func (Reviewer) TableName() string {
	return "reviewers"
}

// BeforeUpdate updates the UpdatedAt timestamp before saving.
func (r *Reviewer) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = time.Now()
	return nil
}

// Preferences is the resolved view of a reviewer's scheduling preferences.
// All fields carry concrete values; consumers never see "unset".
type Preferences struct {
	MaxAssignedPRs int        `json:"max_assigned_prs"`
	PingAfterDays  int        `json:"ping_after_days"`
	OnLeaveUntil   *time.Time `json:"on_leave_until,omitempty"`
	Visibility     string     `json:"visibility"`
}

// Resolved returns the reviewer's preferences with defaults filled in.
func (r *Reviewer) Resolved() Preferences {
	prefs := Preferences{
		MaxAssignedPRs: DefaultMaxAssignedPRs,
		PingAfterDays:  DefaultPingAfterDays,
		OnLeaveUntil:   r.OnLeaveUntil,
		Visibility:     r.Visibility,
	}
	if r.MaxAssignedPRs != nil {
		prefs.MaxAssignedPRs = *r.MaxAssignedPRs
	}
	if r.PingAfterDays != nil {
		prefs.PingAfterDays = *r.PingAfterDays
	}
	if prefs.Visibility == "" {
		prefs.Visibility = VisibilityPublic
	}
	return prefs
}

// OnLeaveAt reports whether the reviewer is on leave at the given instant.
func (r *Reviewer) OnLeaveAt(now time.Time) bool {
	return r.OnLeaveUntil != nil && now.Before(*r.OnLeaveUntil)
}

// EligibleAt reports whether the reviewer may receive new assignments at
// the given instant, ignoring capacity (which is a derived query).
func (r *Reviewer) EligibleAt(now time.Time) bool {
	return r.Active && !r.OnLeaveAt(now)
}
