package model

import "time"

// UpdatePreferencesRequest represents a preference write from the backoffice.
// Nil fields are left unchanged; explicit values replace the stored ones.
type UpdatePreferencesRequest struct {
	MaxAssignedPRs *int       `json:"max_assigned_prs,omitempty"`
	PingAfterDays  *int       `json:"ping_after_days,omitempty"`
	OnLeaveUntil   *time.Time `json:"on_leave_until,omitempty"`
	ClearLeave     bool       `json:"clear_leave,omitempty"`
	Visibility     *string    `json:"visibility,omitempty"`
}

// PreferencesResponse represents resolved preferences returned to callers.
type PreferencesResponse struct {
	UserID      string      `json:"user_id"`
	Username    string      `json:"username,omitempty"`
	TeamName    string      `json:"team_name,omitempty"`
	Active      bool        `json:"active"`
	Preferences Preferences `json:"preferences"`
}

// ListPreferencesResponse represents the preference listing.
type ListPreferencesResponse struct {
	Reviewers []PreferencesResponse `json:"reviewers"`
	Total     int                   `json:"total"`
}
