package model

import "errors"

var (
	// ErrReviewerNotFound indicates that the requested reviewer does not exist.
	ErrReviewerNotFound = errors.New("reviewer not found")
	// ErrInvalidUserID indicates that the provided user ID is invalid (empty or too long).
	ErrInvalidUserID = errors.New("user_id must be between 1 and 255 characters")
	// ErrInvalidCapacity indicates an out-of-range max_assigned_prs value.
	ErrInvalidCapacity = errors.New("max_assigned_prs must be >= 0")
	// ErrInvalidPingAfter indicates an out-of-range ping_after_days value.
	ErrInvalidPingAfter = errors.New("ping_after_days must be >= 1")
	// ErrInvalidVisibility indicates an unknown visibility value.
	ErrInvalidVisibility = errors.New("visibility must be 'public' or 'team'")
)
