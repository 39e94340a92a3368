package model

import "errors"

var (
	// ErrPullRequestNotFound indicates that the requested pull request does not exist.
	ErrPullRequestNotFound = errors.New("pull request not found")
	// ErrPullRequestClosed indicates that the pull request is closed and cannot take assignments.
	ErrPullRequestClosed = errors.New("pull request is closed")
	// ErrCapacityExceeded indicates that the reviewer already has the maximum number of assigned PRs.
	ErrCapacityExceeded = errors.New("reviewer capacity exceeded")
	// ErrAlreadyAssigned indicates that the reviewer is already assigned to this pull request.
	ErrAlreadyAssigned = errors.New("reviewer already assigned to this pull request")
	// ErrNotAssigned indicates that the reviewer is not assigned to this pull request.
	ErrNotAssigned = errors.New("reviewer is not assigned to this pull request")
	// ErrInvalidRepo indicates that the update carries an empty repository name.
	ErrInvalidRepo = errors.New("repo must not be empty")
	// ErrInvalidNumber indicates that the update carries a non-positive pull request number.
	ErrInvalidNumber = errors.New("number must be positive")
	// ErrInvalidState indicates that the update carries an unknown state value.
	ErrInvalidState = errors.New("state must be OPEN or CLOSED")
	// ErrMissingWatermark indicates that the update carries no updated_at watermark.
	ErrMissingWatermark = errors.New("updated_at watermark is required")
)
