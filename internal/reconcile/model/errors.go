package model

import "errors"

var (
	// ErrSyncInProgress indicates that a full sync cycle is already running.
	ErrSyncInProgress = errors.New("full sync already in progress")
)
