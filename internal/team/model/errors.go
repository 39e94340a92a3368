package model

import "errors"

var (
	// ErrTeamNotFound indicates that the requested team does not exist.
	ErrTeamNotFound = errors.New("team not found")
	// ErrRepoNotOwned indicates that no team owns review duty for the repository.
	ErrRepoNotOwned = errors.New("no team owns this repository")
)
