package model

import (
	"time"
)

// Update is the normalized update shape applied to the store. Both the
// webhook delta path and the full-sync listing are translated into this
// one structure at the boundary, so the store and the reconciler never
// branch on the originating transport.
type Update struct {
	Repo      string    `json:"repo"`
	Number    int64     `json:"number"`
	AuthorID  string    `json:"author_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Assignees []string  `json:"assignees"`
	Labels    []string  `json:"labels"`
}

// Validate checks the update for structural errors before it is applied.
func (u *Update) Validate() error {
	if u.Repo == "" {
		return ErrInvalidRepo
	}
	if u.Number <= 0 {
		return ErrInvalidNumber
	}
	if u.State != StateOpen && u.State != StateClosed {
		return ErrInvalidState
	}
	if u.UpdatedAt.IsZero() {
		return ErrMissingWatermark
	}
	return nil
}
