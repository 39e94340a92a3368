// Package model provides DTOs for the reconcile module.
package model

import (
	"time"

	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
)

// DeltaEvent is a normalized pull request change pushed by the webhook
// layer. Delivery is at-least-once and possibly out of order; the store's
// updated_at watermark absorbs duplicates and stale deliveries.
type DeltaEvent struct {
	// DeliveryID identifies one delivery attempt for log correlation.
	// Generated server-side when the sender omits it.
	DeliveryID string    `json:"delivery_id"`
	Repo       string    `json:"repo"`
	Number     int64     `json:"number"`
	AuthorID   string    `json:"author_id"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Assignees  []string  `json:"assignees"`
	Labels     []string  `json:"labels"`
}

// ToUpdate translates the event into the store's update shape.
func (e *DeltaEvent) ToUpdate() pullrequestModel.Update {
	return pullrequestModel.Update{
		Repo:      e.Repo,
		Number:    e.Number,
		AuthorID:  e.AuthorID,
		State:     e.State,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		Assignees: e.Assignees,
		Labels:    e.Labels,
	}
}

// DeltaResponse reports the outcome of one delta event delivery.
type DeltaResponse struct {
	DeliveryID string `json:"delivery_id"`
	Applied    bool   `json:"applied"`
}
