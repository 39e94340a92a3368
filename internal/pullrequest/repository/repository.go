// Package repository provides data access layer for the pull request store.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
)

// Repository defines the interface for pull request state operations.
// All mutation of pull request records goes through this contract.
type Repository interface {
	// Upsert applies the update if its updated_at watermark is strictly
	// newer than the stored one (or the record is absent). Returns whether
	// the write took effect. Stale and duplicate updates are absorbed.
	Upsert(ctx context.Context, upd *pullrequestModel.Update) (bool, error)

	// GetByID finds a pull request by its composite identity.
	GetByID(ctx context.Context, repo string, number int64) (*pullrequestModel.PullRequest, error)

	// GetOpen returns a snapshot of all currently open pull requests
	// with assignees and labels loaded.
	GetOpen(ctx context.Context) ([]pullrequestModel.PullRequest, error)

	// GetOpenUnassigned returns open pull requests with no assignees.
	GetOpenUnassigned(ctx context.Context) ([]pullrequestModel.PullRequest, error)

	// GetOpenAssignedTo returns open pull requests assigned to the given reviewer.
	GetOpenAssignedTo(ctx context.Context, userID string) ([]pullrequestModel.PullRequest, error)

	// AssignedCounts returns the number of open pull requests assigned
	// to each reviewer that has at least one assignment.
	AssignedCounts(ctx context.Context) (map[string]int, error)

	// AssignReviewer assigns userID to an open pull request, enforcing
	// the reviewer's capacity inside the same transaction. maxAssigned
	// is the resolved capacity for the reviewer.
	AssignReviewer(ctx context.Context, repo string, number int64, userID string, maxAssigned int, now time.Time) error

	// RemoveAssignee removes userID from a pull request's assignees.
	RemoveAssignee(ctx context.Context, repo string, number int64, userID string) error

	// ReplaceOpenSet applies a complete snapshot of open pull requests in
	// one transaction: every record is upserted under the watermark rule,
	// and open records absent from the snapshot are transitioned to
	// closed. A failed apply rolls the whole snapshot back.
	ReplaceOpenSet(ctx context.Context, updates []pullrequestModel.Update) error

	// SetLastReminderSentAt records when a reminder was last emitted for
	// the pull request.
	SetLastReminderSentAt(ctx context.Context, repo string, number int64, sentAt time.Time) error
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new pull request repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Upsert applies the update under the watermark rule.
func (r *repository) Upsert(ctx context.Context, upd *pullrequestModel.Update) (bool, error) {
	if err := upd.Validate(); err != nil {
		return false, err
	}

	var applied bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		applied, txErr = applyUpdate(tx, upd)
		return txErr
	})
	if err != nil {
		return false, err
	}

	if !applied {
		r.logger.Debugw("stale update discarded",
			"repo", upd.Repo, "number", upd.Number, "updated_at", upd.UpdatedAt)
	}

	return applied, nil
}

// applyUpdate performs the conditional write inside an open transaction.
// The watermark comparison and the write happen under the same
// transaction so concurrent updates to the same pull request cannot
// interleave between read and write.
func applyUpdate(tx *gorm.DB, upd *pullrequestModel.Update) (bool, error) {
	var stored pullrequestModel.PullRequest
	err := tx.Where("repo = ? AND number = ?", upd.Repo, upd.Number).
		First(&stored).Error

	exists := true
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		exists = false
	}

	if exists && !upd.UpdatedAt.After(stored.UpdatedAt) {
		return false, nil
	}

	pr := pullrequestModel.PullRequest{
		Repo:      upd.Repo,
		Number:    upd.Number,
		AuthorID:  upd.AuthorID,
		State:     upd.State,
		CreatedAt: upd.CreatedAt,
		UpdatedAt: upd.UpdatedAt,
	}
	if exists {
		// Locally owned fields survive remote updates.
		pr.CreatedAt = stored.CreatedAt
		pr.ReviewRequestedAt = stored.ReviewRequestedAt
		pr.LastReminderSentAt = stored.LastReminderSentAt
	}
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = upd.UpdatedAt
	}

	// Track when the remote assignee set establishes or drops review.
	if len(upd.Assignees) > 0 && pr.ReviewRequestedAt == nil {
		requestedAt := upd.UpdatedAt
		pr.ReviewRequestedAt = &requestedAt
	}
	if len(upd.Assignees) == 0 {
		pr.ReviewRequestedAt = nil
		pr.LastReminderSentAt = nil
	}

	if exists {
		if err := tx.Model(&pullrequestModel.PullRequest{}).
			Where("repo = ? AND number = ?", upd.Repo, upd.Number).
			Updates(map[string]interface{}{
				"author_id":             pr.AuthorID,
				"state":                 pr.State,
				"updated_at":            pr.UpdatedAt,
				"review_requested_at":   pr.ReviewRequestedAt,
				"last_reminder_sent_at": pr.LastReminderSentAt,
			}).Error; err != nil {
			return false, err
		}
	} else {
		if err := tx.Create(&pr).Error; err != nil {
			return false, err
		}
	}

	if err := replaceAssignees(tx, upd); err != nil {
		return false, err
	}
	if err := replaceLabels(tx, upd); err != nil {
		return false, err
	}

	return true, nil
}

// replaceAssignees replaces the assignee set with the one from the update.
func replaceAssignees(tx *gorm.DB, upd *pullrequestModel.Update) error {
	if err := tx.Where("repo = ? AND number = ?", upd.Repo, upd.Number).
		Delete(&pullrequestModel.Assignee{}).Error; err != nil {
		return err
	}
	for _, userID := range upd.Assignees {
		assignee := pullrequestModel.Assignee{
			Repo:       upd.Repo,
			Number:     upd.Number,
			UserID:     userID,
			AssignedAt: upd.UpdatedAt,
		}
		if err := tx.Create(&assignee).Error; err != nil {
			return err
		}
	}
	return nil
}

// replaceLabels replaces the label set with the one from the update.
func replaceLabels(tx *gorm.DB, upd *pullrequestModel.Update) error {
	if err := tx.Where("repo = ? AND number = ?", upd.Repo, upd.Number).
		Delete(&pullrequestModel.Label{}).Error; err != nil {
		return err
	}
	for _, label := range upd.Labels {
		row := pullrequestModel.Label{
			Repo:   upd.Repo,
			Number: upd.Number,
			Label:  label,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID finds a pull request by its composite identity.
func (r *repository) GetByID(
	ctx context.Context,
	repo string,
	number int64,
) (*pullrequestModel.PullRequest, error) {
	var pr pullrequestModel.PullRequest
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Labels").
		Where("repo = ? AND number = ?", repo, number).
		First(&pr).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pullrequestModel.ErrPullRequestNotFound
		}
		return nil, err
	}

	return &pr, nil
}

// GetOpen returns a snapshot of all currently open pull requests.
func (r *repository) GetOpen(ctx context.Context) ([]pullrequestModel.PullRequest, error) {
	var prs []pullrequestModel.PullRequest
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Labels").
		Where("state = ?", pullrequestModel.StateOpen).
		Order("repo ASC, number ASC").
		Find(&prs).Error
	if err != nil {
		return nil, err
	}
	return prs, nil
}

// GetOpenUnassigned returns open pull requests with no assignees.
func (r *repository) GetOpenUnassigned(ctx context.Context) ([]pullrequestModel.PullRequest, error) {
	var prs []pullrequestModel.PullRequest
	err := r.db.WithContext(ctx).
		Where("state = ?", pullrequestModel.StateOpen).
		Where("NOT EXISTS (SELECT 1 FROM pull_request_assignees a"+
			" WHERE a.repo = pull_requests.repo AND a.number = pull_requests.number)").
		Order("repo ASC, number ASC").
		Find(&prs).Error
	if err != nil {
		return nil, err
	}
	return prs, nil
}

// GetOpenAssignedTo returns open pull requests assigned to the given reviewer.
func (r *repository) GetOpenAssignedTo(
	ctx context.Context,
	userID string,
) ([]pullrequestModel.PullRequest, error) {
	var prs []pullrequestModel.PullRequest
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Labels").
		Where("state = ?", pullrequestModel.StateOpen).
		Where("EXISTS (SELECT 1 FROM pull_request_assignees a"+
			" WHERE a.repo = pull_requests.repo AND a.number = pull_requests.number"+
			" AND a.user_id = ?)", userID).
		Order("repo ASC, number ASC").
		Find(&prs).Error
	if err != nil {
		return nil, err
	}
	return prs, nil
}

// AssignedCounts returns open assignment counts per reviewer. Closed
// pull requests hold no capacity, so the count is derived from open
// records only and never maintained as a separate counter.
func (r *repository) AssignedCounts(ctx context.Context) (map[string]int, error) {
	type row struct {
		UserID string
		Count  int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("pull_request_assignees").
		Select("pull_request_assignees.user_id AS user_id, COUNT(*) AS count").
		Joins("JOIN pull_requests ON pull_requests.repo = pull_request_assignees.repo"+
			" AND pull_requests.number = pull_request_assignees.number").
		Where("pull_requests.state = ?", pullrequestModel.StateOpen).
		Group("pull_request_assignees.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, rec := range rows {
		counts[rec.UserID] = rec.Count
	}
	return counts, nil
}

// assignedCountTx counts open assignments for a reviewer inside a transaction.
func assignedCountTx(tx *gorm.DB, userID string) (int64, error) {
	var count int64
	err := tx.
		Table("pull_request_assignees").
		Joins("JOIN pull_requests ON pull_requests.repo = pull_request_assignees.repo"+
			" AND pull_requests.number = pull_request_assignees.number").
		Where("pull_requests.state = ?", pullrequestModel.StateOpen).
		Where("pull_request_assignees.user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// AssignReviewer assigns userID to an open pull request. The capacity
// check and the insert run inside one transaction so two racing
// decisions can never push a reviewer past maxAssigned.
func (r *repository) AssignReviewer(
	ctx context.Context,
	repo string,
	number int64,
	userID string,
	maxAssigned int,
	now time.Time,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pr pullrequestModel.PullRequest
		err := tx.Where("repo = ? AND number = ?", repo, number).First(&pr).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pullrequestModel.ErrPullRequestNotFound
			}
			return err
		}
		if !pr.IsOpen() {
			return pullrequestModel.ErrPullRequestClosed
		}

		var existing int64
		err = tx.Model(&pullrequestModel.Assignee{}).
			Where("repo = ? AND number = ? AND user_id = ?", repo, number, userID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return pullrequestModel.ErrAlreadyAssigned
		}

		count, err := assignedCountTx(tx, userID)
		if err != nil {
			return err
		}
		if count >= int64(maxAssigned) {
			return pullrequestModel.ErrCapacityExceeded
		}

		assignee := pullrequestModel.Assignee{
			Repo:       repo,
			Number:     number,
			UserID:     userID,
			AssignedAt: now,
		}
		if err := tx.Create(&assignee).Error; err != nil {
			return err
		}

		if pr.ReviewRequestedAt == nil {
			if err := tx.Model(&pullrequestModel.PullRequest{}).
				Where("repo = ? AND number = ?", repo, number).
				Update("review_requested_at", now).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// RemoveAssignee removes userID from a pull request's assignees. When
// the last assignee is removed, review tracking fields are cleared so a
// future assignment starts a fresh reminder window.
func (r *repository) RemoveAssignee(
	ctx context.Context,
	repo string,
	number int64,
	userID string,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("repo = ? AND number = ? AND user_id = ?", repo, number, userID).
			Delete(&pullrequestModel.Assignee{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pullrequestModel.ErrNotAssigned
		}

		var remaining int64
		err := tx.Model(&pullrequestModel.Assignee{}).
			Where("repo = ? AND number = ?", repo, number).
			Count(&remaining).Error
		if err != nil {
			return err
		}
		if remaining == 0 {
			err = tx.Model(&pullrequestModel.PullRequest{}).
				Where("repo = ? AND number = ?", repo, number).
				Updates(map[string]interface{}{
					"review_requested_at":   nil,
					"last_reminder_sent_at": nil,
				}).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// ReplaceOpenSet applies a complete open snapshot in one transaction.
func (r *repository) ReplaceOpenSet(
	ctx context.Context,
	updates []pullrequestModel.Update,
) error {
	for i := range updates {
		if err := updates[i].Validate(); err != nil {
			return err
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := make(map[string]struct{}, len(updates))
		for i := range updates {
			upd := &updates[i]
			if _, err := applyUpdate(tx, upd); err != nil {
				return err
			}
			seen[key(upd.Repo, upd.Number)] = struct{}{}
		}

		// Drift correction: open records absent from the snapshot were
		// closed remotely while their webhook was missed.
		var open []pullrequestModel.PullRequest
		if err := tx.Where("state = ?", pullrequestModel.StateOpen).
			Find(&open).Error; err != nil {
			return err
		}
		for i := range open {
			pr := &open[i]
			if _, ok := seen[key(pr.Repo, pr.Number)]; ok {
				continue
			}
			err := tx.Model(&pullrequestModel.PullRequest{}).
				Where("repo = ? AND number = ?", pr.Repo, pr.Number).
				Update("state", pullrequestModel.StateClosed).Error
			if err != nil {
				return err
			}
			r.logger.Infow("closed drifted pull request",
				"repo", pr.Repo, "number", pr.Number)
		}

		return nil
	})
}

// SetLastReminderSentAt records when a reminder was last emitted.
func (r *repository) SetLastReminderSentAt(
	ctx context.Context,
	repo string,
	number int64,
	sentAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&pullrequestModel.PullRequest{}).
		Where("repo = ? AND number = ?", repo, number).
		Update("last_reminder_sent_at", sentAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pullrequestModel.ErrPullRequestNotFound
	}
	return nil
}

func key(repo string, number int64) string {
	return repo + "#" + strconv.FormatInt(number, 10)
}
