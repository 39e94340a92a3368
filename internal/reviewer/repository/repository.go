// Package repository provides data access layer for the reviewer module.
package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	reviewerModel "github.com/triageops/reviewqueue/internal/reviewer/model"
)

// Repository defines the interface for reviewer data access operations.
type Repository interface {
	// GetByID finds a reviewer by user_id.
	GetByID(ctx context.Context, userID string) (*reviewerModel.Reviewer, error)

	// EnsureExists lazily creates a reviewer row on first observation.
	EnsureExists(ctx context.Context, userID, username, teamName string) (*reviewerModel.Reviewer, error)

	// Save persists the given reviewer record.
	Save(ctx context.Context, reviewer *reviewerModel.Reviewer) error

	// ListByTeam returns reviewers belonging to a team.
	ListByTeam(ctx context.Context, teamName string) ([]reviewerModel.Reviewer, error)

	// List returns all reviewers.
	List(ctx context.Context) ([]reviewerModel.Reviewer, error)

	// SetLastAssignedAt records the instant of the reviewer's latest assignment.
	SetLastAssignedAt(ctx context.Context, userID string, at time.Time) error

	// DeactivateAbsent marks reviewers of a team inactive when their user_id
	// is not in the given roster; returns the affected user IDs.
	DeactivateAbsent(ctx context.Context, teamName string, roster []string) ([]string, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new reviewer repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// GetByID finds a reviewer by user_id.
func (r *repository) GetByID(ctx context.Context, userID string) (*reviewerModel.Reviewer, error) {
	var reviewer reviewerModel.Reviewer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&reviewer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reviewerModel.ErrReviewerNotFound
		}
		return nil, err
	}

	return &reviewer, nil
}

// EnsureExists lazily creates a reviewer row on first observation.
// An existing row keeps its preferences; username, team and active flag
// are refreshed from the roster.
func (r *repository) EnsureExists(
	ctx context.Context,
	userID, username, teamName string,
) (*reviewerModel.Reviewer, error) {
	reviewer := &reviewerModel.Reviewer{
		UserID:     userID,
		Username:   username,
		TeamName:   teamName,
		Active:     true,
		Visibility: reviewerModel.VisibilityPublic,
	}

	// A preference write carries no roster data; it must not clobber
	// what a roster sync already recorded.
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}
	if username != "" || teamName != "" {
		conflict.DoNothing = false
		conflict.DoUpdates = clause.AssignmentColumns([]string{"username", "team_name", "active"})
	}

	err := r.db.WithContext(ctx).
		Clauses(conflict).
		Create(reviewer).Error
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, userID)
}

// Save persists the given reviewer record.
func (r *repository) Save(ctx context.Context, reviewer *reviewerModel.Reviewer) error {
	return r.db.WithContext(ctx).Save(reviewer).Error
}

// ListByTeam returns reviewers belonging to a team.
func (r *repository) ListByTeam(ctx context.Context, teamName string) ([]reviewerModel.Reviewer, error) {
	var reviewers []reviewerModel.Reviewer
	err := r.db.WithContext(ctx).
		Where("team_name = ?", teamName).
		Order("user_id ASC").
		Find(&reviewers).Error
	if err != nil {
		return nil, err
	}
	return reviewers, nil
}

// List returns all reviewers.
func (r *repository) List(ctx context.Context) ([]reviewerModel.Reviewer, error) {
	var reviewers []reviewerModel.Reviewer
	err := r.db.WithContext(ctx).
		Order("user_id ASC").
		Find(&reviewers).Error
	if err != nil {
		return nil, err
	}
	return reviewers, nil
}

// SetLastAssignedAt records the instant of the reviewer's latest assignment.
func (r *repository) SetLastAssignedAt(ctx context.Context, userID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&reviewerModel.Reviewer{}).
		Where("user_id = ?", userID).
		Update("last_assigned_at", at)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reviewerModel.ErrReviewerNotFound
	}
	return nil
}

// DeactivateAbsent marks reviewers of a team inactive when their user_id
// is not in the given roster; returns the affected user IDs.
func (r *repository) DeactivateAbsent(
	ctx context.Context,
	teamName string,
	roster []string,
) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&reviewerModel.Reviewer{}).
		Where("team_name = ? AND active = ?", teamName, true)

	if len(roster) > 0 {
		query = query.Where("user_id NOT IN ?", roster)
	}

	var absent []reviewerModel.Reviewer
	if err := query.Find(&absent).Error; err != nil {
		return nil, err
	}
	if len(absent) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(absent))
	for _, rev := range absent {
		ids = append(ids, rev.UserID)
	}

	err := r.db.WithContext(ctx).
		Model(&reviewerModel.Reviewer{}).
		Where("user_id IN ?", ids).
		Update("active", false).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
