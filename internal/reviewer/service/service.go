// Package service provides business logic layer for the reviewer module.
package service

import (
	"context"

	"go.uber.org/zap"

	reviewerModel "github.com/triageops/reviewqueue/internal/reviewer/model"
	"github.com/triageops/reviewqueue/internal/reviewer/repository"
)

// Service defines the interface for reviewer preference operations.
type Service interface {
	// GetPreferences returns resolved preferences for one reviewer, honoring
	// visibility with respect to the viewer.
	GetPreferences(ctx context.Context, userID, viewerID string) (*reviewerModel.PreferencesResponse, error)

	// UpdatePreferences validates and applies a preference write, lazily
	// creating the reviewer on first write.
	UpdatePreferences(
		ctx context.Context,
		userID string,
		req *reviewerModel.UpdatePreferencesRequest,
	) (*reviewerModel.PreferencesResponse, error)

	// ListPreferences returns resolved preferences for all reviewers the
	// viewer is allowed to see.
	ListPreferences(ctx context.Context, viewerID string) (*reviewerModel.ListPreferencesResponse, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new reviewer service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{repo: repo, logger: logger}
}

// GetPreferences returns resolved preferences for one reviewer.
func (s *service) GetPreferences(
	ctx context.Context,
	userID, viewerID string,
) (*reviewerModel.PreferencesResponse, error) {
	if userID == "" || len(userID) > 255 {
		return nil, reviewerModel.ErrInvalidUserID
	}

	reviewer, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.visibleTo(ctx, reviewer, viewerID) {
		// Hidden preferences read as not found rather than leaking existence.
		return nil, reviewerModel.ErrReviewerNotFound
	}

	return toResponse(reviewer), nil
}

// UpdatePreferences validates and applies a preference write.
func (s *service) UpdatePreferences(
	ctx context.Context,
	userID string,
	req *reviewerModel.UpdatePreferencesRequest,
) (*reviewerModel.PreferencesResponse, error) {
	if userID == "" || len(userID) > 255 {
		return nil, reviewerModel.ErrInvalidUserID
	}
	if err := validatePreferences(req); err != nil {
		s.logger.Debugw("UpdatePreferences validation failed", "user_id", userID, "error", err)
		return nil, err
	}

	reviewer, err := s.repo.EnsureExists(ctx, userID, "", "")
	if err != nil {
		s.logger.Errorw("UpdatePreferences ensure failed", "user_id", userID, "error", err)
		return nil, err
	}

	if req.MaxAssignedPRs != nil {
		reviewer.MaxAssignedPRs = req.MaxAssignedPRs
	}
	if req.PingAfterDays != nil {
		reviewer.PingAfterDays = req.PingAfterDays
	}
	if req.ClearLeave {
		reviewer.OnLeaveUntil = nil
	} else if req.OnLeaveUntil != nil {
		reviewer.OnLeaveUntil = req.OnLeaveUntil
	}
	if req.Visibility != nil {
		reviewer.Visibility = *req.Visibility
	}

	if err := s.repo.Save(ctx, reviewer); err != nil {
		s.logger.Errorw("UpdatePreferences save failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Infow("UpdatePreferences completed", "user_id", userID)
	return toResponse(reviewer), nil
}

// ListPreferences returns resolved preferences for all visible reviewers.
func (s *service) ListPreferences(
	ctx context.Context,
	viewerID string,
) (*reviewerModel.ListPreferencesResponse, error) {
	reviewers, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Errorw("ListPreferences failed", "error", err)
		return nil, err
	}

	var viewerTeam string
	if viewerID != "" {
		if viewer, verr := s.repo.GetByID(ctx, viewerID); verr == nil {
			viewerTeam = viewer.TeamName
		}
	}

	out := make([]reviewerModel.PreferencesResponse, 0, len(reviewers))
	for i := range reviewers {
		rev := &reviewers[i]
		if rev.Visibility == reviewerModel.VisibilityTeam &&
			rev.UserID != viewerID &&
			(viewerTeam == "" || rev.TeamName != viewerTeam) {
			continue
		}
		out = append(out, *toResponse(rev))
	}

	return &reviewerModel.ListPreferencesResponse{
		Reviewers: out,
		Total:     len(out),
	}, nil
}

// visibleTo reports whether the reviewer's preferences may be read by the viewer.
func (s *service) visibleTo(ctx context.Context, reviewer *reviewerModel.Reviewer, viewerID string) bool {
	if reviewer.Visibility != reviewerModel.VisibilityTeam {
		return true
	}
	if viewerID == reviewer.UserID {
		return true
	}
	if viewerID == "" {
		return false
	}
	viewer, err := s.repo.GetByID(ctx, viewerID)
	if err != nil {
		return false
	}
	return viewer.TeamName != "" && viewer.TeamName == reviewer.TeamName
}

// validatePreferences enforces the preference write contract.
func validatePreferences(req *reviewerModel.UpdatePreferencesRequest) error {
	if req.MaxAssignedPRs != nil && *req.MaxAssignedPRs < 0 {
		return reviewerModel.ErrInvalidCapacity
	}
	if req.PingAfterDays != nil && *req.PingAfterDays < 1 {
		return reviewerModel.ErrInvalidPingAfter
	}
	if req.Visibility != nil &&
		*req.Visibility != reviewerModel.VisibilityPublic &&
		*req.Visibility != reviewerModel.VisibilityTeam {
		return reviewerModel.ErrInvalidVisibility
	}
	return nil
}

// toResponse converts a reviewer record to its resolved API shape.
func toResponse(reviewer *reviewerModel.Reviewer) *reviewerModel.PreferencesResponse {
	return &reviewerModel.PreferencesResponse{
		UserID:      reviewer.UserID,
		Username:    reviewer.Username,
		TeamName:    reviewer.TeamName,
		Active:      reviewer.Active,
		Preferences: reviewer.Resolved(),
	}
}
