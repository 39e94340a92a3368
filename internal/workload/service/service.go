// Package service provides business logic layer for the workload module.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
	pullrequestRepo "github.com/triageops/reviewqueue/internal/pullrequest/repository"
	reviewerRepo "github.com/triageops/reviewqueue/internal/reviewer/repository"
	"github.com/triageops/reviewqueue/internal/workload/model"
)

// Service defines the interface for workload reporting operations.
type Service interface {
	// GetWorkloadSnapshot returns every reviewer's open assignment count.
	GetWorkloadSnapshot(ctx context.Context) (*model.WorkloadSnapshotResponse, error)

	// GetWorkqueue returns open pull requests, optionally filtered to
	// those assigned to userID.
	GetWorkqueue(ctx context.Context, userID string) (*model.WorkqueueResponse, error)
}

type service struct {
	prs       pullrequestRepo.Repository
	reviewers reviewerRepo.Repository
	logger    *zap.SugaredLogger
}

// New creates a new workload service instance.
func New(
	prs pullrequestRepo.Repository,
	reviewers reviewerRepo.Repository,
	logger *zap.SugaredLogger,
) Service {
	return &service{prs: prs, reviewers: reviewers, logger: logger}
}

// GetWorkloadSnapshot returns every reviewer's open assignment count.
// The count is derived from the open pull request set at read time.
func (s *service) GetWorkloadSnapshot(ctx context.Context) (*model.WorkloadSnapshotResponse, error) {
	all, err := s.reviewers.List(ctx)
	if err != nil {
		s.logger.Errorw("GetWorkloadSnapshot failed", "error", err)
		return nil, err
	}

	counts, err := s.prs.AssignedCounts(ctx)
	if err != nil {
		s.logger.Errorw("GetWorkloadSnapshot failed", "error", err)
		return nil, err
	}

	now := time.Now()
	workloads := make([]model.ReviewerWorkload, 0, len(all))
	for i := range all {
		reviewer := &all[i]
		prefs := reviewer.Resolved()
		workloads = append(workloads, model.ReviewerWorkload{
			UserID:         reviewer.UserID,
			Username:       reviewer.Username,
			TeamName:       reviewer.TeamName,
			AssignedCount:  counts[reviewer.UserID],
			MaxAssignedPRs: prefs.MaxAssignedPRs,
			Active:         reviewer.Active,
			OnLeave:        reviewer.OnLeaveAt(now),
		})
	}

	return &model.WorkloadSnapshotResponse{
		Reviewers: workloads,
		Total:     len(workloads),
	}, nil
}

// GetWorkqueue returns open pull requests.
func (s *service) GetWorkqueue(ctx context.Context, userID string) (*model.WorkqueueResponse, error) {
	var (
		prs []pullrequestModel.PullRequest
		err error
	)
	if userID != "" {
		prs, err = s.prs.GetOpenAssignedTo(ctx, userID)
	} else {
		prs, err = s.prs.GetOpen(ctx)
	}
	if err != nil {
		s.logger.Errorw("GetWorkqueue failed", "user_id", userID, "error", err)
		return nil, err
	}

	items := make([]model.WorkqueueItem, 0, len(prs))
	for i := range prs {
		pr := &prs[i]
		item := model.WorkqueueItem{
			Repo:              pr.Repo,
			Number:            pr.Number,
			AuthorID:          pr.AuthorID,
			Assignees:         make([]string, 0, len(pr.Assignees)),
			Labels:            make([]string, 0, len(pr.Labels)),
			ReviewRequestedAt: pr.ReviewRequestedAt,
			UpdatedAt:         pr.UpdatedAt,
		}
		for _, a := range pr.Assignees {
			item.Assignees = append(item.Assignees, a.UserID)
		}
		for _, l := range pr.Labels {
			item.Labels = append(item.Labels, l.Label)
		}
		items = append(items, item)
	}

	return &model.WorkqueueResponse{
		PullRequests: items,
		Total:        len(items),
	}, nil
}
