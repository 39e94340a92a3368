// Package service implements reconciliation of delta events and periodic
// full syncs into the pull request store.
package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/triageops/reviewqueue/internal/assignment"
	"github.com/triageops/reviewqueue/internal/config"
	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
	pullrequestRepo "github.com/triageops/reviewqueue/internal/pullrequest/repository"
	reconcileModel "github.com/triageops/reviewqueue/internal/reconcile/model"
	"github.com/triageops/reviewqueue/internal/remote"
	reviewerRepo "github.com/triageops/reviewqueue/internal/reviewer/repository"
	teamRepo "github.com/triageops/reviewqueue/internal/team/repository"
	"github.com/triageops/reviewqueue/pkg/retry"
)

// Service defines reconciliation operations.
type Service interface {
	// ApplyDelta applies one webhook delta event. Returns whether the
	// event changed state (false for duplicates and stale deliveries).
	ApplyDelta(ctx context.Context, event *reconcileModel.DeltaEvent) (*reconcileModel.DeltaResponse, error)

	// FullSync pulls the complete open pull request listing from the
	// hosting service and replaces the open set atomically. A page
	// failure after retries aborts the whole cycle; the store keeps its
	// previous state. Only one sync runs at a time.
	FullSync(ctx context.Context) error

	// SyncRoster pulls the team roster from the hosting service and
	// reconciles teams, repository ownership and reviewer activity.
	SyncRoster(ctx context.Context) error
}

type service struct {
	prs       pullrequestRepo.Repository
	reviewers reviewerRepo.Repository
	teams     teamRepo.Repository
	remote    remote.Client
	engine    assignment.Engine
	retryCfg  retry.Config
	cfg       *config.SchedulerConfig
	logger    *zap.SugaredLogger

	syncMu sync.Mutex
}

// New creates a new reconcile service instance.
func New(
	prs pullrequestRepo.Repository,
	reviewers reviewerRepo.Repository,
	teams teamRepo.Repository,
	remoteClient remote.Client,
	engine assignment.Engine,
	cfg *config.SchedulerConfig,
	logger *zap.SugaredLogger,
) Service {
	return &service{
		prs:       prs,
		reviewers: reviewers,
		teams:     teams,
		remote:    remoteClient,
		engine:    engine,
		retryCfg:  retry.RemoteConfig(),
		cfg:       cfg,
		logger:    logger,
	}
}

// ApplyDelta applies one webhook delta event.
func (s *service) ApplyDelta(
	ctx context.Context,
	event *reconcileModel.DeltaEvent,
) (*reconcileModel.DeltaResponse, error) {
	if event.DeliveryID == "" {
		event.DeliveryID = uuid.NewString()
	}

	upd := event.ToUpdate()
	applied, err := s.prs.Upsert(ctx, &upd)
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("delta event processed",
		"delivery_id", event.DeliveryID,
		"repo", event.Repo, "number", event.Number,
		"state", event.State, "applied", applied)

	// A newly open, unassigned pull request needs a reviewer; so does
	// one whose remote assignee set was just emptied.
	if applied && event.State == pullrequestModel.StateOpen && len(event.Assignees) == 0 {
		pr, err := s.prs.GetByID(ctx, event.Repo, event.Number)
		if err != nil {
			return nil, err
		}
		if _, err := s.engine.AssignOne(ctx, pr); err != nil {
			s.logger.Errorw("assignment after delta failed",
				"delivery_id", event.DeliveryID,
				"repo", event.Repo, "number", event.Number, "error", err)
		}
	}

	return &reconcileModel.DeltaResponse{
		DeliveryID: event.DeliveryID,
		Applied:    applied,
	}, nil
}

// FullSync pulls the complete open listing and replaces the open set.
func (s *service) FullSync(ctx context.Context) error {
	if !s.syncMu.TryLock() {
		return reconcileModel.ErrSyncInProgress
	}
	defer s.syncMu.Unlock()

	repos, err := s.teams.ListRepos(ctx)
	if err != nil {
		return err
	}

	snapshot := make([]pullrequestModel.Update, 0, 64)
	for _, rt := range repos {
		updates, err := s.fetchRepo(ctx, rt.Repo)
		if err != nil {
			// Abandon the whole cycle; a partial snapshot would close
			// pull requests that are still open remotely.
			s.logger.Errorw("full sync aborted",
				"repo", rt.Repo, "error", err)
			return err
		}
		snapshot = append(snapshot, updates...)
	}

	if err := s.prs.ReplaceOpenSet(ctx, snapshot); err != nil {
		return err
	}

	s.logger.Infow("full sync applied",
		"repos", len(repos), "open_prs", len(snapshot))

	return s.engine.AssignPending(ctx)
}

// fetchRepo pages through one repository's open pull requests. Each page
// is retried with backoff before the cycle gives up.
func (s *service) fetchRepo(
	ctx context.Context,
	repo string,
) ([]pullrequestModel.Update, error) {
	var all []pullrequestModel.Update
	for page := 1; ; page++ {
		type pageResult struct {
			items   []pullrequestModel.Update
			hasMore bool
		}
		result, err := retry.DoWithResult(ctx, s.retryCfg, func() (pageResult, error) {
			items, hasMore, err := s.remote.ListOpenPullRequestsPage(
				ctx, repo, page, s.cfg.PageSize)
			return pageResult{items: items, hasMore: hasMore}, err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, result.items...)
		if !result.hasMore {
			return all, nil
		}
	}
}

// SyncRoster reconciles teams, repository ownership and reviewer activity.
func (s *service) SyncRoster(ctx context.Context) error {
	teams, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]remote.Team, error) {
		return s.remote.ListTeams(ctx)
	})
	if err != nil {
		return err
	}

	for _, team := range teams {
		if err := s.teams.Upsert(ctx, team.Name); err != nil {
			return err
		}
		if err := s.teams.SetRepos(ctx, team.Name, team.Repos); err != nil {
			return err
		}

		roster := make([]string, 0, len(team.Members))
		for _, member := range team.Members {
			if _, err := s.reviewers.EnsureExists(
				ctx, member.ID, member.Username, team.Name); err != nil {
				return err
			}
			roster = append(roster, member.ID)
		}

		removed, err := s.reviewers.DeactivateAbsent(ctx, team.Name, roster)
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			s.logger.Infow("reviewers deactivated",
				"team", team.Name, "user_ids", removed)
			if s.cfg.ReleaseOnRosterRemoval {
				if err := s.releaseAssignments(ctx, removed); err != nil {
					return err
				}
			}
		}
	}

	return s.engine.AssignPending(ctx)
}

// releaseAssignments returns a departed reviewer's open assignments to
// the pool so the next assignment pass can redistribute them.
func (s *service) releaseAssignments(ctx context.Context, userIDs []string) error {
	for _, userID := range userIDs {
		prs, err := s.prs.GetOpenAssignedTo(ctx, userID)
		if err != nil {
			return err
		}
		for i := range prs {
			pr := &prs[i]
			if err := s.prs.RemoveAssignee(ctx, pr.Repo, pr.Number, userID); err != nil {
				return err
			}
			s.logger.Infow("assignment released",
				"repo", pr.Repo, "number", pr.Number, "user_id", userID)
		}
	}
	return nil
}
