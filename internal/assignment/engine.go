// Package assignment implements reviewer selection for open pull requests.
package assignment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
	pullrequestRepo "github.com/triageops/reviewqueue/internal/pullrequest/repository"
	reviewerModel "github.com/triageops/reviewqueue/internal/reviewer/model"
	reviewerRepo "github.com/triageops/reviewqueue/internal/reviewer/repository"
	teamModel "github.com/triageops/reviewqueue/internal/team/model"
	teamRepo "github.com/triageops/reviewqueue/internal/team/repository"
)

// Engine selects reviewers for pull requests that need one.
type Engine interface {
	// AssignPending evaluates every open unassigned pull request and
	// assigns a reviewer where an eligible candidate exists. Pull
	// requests with no eligible candidate stay in the workqueue.
	AssignPending(ctx context.Context) error

	// AssignOne picks a reviewer for a single pull request. Returns the
	// chosen user_id, or empty string when no candidate is eligible.
	AssignOne(ctx context.Context, pr *pullrequestModel.PullRequest) (string, error)
}

type engine struct {
	prs       pullrequestRepo.Repository
	reviewers reviewerRepo.Repository
	teams     teamRepo.Repository
	logger    *zap.SugaredLogger
	now       func() time.Time

	// Serializes assignment decisions so workload counts read during
	// candidate ranking stay accurate until the write lands. The store
	// re-checks capacity inside its transaction as a second line.
	mu sync.Mutex
}

// New creates a new assignment engine instance.
func New(
	prs pullrequestRepo.Repository,
	reviewers reviewerRepo.Repository,
	teams teamRepo.Repository,
	logger *zap.SugaredLogger,
) Engine {
	return &engine{
		prs:       prs,
		reviewers: reviewers,
		teams:     teams,
		logger:    logger,
		now:       time.Now,
	}
}

// AssignPending evaluates every open unassigned pull request.
func (e *engine) AssignPending(ctx context.Context) error {
	pending, err := e.prs.GetOpenUnassigned(ctx)
	if err != nil {
		return err
	}

	for i := range pending {
		pr := &pending[i]
		userID, err := e.AssignOne(ctx, pr)
		if err != nil {
			e.logger.Errorw("assignment failed",
				"repo", pr.Repo, "number", pr.Number, "error", err)
			continue
		}
		if userID == "" {
			e.logger.Debugw("no eligible reviewer",
				"repo", pr.Repo, "number", pr.Number)
		}
	}

	return nil
}

// AssignOne picks a reviewer for a single pull request.
func (e *engine) AssignOne(
	ctx context.Context,
	pr *pullrequestModel.PullRequest,
) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	teamName, err := e.teams.TeamForRepo(ctx, pr.Repo)
	if err != nil {
		if errors.Is(err, teamModel.ErrRepoNotOwned) {
			return "", nil
		}
		return "", err
	}

	members, err := e.reviewers.ListByTeam(ctx, teamName)
	if err != nil {
		return "", err
	}

	counts, err := e.prs.AssignedCounts(ctx)
	if err != nil {
		return "", err
	}

	candidates := eligible(members, pr, counts, now)
	if len(candidates) == 0 {
		return "", nil
	}

	rank(candidates, counts)

	// The store re-checks capacity in its own transaction; on a refusal
	// fall through to the next ranked candidate.
	for i := range candidates {
		c := candidates[i]
		max := c.Resolved().MaxAssignedPRs
		err := e.prs.AssignReviewer(ctx, pr.Repo, pr.Number, c.UserID, max, now)
		if err != nil {
			if errors.Is(err, pullrequestModel.ErrCapacityExceeded) {
				continue
			}
			return "", err
		}
		if err := e.reviewers.SetLastAssignedAt(ctx, c.UserID, now); err != nil {
			return "", err
		}
		e.logger.Infow("reviewer assigned",
			"repo", pr.Repo, "number", pr.Number, "user_id", c.UserID)
		return c.UserID, nil
	}

	return "", nil
}

// eligible filters team members down to assignable candidates.
func eligible(
	members []reviewerModel.Reviewer,
	pr *pullrequestModel.PullRequest,
	counts map[string]int,
	now time.Time,
) []*reviewerModel.Reviewer {
	candidates := make([]*reviewerModel.Reviewer, 0, len(members))
	for i := range members {
		m := &members[i]
		if !m.EligibleAt(now) {
			continue
		}
		if m.UserID == pr.AuthorID {
			continue
		}
		if counts[m.UserID] >= m.Resolved().MaxAssignedPRs {
			continue
		}
		candidates = append(candidates, m)
	}
	return candidates
}

// rank orders candidates deterministically: lowest assigned count first,
// then oldest last assignment (never assigned wins), then user_id.
func rank(candidates []*reviewerModel.Reviewer, counts map[string]int) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if counts[a.UserID] != counts[b.UserID] {
			return counts[a.UserID] < counts[b.UserID]
		}
		switch {
		case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
			return true
		case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
			return false
		case a.LastAssignedAt != nil && b.LastAssignedAt != nil:
			if !a.LastAssignedAt.Equal(*b.LastAssignedAt) {
				return a.LastAssignedAt.Before(*b.LastAssignedAt)
			}
		}
		return a.UserID < b.UserID
	})
}
