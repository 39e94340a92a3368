package reminder

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/triageops/reviewqueue/internal/config"
	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
	pullrequestRepo "github.com/triageops/reviewqueue/internal/pullrequest/repository"
	reviewerModel "github.com/triageops/reviewqueue/internal/reviewer/model"
	reviewerRepo "github.com/triageops/reviewqueue/internal/reviewer/repository"
)

// Service runs the reminder sweep over open assigned pull requests.
type Service interface {
	// Sweep emits a reminder for every open pull request whose review
	// has waited past each assignee's ping threshold, debounced so a
	// reminder never fires twice within one threshold window. A failed
	// emission leaves last_reminder_sent_at untouched, so the next
	// sweep retries it.
	Sweep(ctx context.Context) error
}

type service struct {
	prs       pullrequestRepo.Repository
	reviewers reviewerRepo.Repository
	notifier  Notifier
	waitMode  string
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// New creates a new reminder service instance.
func New(
	prs pullrequestRepo.Repository,
	reviewers reviewerRepo.Repository,
	notifier Notifier,
	cfg *config.SchedulerConfig,
	logger *zap.SugaredLogger,
) Service {
	return &service{
		prs:       prs,
		reviewers: reviewers,
		notifier:  notifier,
		waitMode:  cfg.ReminderWaitMode,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep evaluates every open assigned pull request once.
func (s *service) Sweep(ctx context.Context) error {
	open, err := s.prs.GetOpen(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range open {
		pr := &open[i]
		if len(pr.Assignees) == 0 || pr.ReviewRequestedAt == nil {
			continue
		}
		if err := s.sweepOne(ctx, pr, now); err != nil {
			s.logger.Errorw("reminder sweep failed for pull request",
				"repo", pr.Repo, "number", pr.Number, "error", err)
		}
	}

	return nil
}

// sweepOne emits due reminders for one pull request. The sent watermark
// advances only when every due reminder went out, so a partial failure
// is retried on the next tick.
func (s *service) sweepOne(
	ctx context.Context,
	pr *pullrequestModel.PullRequest,
	now time.Time,
) error {
	sent := 0
	failed := 0

	for _, assignee := range pr.Assignees {
		threshold, err := s.pingThreshold(ctx, assignee.UserID)
		if err != nil {
			return err
		}

		if !s.due(pr, now, threshold) {
			continue
		}

		if err := s.notifier.SendReminder(ctx, assignee.UserID, pr); err != nil {
			failed++
			s.logger.Errorw("reminder emission failed",
				"repo", pr.Repo, "number", pr.Number,
				"user_id", assignee.UserID, "error", err)
			continue
		}
		sent++
		s.logger.Infow("reminder sent",
			"repo", pr.Repo, "number", pr.Number, "user_id", assignee.UserID)
	}

	if sent > 0 && failed == 0 {
		return s.prs.SetLastReminderSentAt(ctx, pr.Repo, pr.Number, now)
	}
	return nil
}

// pingThreshold resolves the assignee's ping_after_days, falling back to
// the default when the reviewer has no preference record.
func (s *service) pingThreshold(ctx context.Context, userID string) (int, error) {
	reviewer, err := s.reviewers.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, reviewerModel.ErrReviewerNotFound) {
			return reviewerModel.DefaultPingAfterDays, nil
		}
		return 0, err
	}
	return reviewer.Resolved().PingAfterDays, nil
}

// due applies the wait and debounce checks for one threshold.
func (s *service) due(pr *pullrequestModel.PullRequest, now time.Time, thresholdDays int) bool {
	if s.elapsedDays(*pr.ReviewRequestedAt, now) < thresholdDays {
		return false
	}
	if pr.LastReminderSentAt == nil {
		return true
	}
	return s.elapsedDays(*pr.LastReminderSentAt, now) >= thresholdDays
}

// elapsedDays measures the wait between two instants in the configured
// day mode.
func (s *service) elapsedDays(from, to time.Time) int {
	if s.waitMode == config.WaitModeBusiness {
		return businessDaysBetween(from, to)
	}
	return int(to.Sub(from) / (24 * time.Hour))
}

// businessDaysBetween counts fully elapsed weekdays between two instants.
func businessDaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	days := 0
	for t := from.Add(24 * time.Hour); !t.After(to); t = t.Add(24 * time.Hour) {
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}
