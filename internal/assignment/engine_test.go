package assignment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
	pullrequestRepo "github.com/triageops/reviewqueue/internal/pullrequest/repository"
	reviewerModel "github.com/triageops/reviewqueue/internal/reviewer/model"
	reviewerRepo "github.com/triageops/reviewqueue/internal/reviewer/repository"
	teamRepo "github.com/triageops/reviewqueue/internal/team/repository"
)

type testTeam struct {
	TeamName  string    `gorm:"primaryKey;column:team_name"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (testTeam) TableName() string { return "teams" }

type testRepoTeam struct {
	Repo      string    `gorm:"primaryKey;column:repo"`
	TeamName  string    `gorm:"column:team_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (testRepoTeam) TableName() string { return "repo_teams" }

type testReviewer struct {
	UserID         string     `gorm:"primaryKey;column:user_id"`
	Username       string     `gorm:"column:username;not null"`
	TeamName       string     `gorm:"column:team_name;not null"`
	Active         bool       `gorm:"column:active;not null"`
	OnLeaveUntil   *time.Time `gorm:"column:on_leave_until"`
	MaxAssignedPRs *int       `gorm:"column:max_assigned_prs"`
	PingAfterDays  *int       `gorm:"column:ping_after_days"`
	Visibility     string     `gorm:"column:visibility;not null"`
	LastAssignedAt *time.Time `gorm:"column:last_assigned_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (testReviewer) TableName() string { return "reviewers" }

type testPullRequest struct {
	Repo               string     `gorm:"primaryKey;column:repo"`
	Number             int64      `gorm:"primaryKey;column:number"`
	AuthorID           string     `gorm:"column:author_id;not null"`
	State              string     `gorm:"column:state;not null"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	ReviewRequestedAt  *time.Time `gorm:"column:review_requested_at"`
	LastReminderSentAt *time.Time `gorm:"column:last_reminder_sent_at"`
}

func (testPullRequest) TableName() string { return "pull_requests" }

type testAssignee struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Repo       string    `gorm:"column:repo;not null"`
	Number     int64     `gorm:"column:number;not null"`
	UserID     string    `gorm:"column:user_id;not null"`
	AssignedAt time.Time `gorm:"column:assigned_at"`
}

func (testAssignee) TableName() string { return "pull_request_assignees" }

type testLabel struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	Repo   string `gorm:"column:repo;not null"`
	Number int64  `gorm:"column:number;not null"`
	Label  string `gorm:"column:label;not null"`
}

func (testLabel) TableName() string { return "pull_request_labels" }

type fixture struct {
	db        *gorm.DB
	prs       pullrequestRepo.Repository
	reviewers reviewerRepo.Repository
	teams     teamRepo.Repository
	engine    *engine
	now       time.Time
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&testTeam{}, &testRepoTeam{}, &testReviewer{},
		&testPullRequest{}, &testAssignee{}, &testLabel{})
	require.NoError(t, err)

	nop := zap.NewNop().Sugar()
	f := &fixture{
		db:        db,
		prs:       pullrequestRepo.New(db, nop),
		reviewers: reviewerRepo.New(db, nop),
		teams:     teamRepo.New(db, nop),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.engine = New(f.prs, f.reviewers, f.teams, nop).(*engine)
	f.engine.now = func() time.Time { return f.now }

	ctx := context.Background()
	require.NoError(t, f.teams.Upsert(ctx, "compiler"))
	require.NoError(t, f.teams.SetRepos(ctx, "compiler", []string{"org/compiler"}))

	return f
}

func (f *fixture) addReviewer(t *testing.T, userID string, mutate ...func(*reviewerModel.Reviewer)) {
	rev := &reviewerModel.Reviewer{
		UserID:     userID,
		Username:   userID,
		TeamName:   "compiler",
		Active:     true,
		Visibility: reviewerModel.VisibilityPublic,
	}
	for _, fn := range mutate {
		fn(rev)
	}
	require.NoError(t, f.reviewers.Save(context.Background(), rev))
}

func (f *fixture) addOpenPR(t *testing.T, number int64, author string) *pullrequestModel.PullRequest {
	upd := pullrequestModel.Update{
		Repo:      "org/compiler",
		Number:    number,
		AuthorID:  author,
		State:     pullrequestModel.StateOpen,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	_, err := f.prs.Upsert(context.Background(), &upd)
	require.NoError(t, err)

	pr, err := f.prs.GetByID(context.Background(), "org/compiler", number)
	require.NoError(t, err)
	return pr
}

func intPtr(v int) *int { return &v }

func TestEngine_AssignOne(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers reviewer with free capacity", func(t *testing.T) {
		f := setup(t)
		f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
			r.MaxAssignedPRs = intPtr(2)
		})
		f.addReviewer(t, "bob")

		// Alice is saturated with two open assignments.
		for i := int64(1); i <= 2; i++ {
			f.addOpenPR(t, i, "someone")
			require.NoError(t, f.prs.AssignReviewer(ctx, "org/compiler", i, "alice", 2, f.now))
		}

		pr := f.addOpenPR(t, 10, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)

		require.NoError(t, err)
		assert.Equal(t, "bob", userID)
	})

	t.Run("leaves unassigned when only candidate on leave", func(t *testing.T) {
		f := setup(t)
		until := f.now.Add(72 * time.Hour)
		f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
			r.OnLeaveUntil = &until
		})

		pr := f.addOpenPR(t, 11, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)

		require.NoError(t, err)
		assert.Empty(t, userID)

		pending, err := f.prs.GetOpenUnassigned(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		// Re-evaluated after leave expires.
		f.now = until.Add(time.Hour)
		userID, err = f.engine.AssignOne(ctx, pr)
		require.NoError(t, err)
		assert.Equal(t, "alice", userID)
	})

	t.Run("skips the author", func(t *testing.T) {
		f := setup(t)
		f.addReviewer(t, "alice")

		pr := f.addOpenPR(t, 12, "alice")
		userID, err := f.engine.AssignOne(ctx, pr)

		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("skips inactive reviewers", func(t *testing.T) {
		f := setup(t)
		f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
			r.Active = false
		})

		pr := f.addOpenPR(t, 13, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)

		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("zero capacity excludes reviewer", func(t *testing.T) {
		f := setup(t)
		f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
			r.MaxAssignedPRs = intPtr(0)
		})

		pr := f.addOpenPR(t, 14, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)

		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("repo without owning team stays unassigned", func(t *testing.T) {
		f := setup(t)
		f.addReviewer(t, "alice")

		upd := pullrequestModel.Update{
			Repo:      "org/unowned",
			Number:    1,
			State:     pullrequestModel.StateOpen,
			CreatedAt: f.now,
			UpdatedAt: f.now,
		}
		_, err := f.prs.Upsert(ctx, &upd)
		require.NoError(t, err)
		pr, err := f.prs.GetByID(ctx, "org/unowned", 1)
		require.NoError(t, err)

		userID, err := f.engine.AssignOne(ctx, pr)
		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("records review_requested_at and last_assigned_at", func(t *testing.T) {
		f := setup(t)
		f.addReviewer(t, "alice")

		pr := f.addOpenPR(t, 15, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)
		require.NoError(t, err)
		require.Equal(t, "alice", userID)

		stored, err := f.prs.GetByID(ctx, "org/compiler", 15)
		require.NoError(t, err)
		require.NotNil(t, stored.ReviewRequestedAt)
		assert.Equal(t, f.now.Unix(), stored.ReviewRequestedAt.Unix())

		alice, err := f.reviewers.GetByID(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, alice.LastAssignedAt)
		assert.Equal(t, f.now.Unix(), alice.LastAssignedAt.Unix())
	})
}

func TestEngine_Determinism(t *testing.T) {
	ctx := context.Background()

	t.Run("identical snapshots select the same reviewer", func(t *testing.T) {
		for run := 0; run < 3; run++ {
			f := setup(t)
			f.addReviewer(t, "carol")
			f.addReviewer(t, "alice")
			f.addReviewer(t, "bob")

			pr := f.addOpenPR(t, 20, "someone")
			userID, err := f.engine.AssignOne(ctx, pr)
			require.NoError(t, err)
			assert.Equal(t, "alice", userID, "run %d", run)
		}
	})

	t.Run("lowest workload wins", func(t *testing.T) {
		f := setup(t)
		f.addReviewer(t, "alice")
		f.addReviewer(t, "bob")

		f.addOpenPR(t, 1, "someone")
		require.NoError(t, f.prs.AssignReviewer(ctx, "org/compiler", 1, "alice", 5, f.now))

		pr := f.addOpenPR(t, 21, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)
		require.NoError(t, err)
		assert.Equal(t, "bob", userID)
	})

	t.Run("oldest last assignment breaks workload tie", func(t *testing.T) {
		f := setup(t)
		old := f.now.Add(-48 * time.Hour)
		recent := f.now.Add(-time.Hour)
		f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
			r.LastAssignedAt = &recent
		})
		f.addReviewer(t, "bob", func(r *reviewerModel.Reviewer) {
			r.LastAssignedAt = &old
		})

		pr := f.addOpenPR(t, 22, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)
		require.NoError(t, err)
		assert.Equal(t, "bob", userID)
	})

	t.Run("never assigned preferred over previously assigned", func(t *testing.T) {
		f := setup(t)
		recent := f.now.Add(-time.Hour)
		f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
			r.LastAssignedAt = &recent
		})
		f.addReviewer(t, "bob")

		pr := f.addOpenPR(t, 23, "someone")
		userID, err := f.engine.AssignOne(ctx, pr)
		require.NoError(t, err)
		assert.Equal(t, "bob", userID)
	})
}

func TestEngine_AssignPending(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
		r.MaxAssignedPRs = intPtr(2)
	})

	for i := int64(1); i <= 3; i++ {
		f.addOpenPR(t, i, "someone")
	}

	require.NoError(t, f.engine.AssignPending(ctx))

	counts, err := f.prs.AssignedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["alice"])

	pending, err := f.prs.GetOpenUnassigned(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestEngine_CapacityInvariantUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.addReviewer(t, "alice", func(r *reviewerModel.Reviewer) {
		r.MaxAssignedPRs = intPtr(3)
	})

	const prs = 8
	pending := make([]*pullrequestModel.PullRequest, 0, prs)
	for i := int64(1); i <= prs; i++ {
		pending = append(pending, f.addOpenPR(t, i, "someone"))
	}

	var wg sync.WaitGroup
	for _, pr := range pending {
		wg.Add(1)
		go func(pr *pullrequestModel.PullRequest) {
			defer wg.Done()
			_, err := f.engine.AssignOne(ctx, pr)
			assert.NoError(t, err)
		}(pr)
	}
	wg.Wait()

	counts, err := f.prs.AssignedCounts(ctx)
	require.NoError(t, err)
	require.LessOrEqual(t, counts["alice"], 3,
		fmt.Sprintf("capacity exceeded: %d", counts["alice"]))
	assert.Equal(t, 3, counts["alice"])
}
