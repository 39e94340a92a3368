// Package repository provides data access layer for the team module.
package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	teamModel "github.com/triageops/reviewqueue/internal/team/model"
)

// Repository defines the interface for team data access operations.
type Repository interface {
	// Upsert creates a team if it does not exist yet.
	Upsert(ctx context.Context, teamName string) error

	// SetRepos replaces the set of repositories owned by a team.
	SetRepos(ctx context.Context, teamName string, repos []string) error

	// TeamForRepo returns the team that owns review duty for a repository.
	TeamForRepo(ctx context.Context, repo string) (string, error)

	// List returns all known teams.
	List(ctx context.Context) ([]teamModel.Team, error)

	// ListRepos returns all repositories with an owning team.
	ListRepos(ctx context.Context) ([]teamModel.RepoTeam, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new team repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Upsert creates a team if it does not exist yet.
func (r *repository) Upsert(ctx context.Context, teamName string) error {
	team := &teamModel.Team{TeamName: teamName}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(team).Error
}

// SetRepos replaces the set of repositories owned by a team.
func (r *repository) SetRepos(ctx context.Context, teamName string, repos []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_name = ?", teamName).
			Delete(&teamModel.RepoTeam{}).Error; err != nil {
			return err
		}
		for _, repo := range repos {
			rt := &teamModel.RepoTeam{Repo: repo, TeamName: teamName}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "repo"}},
				DoUpdates: clause.AssignmentColumns([]string{"team_name"}),
			}).Create(rt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// TeamForRepo returns the team that owns review duty for a repository.
func (r *repository) TeamForRepo(ctx context.Context, repo string) (string, error) {
	var rt teamModel.RepoTeam
	err := r.db.WithContext(ctx).
		Where("repo = ?", repo).
		First(&rt).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", teamModel.ErrRepoNotOwned
		}
		return "", err
	}

	return rt.TeamName, nil
}

// List returns all known teams.
func (r *repository) List(ctx context.Context) ([]teamModel.Team, error) {
	var teams []teamModel.Team
	if err := r.db.WithContext(ctx).Order("team_name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// ListRepos returns all repositories with an owning team.
func (r *repository) ListRepos(ctx context.Context) ([]teamModel.RepoTeam, error) {
	var repos []teamModel.RepoTeam
	if err := r.db.WithContext(ctx).Order("repo ASC").Find(&repos).Error; err != nil {
		return nil, err
	}
	return repos, nil
}
