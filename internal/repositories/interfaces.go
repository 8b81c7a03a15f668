package repositories

import (
	"context"

	"github.com/pushrequest/relay/internal/models"
)

type InstallationRepository interface {
	Create(ctx context.Context, installation *models.Installation) error
	GetByInstallationID(ctx context.Context, installationID int64) (*models.Installation, error)
	GetAllByGithubID(ctx context.Context, githubID int64) ([]*models.Installation, error)
	SetAuthorizedRepos(ctx context.Context, installationID int64, repos []models.Repository) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByGithubID(ctx context.Context, githubID int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
