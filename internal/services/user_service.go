package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pushrequest/relay/internal/models"
	"github.com/pushrequest/relay/internal/repositories"
)

// RepoLister fetches the repositories an installation grants access to.
// Satisfied by the GitHub App client; nil disables API refresh.
type RepoLister interface {
	ListInstallationRepos(ctx context.Context, installationID int64) ([]models.Repository, error)
}

type UserService struct {
	userRepo         repositories.UserRepository
	installationRepo repositories.InstallationRepository
	repoLister       RepoLister
}

func NewUserService(
	userRepo repositories.UserRepository,
	installationRepo repositories.InstallationRepository,
	repoLister RepoLister,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		installationRepo: installationRepo,
		repoLister:       repoLister,
	}
}

// RegisterDevice creates a user for the github id, or appends the device
// token to an existing user. A user registered without an explicit
// allow-list is subscribed to every event type.
func (s *UserService) RegisterDevice(ctx context.Context, githubID int64, deviceToken string, allowedTypes []models.EventType) (created bool, err error) {
	user, err := s.userRepo.GetByGithubID(ctx, githubID)
	if err == nil {
		if user.HasDeviceToken(deviceToken) {
			return false, nil
		}

		user.DeviceTokens = append(user.DeviceTokens, deviceToken)
		if err := s.userRepo.Update(ctx, user); err != nil {
			return false, fmt.Errorf("failed to add device token: %w", err)
		}
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	if len(allowedTypes) == 0 {
		allowedTypes = models.AllEventTypes()
	}

	user = &models.User{
		GithubID:     githubID,
		DeviceTokens: []string{deviceToken},
		AllowedTypes: allowedTypes,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	return true, nil
}

func (s *UserService) GetUser(ctx context.Context, githubID int64) (*models.User, error) {
	user, err := s.userRepo.GetByGithubID(ctx, githubID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateAllowedTypes replaces the user's subscription allow-list.
func (s *UserService) UpdateAllowedTypes(ctx context.Context, githubID int64, allowedTypes []models.EventType) (*models.User, error) {
	user, err := s.GetUser(ctx, githubID)
	if err != nil {
		return nil, err
	}

	user.AllowedTypes = allowedTypes
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update allowed types: %w", err)
	}
	return user, nil
}

// AuthorizedRepos returns the de-duplicated union of repositories across
// every installation bound to the github id. Installations recorded without
// a repository list are refreshed from the API when a lister is configured.
func (s *UserService) AuthorizedRepos(ctx context.Context, githubID int64) ([]models.Repository, error) {
	installations, err := s.installationRepo.GetAllByGithubID(ctx, githubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get installations: %w", err)
	}

	seen := make(map[models.Repository]bool)
	var repos []models.Repository

	for _, installation := range installations {
		authorized := installation.AuthorizedRepos

		if len(authorized) == 0 && s.repoLister != nil {
			fetched, err := s.repoLister.ListInstallationRepos(ctx, installation.InstallationID)
			if err != nil {
				log.Printf("failed to refresh repos for installation %d: %v", installation.InstallationID, err)
			} else {
				authorized = fetched
				if err := s.installationRepo.SetAuthorizedRepos(ctx, installation.InstallationID, fetched); err != nil {
					log.Printf("failed to persist repos for installation %d: %v", installation.InstallationID, err)
				}
			}
		}

		for _, repo := range authorized {
			if !seen[repo] {
				seen[repo] = true
				repos = append(repos, repo)
			}
		}
	}

	return repos, nil
}
