package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pushrequest/relay/internal/github"
	"github.com/pushrequest/relay/internal/models"
	"github.com/pushrequest/relay/internal/parsers"
	"github.com/pushrequest/relay/internal/push"
	"github.com/pushrequest/relay/internal/repositories"
)

var (
	ErrInstallationNotFound = errors.New("installation not found")
	ErrUserNotFound         = errors.New("user not found")
)

// DispatchError aggregates the failed sends of one fan-out. The delivery as
// a whole is reported failed so the provider retries it, but every token was
// attempted and every outcome is preserved.
type DispatchError struct {
	Failures []push.Result
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to push to %d device(s): %v", len(e.Failures), e.Failures[0].Err)
}

// Outcome is the terminal state of one webhook delivery.
type Outcome int

const (
	// OutcomeIgnored means the category/action combination is not modeled.
	// Deliberately not an error: the provider must not retry these.
	OutcomeIgnored Outcome = iota

	// OutcomeInstallationCreated means a new installation binding was
	// recorded (or already existed from an earlier delivery of the same
	// event).
	OutcomeInstallationCreated

	// OutcomeFiltered means the event was handled but the user is not
	// subscribed to its type; nothing was persisted or pushed.
	OutcomeFiltered

	// OutcomeDelivered means the event was persisted and every device send
	// succeeded (trivially so for a user with no devices).
	OutcomeDelivered
)

// Delivery is one inbound webhook delivery, as handed over by the receiving
// component. Signature verification already happened upstream.
type Delivery struct {
	ID       string
	Category string
	Payload  []byte
}

type WebhookService struct {
	installationRepo repositories.InstallationRepository
	userRepo         repositories.UserRepository
	dispatcher       *push.Dispatcher
}

func NewWebhookService(
	installationRepo repositories.InstallationRepository,
	userRepo repositories.UserRepository,
	dispatcher *push.Dispatcher,
) *WebhookService {
	return &WebhookService{
		installationRepo: installationRepo,
		userRepo:         userRepo,
		dispatcher:       dispatcher,
	}
}

// HandleDelivery runs one delivery through the pipeline: decode, resolve
// the owning user, normalize, filter, persist, dispatch. Stages run
// strictly in that order; the latest-event write happens exactly once,
// before any push is attempted.
func (s *WebhookService) HandleDelivery(ctx context.Context, delivery Delivery) (Outcome, error) {
	payload, err := github.DecodePayload(github.EventCategory(delivery.Category), delivery.Payload)
	if err != nil {
		return 0, err
	}
	if payload == nil {
		return OutcomeIgnored, nil
	}

	if installation, ok := payload.(*github.InstallationPayload); ok {
		return s.handleInstallation(ctx, installation)
	}

	user, err := s.resolveUser(ctx, payload.InstallID())
	if err != nil {
		return 0, err
	}

	event, err := parsers.Normalize(payload)
	if err != nil {
		return 0, err
	}
	if event == nil {
		return OutcomeIgnored, nil
	}

	if !user.AllowsType(event.EventType) {
		return OutcomeFiltered, nil
	}

	user.LatestEvent = event
	if err := s.userRepo.Update(ctx, user); err != nil {
		return 0, fmt.Errorf("failed to persist latest event: %w", err)
	}

	results := s.dispatcher.Dispatch(ctx, user.DeviceTokens)
	if failures := push.Failures(results); len(failures) > 0 {
		return 0, &DispatchError{Failures: failures}
	}

	return OutcomeDelivered, nil
}

// handleInstallation records a new installation binding. Only the created
// action matters; everything else is a no-op. The store enforces uniqueness
// on the installation id, so a redelivered created event is idempotent.
func (s *WebhookService) handleInstallation(ctx context.Context, payload *github.InstallationPayload) (Outcome, error) {
	if payload.Action != "created" {
		return OutcomeIgnored, nil
	}

	repos := make([]models.Repository, 0, len(payload.Repositories))
	for _, repo := range payload.Repositories {
		repos = append(repos, models.NewRepository(repo.ID, repo.FullName))
	}

	installation := &models.Installation{
		InstallationID:  payload.Installation.ID,
		GithubID:        payload.Installation.Account.ID,
		AuthorizedRepos: repos,
	}

	err := s.installationRepo.Create(ctx, installation)
	if errors.Is(err, repositories.ErrDuplicate) {
		log.Printf("installation %d already recorded, treating as created", payload.Installation.ID)
		return OutcomeInstallationCreated, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create installation: %w", err)
	}

	return OutcomeInstallationCreated, nil
}

func (s *WebhookService) resolveUser(ctx context.Context, installationID int64) (*models.User, error) {
	installation, err := s.installationRepo.GetByInstallationID(ctx, installationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInstallationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}

	user, err := s.userRepo.GetByGithubID(ctx, installation.GithubID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
