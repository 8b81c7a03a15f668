package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pushrequest/relay/internal/models"
	"github.com/pushrequest/relay/internal/push"
	"github.com/pushrequest/relay/internal/repositories"
	"github.com/pushrequest/relay/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInstallationRepo struct {
	installations map[int64]*models.Installation
}

func newStubInstallationRepo() *stubInstallationRepo {
	return &stubInstallationRepo{installations: make(map[int64]*models.Installation)}
}

func (r *stubInstallationRepo) Create(ctx context.Context, installation *models.Installation) error {
	if _, exists := r.installations[installation.InstallationID]; exists {
		return repositories.ErrDuplicate
	}
	r.installations[installation.InstallationID] = installation
	return nil
}

func (r *stubInstallationRepo) GetByInstallationID(ctx context.Context, installationID int64) (*models.Installation, error) {
	installation, ok := r.installations[installationID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return installation, nil
}

func (r *stubInstallationRepo) GetAllByGithubID(ctx context.Context, githubID int64) ([]*models.Installation, error) {
	var installations []*models.Installation
	for _, installation := range r.installations {
		if installation.GithubID == githubID {
			installations = append(installations, installation)
		}
	}
	return installations, nil
}

func (r *stubInstallationRepo) SetAuthorizedRepos(ctx context.Context, installationID int64, repos []models.Repository) error {
	installation, ok := r.installations[installationID]
	if !ok {
		return repositories.ErrNotFound
	}
	installation.AuthorizedRepos = repos
	return nil
}

type stubUserRepo struct {
	users map[int64]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*models.User)}
}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	r.users[user.GithubID] = user
	return nil
}

func (r *stubUserRepo) GetByGithubID(ctx context.Context, githubID int64) (*models.User, error) {
	user, ok := r.users[githubID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.GithubID]; !ok {
		return repositories.ErrNotFound
	}
	r.users[user.GithubID] = user
	return nil
}

type stubSender struct {
	sent []string
}

func (s *stubSender) SendSilent(ctx context.Context, deviceToken string) error {
	s.sent = append(s.sent, deviceToken)
	return nil
}

func newWebhookTestHandler() (*WebhookHandler, *stubInstallationRepo, *stubUserRepo, *stubSender) {
	installationRepo := newStubInstallationRepo()
	userRepo := newStubUserRepo()
	sender := &stubSender{}
	service := services.NewWebhookService(installationRepo, userRepo, push.NewDispatcher(sender, time.Second))
	return NewWebhookHandler(service), installationRepo, userRepo, sender
}

func postWebhook(handler *WebhookHandler, category, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-GitHub-Event", category)
	req.Header.Set("X-GitHub-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")

	w := httptest.NewRecorder()
	handler.Handle(w, req)
	return w
}

const prOpenedBody = `{
	"action": "opened",
	"pull_request": {
		"number": 2,
		"title": "Update the README with new information.",
		"html_url": "https://github.com/Codertocat/Hello-World/pull/2",
		"updated_at": "2019-05-15T15:20:33Z"
	},
	"sender": {"id": 21031067, "login": "Codertocat", "avatar_url": "https://avatars1.githubusercontent.com/u/21031067?v=4"},
	"repository": {"id": 135493233, "full_name": "Codertocat/Hello-World"},
	"installation": {"id": 123}
}`

func TestWebhookHandler_Delivered(t *testing.T) {
	handler, installationRepo, userRepo, sender := newWebhookTestHandler()
	installationRepo.installations[123] = &models.Installation{InstallationID: 123, GithubID: 1}
	userRepo.users[1] = &models.User{
		GithubID:     1,
		DeviceTokens: []string{"token-a"},
		AllowedTypes: []models.EventType{models.PrOpened},
	}

	w := postWebhook(handler, "pull_request", prOpenedBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "delivered"}`, w.Body.String())
	assert.Equal(t, []string{"token-a"}, sender.sent)
}

func TestWebhookHandler_InstallationCreated(t *testing.T) {
	handler, installationRepo, _, _ := newWebhookTestHandler()

	w := postWebhook(handler, "installation",
		`{"action": "created", "installation": {"id": 999, "account": {"id": 42}}}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"status": "created"}`, w.Body.String())
	require.NotNil(t, installationRepo.installations[999])
}

func TestWebhookHandler_IgnoredCategory(t *testing.T) {
	handler, _, _, _ := newWebhookTestHandler()

	w := postWebhook(handler, "deployment_status", `{"action": "created"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status": "ignored"}`, w.Body.String())
}

func TestWebhookHandler_Filtered(t *testing.T) {
	handler, installationRepo, userRepo, sender := newWebhookTestHandler()
	installationRepo.installations[123] = &models.Installation{InstallationID: 123, GithubID: 1}
	userRepo.users[1] = &models.User{GithubID: 1, DeviceTokens: []string{"token-a"}}

	w := postWebhook(handler, "pull_request", prOpenedBody)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status": "filtered"}`, w.Body.String())
	assert.Empty(t, sender.sent)
}

func TestWebhookHandler_UnknownInstallation(t *testing.T) {
	handler, _, _, _ := newWebhookTestHandler()

	w := postWebhook(handler, "pull_request", prOpenedBody)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookHandler_UnknownUser(t *testing.T) {
	handler, installationRepo, _, _ := newWebhookTestHandler()
	installationRepo.installations[123] = &models.Installation{InstallationID: 123, GithubID: 1}

	w := postWebhook(handler, "pull_request", prOpenedBody)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookHandler_MalformedPayload(t *testing.T) {
	handler, installationRepo, userRepo, _ := newWebhookTestHandler()
	installationRepo.installations[123] = &models.Installation{InstallationID: 123, GithubID: 1}
	userRepo.users[1] = &models.User{
		GithubID:     1,
		AllowedTypes: []models.EventType{models.IssueAssigned},
	}

	body := `{
		"action": "assigned",
		"issue": {"number": 1, "title": "x", "html_url": "u", "updated_at": "2019-05-15T15:20:18Z"},
		"sender": {"login": "Codertocat"},
		"repository": {"full_name": "Codertocat/Hello-World"},
		"installation": {"id": 123}
	}`

	w := postWebhook(handler, "issues", body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookHandler_InvalidJSON(t *testing.T) {
	handler, _, _, _ := newWebhookTestHandler()

	w := postWebhook(handler, "issues", `{"action":`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
