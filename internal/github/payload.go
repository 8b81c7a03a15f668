package github

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventCategory is the provider-declared topic of a webhook delivery, taken
// from the X-GitHub-Event header.
type EventCategory string

const (
	CategoryInstallation      EventCategory = "installation"
	CategoryIssues            EventCategory = "issues"
	CategoryPullRequest       EventCategory = "pull_request"
	CategoryPullRequestReview EventCategory = "pull_request_review"
)

type Account struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

type RepositorySummary struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	UpdatedAt time.Time `json:"updated_at"`
	Assignee  *Account  `json:"assignee"`
}

type Branch struct {
	Ref string `json:"ref"`
}

type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	UpdatedAt time.Time `json:"updated_at"`
	Merged    bool      `json:"merged"`
	Base      Branch    `json:"base"`
}

type Review struct {
	State string `json:"state"`
}

type InstallationRef struct {
	ID      int64   `json:"id"`
	Account Account `json:"account"`
}

// WebhookPayload is implemented by every decoded payload shape. The
// installation id is needed before normalization, to resolve the owning
// user account.
type WebhookPayload interface {
	InstallID() int64
}

type IssuesPayload struct {
	Action       string            `json:"action"`
	Issue        Issue             `json:"issue"`
	Assignee     *Account          `json:"assignee"`
	Sender       Account           `json:"sender"`
	Repository   RepositorySummary `json:"repository"`
	Installation *InstallationRef  `json:"installation"`
}

type PullRequestPayload struct {
	Action            string            `json:"action"`
	PullRequest       PullRequest       `json:"pull_request"`
	RequestedReviewer *Account          `json:"requested_reviewer"`
	Sender            Account           `json:"sender"`
	Repository        RepositorySummary `json:"repository"`
	Installation      *InstallationRef  `json:"installation"`
}

type PullRequestReviewPayload struct {
	Action       string            `json:"action"`
	Review       Review            `json:"review"`
	PullRequest  PullRequest       `json:"pull_request"`
	Sender       Account           `json:"sender"`
	Repository   RepositorySummary `json:"repository"`
	Installation *InstallationRef  `json:"installation"`
}

type InstallationPayload struct {
	Action       string              `json:"action"`
	Installation InstallationRef     `json:"installation"`
	Repositories []RepositorySummary `json:"repositories"`
	Sender       Account             `json:"sender"`
}

func (p *IssuesPayload) InstallID() int64 {
	if p.Installation == nil {
		return 0
	}
	return p.Installation.ID
}

func (p *PullRequestPayload) InstallID() int64 {
	if p.Installation == nil {
		return 0
	}
	return p.Installation.ID
}

func (p *PullRequestReviewPayload) InstallID() int64 {
	if p.Installation == nil {
		return 0
	}
	return p.Installation.ID
}

func (p *InstallationPayload) InstallID() int64 {
	return p.Installation.ID
}

// DecodePayload converts a raw webhook body into the typed payload for its
// category. Categories the relay does not model decode to (nil, nil) so the
// caller can accept them as a no-op. A body that does not parse as JSON is a
// decode error, not an unknown category.
func DecodePayload(category EventCategory, body []byte) (WebhookPayload, error) {
	var payload WebhookPayload

	switch category {
	case CategoryInstallation:
		payload = &InstallationPayload{}
	case CategoryIssues:
		payload = &IssuesPayload{}
	case CategoryPullRequest:
		payload = &PullRequestPayload{}
	case CategoryPullRequestReview:
		payload = &PullRequestReviewPayload{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(body, payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", category, err)
	}
	return payload, nil
}
