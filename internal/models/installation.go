package models

import (
	"time"

	"github.com/google/uuid"
)

// Installation binds a GitHub App installation to the account that owns it.
// Bindings are written once when the installation is created and never
// updated; AuthorizedRepos is the only mutable field.
type Installation struct {
	ID              uuid.UUID    `json:"id"`
	InstallationID  int64        `json:"installation_id"`
	GithubID        int64        `json:"github_id"`
	AuthorizedRepos []Repository `json:"authorized_repos"`
	CreatedAt       time.Time    `json:"created_at"`
}
