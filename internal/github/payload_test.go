package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issuesBody = `{
	"action": "assigned",
	"issue": {
		"number": 1,
		"title": "Spelling error in the README file",
		"html_url": "https://github.com/Codertocat/Hello-World/issues/1",
		"updated_at": "2019-05-15T15:20:18Z",
		"assignee": {"id": 21031067, "login": "Codertocat"}
	},
	"sender": {"id": 21031067, "login": "Codertocat", "avatar_url": "https://avatars1.githubusercontent.com/u/21031067?v=4"},
	"repository": {"id": 135493233, "full_name": "Codertocat/Hello-World"},
	"installation": {"id": 2}
}`

const installationBody = `{
	"action": "created",
	"installation": {"id": 999, "account": {"id": 42, "login": "Codertocat"}},
	"repositories": [
		{"id": 135493233, "full_name": "Codertocat/Hello-World"}
	],
	"sender": {"id": 42, "login": "Codertocat"}
}`

func TestDecodePayload_Issues(t *testing.T) {
	payload, err := DecodePayload(CategoryIssues, []byte(issuesBody))
	require.NoError(t, err)

	issues, ok := payload.(*IssuesPayload)
	require.True(t, ok)

	assert.Equal(t, "assigned", issues.Action)
	assert.Equal(t, 1, issues.Issue.Number)
	assert.Equal(t, "Codertocat", issues.Issue.Assignee.Login)
	assert.Equal(t, "Codertocat/Hello-World", issues.Repository.FullName)
	assert.Equal(t, int64(2), issues.InstallID())
}

func TestDecodePayload_Installation(t *testing.T) {
	payload, err := DecodePayload(CategoryInstallation, []byte(installationBody))
	require.NoError(t, err)

	installation, ok := payload.(*InstallationPayload)
	require.True(t, ok)

	assert.Equal(t, "created", installation.Action)
	assert.Equal(t, int64(999), installation.InstallID())
	assert.Equal(t, int64(42), installation.Installation.Account.ID)
	require.Len(t, installation.Repositories, 1)
	assert.Equal(t, "Codertocat/Hello-World", installation.Repositories[0].FullName)
}

func TestDecodePayload_UnknownCategory(t *testing.T) {
	payload, err := DecodePayload("deployment_status", []byte(`{"action":"created"}`))
	assert.NoError(t, err)
	assert.Nil(t, payload)
}

func TestDecodePayload_EmptyCategory(t *testing.T) {
	payload, err := DecodePayload("", []byte(`{}`))
	assert.NoError(t, err)
	assert.Nil(t, payload)
}

func TestDecodePayload_InvalidJSON(t *testing.T) {
	payload, err := DecodePayload(CategoryIssues, []byte(`{"action":`))
	assert.Error(t, err)
	assert.Nil(t, payload)
}

func TestInstallID_MissingInstallation(t *testing.T) {
	payload, err := DecodePayload(CategoryPullRequest, []byte(`{"action": "opened"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(0), payload.InstallID())
}
