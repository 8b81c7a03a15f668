package parsers

import (
	"fmt"

	"github.com/pushrequest/relay/internal/github"
	"github.com/pushrequest/relay/internal/models"
)

// MalformedPayloadError reports a payload whose (category, action) pair the
// relay models, but which is missing a field that branch requires. Callers
// use it to tell garbage payloads apart from combinations that are simply
// not modeled.
type MalformedPayloadError struct {
	Category github.EventCategory
	Action   string
	Field    string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: action %q is missing %s", e.Category, e.Action, e.Field)
}

// Normalize maps a decoded webhook payload onto the canonical Event. A nil
// event with a nil error means the (category, action, state) combination is
// not modeled; installation payloads always fall in that bucket because
// they are handled before normalization.
func Normalize(payload github.WebhookPayload) (*models.Event, error) {
	switch p := payload.(type) {
	case *github.IssuesPayload:
		return parseIssues(p)

	case *github.PullRequestPayload:
		return parsePullRequest(p)

	case *github.PullRequestReviewPayload:
		return parsePullRequestReview(p)

	default:
		return nil, nil
	}
}

func parseIssues(p *github.IssuesPayload) (*models.Event, error) {
	issue := p.Issue

	var eventType models.EventType
	var description string

	switch p.Action {
	case "opened":
		eventType, description = models.IssueOpened, fmt.Sprintf("Opened #%d", issue.Number)

	case "closed":
		eventType, description = models.IssueClosed, fmt.Sprintf("Closed #%d", issue.Number)

	case "assigned":
		assignee := issue.Assignee
		if assignee == nil {
			assignee = p.Assignee
		}
		if assignee == nil {
			return nil, &MalformedPayloadError{Category: github.CategoryIssues, Action: p.Action, Field: "assignee"}
		}
		eventType, description = models.IssueAssigned, fmt.Sprintf("Assigned #%d to @%s", issue.Number, assignee.Login)

	default:
		return nil, nil
	}

	return models.NewEvent(
		eventType,
		p.Repository.FullName,
		issue.Number,
		issue.Title,
		description,
		p.Sender.AvatarURL,
		issue.UpdatedAt,
		issue.HTMLURL,
	), nil
}

func parsePullRequest(p *github.PullRequestPayload) (*models.Event, error) {
	pr := p.PullRequest

	var eventType models.EventType
	var description string

	switch p.Action {
	case "opened":
		eventType, description = models.PrOpened, fmt.Sprintf("Opened #%d", pr.Number)

	case "closed":
		if pr.Merged {
			if pr.Base.Ref == "" {
				return nil, &MalformedPayloadError{Category: github.CategoryPullRequest, Action: p.Action, Field: "base.ref"}
			}
			eventType, description = models.PrMerged, fmt.Sprintf("Merged #%d into %s", pr.Number, pr.Base.Ref)
		} else {
			eventType, description = models.PrClosed, fmt.Sprintf("Closed #%d", pr.Number)
		}

	case "review_requested":
		if p.RequestedReviewer == nil {
			return nil, &MalformedPayloadError{Category: github.CategoryPullRequest, Action: p.Action, Field: "requested_reviewer"}
		}
		eventType = models.PrReviewRequested
		description = fmt.Sprintf("@%s requested a review by @%s", p.Sender.Login, p.RequestedReviewer.Login)

	default:
		return nil, nil
	}

	return models.NewEvent(
		eventType,
		p.Repository.FullName,
		pr.Number,
		pr.Title,
		description,
		p.Sender.AvatarURL,
		pr.UpdatedAt,
		pr.HTMLURL,
	), nil
}

func parsePullRequestReview(p *github.PullRequestReviewPayload) (*models.Event, error) {
	if p.Action != "submitted" {
		return nil, nil
	}

	pr := p.PullRequest

	var description string

	switch p.Review.State {
	case "approved":
		description = fmt.Sprintf("Approved #%d", pr.Number)

	case "changes_requested":
		description = fmt.Sprintf("Requested changes on #%d", pr.Number)

	case "dismissed":
		description = fmt.Sprintf("Dismissed #%d", pr.Number)

	case "commented":
		description = fmt.Sprintf("Commented on #%d", pr.Number)

	default:
		return nil, nil
	}

	return models.NewEvent(
		models.PrReviewed,
		p.Repository.FullName,
		pr.Number,
		pr.Title,
		description,
		p.Sender.AvatarURL,
		pr.UpdatedAt,
		pr.HTMLURL,
	), nil
}
