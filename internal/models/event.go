package models

import "time"

type EventType string

const (
	IssueOpened       EventType = "issueOpened"
	IssueClosed       EventType = "issueClosed"
	IssueAssigned     EventType = "issueAssigned"
	PrOpened          EventType = "prOpened"
	PrClosed          EventType = "prClosed"
	PrMerged          EventType = "prMerged"
	PrReviewRequested EventType = "prReviewRequested"
	PrReviewed        EventType = "prReviewed"
)

// AllEventTypes returns every event type the relay knows how to produce.
func AllEventTypes() []EventType {
	return []EventType{
		IssueOpened,
		IssueClosed,
		IssueAssigned,
		PrOpened,
		PrClosed,
		PrMerged,
		PrReviewRequested,
		PrReviewed,
	}
}

// Event is the canonical, provider-agnostic representation of a notable
// change on an issue or pull request. Timestamp carries the provider's
// last-updated time for the subject, not the time the webhook arrived.
type Event struct {
	EventType   EventType `json:"event_type"`
	RepoName    string    `json:"repo_name"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AvatarUrl   string    `json:"avatar_url"`
	Timestamp   time.Time `json:"timestamp"`
	Url         string    `json:"url"`
}

func NewEvent(
	eventType EventType, repoName string, number int, title string, description string,
	avatarUrl string, timestamp time.Time, url string,
) *Event {
	return &Event{
		EventType:   eventType,
		RepoName:    repoName,
		Number:      number,
		Title:       title,
		Description: description,
		AvatarUrl:   avatarUrl,
		Timestamp:   timestamp,
		Url:         url,
	}
}
