package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	GithubID     int64       `json:"github_id"`
	DeviceTokens []string    `json:"device_tokens"`
	AllowedTypes []EventType `json:"allowed_types"`
	LatestEvent  *Event      `json:"latest_event,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    *time.Time  `json:"updated_at,omitempty"`
}

// AllowsType reports whether the user is subscribed to the given event type.
// An empty AllowedTypes set excludes everything.
func (u *User) AllowsType(t EventType) bool {
	for _, allowed := range u.AllowedTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

func (u *User) HasDeviceToken(token string) bool {
	for _, existing := range u.DeviceTokens {
		if existing == token {
			return true
		}
	}
	return false
}
