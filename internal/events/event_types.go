package events

import (
	"time"

	"github.com/spec-kit/bounty-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated        EventType = "user_created"
	EventBountyPosted       EventType = "bounty_posted"
	EventSubmissionReceived EventType = "submission_received"
	EventWinnerSelected     EventType = "winner_selected"
	EventBountyPaid         EventType = "bounty_paid"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Role        domain.UserRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	BountyID  string      `json:"bounty_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   domain.UserRole `json:"role"`
}

// BountyPostedPayload payload.
type BountyPostedPayload struct {
	Title     string   `json:"title"`
	RewardBTC float64  `json:"reward_btc"`
	Skills    []string `json:"skills,omitempty"`
}

// SubmissionReceivedPayload payload.
type SubmissionReceivedPayload struct {
	SubmissionID string `json:"submission_id"`
	DeveloperID  string `json:"developer_id"`
	RepoURL      string `json:"repo_url"`
}

// WinnerSelectedPayload payload.
type WinnerSelectedPayload struct {
	WinnerID     string `json:"winner_id"`
	SubmissionID string `json:"submission_id"`
}

// BountyPaidPayload payload.
type BountyPaidPayload struct {
	RewardBTC float64 `json:"reward_btc"`
}
