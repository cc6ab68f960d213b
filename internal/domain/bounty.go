package domain

import "time"

// BountyStatus enumerates lifecycle states for bounties.
//
// REVIEWING is declared for future moderation gating; no current operation
// transitions into it.
type BountyStatus string

const (
	BountyStatusOpen      BountyStatus = "OPEN"
	BountyStatusReviewing BountyStatus = "REVIEWING"
	BountyStatusClosed    BountyStatus = "CLOSED"
	BountyStatusPaid      BountyStatus = "PAID"
)

// Bounty is the aggregate for posted challenges. CompanyName is a
// point-in-time snapshot taken at posting, not a live lookup. WinnerID and
// WinningSubmissionID are set together when the bounty closes, never
// individually. RewardBTC is immutable after creation.
type Bounty struct {
	ID                  string
	CompanyID           string
	CompanyName         string
	Title               string
	Description         string
	Skills              []string
	RewardBTC           float64
	Status              BountyStatus
	CreatedAt           time.Time
	Deadline            *time.Time
	WinnerID            *string
	WinningSubmissionID *string
}
