package dto

import (
	"time"

	"github.com/spec-kit/bounty-service/internal/domain"
)

// CreateBountyRequest payload for posting a bounty.
type CreateBountyRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Skills      []string   `json:"skills"`
	RewardBTC   float64    `json:"reward_btc"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// BountyResponse is the public view of a bounty.
type BountyResponse struct {
	ID                  string              `json:"id"`
	CompanyID           string              `json:"company_id"`
	CompanyName         string              `json:"company_name"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Skills              []string            `json:"skills"`
	RewardBTC           float64             `json:"reward_btc"`
	Status              domain.BountyStatus `json:"status"`
	CreatedAt           time.Time           `json:"created_at"`
	Deadline            *time.Time          `json:"deadline,omitempty"`
	WinnerID            *string             `json:"winner_id,omitempty"`
	WinningSubmissionID *string             `json:"winning_submission_id,omitempty"`
}

// SelectWinnerRequest payload.
type SelectWinnerRequest struct {
	SubmissionID string `json:"submission_id"`
}

// CreateSubmissionRequest payload for submitting a solution.
type CreateSubmissionRequest struct {
	RepoURL           string  `json:"repo_url"`
	SolutionHash      string  `json:"solution_hash"`
	CommitHash        *string `json:"commit_hash,omitempty"`
	DeployedURL       *string `json:"deployed_url,omitempty"`
	HostedSolutionURL *string `json:"hosted_solution_url,omitempty"`
	Comments          *string `json:"comments,omitempty"`
}

// SubmissionResponse is the view of a submission.
type SubmissionResponse struct {
	ID                string                  `json:"id"`
	BountyID          string                  `json:"bounty_id"`
	DeveloperID       string                  `json:"developer_id"`
	DeveloperName     string                  `json:"developer_name"`
	RepoURL           string                  `json:"repo_url"`
	DeployedURL       *string                 `json:"deployed_url,omitempty"`
	SolutionHash      string                  `json:"solution_hash"`
	CommitHash        *string                 `json:"commit_hash,omitempty"`
	HostedSolutionURL *string                 `json:"hosted_solution_url,omitempty"`
	Comments          *string                 `json:"comments,omitempty"`
	Status            domain.SubmissionStatus `json:"status"`
	SubmittedAt       time.Time               `json:"submitted_at"`
}

// AuditLogEntryResponse is the view of a ledger entry. Details is either a
// JSON string or an object, matching what was recorded.
type AuditLogEntryResponse struct {
	ID                 string              `json:"id"`
	Timestamp          time.Time           `json:"timestamp"`
	EventType          domain.AuditEvent   `json:"event_type"`
	ActorUserID        string              `json:"actor_user_id"`
	ActorDisplayName   string              `json:"actor_display_name"`
	TargetBountyID     *string             `json:"target_bounty_id,omitempty"`
	TargetBountyTitle  *string             `json:"target_bounty_title,omitempty"`
	TargetSubmissionID *string             `json:"target_submission_id,omitempty"`
	TargetUserID       *string             `json:"target_user_id,omitempty"`
	Details            domain.AuditDetails `json:"details"`
}
