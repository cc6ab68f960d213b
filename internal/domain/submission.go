package domain

import "time"

// SubmissionStatus enumerates lifecycle states for submissions.
//
// REJECTED is declared for future moderation tooling; no current operation
// transitions into it.
type SubmissionStatus string

const (
	SubmissionStatusPendingReview SubmissionStatus = "PENDING_REVIEW"
	SubmissionStatusRejected      SubmissionStatus = "REJECTED"
	SubmissionStatusWinner        SubmissionStatus = "WINNER"
)

// Active reports whether the submission still counts against the
// one-active-submission-per-developer rule.
func (s SubmissionStatus) Active() bool {
	return s != SubmissionStatusRejected
}

// Submission is a developer's proof-of-work response to a bounty.
// DeveloperName is a snapshot of the display name at submission time.
type Submission struct {
	ID                string
	BountyID          string
	DeveloperID       string
	DeveloperName     string
	RepoURL           string
	DeployedURL       *string
	SolutionHash      string
	CommitHash        *string
	HostedSolutionURL *string
	Comments          *string
	Status            SubmissionStatus
	SubmittedAt       time.Time
}
