package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/bounty-service/internal/cache"
	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/events"
	"github.com/spec-kit/bounty-service/internal/policy"
	"github.com/spec-kit/bounty-service/internal/repository"
	apperrors "github.com/spec-kit/bounty-service/pkg/util"
)

// Actor is the authenticated identity performing an operation. It is always
// supplied by the caller; the service never reads ambient session state.
type Actor struct {
	ID          string
	DisplayName string
	Role        domain.UserRole
}

// BountyService is the sole authority for bounty and submission status
// transitions. Every transition and its single ledger entry run inside one
// transaction, so the audit log is a complete replayable history: folding it
// in timestamp order reconstructs current statuses.
type BountyService struct {
	store      repository.Store
	tx         repository.TxRunner
	cache      *cache.BountyCache
	dispatcher events.Dispatcher
}

// BountyDependencies bundles collaborators for the service.
type BountyDependencies struct {
	Store      repository.Store
	Tx         repository.TxRunner
	Cache      *cache.BountyCache
	Dispatcher events.Dispatcher
}

// NewBountyService constructs the service.
func NewBountyService(deps BountyDependencies) *BountyService {
	return &BountyService{
		store:      deps.Store,
		tx:         deps.Tx,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// BountyCreateInput describes bounty creation payload.
type BountyCreateInput struct {
	Title       string
	Description string
	Skills      []string
	RewardBTC   float64
	Deadline    *time.Time
}

// SubmissionCreateInput describes solution submission payload.
type SubmissionCreateInput struct {
	BountyID          string
	RepoURL           string
	SolutionHash      string
	CommitHash        *string
	DeployedURL       *string
	HostedSolutionURL *string
	Comments          *string
}

// PostBounty creates an OPEN bounty owned by the acting company and records
// BOUNTY_POSTED.
func (s *BountyService) PostBounty(ctx context.Context, actor Actor, input BountyCreateInput) (*domain.Bounty, error) {
	if !policy.CanPostBounty(actor.Role) {
		return nil, apperrors.NewForbidden("only companies may post bounties")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if input.RewardBTC <= 0 {
		return nil, apperrors.NewValidationError("reward must be a positive BTC amount", map[string]any{
			"reward_btc": input.RewardBTC,
		})
	}

	bounty := &domain.Bounty{
		CompanyID:   actor.ID,
		CompanyName: actor.DisplayName,
		Title:       title,
		Description: description,
		Skills:      input.Skills,
		RewardBTC:   input.RewardBTC,
		Status:      domain.BountyStatusOpen,
		Deadline:    input.Deadline,
	}

	err := s.tx.WithinTx(ctx, func(r repository.Store) error {
		if err := r.Bounties.Create(ctx, bounty); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domain.AuditLogEntry{
			EventType:         domain.EventBountyPosted,
			ActorUserID:       actor.ID,
			ActorDisplayName:  actor.DisplayName,
			TargetBountyID:    &bounty.ID,
			TargetBountyTitle: &bounty.Title,
			Details: domain.TextDetails(fmt.Sprintf("Bounty %q posted for %s BTC.",
				bounty.Title, formatBTC(bounty.RewardBTC))),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.cache.InvalidateOpen(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventBountyPosted,
		BountyID: bounty.ID,
		Actor:    eventActor(actor),
		Payload: events.BountyPostedPayload{
			Title:     bounty.Title,
			RewardBTC: bounty.RewardBTC,
			Skills:    bounty.Skills,
		},
	})
	return bounty, nil
}

// SubmitSolution records a PENDING_REVIEW submission against an OPEN bounty
// and records SUBMISSION_RECEIVED with a snapshot of the bounty title.
func (s *BountyService) SubmitSolution(ctx context.Context, actor Actor, input SubmissionCreateInput) (*domain.Submission, error) {
	if !policy.CanSubmitSolution(actor.Role) {
		return nil, apperrors.NewForbidden("only developers may submit solutions")
	}
	if strings.TrimSpace(input.RepoURL) == "" || strings.TrimSpace(input.SolutionHash) == "" {
		return nil, apperrors.NewValidationError("repo_url and solution_hash required", nil)
	}

	bounty, err := s.store.Bounties.GetByID(ctx, input.BountyID)
	if err != nil {
		return nil, notFoundOr("bounty", err)
	}
	if bounty.Status != domain.BountyStatusOpen {
		return nil, apperrors.NewInvalidState("bounty is not open for submissions", map[string]any{
			"status": bounty.Status,
		})
	}

	active, err := s.store.Submissions.HasActiveForDeveloper(ctx, bounty.ID, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if active {
		return nil, apperrors.NewInvalidState("developer already has an active submission for this bounty", nil)
	}

	submission := &domain.Submission{
		BountyID:          bounty.ID,
		DeveloperID:       actor.ID,
		DeveloperName:     actor.DisplayName,
		RepoURL:           strings.TrimSpace(input.RepoURL),
		DeployedURL:       input.DeployedURL,
		SolutionHash:      strings.TrimSpace(input.SolutionHash),
		CommitHash:        input.CommitHash,
		HostedSolutionURL: input.HostedSolutionURL,
		Comments:          input.Comments,
		Status:            domain.SubmissionStatusPendingReview,
	}

	// Title snapshot: later edits to the bounty must not rewrite what the
	// ledger said at submission time.
	titleSnapshot := bounty.Title
	err = s.tx.WithinTx(ctx, func(r repository.Store) error {
		// Create re-checks the OPEN status and the duplicate rule inside the
		// transaction; the reads above only shape the error messages.
		if err := r.Submissions.Create(ctx, submission); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domain.AuditLogEntry{
			EventType:          domain.EventSubmissionReceived,
			ActorUserID:        actor.ID,
			ActorDisplayName:   actor.DisplayName,
			TargetBountyID:     &bounty.ID,
			TargetBountyTitle:  &titleSnapshot,
			TargetSubmissionID: &submission.ID,
			Details: domain.TextDetails(fmt.Sprintf("Solution submitted for bounty %q by %s. Repo: %s",
				titleSnapshot, actor.DisplayName, submission.RepoURL)),
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.NewInvalidState("bounty stopped accepting submissions", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventSubmissionReceived,
		BountyID: bounty.ID,
		Actor:    eventActor(actor),
		Payload: events.SubmissionReceivedPayload{
			SubmissionID: submission.ID,
			DeveloperID:  actor.ID,
			RepoURL:      submission.RepoURL,
		},
	})
	return submission, nil
}

// SelectWinner closes the bounty and crowns the submission in two coupled
// writes plus one WINNER_SELECTED entry. Other submissions are left
// untouched. The commit is compare-and-set guarded: of two concurrent calls
// only one can succeed, the other observes InvalidState.
func (s *BountyService) SelectWinner(ctx context.Context, actor Actor, bountyID, submissionID string) error {
	bounty, err := s.store.Bounties.GetByID(ctx, bountyID)
	if err != nil {
		return notFoundOr("bounty", err)
	}
	if !policy.CanDecideBounty(actor.ID, bounty) {
		return apperrors.NewForbidden("only the posting company may select a winner")
	}
	if bounty.Status != domain.BountyStatusOpen && bounty.Status != domain.BountyStatusReviewing {
		return apperrors.NewInvalidState("bounty is already decided", map[string]any{
			"status": bounty.Status,
		})
	}

	submission, err := s.store.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return notFoundOr("submission", err)
	}
	if submission.BountyID != bounty.ID {
		return apperrors.NewValidationError("submission does not belong to this bounty", nil)
	}

	err = s.tx.WithinTx(ctx, func(r repository.Store) error {
		if err := r.Bounties.CloseWithWinner(ctx, bounty.ID, submission.DeveloperID, submission.ID); err != nil {
			return err
		}
		if err := r.Submissions.MarkWinner(ctx, submission.ID, bounty.ID); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domain.AuditLogEntry{
			EventType:          domain.EventWinnerSelected,
			ActorUserID:        actor.ID,
			ActorDisplayName:   actor.DisplayName,
			TargetBountyID:     &bounty.ID,
			TargetBountyTitle:  &bounty.Title,
			TargetSubmissionID: &submission.ID,
			TargetUserID:       &submission.DeveloperID,
			Details: domain.TextDetails(fmt.Sprintf("Winner selected for bounty %q. Submission: %s. Winner: %s",
				bounty.Title, submission.ID, submission.DeveloperName)),
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return apperrors.NewInvalidState("bounty was decided by a concurrent operation", nil)
		}
		return apperrors.MapError(err)
	}

	s.cache.InvalidateOpen(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventWinnerSelected,
		BountyID: bounty.ID,
		Actor:    eventActor(actor),
		Payload: events.WinnerSelectedPayload{
			WinnerID:     submission.DeveloperID,
			SubmissionID: submission.ID,
		},
	})
	return nil
}

// MarkPaid moves a CLOSED bounty to PAID and records
// BOUNTY_PAYMENT_MARKED_PAID with the reward amount in the entry.
func (s *BountyService) MarkPaid(ctx context.Context, actor Actor, bountyID string) error {
	bounty, err := s.store.Bounties.GetByID(ctx, bountyID)
	if err != nil {
		return notFoundOr("bounty", err)
	}
	if !policy.CanDecideBounty(actor.ID, bounty) {
		return apperrors.NewForbidden("only the posting company may mark payment")
	}
	if bounty.Status != domain.BountyStatusClosed {
		return apperrors.NewInvalidState("bounty must be closed before it can be marked paid", map[string]any{
			"status": bounty.Status,
		})
	}

	err = s.tx.WithinTx(ctx, func(r repository.Store) error {
		if err := r.Bounties.MarkPaid(ctx, bounty.ID); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domain.AuditLogEntry{
			EventType:         domain.EventBountyPaymentMarkedPaid,
			ActorUserID:       actor.ID,
			ActorDisplayName:  actor.DisplayName,
			TargetBountyID:    &bounty.ID,
			TargetBountyTitle: &bounty.Title,
			Details: domain.StructuredDetails(map[string]any{
				"btc_amount": bounty.RewardBTC,
			}),
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return apperrors.NewInvalidState("bounty was moved by a concurrent operation", nil)
		}
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventBountyPaid,
		BountyID: bounty.ID,
		Actor:    eventActor(actor),
		Payload:  events.BountyPaidPayload{RewardBTC: bounty.RewardBTC},
	})
	return nil
}

// ListOpenBounties returns OPEN bounties newest first, read through the
// cache when one is configured.
func (s *BountyService) ListOpenBounties(ctx context.Context) ([]domain.Bounty, error) {
	if bounties, ok := s.cache.GetOpen(ctx); ok {
		return bounties, nil
	}
	bounties, err := s.store.Bounties.ListOpen(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cache.SetOpen(ctx, bounties)
	return bounties, nil
}

// GetBounty fetches a single bounty.
func (s *BountyService) GetBounty(ctx context.Context, id string) (*domain.Bounty, error) {
	bounty, err := s.store.Bounties.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr("bounty", err)
	}
	return bounty, nil
}

// ListCompanyBounties returns a company's bounties newest first.
func (s *BountyService) ListCompanyBounties(ctx context.Context, companyID string) ([]domain.Bounty, error) {
	bounties, err := s.store.Bounties.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return bounties, nil
}

// ListSubmissions returns a bounty's submissions newest first. While the
// contest is running only the owner may look; once CLOSED or PAID anyone may.
func (s *BountyService) ListSubmissions(ctx context.Context, actor Actor, bountyID string) ([]domain.Submission, error) {
	bounty, err := s.store.Bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, notFoundOr("bounty", err)
	}
	if !policy.CanViewSubmissions(actor.ID, bounty) {
		return nil, apperrors.NewForbidden("submissions are private while the bounty is open")
	}
	submissions, err := s.store.Submissions.ListByBounty(ctx, bountyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return submissions, nil
}

// ListDeveloperSubmissions returns a developer's submissions newest first.
func (s *BountyService) ListDeveloperSubmissions(ctx context.Context, developerID string) ([]domain.Submission, error) {
	submissions, err := s.store.Submissions.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return submissions, nil
}

// ListAuditLog returns ledger entries newest first.
func (s *BountyService) ListAuditLog(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	entries, err := s.store.Audit.List(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *BountyService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor Actor) events.Actor {
	return events.Actor{
		UserID:      actor.ID,
		DisplayName: actor.DisplayName,
		Role:        actor.Role,
	}
}

func notFoundOr(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.MapError(err)
}

func formatBTC(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
