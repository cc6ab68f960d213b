package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/repository"
	"github.com/spec-kit/bounty-service/internal/repository/memory"
	apperrors "github.com/spec-kit/bounty-service/pkg/util"
)

func newTestBountyService(t *testing.T) (*BountyService, repository.Store) {
	t.Helper()
	memStore := memory.NewStore()
	store := memStore.Repositories()
	svc := NewBountyService(BountyDependencies{
		Store: store,
		Tx:    memStore,
	})
	return svc, store
}

func companyActor() Actor {
	return Actor{ID: "company-1", DisplayName: "Acme Corp", Role: domain.RoleCompany}
}

func developerActor() Actor {
	return Actor{ID: "dev-1", DisplayName: "Ada", Role: domain.RoleDeveloper}
}

func postTestBounty(t *testing.T, svc *BountyService, actor Actor) *domain.Bounty {
	t.Helper()
	bounty, err := svc.PostBounty(context.Background(), actor, BountyCreateInput{
		Title:       "Implement lightning invoices",
		Description: "Add BOLT11 invoice generation",
		Skills:      []string{"go", "bitcoin"},
		RewardBTC:   0.5,
	})
	require.NoError(t, err)
	return bounty
}

func submitTestSolution(t *testing.T, svc *BountyService, actor Actor, bountyID string) *domain.Submission {
	t.Helper()
	submission, err := svc.SubmitSolution(context.Background(), actor, SubmissionCreateInput{
		BountyID:     bountyID,
		RepoURL:      "https://github.com/ada/solution",
		SolutionHash: "deadbeef",
	})
	require.NoError(t, err)
	return submission
}

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, code, domainErr.Code)
}

func TestPostBounty(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()

	bounty := postTestBounty(t, svc, companyActor())

	assert.NotEmpty(t, bounty.ID)
	assert.Equal(t, domain.BountyStatusOpen, bounty.Status)
	assert.Equal(t, "Acme Corp", bounty.CompanyName)
	assert.Nil(t, bounty.WinnerID)

	entries, err := store.Audit.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EventBountyPosted, entries[0].EventType)
	assert.Equal(t, "company-1", entries[0].ActorUserID)
	require.NotNil(t, entries[0].TargetBountyTitle)
	assert.Equal(t, bounty.Title, *entries[0].TargetBountyTitle)
	assert.Equal(t, `Bounty "Implement lightning invoices" posted for 0.5 BTC.`, entries[0].Details.Text)
}

func TestPostBountyRejectsNonPositiveReward(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()

	for _, reward := range []float64{0, -0.1} {
		_, err := svc.PostBounty(ctx, companyActor(), BountyCreateInput{
			Title:       "t",
			Description: "d",
			RewardBTC:   reward,
		})
		assertDomainErrorCode(t, err, "VALIDATION_FAILED")
	}

	entries, err := store.Audit.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected operations must leave no ledger entry")
}

func TestPostBountyForbiddenForDevelopers(t *testing.T) {
	svc, _ := newTestBountyService(t)

	_, err := svc.PostBounty(context.Background(), developerActor(), BountyCreateInput{
		Title:       "t",
		Description: "d",
		RewardBTC:   1,
	})
	assertDomainErrorCode(t, err, "FORBIDDEN")
}

func TestSubmitSolution(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()

	bounty := postTestBounty(t, svc, companyActor())
	submission := submitTestSolution(t, svc, developerActor(), bounty.ID)

	assert.Equal(t, domain.SubmissionStatusPendingReview, submission.Status)
	assert.Equal(t, "Ada", submission.DeveloperName)

	entries, err := store.Audit.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EventSubmissionReceived, entries[0].EventType)
	require.NotNil(t, entries[0].TargetSubmissionID)
	assert.Equal(t, submission.ID, *entries[0].TargetSubmissionID)
}

func TestSubmitSolutionOnClosedBounty(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()

	bounty := postTestBounty(t, svc, company)
	winner := submitTestSolution(t, svc, developerActor(), bounty.ID)
	require.NoError(t, svc.SelectWinner(ctx, company, bounty.ID, winner.ID))

	late := Actor{ID: "dev-2", DisplayName: "Grace", Role: domain.RoleDeveloper}
	_, err := svc.SubmitSolution(ctx, late, SubmissionCreateInput{
		BountyID:     bounty.ID,
		RepoURL:      "https://github.com/grace/solution",
		SolutionHash: "cafebabe",
	})
	assertDomainErrorCode(t, err, "INVALID_STATE")

	// The failed attempt left no trace: no submission row, no ledger entry.
	submissions, err := store.Submissions.ListByDeveloper(ctx, late.ID)
	require.NoError(t, err)
	assert.Empty(t, submissions)

	entries, err := store.Audit.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSubmitSolutionDuplicateActive(t *testing.T) {
	svc, _ := newTestBountyService(t)
	ctx := context.Background()
	dev := developerActor()

	bounty := postTestBounty(t, svc, companyActor())
	submitTestSolution(t, svc, dev, bounty.ID)

	_, err := svc.SubmitSolution(ctx, dev, SubmissionCreateInput{
		BountyID:     bounty.ID,
		RepoURL:      "https://github.com/ada/second",
		SolutionHash: "feedface",
	})
	assertDomainErrorCode(t, err, "INVALID_STATE")
}

func TestSubmitSolutionUnknownBounty(t *testing.T) {
	svc, _ := newTestBountyService(t)

	_, err := svc.SubmitSolution(context.Background(), developerActor(), SubmissionCreateInput{
		BountyID:     "missing",
		RepoURL:      "https://github.com/ada/solution",
		SolutionHash: "deadbeef",
	})
	assertDomainErrorCode(t, err, "NOT_FOUND")
}

func TestSelectWinner(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()
	dev := developerActor()

	bounty := postTestBounty(t, svc, company)
	other := Actor{ID: "dev-2", DisplayName: "Grace", Role: domain.RoleDeveloper}
	winning := submitTestSolution(t, svc, dev, bounty.ID)
	losing := submitTestSolution(t, svc, other, bounty.ID)

	require.NoError(t, svc.SelectWinner(ctx, company, bounty.ID, winning.ID))

	updated, err := store.Bounties.GetByID(ctx, bounty.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusClosed, updated.Status)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, dev.ID, *updated.WinnerID)
	require.NotNil(t, updated.WinningSubmissionID)
	assert.Equal(t, winning.ID, *updated.WinningSubmissionID)

	crowned, err := store.Submissions.GetByID(ctx, winning.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusWinner, crowned.Status)

	// Losing submissions stay untouched.
	untouched, err := store.Submissions.GetByID(ctx, losing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusPendingReview, untouched.Status)

	entries, err := store.Audit.List(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, domain.EventWinnerSelected, entries[0].EventType)
	require.NotNil(t, entries[0].TargetUserID)
	assert.Equal(t, dev.ID, *entries[0].TargetUserID)
}

func TestSelectWinnerTwice(t *testing.T) {
	svc, _ := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()

	bounty := postTestBounty(t, svc, company)
	first := submitTestSolution(t, svc, developerActor(), bounty.ID)
	second := submitTestSolution(t, svc, Actor{ID: "dev-2", DisplayName: "Grace", Role: domain.RoleDeveloper}, bounty.ID)

	require.NoError(t, svc.SelectWinner(ctx, company, bounty.ID, first.ID))
	err := svc.SelectWinner(ctx, company, bounty.ID, second.ID)
	assertDomainErrorCode(t, err, "INVALID_STATE")
}

func TestSelectWinnerConcurrent(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()

	bounty := postTestBounty(t, svc, company)
	first := submitTestSolution(t, svc, developerActor(), bounty.ID)
	second := submitTestSolution(t, svc, Actor{ID: "dev-2", DisplayName: "Grace", Role: domain.RoleDeveloper}, bounty.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, submissionID := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			errs[idx] = svc.SelectWinner(ctx, company, bounty.ID, id)
		}(i, submissionID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assertDomainErrorCode(t, err, "INVALID_STATE")
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent selection may win")

	updated, err := store.Bounties.GetByID(ctx, bounty.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusClosed, updated.Status)
}

// interleavingTxRunner fires a callback once, just before delegating the
// first transaction, to wedge a competing commit into the window between a
// service's precondition reads and its transaction.
type interleavingTxRunner struct {
	inner  repository.TxRunner
	before func()
}

func (r *interleavingTxRunner) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if r.before != nil {
		hook := r.before
		r.before = nil
		hook()
	}
	return r.inner.WithinTx(ctx, fn)
}

// TestSubmitSolutionLosesRaceWithWinnerSelection commits a winner selection
// between SubmitSolution's status read and its transaction. The submission
// must be refused: no row, and no SUBMISSION_RECEIVED after WINNER_SELECTED.
func TestSubmitSolutionLosesRaceWithWinnerSelection(t *testing.T) {
	memStore := memory.NewStore()
	store := memStore.Repositories()
	control := NewBountyService(BountyDependencies{Store: store, Tx: memStore})
	ctx := context.Background()
	company := companyActor()

	bounty := postTestBounty(t, control, company)
	winning := submitTestSolution(t, control, developerActor(), bounty.ID)

	racing := NewBountyService(BountyDependencies{
		Store: store,
		Tx: &interleavingTxRunner{inner: memStore, before: func() {
			require.NoError(t, control.SelectWinner(ctx, company, bounty.ID, winning.ID))
		}},
	})

	late := Actor{ID: "dev-2", DisplayName: "Grace", Role: domain.RoleDeveloper}
	_, err := racing.SubmitSolution(ctx, late, SubmissionCreateInput{
		BountyID:     bounty.ID,
		RepoURL:      "https://github.com/grace/solution",
		SolutionHash: "cafebabe",
	})
	assertDomainErrorCode(t, err, "INVALID_STATE")

	submissions, err := store.Submissions.ListByDeveloper(ctx, late.ID)
	require.NoError(t, err)
	assert.Empty(t, submissions, "no submission may land on a decided bounty")

	entries, err := store.Audit.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.EventWinnerSelected, entries[0].EventType)
}

func TestSelectWinnerWrongOwner(t *testing.T) {
	svc, _ := newTestBountyService(t)
	ctx := context.Background()

	bounty := postTestBounty(t, svc, companyActor())
	submission := submitTestSolution(t, svc, developerActor(), bounty.ID)

	intruder := Actor{ID: "company-2", DisplayName: "Evil Inc", Role: domain.RoleCompany}
	err := svc.SelectWinner(ctx, intruder, bounty.ID, submission.ID)
	assertDomainErrorCode(t, err, "FORBIDDEN")
}

func TestSelectWinnerSubmissionMismatch(t *testing.T) {
	svc, _ := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()

	bounty := postTestBounty(t, svc, company)
	otherBounty := postTestBounty(t, svc, company)
	stray := submitTestSolution(t, svc, developerActor(), otherBounty.ID)

	err := svc.SelectWinner(ctx, company, bounty.ID, stray.ID)
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestMarkPaid(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()

	bounty := postTestBounty(t, svc, company)
	submission := submitTestSolution(t, svc, developerActor(), bounty.ID)

	// PAID requires CLOSED; straight from OPEN must fail.
	err := svc.MarkPaid(ctx, company, bounty.ID)
	assertDomainErrorCode(t, err, "INVALID_STATE")

	require.NoError(t, svc.SelectWinner(ctx, company, bounty.ID, submission.ID))
	require.NoError(t, svc.MarkPaid(ctx, company, bounty.ID))

	updated, err := store.Bounties.GetByID(ctx, bounty.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusPaid, updated.Status)

	entries, err := store.Audit.List(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	paid := entries[0]
	assert.Equal(t, domain.EventBountyPaymentMarkedPaid, paid.EventType)
	require.True(t, paid.Details.IsStructured())
	assert.Equal(t, 0.5, paid.Details.Data["btc_amount"])

	// PAID is terminal.
	err = svc.MarkPaid(ctx, company, bounty.ID)
	assertDomainErrorCode(t, err, "INVALID_STATE")
}

func TestListOpenBounties(t *testing.T) {
	svc, _ := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()

	older := postTestBounty(t, svc, company)
	newer := postTestBounty(t, svc, company)
	decided := postTestBounty(t, svc, company)
	submission := submitTestSolution(t, svc, developerActor(), decided.ID)
	require.NoError(t, svc.SelectWinner(ctx, company, decided.ID, submission.ID))

	open, err := svc.ListOpenBounties(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, newer.ID, open[0].ID, "newest first")
	assert.Equal(t, older.ID, open[1].ID)
}

func TestListSubmissionsVisibility(t *testing.T) {
	svc, _ := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()
	dev := developerActor()

	bounty := postTestBounty(t, svc, company)
	submission := submitTestSolution(t, svc, dev, bounty.ID)

	// Owner sees submissions while the bounty is open.
	owned, err := svc.ListSubmissions(ctx, company, bounty.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	// A competing developer does not.
	_, err = svc.ListSubmissions(ctx, Actor{ID: "dev-2", DisplayName: "Grace", Role: domain.RoleDeveloper}, bounty.ID)
	assertDomainErrorCode(t, err, "FORBIDDEN")

	require.NoError(t, svc.SelectWinner(ctx, company, bounty.ID, submission.ID))

	// Once decided, anyone may look.
	visible, err := svc.ListSubmissions(ctx, Actor{ID: "dev-2", DisplayName: "Grace", Role: domain.RoleDeveloper}, bounty.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

// TestLedgerReplay folds the audit log oldest-first and checks that the
// reconstructed statuses match the stored aggregates.
func TestLedgerReplay(t *testing.T) {
	svc, store := newTestBountyService(t)
	ctx := context.Background()
	company := companyActor()

	paidBounty := postTestBounty(t, svc, company)
	openBounty := postTestBounty(t, svc, company)
	submission := submitTestSolution(t, svc, developerActor(), paidBounty.ID)
	require.NoError(t, svc.SelectWinner(ctx, company, paidBounty.ID, submission.ID))
	require.NoError(t, svc.MarkPaid(ctx, company, paidBounty.ID))

	// limit 0 asks for the full sequence; a replay must not guess a cap.
	entries, err := store.Audit.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Timestamps are monotonically non-decreasing; List returns newest first.
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i-1].Timestamp.Before(entries[i].Timestamp))
	}

	bountyStatus := make(map[string]domain.BountyStatus)
	submissionStatus := make(map[string]domain.SubmissionStatus)
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		switch entry.EventType {
		case domain.EventBountyPosted:
			bountyStatus[*entry.TargetBountyID] = domain.BountyStatusOpen
		case domain.EventSubmissionReceived:
			submissionStatus[*entry.TargetSubmissionID] = domain.SubmissionStatusPendingReview
		case domain.EventWinnerSelected:
			bountyStatus[*entry.TargetBountyID] = domain.BountyStatusClosed
			submissionStatus[*entry.TargetSubmissionID] = domain.SubmissionStatusWinner
		case domain.EventBountyPaymentMarkedPaid:
			bountyStatus[*entry.TargetBountyID] = domain.BountyStatusPaid
		}
	}

	assert.Equal(t, domain.BountyStatusPaid, bountyStatus[paidBounty.ID])
	assert.Equal(t, domain.BountyStatusOpen, bountyStatus[openBounty.ID])
	assert.Equal(t, domain.SubmissionStatusWinner, submissionStatus[submission.ID])
}
