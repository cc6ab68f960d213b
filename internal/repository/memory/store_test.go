package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/repository"
)

func TestWithinTxRollsBackOnFailure(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(r repository.Store) error {
		if err := r.Bounties.Create(ctx, &domain.Bounty{
			CompanyID:   "company-1",
			CompanyName: "Acme Corp",
			Title:       "t",
			Description: "d",
			RewardBTC:   1,
			Status:      domain.BountyStatusOpen,
		}); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
			EventType:        domain.EventBountyPosted,
			ActorUserID:      "company-1",
			ActorDisplayName: "Acme Corp",
			Details:          domain.TextDetails("t"),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither the bounty nor the ledger entry survives the rollback.
	repos := store.Repositories()
	bounties, err := repos.Bounties.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, bounties)

	entries, err := repos.Audit.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAuditTimestampsMonotonic(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	var stamps []int64
	for i := 0; i < 100; i++ {
		entry := &domain.AuditLogEntry{
			EventType:        domain.EventBountyPosted,
			ActorUserID:      "company-1",
			ActorDisplayName: "Acme Corp",
			Details:          domain.TextDetails("t"),
		}
		require.NoError(t, repos.Audit.Append(ctx, entry))
		stamps = append(stamps, entry.Timestamp.UnixNano())
	}

	for i := 1; i < len(stamps); i++ {
		assert.Greater(t, stamps[i], stamps[i-1])
	}
}

func TestCloseWithWinnerGuards(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	bounty := &domain.Bounty{
		CompanyID:   "company-1",
		CompanyName: "Acme Corp",
		Title:       "t",
		Description: "d",
		RewardBTC:   1,
		Status:      domain.BountyStatusOpen,
	}
	require.NoError(t, repos.Bounties.Create(ctx, bounty))

	require.NoError(t, repos.Bounties.CloseWithWinner(ctx, bounty.ID, "dev-1", "sub-1"))
	err := repos.Bounties.CloseWithWinner(ctx, bounty.ID, "dev-2", "sub-2")
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	err = repos.Bounties.CloseWithWinner(ctx, "missing", "dev-1", "sub-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMarkPaidGuards(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	bounty := &domain.Bounty{
		CompanyID:   "company-1",
		CompanyName: "Acme Corp",
		Title:       "t",
		Description: "d",
		RewardBTC:   1,
		Status:      domain.BountyStatusOpen,
	}
	require.NoError(t, repos.Bounties.Create(ctx, bounty))

	err := repos.Bounties.MarkPaid(ctx, bounty.ID)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	require.NoError(t, repos.Bounties.CloseWithWinner(ctx, bounty.ID, "dev-1", "sub-1"))
	require.NoError(t, repos.Bounties.MarkPaid(ctx, bounty.ID))

	got, err := repos.Bounties.GetByID(ctx, bounty.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusPaid, got.Status)
}

func newOpenBounty(t *testing.T, repos repository.Store, id string) *domain.Bounty {
	t.Helper()
	bounty := &domain.Bounty{
		ID:          id,
		CompanyID:   "company-1",
		CompanyName: "Acme Corp",
		Title:       "t",
		Description: "d",
		RewardBTC:   1,
		Status:      domain.BountyStatusOpen,
	}
	require.NoError(t, repos.Bounties.Create(context.Background(), bounty))
	return bounty
}

func TestMarkWinnerGuards(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	newOpenBounty(t, repos, "b1")
	submission := &domain.Submission{
		BountyID:     "b1",
		DeveloperID:  "dev-1",
		RepoURL:      "https://github.com/ada/solution",
		SolutionHash: "deadbeef",
		Status:       domain.SubmissionStatusPendingReview,
	}
	require.NoError(t, repos.Submissions.Create(ctx, submission))

	// Mismatched bounty id does not crown the submission.
	err := repos.Submissions.MarkWinner(ctx, submission.ID, "b2")
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	require.NoError(t, repos.Submissions.MarkWinner(ctx, submission.ID, "b1"))
	err = repos.Submissions.MarkWinner(ctx, submission.ID, "b1")
	assert.ErrorIs(t, err, repository.ErrStatusConflict)
}

func TestHasActiveForDeveloper(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	newOpenBounty(t, repos, "b1")

	active, err := repos.Submissions.HasActiveForDeveloper(ctx, "b1", "dev-1")
	require.NoError(t, err)
	assert.False(t, active)

	rejected := &domain.Submission{
		BountyID:     "b1",
		DeveloperID:  "dev-1",
		RepoURL:      "https://github.com/ada/solution",
		SolutionHash: "deadbeef",
		Status:       domain.SubmissionStatusRejected,
	}
	require.NoError(t, repos.Submissions.Create(ctx, rejected))

	active, err = repos.Submissions.HasActiveForDeveloper(ctx, "b1", "dev-1")
	require.NoError(t, err)
	assert.False(t, active, "rejected submissions do not block a retry")

	pending := &domain.Submission{
		BountyID:     "b1",
		DeveloperID:  "dev-1",
		RepoURL:      "https://github.com/ada/retry",
		SolutionHash: "cafebabe",
		Status:       domain.SubmissionStatusPendingReview,
	}
	require.NoError(t, repos.Submissions.Create(ctx, pending))

	active, err = repos.Submissions.HasActiveForDeveloper(ctx, "b1", "dev-1")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestSubmissionCreateGuards(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	newSubmission := func(bountyID, developerID string) *domain.Submission {
		return &domain.Submission{
			BountyID:     bountyID,
			DeveloperID:  developerID,
			RepoURL:      "https://github.com/ada/solution",
			SolutionHash: "deadbeef",
			Status:       domain.SubmissionStatusPendingReview,
		}
	}

	// Missing bounty.
	err := repos.Submissions.Create(ctx, newSubmission("missing", "dev-1"))
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	bounty := newOpenBounty(t, repos, "b1")
	require.NoError(t, repos.Submissions.Create(ctx, newSubmission("b1", "dev-1")))

	// Second active submission for the same developer.
	err = repos.Submissions.Create(ctx, newSubmission("b1", "dev-1"))
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	// Bounty no longer OPEN.
	require.NoError(t, repos.Bounties.CloseWithWinner(ctx, bounty.ID, "dev-1", "sub-1"))
	err = repos.Submissions.Create(ctx, newSubmission("b1", "dev-2"))
	assert.ErrorIs(t, err, repository.ErrStatusConflict)
}

// TestWithinTxIsolation checks that a reader of the live store never sees
// writes made by an in-flight transaction.
func TestWithinTxIsolation(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(r repository.Store) error {
		if err := r.Bounties.Create(ctx, &domain.Bounty{
			CompanyID:   "company-1",
			CompanyName: "Acme Corp",
			Title:       "t",
			Description: "d",
			RewardBTC:   1,
			Status:      domain.BountyStatusOpen,
		}); err != nil {
			return err
		}
		// Still invisible outside the transaction.
		live, err := repos.Bounties.ListOpen(ctx)
		if err != nil {
			return err
		}
		assert.Empty(t, live)
		return nil
	})
	require.NoError(t, err)

	// Visible after commit.
	live, err := repos.Bounties.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestAuditListLimit(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, repos.Audit.Append(ctx, &domain.AuditLogEntry{
			EventType:        domain.EventBountyPosted,
			ActorUserID:      "company-1",
			ActorDisplayName: "Acme Corp",
			Details:          domain.TextDetails("t"),
		}))
	}

	limited, err := repos.Audit.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, limited, 10)

	// limit <= 0 returns the full sequence.
	all, err := repos.Audit.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 60)
}
