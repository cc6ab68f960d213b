package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/bounty-service/internal/domain"
)

// SubmissionRepository encapsulates submission persistence.
type SubmissionRepository interface {
	// Create inserts a submission only while its bounty is OPEN and the
	// developer has no other active submission for it. Both conditions are
	// checked in the same statement; a miss returns ErrStatusConflict.
	Create(ctx context.Context, submission *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	ListByBounty(ctx context.Context, bountyID string) ([]domain.Submission, error)
	ListByDeveloper(ctx context.Context, developerID string) ([]domain.Submission, error)
	// HasActiveForDeveloper reports whether the developer already has a
	// non-rejected submission for the bounty.
	HasActiveForDeveloper(ctx context.Context, bountyID, developerID string) (bool, error)
	// MarkWinner moves PENDING_REVIEW -> WINNER for a submission of the given
	// bounty. Returns ErrStatusConflict when the guard misses.
	MarkWinner(ctx context.Context, submissionID, bountyID string) error
}

type submissionRepository struct {
	db Querier
}

// NewSubmissionRepository instantiates repository.
func NewSubmissionRepository(db Querier) SubmissionRepository {
	return &submissionRepository{db: db}
}

const submissionColumns = `id, bounty_id, developer_id, developer_name, repo_url, deployed_url,
               solution_hash, commit_hash, hosted_solution_url, comments, status, submitted_at`

func (r *submissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	const query = `
        INSERT INTO submissions (bounty_id, developer_id, developer_name, repo_url, deployed_url,
            solution_hash, commit_hash, hosted_solution_url, comments, status)
        SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
        WHERE EXISTS (SELECT 1 FROM bounties WHERE id=$1 AND status=$11)
          AND NOT EXISTS (
            SELECT 1 FROM submissions WHERE bounty_id=$1 AND developer_id=$2 AND status<>$12
          )
        RETURNING id, submitted_at`
	err := r.db.QueryRow(ctx, query,
		submission.BountyID,
		submission.DeveloperID,
		submission.DeveloperName,
		submission.RepoURL,
		submission.DeployedURL,
		submission.SolutionHash,
		submission.CommitHash,
		submission.HostedSolutionURL,
		submission.Comments,
		submission.Status,
		domain.BountyStatusOpen,
		domain.SubmissionStatusRejected,
	).Scan(&submission.ID, &submission.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStatusConflict
	}
	// Concurrent inserts that both pass the NOT EXISTS read trip the partial
	// unique index instead.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrStatusConflict
	}
	return err
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	const query = `
        SELECT ` + submissionColumns + `
        FROM submissions WHERE id=$1`
	var submission domain.Submission
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&submission.ID,
		&submission.BountyID,
		&submission.DeveloperID,
		&submission.DeveloperName,
		&submission.RepoURL,
		&submission.DeployedURL,
		&submission.SolutionHash,
		&submission.CommitHash,
		&submission.HostedSolutionURL,
		&submission.Comments,
		&submission.Status,
		&submission.SubmittedAt,
	); err != nil {
		return nil, translateNoRows(err)
	}
	return &submission, nil
}

func (r *submissionRepository) ListByBounty(ctx context.Context, bountyID string) ([]domain.Submission, error) {
	const query = `
        SELECT ` + submissionColumns + `
        FROM submissions WHERE bounty_id=$1 ORDER BY submitted_at DESC`
	rows, err := r.db.Query(ctx, query, bountyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (r *submissionRepository) ListByDeveloper(ctx context.Context, developerID string) ([]domain.Submission, error) {
	const query = `
        SELECT ` + submissionColumns + `
        FROM submissions WHERE developer_id=$1 ORDER BY submitted_at DESC`
	rows, err := r.db.Query(ctx, query, developerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (r *submissionRepository) HasActiveForDeveloper(ctx context.Context, bountyID, developerID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM submissions
            WHERE bounty_id=$1 AND developer_id=$2 AND status<>$3
        )`
	var exists bool
	if err := r.db.QueryRow(ctx, query, bountyID, developerID, domain.SubmissionStatusRejected).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *submissionRepository) MarkWinner(ctx context.Context, submissionID, bountyID string) error {
	const query = `
        UPDATE submissions SET status=$1
        WHERE id=$2 AND bounty_id=$3 AND status=$4`
	cmd, err := r.db.Exec(ctx, query,
		domain.SubmissionStatusWinner,
		submissionID,
		bountyID,
		domain.SubmissionStatusPendingReview,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func scanSubmissions(rows pgx.Rows) ([]domain.Submission, error) {
	var result []domain.Submission
	for rows.Next() {
		var submission domain.Submission
		if err := rows.Scan(
			&submission.ID,
			&submission.BountyID,
			&submission.DeveloperID,
			&submission.DeveloperName,
			&submission.RepoURL,
			&submission.DeployedURL,
			&submission.SolutionHash,
			&submission.CommitHash,
			&submission.HostedSolutionURL,
			&submission.Comments,
			&submission.Status,
			&submission.SubmittedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, submission)
	}
	return result, rows.Err()
}
