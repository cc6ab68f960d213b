package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bounty-service/internal/domain"
)

// BountyRepository encapsulates bounty persistence. The transition methods
// are compare-and-set guarded: they match on the current status so a
// concurrent writer cannot make the same transition twice.
type BountyRepository interface {
	Create(ctx context.Context, bounty *domain.Bounty) error
	GetByID(ctx context.Context, id string) (*domain.Bounty, error)
	ListOpen(ctx context.Context) ([]domain.Bounty, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Bounty, error)
	// CloseWithWinner moves OPEN|REVIEWING -> CLOSED and sets the winner pair
	// in the same statement. Returns ErrStatusConflict when the guard misses.
	CloseWithWinner(ctx context.Context, bountyID, winnerID, submissionID string) error
	// MarkPaid moves exactly CLOSED -> PAID. Returns ErrStatusConflict when
	// the guard misses.
	MarkPaid(ctx context.Context, bountyID string) error
}

type bountyRepository struct {
	db Querier
}

// NewBountyRepository instantiates repository.
func NewBountyRepository(db Querier) BountyRepository {
	return &bountyRepository{db: db}
}

func (r *bountyRepository) Create(ctx context.Context, bounty *domain.Bounty) error {
	const query = `
        INSERT INTO bounties (company_id, company_name, title, description, skills, reward_btc, status, deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		bounty.CompanyID,
		bounty.CompanyName,
		bounty.Title,
		bounty.Description,
		bounty.Skills,
		bounty.RewardBTC,
		bounty.Status,
		bounty.Deadline,
	).Scan(&bounty.ID, &bounty.CreatedAt)
}

const bountyColumns = `id, company_id, company_name, title, description, skills, reward_btc,
               status, created_at, deadline, winner_id, winning_submission_id`

func (r *bountyRepository) GetByID(ctx context.Context, id string) (*domain.Bounty, error) {
	const query = `
        SELECT ` + bountyColumns + `
        FROM bounties WHERE id=$1`
	var bounty domain.Bounty
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&bounty.ID,
		&bounty.CompanyID,
		&bounty.CompanyName,
		&bounty.Title,
		&bounty.Description,
		&bounty.Skills,
		&bounty.RewardBTC,
		&bounty.Status,
		&bounty.CreatedAt,
		&bounty.Deadline,
		&bounty.WinnerID,
		&bounty.WinningSubmissionID,
	); err != nil {
		return nil, translateNoRows(err)
	}
	return &bounty, nil
}

func (r *bountyRepository) ListOpen(ctx context.Context) ([]domain.Bounty, error) {
	const query = `
        SELECT ` + bountyColumns + `
        FROM bounties WHERE status=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, domain.BountyStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBounties(rows)
}

func (r *bountyRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Bounty, error) {
	const query = `
        SELECT ` + bountyColumns + `
        FROM bounties WHERE company_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBounties(rows)
}

func (r *bountyRepository) CloseWithWinner(ctx context.Context, bountyID, winnerID, submissionID string) error {
	const query = `
        UPDATE bounties SET status=$1, winner_id=$2, winning_submission_id=$3
        WHERE id=$4 AND status = ANY($5)`
	cmd, err := r.db.Exec(ctx, query,
		domain.BountyStatusClosed,
		winnerID,
		submissionID,
		bountyID,
		[]string{string(domain.BountyStatusOpen), string(domain.BountyStatusReviewing)},
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *bountyRepository) MarkPaid(ctx context.Context, bountyID string) error {
	const query = `
        UPDATE bounties SET status=$1
        WHERE id=$2 AND status=$3`
	cmd, err := r.db.Exec(ctx, query,
		domain.BountyStatusPaid,
		bountyID,
		domain.BountyStatusClosed,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func scanBounties(rows pgx.Rows) ([]domain.Bounty, error) {
	var result []domain.Bounty
	for rows.Next() {
		var bounty domain.Bounty
		if err := rows.Scan(
			&bounty.ID,
			&bounty.CompanyID,
			&bounty.CompanyName,
			&bounty.Title,
			&bounty.Description,
			&bounty.Skills,
			&bounty.RewardBTC,
			&bounty.Status,
			&bounty.CreatedAt,
			&bounty.Deadline,
			&bounty.WinnerID,
			&bounty.WinningSubmissionID,
		); err != nil {
			return nil, err
		}
		result = append(result, bounty)
	}
	return result, rows.Err()
}
