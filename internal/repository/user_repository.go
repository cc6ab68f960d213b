package repository

import (
	"context"

	"github.com/spec-kit/bounty-service/internal/domain"
)

// UserRepository defines persistence access for user profiles. Role is set
// once at creation; no update path touches it.
type UserRepository interface {
	Create(ctx context.Context, profile *domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	UpdatePayoutAddress(ctx context.Context, id, address string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type userRepository struct {
	db Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	const query = `
        INSERT INTO users (email, display_name, role, company_name, payout_address, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		profile.Email,
		profile.DisplayName,
		profile.Role,
		profile.CompanyName,
		profile.PayoutAddress,
		profile.PasswordHash,
	).Scan(&profile.ID, &profile.CreatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	const query = `
        SELECT id, email, display_name, role, company_name, payout_address, password_hash, created_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	const query = `
        SELECT id, email, display_name, role, company_name, payout_address, password_hash, created_at
        FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&profile.ID,
		&profile.Email,
		&profile.DisplayName,
		&profile.Role,
		&profile.CompanyName,
		&profile.PayoutAddress,
		&profile.PasswordHash,
		&profile.CreatedAt,
	); err != nil {
		return nil, translateNoRows(err)
	}
	return &profile, nil
}

func (r *userRepository) UpdatePayoutAddress(ctx context.Context, id, address string) error {
	const query = `UPDATE users SET payout_address=$1 WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, address, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const query = `UPDATE users SET password_hash=$1 WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, hash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
