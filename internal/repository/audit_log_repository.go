package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bounty-service/internal/domain"
)

// AuditLogRepository stores the append-only ledger. There is deliberately no
// update or delete in this contract; Append assigns id and timestamp.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	// List returns entries newest first. A limit <= 0 returns the full
	// sequence.
	List(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
}

type auditLogRepository struct {
	db Querier
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db Querier) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	// clock_timestamp() rather than now(): entries appended inside one tx
	// still get distinct, non-decreasing stamps.
	const query = `
        INSERT INTO audit_log (ts, event_type, actor_user_id, actor_display_name,
            target_bounty_id, target_bounty_title, target_submission_id, target_user_id, details)
        VALUES (clock_timestamp(),$1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, ts`
	return r.db.QueryRow(ctx, query,
		entry.EventType,
		entry.ActorUserID,
		entry.ActorDisplayName,
		entry.TargetBountyID,
		entry.TargetBountyTitle,
		entry.TargetSubmissionID,
		entry.TargetUserID,
		entry.Details,
	).Scan(&entry.ID, &entry.Timestamp)
}

func (r *auditLogRepository) List(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	const query = `
        SELECT id, ts, event_type, actor_user_id, actor_display_name,
               target_bounty_id, target_bounty_title, target_submission_id, target_user_id, details
        FROM audit_log ORDER BY ts DESC`
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.db.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.EventType,
			&entry.ActorUserID,
			&entry.ActorDisplayName,
			&entry.TargetBountyID,
			&entry.TargetBountyTitle,
			&entry.TargetSubmissionID,
			&entry.TargetUserID,
			&entry.Details,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
