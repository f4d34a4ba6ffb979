package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditInsert = `
	INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, before_state, after_state, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Create writes an audit log outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	before, after, err := marshalStates(log)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, auditInsert,
		log.ID, log.UserID, log.Action, log.ResourceType, log.ResourceID,
		before, after, log.Status, timeToPgTimestamptz(log.CreatedAt))

	return err
}

// CreateTx writes an audit log in the same unit of work as the change it
// records.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx := tx.(*Tx).PgxTx()

	before, after, err := marshalStates(log)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, auditInsert,
		log.ID, log.UserID, log.Action, log.ResourceType, log.ResourceID,
		before, after, log.Status, timeToPgTimestamptz(log.CreatedAt))

	return err
}

func marshalStates(log *domain.AuditLog) (before, after []byte, err error) {
	if log.BeforeState != nil {
		before, err = json.Marshal(log.BeforeState)
		if err != nil {
			return nil, nil, err
		}
	}

	if log.AfterState != nil {
		after, err = json.Marshal(log.AfterState)
		if err != nil {
			return nil, nil, err
		}
	}

	return before, after, nil
}

// List retrieves audit logs matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.ResourceType != "" {
		add("resource_type = $%d", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add("resource_id = $%d", filter.ResourceID)
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", timeToPgTimestamptz(*filter.StartDate))
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", timeToPgTimestamptz(*filter.EndDate))
	}

	query := `SELECT id, user_id, action, resource_type, resource_id, before_state, after_state, status, created_at FROM audit_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog

	for rows.Next() {
		var (
			log       domain.AuditLog
			before    []byte
			after     []byte
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(&log.ID, &log.UserID, &log.Action, &log.ResourceType,
			&log.ResourceID, &before, &after, &log.Status, &createdAt)
		if err != nil {
			return nil, err
		}

		if len(before) > 0 {
			if err := json.Unmarshal(before, &log.BeforeState); err != nil {
				return nil, err
			}
		}
		if len(after) > 0 {
			if err := json.Unmarshal(after, &log.AfterState); err != nil {
				return nil, err
			}
		}
		log.CreatedAt = createdAt.Time
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
