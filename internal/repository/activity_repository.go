package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ActivityRepo stores audit records in `activity_logs`.
type ActivityRepo struct{ db *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// Record inserts one audit record.
func (r *ActivityRepo) Record(ctx context.Context, a model.ActivityLog) error {
	var meta any
	if len(a.Metadata) > 0 {
		meta = string(a.Metadata)
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO activity_logs (action, entity, entity_id, user_id, metadata) VALUES (?, ?, ?, ?, ?)",
		a.Action, a.Entity, a.EntityID, a.UserID, meta)
	return errors.Wrap(err, "insert activity log")
}

// List returns a page of audit records, newest first, plus the total count.
func (r *ActivityRepo) List(ctx context.Context, limit, offset int) ([]model.ActivityLog, int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT a.id, a.action, a.entity, a.entity_id, a.user_id, a.metadata, a.created_at, u.id, u.name, u.email, u.role"+
			" FROM activity_logs a LEFT JOIN users u ON u.id = a.user_id"+
			" ORDER BY a.created_at DESC, a.id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query activity logs")
	}
	defer rows.Close()

	logs := make([]model.ActivityLog, 0)
	for rows.Next() {
		var (
			a                    model.ActivityLog
			entityID, userID     sql.NullInt64
			meta                 []byte
			uID                  sql.NullInt64
			uName, uEmail, uRole sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Action, &a.Entity, &entityID, &userID, &meta, &a.CreatedAt,
			&uID, &uName, &uEmail, &uRole); err != nil {
			return nil, 0, errors.Wrap(err, "scan activity log")
		}
		if entityID.Valid {
			v := uint64(entityID.Int64)
			a.EntityID = &v
		}
		if userID.Valid {
			v := uint64(userID.Int64)
			a.UserID = &v
		}
		if len(meta) > 0 {
			a.Metadata = append([]byte(nil), meta...)
		}
		if uID.Valid {
			a.User = &model.UserSummary{ID: uint64(uID.Int64), Name: uName.String, Email: uEmail.String, Role: uRole.String}
		}
		logs = append(logs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate activity logs")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_logs").Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count activity logs")
	}
	return logs, total, nil
}
