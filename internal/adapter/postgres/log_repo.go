package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"noteflow/internal/domain"

	"github.com/lib/pq"
)

var _ domain.LogRepository = (*DB)(nil)

const logColumns = "id, user_id, substance, quantity, unit, logged_at, location, context, emotions"

// UpsertLog inserts or replaces a substance log.
func (d *DB) UpsertLog(ctx context.Context, l domain.SubstanceLog) error {
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO substance_logs(`+logColumns+`)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			substance = EXCLUDED.substance,
			quantity = EXCLUDED.quantity,
			unit = EXCLUDED.unit,
			logged_at = EXCLUDED.logged_at,
			location = EXCLUDED.location,
			context = EXCLUDED.context,
			emotions = EXCLUDED.emotions
		WHERE substance_logs.user_id = EXCLUDED.user_id;`,
		l.ID, l.UserID, l.Substance, l.Quantity, l.Unit, l.Timestamp.UTC(),
		l.Location, l.Context, pq.Array(nonNil(l.Emotions)),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetLog returns one log owned by the user.
func (d *DB) GetLog(ctx context.Context, userID int64, id string) (*domain.SubstanceLog, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM substance_logs WHERE id=$1 AND user_id=$2;", id, userID)
	l, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLog removes one log owned by the user.
func (d *DB) DeleteLog(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM substance_logs WHERE id=$1 AND user_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListLogs returns the user's logs within r, newest first.
func (d *DB) ListLogs(ctx context.Context, userID int64, r domain.DateRange) ([]domain.SubstanceLog, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+logColumns+` FROM substance_logs
		WHERE user_id=$1 AND ($2::timestamptz IS NULL OR logged_at >= $2) AND ($3::timestamptz IS NULL OR logged_at <= $3)
		ORDER BY logged_at DESC;`,
		userID, nullTime(r.Start), nullTime(r.End))
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.SubstanceLog, 0)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteAllLogs removes every log the user owns.
func (d *DB) DeleteAllLogs(ctx context.Context, userID int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM substance_logs WHERE user_id=$1;", userID)
	return err
}

func scanLog(s scanner) (domain.SubstanceLog, error) {
	var l domain.SubstanceLog
	var emotions pq.StringArray
	err := s.Scan(&l.ID, &l.UserID, &l.Substance, &l.Quantity, &l.Unit,
		&l.Timestamp, &l.Location, &l.Context, &emotions)
	l.Emotions = nonNil(emotions)
	return l, err
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
