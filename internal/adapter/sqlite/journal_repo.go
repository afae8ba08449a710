package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"noteflow/internal/domain"
)

var (
	_ domain.EntryRepository = (*DB)(nil)
	_ domain.LogRepository   = (*DB)(nil)
)

const (
	entryColumns = "id, user_id, day, mood, craving_level, triggers, coping_strategies, notes, created_at, updated_at"
	logColumns   = "id, user_id, substance, quantity, unit, logged_at, location, context, emotions"
)

// UpsertEntry inserts or replaces a journal entry. An id owned by another
// user is reported as not found.
func (d *DB) UpsertEntry(ctx context.Context, e domain.JournalEntry) error {
	triggers, err := encodeLabels(e.Triggers)
	if err != nil {
		return err
	}
	coping, err := encodeLabels(e.CopingStrategies)
	if err != nil {
		return err
	}
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO journal_entries(`+entryColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day = excluded.day,
			mood = excluded.mood,
			craving_level = excluded.craving_level,
			triggers = excluded.triggers,
			coping_strategies = excluded.coping_strategies,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		WHERE journal_entries.user_id = excluded.user_id`,
		e.ID, e.UserID, e.Date, e.Mood, e.CravingLevel, triggers, coping,
		e.Notes, toUnix(e.CreatedAt), toUnix(e.UpdatedAt),
	)
	return affectedOne(res, err)
}

// GetEntry returns one entry owned by the user.
func (d *DB) GetEntry(ctx context.Context, userID int64, id string) (*domain.JournalEntry, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM journal_entries WHERE id = ? AND user_id = ?", id, userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEntry removes one entry owned by the user.
func (d *DB) DeleteEntry(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM journal_entries WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListEntries returns the user's entries within r, oldest day first.
func (d *DB) ListEntries(ctx context.Context, userID int64, r domain.DateRange) ([]domain.JournalEntry, error) {
	start, end := r.StartDay(), r.EndDay()
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+entryColumns+` FROM journal_entries
		WHERE user_id = ? AND (? = '' OR day >= ?) AND (? = '' OR day <= ?)
		ORDER BY day, created_at`,
		userID, start, start, end, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteAllEntries removes every entry the user owns.
func (d *DB) DeleteAllEntries(ctx context.Context, userID int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM journal_entries WHERE user_id = ?", userID)
	return err
}

// UpsertLog inserts or replaces a substance log.
func (d *DB) UpsertLog(ctx context.Context, l domain.SubstanceLog) error {
	emotions, err := encodeLabels(l.Emotions)
	if err != nil {
		return err
	}
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO substance_logs(`+logColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			substance = excluded.substance,
			quantity = excluded.quantity,
			unit = excluded.unit,
			logged_at = excluded.logged_at,
			location = excluded.location,
			context = excluded.context,
			emotions = excluded.emotions
		WHERE substance_logs.user_id = excluded.user_id`,
		l.ID, l.UserID, l.Substance, l.Quantity, l.Unit, toUnix(l.Timestamp),
		l.Location, l.Context, emotions,
	)
	return affectedOne(res, err)
}

// GetLog returns one log owned by the user.
func (d *DB) GetLog(ctx context.Context, userID int64, id string) (*domain.SubstanceLog, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM substance_logs WHERE id = ? AND user_id = ?", id, userID)
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
	res, err := d.sql.ExecContext(ctx, "DELETE FROM substance_logs WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListLogs returns the user's logs within r, newest first.
func (d *DB) ListLogs(ctx context.Context, userID int64, r domain.DateRange) ([]domain.SubstanceLog, error) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !r.Start.IsZero() {
		lo = r.Start.UnixNano()
	}
	if !r.End.IsZero() {
		hi = r.End.UnixNano()
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+logColumns+` FROM substance_logs
		WHERE user_id = ? AND logged_at >= ? AND logged_at <= ?
		ORDER BY logged_at DESC`,
		userID, lo, hi)
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
	_, err := d.sql.ExecContext(ctx, "DELETE FROM substance_logs WHERE user_id = ?", userID)
	return err
}

func affectedOne(res sql.Result, err error) error {
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

func scanEntry(s scanner) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var triggers, coping string
	var created, updated int64
	if err := s.Scan(&e.ID, &e.UserID, &e.Date, &e.Mood, &e.CravingLevel,
		&triggers, &coping, &e.Notes, &created, &updated); err != nil {
		return e, err
	}
	var err error
	if e.Triggers, err = decodeLabels(triggers); err != nil {
		return e, err
	}
	if e.CopingStrategies, err = decodeLabels(coping); err != nil {
		return e, err
	}
	e.CreatedAt, e.UpdatedAt = fromUnix(created), fromUnix(updated)
	return e, nil
}

func scanLog(s scanner) (domain.SubstanceLog, error) {
	var l domain.SubstanceLog
	var emotions string
	var logged int64
	if err := s.Scan(&l.ID, &l.UserID, &l.Substance, &l.Quantity, &l.Unit,
		&logged, &l.Location, &l.Context, &emotions); err != nil {
		return l, err
	}
	var err error
	if l.Emotions, err = decodeLabels(emotions); err != nil {
		return l, err
	}
	l.Timestamp = fromUnix(logged)
	return l, nil
}
