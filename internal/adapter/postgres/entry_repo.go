package postgres

import (
	"context"
	"database/sql"
	"errors"

	"noteflow/internal/domain"

	"github.com/lib/pq"
)

var _ domain.EntryRepository = (*DB)(nil)

const entryColumns = "id, user_id, day, mood, craving_level, triggers, coping_strategies, notes, created_at, updated_at"

// UpsertEntry inserts or replaces a journal entry. Rows owned by another
// user are left alone and reported as not found.
func (d *DB) UpsertEntry(ctx context.Context, e domain.JournalEntry) error {
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO journal_entries(`+entryColumns+`)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			day = EXCLUDED.day,
			mood = EXCLUDED.mood,
			craving_level = EXCLUDED.craving_level,
			triggers = EXCLUDED.triggers,
			coping_strategies = EXCLUDED.coping_strategies,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		WHERE journal_entries.user_id = EXCLUDED.user_id;`,
		e.ID, e.UserID, e.Date, e.Mood, e.CravingLevel,
		pq.Array(nonNil(e.Triggers)), pq.Array(nonNil(e.CopingStrategies)),
		e.Notes, e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
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

// GetEntry returns one entry owned by the user.
func (d *DB) GetEntry(ctx context.Context, userID int64, id string) (*domain.JournalEntry, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM journal_entries WHERE id=$1 AND user_id=$2;", id, userID)
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
	res, err := d.sql.ExecContext(ctx, "DELETE FROM journal_entries WHERE id=$1 AND user_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListEntries returns the user's entries within r, oldest day first.
func (d *DB) ListEntries(ctx context.Context, userID int64, r domain.DateRange) ([]domain.JournalEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+entryColumns+` FROM journal_entries
		WHERE user_id=$1 AND ($2 = '' OR day >= $2) AND ($3 = '' OR day <= $3)
		ORDER BY day, created_at;`,
		userID, r.StartDay(), r.EndDay())
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
	_, err := d.sql.ExecContext(ctx, "DELETE FROM journal_entries WHERE user_id=$1;", userID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var triggers, coping pq.StringArray
	err := s.Scan(&e.ID, &e.UserID, &e.Date, &e.Mood, &e.CravingLevel,
		&triggers, &coping, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	e.Triggers = nonNil(triggers)
	e.CopingStrategies = nonNil(coping)
	return e, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
