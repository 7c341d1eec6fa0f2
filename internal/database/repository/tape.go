package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"calcpad/internal/database"
)

// TapeRepo handles tape entries.
type TapeRepo struct {
	db *sql.DB
}

func NewTapeRepo(db *sql.DB) *TapeRepo { return &TapeRepo{db: db} }

const insertTapeEntry = `
	INSERT INTO tape_entries(id, session_id, left_operand, operation, right_operand, result, failed, expression, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`

func insertArgs(e TapeEntry) []any {
	return []any{e.ID, e.SessionID, e.LeftOperand, e.Operation, e.RightOperand, e.Result, e.Failed, e.Expression, e.CreatedAt}
}

func (r *TapeRepo) Insert(ctx context.Context, e TapeEntry) error {
	_, err := r.db.ExecContext(ctx, insertTapeEntry, insertArgs(e)...)
	return err
}

// InsertAll writes entries in one transaction: either every entry lands or
// none does.
func (r *TapeRepo) InsertAll(ctx context.Context, entries []TapeEntry) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, insertTapeEntry, insertArgs(e)...); err != nil {
				return fmt.Errorf("insert %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (r *TapeRepo) ByID(ctx context.Context, id string) (*TapeEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tapeColumns+` FROM tape_entries WHERE id = ?`, id)
	e, err := scanTapeEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// List returns entries newest first.
func (r *TapeRepo) List(ctx context.Context, f TapeFilter) ([]TapeEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	q := `SELECT ` + tapeColumns + ` FROM tape_entries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TapeEntry
	for rows.Next() {
		e, err := scanTapeEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *TapeRepo) Count(ctx context.Context, sessionID string) (int, error) {
	q := `SELECT COUNT(*) FROM tape_entries`
	var args []any
	if sessionID != "" {
		q += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteSession removes every entry of a session and reports how many went.
func (r *TapeRepo) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tape_entries WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const tapeColumns = `id, session_id, left_operand, operation, right_operand, result, failed, expression, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTapeEntry(s scanner) (*TapeEntry, error) {
	var (
		e      TapeEntry
		result sql.NullString
	)
	if err := s.Scan(&e.ID, &e.SessionID, &e.LeftOperand, &e.Operation, &e.RightOperand, &result, &e.Failed, &e.Expression, &e.CreatedAt); err != nil {
		return nil, err
	}
	if result.Valid {
		e.Result = &result.String
	}
	return &e, nil
}
