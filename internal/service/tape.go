package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"calcpad/internal/database"
	"calcpad/internal/database/repository"
	"calcpad/internal/engine"
)

// TapeService writes engine evaluations to the persistent tape.
type TapeService struct {
	Entries *repository.TapeRepo
}

// Record stores evaluations for the given session. Several evaluations are
// written in one transaction so a batch of actions is never half recorded.
func (s *TapeService) Record(ctx context.Context, sessionID string, evals ...engine.Evaluation) error {
	if s == nil || s.Entries == nil {
		return fmt.Errorf("tape: repository not configured")
	}
	switch len(evals) {
	case 0:
		return nil
	case 1:
		if err := s.Entries.Insert(ctx, EntryFromEvaluation(sessionID, evals[0])); err != nil {
			return fmt.Errorf("tape: insert: %w", err)
		}
		return nil
	}
	entries := make([]repository.TapeEntry, len(evals))
	for i, ev := range evals {
		entries[i] = EntryFromEvaluation(sessionID, ev)
	}
	if err := s.Entries.InsertAll(ctx, entries); err != nil {
		return fmt.Errorf("tape: insert %d entries: %w", len(entries), err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty sessionID spans
// every session.
func (s *TapeService) Recent(ctx context.Context, sessionID string, limit int) ([]repository.TapeEntry, error) {
	entries, err := s.Entries.List(ctx, repository.TapeFilter{SessionID: sessionID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("tape: list: %w", err)
	}
	return entries, nil
}

// Total counts the entries Recent would page through without a limit.
func (s *TapeService) Total(ctx context.Context, sessionID string) (int, error) {
	n, err := s.Entries.Count(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("tape: count: %w", err)
	}
	return n, nil
}

// Entry returns one entry, or nil when id is unknown.
func (s *TapeService) Entry(ctx context.Context, id string) (*repository.TapeEntry, error) {
	e, err := s.Entries.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tape: get %s: %w", id, err)
	}
	return e, nil
}

// Forget drops a session's entries and reports how many were removed.
func (s *TapeService) Forget(ctx context.Context, sessionID string) (int64, error) {
	n, err := s.Entries.DeleteSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("tape: delete session %s: %w", sessionID, err)
	}
	return n, nil
}

// EntryFromEvaluation maps an evaluation to a tape row.
func EntryFromEvaluation(sessionID string, ev engine.Evaluation) repository.TapeEntry {
	e := repository.TapeEntry{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		LeftOperand:  ev.Left.Trim(0).String(),
		Operation:    ev.Operation.Name(),
		RightOperand: ev.Right.Trim(0).String(),
		Failed:       ev.Err != nil,
		Expression:   ev.String(),
		CreatedAt:    database.Now(),
	}
	if ev.Err == nil {
		r := ev.ResultText()
		e.Result = &r
	}
	return e
}
