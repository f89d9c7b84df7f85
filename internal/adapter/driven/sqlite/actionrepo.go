package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActionJournal = (*ActionRepo)(nil)

// timeLayout is fixed-width so that stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ActionRepo is the SQLite implementation of the ActionJournal port interface.
type ActionRepo struct {
	db *DB
}

// NewActionRepo creates a new ActionRepo backed by the given DB.
func NewActionRepo(db *DB) *ActionRepo {
	return &ActionRepo{db: db}
}

// Record appends an action to the journal.
func (r *ActionRepo) Record(ctx context.Context, action model.Action) error {
	const query = `
		INSERT INTO actions (kind, project_id, target_iid, member_id, body, message, error, performed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	performedAt := action.PerformedAt
	if performedAt.IsZero() {
		performedAt = time.Now()
	}

	_, err := r.db.conn.ExecContext(ctx, query,
		string(action.Kind), action.ProjectID, action.TargetIID, action.MemberID,
		action.Body, action.Message, action.Error, formatTime(performedAt),
	)
	if err != nil {
		return fmt.Errorf("insert %s action for project %d: %w", action.Kind, action.ProjectID, err)
	}

	return nil
}

// ListSince returns actions performed at or after since, oldest first.
func (r *ActionRepo) ListSince(ctx context.Context, since time.Time) ([]model.Action, error) {
	const query = `
		SELECT id, kind, project_id, target_iid, member_id, body, message, error, performed_at
		FROM actions
		WHERE performed_at >= ?
		ORDER BY performed_at, id
	`

	rows, err := r.db.conn.QueryContext(ctx, query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("query actions since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var actions []model.Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, *action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}

	return actions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAction(s scanner) (*model.Action, error) {
	var action model.Action
	var kind, performedAt string

	err := s.Scan(
		&action.ID, &kind, &action.ProjectID, &action.TargetIID, &action.MemberID,
		&action.Body, &action.Message, &action.Error, &performedAt,
	)
	if err != nil {
		return nil, err
	}

	action.Kind = model.ActionKind(kind)
	action.PerformedAt, err = time.Parse(timeLayout, performedAt)
	if err != nil {
		return nil, fmt.Errorf("parse performed_at: %w", err)
	}

	return &action, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
