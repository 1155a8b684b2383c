package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/visaops/caseflow/internal/types"
)

func (s *Store) ListTodos(ctx context.Context, caseGroupID string) ([]*types.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assignee_id, case_group_id, title, due_date, done, created_at, completed_at
		FROM todos WHERE case_group_id = ? ORDER BY due_date, id`, caseGroupID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Todo
	for rows.Next() {
		var todo types.Todo
		var completedAt sql.NullTime
		err := rows.Scan(&todo.ID, &todo.AssigneeID, &todo.CaseGroupID, &todo.Title,
			&todo.DueDate, &todo.Done, &todo.CreatedAt, &completedAt)
		if err != nil {
			return nil, err
		}
		todo.CompletedAt = timePtr(completedAt)
		out = append(out, &todo)
	}
	return out, rows.Err()
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]*types.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, recipient_id, message, link, `read`, created_at FROM notifications WHERE recipient_id = ? ORDER BY created_at, id", recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Notification
	for rows.Next() {
		var n types.Notification
		err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Link, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *Store) ListAuditEntries(ctx context.Context, entityID string) ([]*types.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_id, old_value, new_value, created_at
		FROM audit_log WHERE entity_id = ? ORDER BY created_at, id`, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.EntityID, &e.OldValue, &e.NewValue, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
