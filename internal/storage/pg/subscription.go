package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"

	"github.com/lib/pq"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// subscribe treats an existing (thread, author) pair as success.
func subscribe(ctx context.Context, db execer, thread domain.ThreadId, author domain.UserId) error {
	_, err := db.ExecContext(ctx, `
        INSERT INTO subscriptions (thread_id, author_id)
        VALUES ($1, $2)
        ON CONFLICT (thread_id, author_id) DO NOTHING
    `, thread, author)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return internal_errors.NotFound("Thread not found")
		}
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func unsubscribe(ctx context.Context, db execer, thread domain.ThreadId, author domain.UserId) error {
	if _, err := db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE thread_id = $1 AND author_id = $2", thread, author,
	); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *Storage) Subscribe(ctx context.Context, thread domain.ThreadId, author domain.UserId) error {
	return subscribe(ctx, s.db, thread, author)
}

func (s *Storage) Unsubscribe(ctx context.Context, thread domain.ThreadId, author domain.UserId) error {
	return unsubscribe(ctx, s.db, thread, author)
}

func (s *Storage) IsSubscribed(ctx context.Context, thread domain.ThreadId, author domain.UserId) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM subscriptions WHERE thread_id = $1 AND author_id = $2)", thread, author,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return exists, nil
}

func (s *Storage) ListSubscriptions(ctx context.Context, author domain.UserId) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT t.id, t.forum_id, t.title, t.is_sticky, t.is_closed, t.views, t.post_count, t.created_at, t.last_post_at,
               s.author_id, s.created_at
        FROM subscriptions s
        JOIN threads t ON t.id = s.thread_id
        WHERE s.author_id = $1
        ORDER BY t.last_post_at DESC, t.id DESC
    `, author)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		t := &sub.Thread
		if err := rows.Scan(
			&t.Id, &t.ForumId, &t.Title, &t.IsSticky, &t.IsClosed, &t.Views, &t.PostCount, &t.CreatedAt, &t.LastPostAt,
			&sub.Author, &sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return subs, nil
}

// KeepSubscriptions deletes every subscription of author whose thread is not in keep.
func (s *Storage) KeepSubscriptions(ctx context.Context, author domain.UserId, keep []domain.ThreadId) error {
	if keep == nil {
		keep = []domain.ThreadId{}
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE author_id = $1 AND NOT (thread_id = ANY($2))",
		author, pq.Array(keep),
	); err != nil {
		return fmt.Errorf("failed to update subscriptions: %w", err)
	}
	return nil
}

// SubscriberEmails returns the addresses of everyone subscribed to thread.
func (s *Storage) SubscriberEmails(ctx context.Context, thread domain.ThreadId) ([]domain.Email, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT u.email
        FROM subscriptions s
        JOIN users u ON u.id = s.author_id
        WHERE s.thread_id = $1 AND u.email <> ''
        ORDER BY u.id
    `, thread)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscribers: %w", err)
	}
	defer rows.Close()

	var emails []domain.Email
	for rows.Next() {
		var email domain.Email
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return emails, nil
}
