package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"

	"github.com/lib/pq"
)

const threadColumns = "id, forum_id, title, is_sticky, is_closed, views, post_count, created_at, last_post_at"

func scanThread(row scanner) (domain.ThreadMetadata, error) {
	var t domain.ThreadMetadata
	err := row.Scan(&t.Id, &t.ForumId, &t.Title, &t.IsSticky, &t.IsClosed, &t.Views, &t.PostCount, &t.CreatedAt, &t.LastPostAt)
	return t, err
}

func scanThreads(rows *sql.Rows) ([]domain.ThreadMetadata, error) {
	defer rows.Close()
	var threads []domain.ThreadMetadata
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return threads, nil
}

// CreateThread inserts the thread, its first post and, when asked, the
// author's subscription in one transaction: either all of them persist or none.
func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, domain.PostId, error) {
	var threadId domain.ThreadId
	var postId domain.PostId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var createdAt time.Time
		err := tx.QueryRowContext(ctx, `
            INSERT INTO threads (forum_id, title, post_count)
            VALUES ($1, $2, 1)
            RETURNING id, created_at
        `, data.Forum, data.Title).Scan(&threadId, &createdAt)
		if err != nil {
			if pqCode(err) == foreignKeyViolation {
				return internal_errors.NotFound("Forum not found")
			}
			return fmt.Errorf("failed to insert thread: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
            INSERT INTO posts (thread_id, author_id, body, created_at)
            VALUES ($1, $2, $3, $4)
            RETURNING id
        `, threadId, data.Author.Id, data.Body, createdAt).Scan(&postId)
		if err != nil {
			return fmt.Errorf("failed to insert first post: %w", err)
		}

		if data.Subscribe {
			if err := subscribe(ctx, tx, threadId, data.Author.Id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return -1, -1, err
	}
	return threadId, postId, nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error) {
	t, err := scanThread(s.db.QueryRowContext(ctx, "SELECT "+threadColumns+" FROM threads WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ThreadMetadata{}, internal_errors.NotFound("Thread not found")
		}
		return domain.ThreadMetadata{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return t, nil
}

// ListThreads returns one page of a forum's threads, sticky first, then by
// latest post. The id tiebreak keeps pages stable.
func (s *Storage) ListThreads(ctx context.Context, forum domain.ForumId, page, perPage int) ([]domain.ThreadMetadata, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM threads WHERE forum_id = $1", forum).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count threads: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT `+threadColumns+`
        FROM threads
        WHERE forum_id = $1
        ORDER BY is_sticky DESC, last_post_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `, forum, perPage, domain.Offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch threads: %w", err)
	}
	threads, err := scanThreads(rows)
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

// RecentThreads returns threads of the given forums with the latest activity first.
func (s *Storage) RecentThreads(ctx context.Context, forums []domain.ForumId, limit int) ([]domain.ThreadMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+threadColumns+`
        FROM threads
        WHERE forum_id = ANY($1)
        ORDER BY last_post_at DESC, id DESC
        LIMIT $2
    `, pq.Array(forums), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent threads: %w", err)
	}
	return scanThreads(rows)
}

// IncrementThreadViews bumps the counter in a single UPDATE, so concurrent views are not lost.
func (s *Storage) IncrementThreadViews(ctx context.Context, id domain.ThreadId) error {
	result, err := s.db.ExecContext(ctx, "UPDATE threads SET views = views + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to increment thread views: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}

func (s *Storage) SetThreadSticky(ctx context.Context, id domain.ThreadId, sticky bool) error {
	return s.setThreadFlag(ctx, "is_sticky", id, sticky)
}

func (s *Storage) SetThreadClosed(ctx context.Context, id domain.ThreadId, closed bool) error {
	return s.setThreadFlag(ctx, "is_closed", id, closed)
}

// column is always a constant from this file.
func (s *Storage) setThreadFlag(ctx context.Context, column string, id domain.ThreadId, value bool) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf("UPDATE threads SET %s = $1 WHERE id = $2", column), value, id)
	if err != nil {
		return fmt.Errorf("failed to update thread %s: %w", column, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}
