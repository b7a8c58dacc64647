package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"

	"github.com/lib/pq"
)

const postSelect = `
    SELECT p.id, p.thread_id, p.body, p.created_at, p.modified_at,
           u.id, u.username, u.email
    FROM posts p
    JOIN users u ON u.id = p.author_id
`

func scanPost(row scanner) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.Id, &p.ThreadId, &p.Body, &p.CreatedAt, &p.ModifiedAt, &p.Author.Id, &p.Author.Username, &p.Author.Email)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]*domain.Post, error) {
	defer rows.Close()
	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return posts, nil
}

// lockThread takes a row lock on the thread for the rest of tx.
func lockThread(ctx context.Context, tx *sql.Tx, id domain.ThreadId) (postCount int, closed bool, err error) {
	err = tx.QueryRowContext(ctx,
		"SELECT post_count, is_closed FROM threads WHERE id = $1 FOR UPDATE", id,
	).Scan(&postCount, &closed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, internal_errors.NotFound("Thread not found")
		}
		return 0, false, fmt.Errorf("failed to lock thread: %w", err)
	}
	return postCount, closed, nil
}

// CreatePost stores a reply and reconciles the author's subscription in the
// same transaction. The closed flag is re-checked under the thread lock.
func (s *Storage) CreatePost(ctx context.Context, data domain.PostCreationData) (*domain.Post, error) {
	post := &domain.Post{ThreadId: data.Thread, Author: data.Author, Body: data.Body}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, closed, err := lockThread(ctx, tx, data.Thread)
		if err != nil {
			return err
		}
		if closed {
			return internal_errors.Conflict("Thread is closed")
		}

		err = tx.QueryRowContext(ctx, `
            INSERT INTO posts (thread_id, author_id, body)
            VALUES ($1, $2, $3)
            RETURNING id, created_at
        `, data.Thread, data.Author.Id, data.Body).Scan(&post.Id, &post.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
            UPDATE threads
            SET post_count = post_count + 1, last_post_at = $2
            WHERE id = $1
        `, data.Thread, post.CreatedAt); err != nil {
			return fmt.Errorf("failed to update thread stats: %w", err)
		}

		if data.Subscribe {
			return subscribe(ctx, tx, data.Thread, data.Author.Id)
		}
		return unsubscribe(ctx, tx, data.Thread, data.Author.Id)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost finds a post only within the given thread.
func (s *Storage) GetPost(ctx context.Context, thread domain.ThreadId, id domain.PostId) (*domain.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+" WHERE p.id = $1 AND p.thread_id = $2", id, thread))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("Post not found")
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	return p, nil
}

// ListPosts returns one page of a thread's posts in chronological order.
func (s *Storage) ListPosts(ctx context.Context, thread domain.ThreadId, page, perPage int) ([]*domain.Post, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE thread_id = $1", thread).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, postSelect+`
        WHERE p.thread_id = $1
        ORDER BY p.created_at, p.id
        LIMIT $2 OFFSET $3
    `, thread, perPage, domain.Offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch posts: %w", err)
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// RecentPosts returns the newest posts of a thread, newest first.
func (s *Storage) RecentPosts(ctx context.Context, thread domain.ThreadId, limit int) ([]*domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+`
        WHERE p.thread_id = $1
        ORDER BY p.created_at DESC, p.id DESC
        LIMIT $2
    `, thread, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent posts: %w", err)
	}
	return scanPosts(rows)
}

// PostsInForums lists posts of the given forums with their thread titles, newest first.
func (s *Storage) PostsInForums(ctx context.Context, forums []domain.ForumId, limit int) ([]domain.PostListing, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT p.id, p.thread_id, p.body, p.created_at, p.modified_at,
               u.id, u.username, u.email, t.title, t.forum_id
        FROM posts p
        JOIN users u ON u.id = p.author_id
        JOIN threads t ON t.id = p.thread_id
        WHERE t.forum_id = ANY($1)
        ORDER BY p.created_at DESC, p.id DESC
        LIMIT $2
    `, pq.Array(forums), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.PostListing
	for rows.Next() {
		var p domain.PostListing
		if err := rows.Scan(
			&p.Id, &p.ThreadId, &p.Body, &p.CreatedAt, &p.ModifiedAt,
			&p.Author.Id, &p.Author.Username, &p.Author.Email, &p.ThreadTitle, &p.ForumId,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return posts, nil
}

func (s *Storage) UpdatePostBody(ctx context.Context, thread domain.ThreadId, id domain.PostId, body domain.PostBody) error {
	result, err := s.db.ExecContext(ctx, `
        UPDATE posts SET body = $1, modified_at = NOW()
        WHERE id = $2 AND thread_id = $3
    `, body, id, thread)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Post not found")
	}
	return nil
}

// DeletePost removes a post permanently. The only remaining post of a thread
// cannot be deleted, so a thread never ends up empty.
func (s *Storage) DeletePost(ctx context.Context, thread domain.ThreadId, id domain.PostId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		postCount, _, err := lockThread(ctx, tx, thread)
		if err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1 AND thread_id = $2)", id, thread,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check post: %w", err)
		}
		if !exists {
			return internal_errors.NotFound("Post not found")
		}
		if postCount <= 1 {
			return internal_errors.Conflict("The only post of a thread cannot be deleted")
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
            UPDATE threads
            SET post_count = post_count - 1,
                last_post_at = COALESCE((SELECT MAX(created_at) FROM posts WHERE thread_id = $1), created_at)
            WHERE id = $1
        `, thread); err != nil {
			return fmt.Errorf("failed to update thread stats: %w", err)
		}
		return nil
	})
}
