package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
)

// forumSelect carries thread and post totals so the index page needs one query.
const forumSelect = `
    SELECT f.id, f.parent_id, f.slug, f.title, f.description, f.ordering, f.access_groups, f.created_at,
           COUNT(t.id), COALESCE(SUM(t.post_count), 0), MAX(t.last_post_at)
    FROM forums f
    LEFT JOIN threads t ON t.forum_id = f.id
`

func scanForum(row scanner) (domain.Forum, error) {
	var f domain.Forum
	err := row.Scan(
		&f.Id, &f.ParentId, &f.Slug, &f.Title, &f.Description, &f.Ordering, &f.AccessGroups, &f.CreatedAt,
		&f.ThreadCount, &f.PostCount, &f.LastPostAt,
	)
	return f, err
}

func (s *Storage) CreateForum(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error) {
	groups := data.AccessGroups
	if groups == nil {
		groups = domain.Groups{}
	}
	var id domain.ForumId
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO forums (parent_id, slug, title, description, ordering, access_groups)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `, data.ParentId, data.Slug, data.Title, data.Description, data.Ordering, groups).Scan(&id)
	if err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return -1, internal_errors.Conflict("Forum with this slug already exists")
		case foreignKeyViolation:
			return -1, internal_errors.NotFound("Parent forum not found")
		}
		return -1, fmt.Errorf("failed to insert forum: %w", err)
	}
	return id, nil
}

// GetForums returns every forum in display order: ordering, then title.
func (s *Storage) GetForums(ctx context.Context) ([]domain.Forum, error) {
	rows, err := s.db.QueryContext(ctx, forumSelect+`
        GROUP BY f.id
        ORDER BY f.ordering, f.title, f.id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forums: %w", err)
	}
	defer rows.Close()

	var forums []domain.Forum
	for rows.Next() {
		f, err := scanForum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forum: %w", err)
		}
		forums = append(forums, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return forums, nil
}

func (s *Storage) GetForum(ctx context.Context, id domain.ForumId) (domain.Forum, error) {
	f, err := scanForum(s.db.QueryRowContext(ctx, forumSelect+" WHERE f.id = $1 GROUP BY f.id", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Forum{}, internal_errors.NotFound("Forum not found")
		}
		return domain.Forum{}, fmt.Errorf("failed to fetch forum: %w", err)
	}
	return f, nil
}

// GetForumBySlug looks a slug up among the children of parent, or among root
// forums when parent is nil.
func (s *Storage) GetForumBySlug(ctx context.Context, parent *domain.ForumId, slug domain.ForumSlug) (domain.Forum, error) {
	f, err := scanForum(s.db.QueryRowContext(ctx, forumSelect+`
        WHERE f.slug = $1 AND f.parent_id IS NOT DISTINCT FROM $2::BIGINT
        GROUP BY f.id
    `, slug, parent))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Forum{}, internal_errors.NotFound("Forum not found")
		}
		return domain.Forum{}, fmt.Errorf("failed to fetch forum: %w", err)
	}
	return f, nil
}

func (s *Storage) DeleteForum(ctx context.Context, id domain.ForumId) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM forums WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete forum: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Forum not found")
	}
	return nil
}
