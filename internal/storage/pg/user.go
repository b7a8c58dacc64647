package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
)

const userSelect = `
    SELECT u.id, u.username, u.email, u.pass_hash, u.is_admin, u.created_at,
           COALESCE(array_agg(g.group_name ORDER BY g.group_name) FILTER (WHERE g.group_name IS NOT NULL), '{}')
    FROM users u
    LEFT JOIN user_groups g ON g.user_id = u.id
`

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.Id, &u.Username, &u.Email, &u.PassHash, &u.Admin, &u.CreatedAt, &u.Groups)
	return u, err
}

func (s *Storage) CreateUser(ctx context.Context, data domain.UserCreationData) (domain.UserId, error) {
	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
            INSERT INTO users (username, email, pass_hash, is_admin)
            VALUES ($1, $2, $3, $4)
            RETURNING id
        `, data.Username, data.Email, data.PassHash, data.Admin).Scan(&id)
		if err != nil {
			if pqCode(err) == uniqueViolation {
				return internal_errors.Conflict("User already exists")
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}
		for _, g := range data.Groups {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO user_groups (user_id, group_name) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				id, g,
			); err != nil {
				return fmt.Errorf("failed to insert user group: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, userSelect+" WHERE u.id = $1 GROUP BY u.id", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username domain.Username) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, userSelect+" WHERE u.username = $1 GROUP BY u.id", username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func (s *Storage) AddUserGroup(ctx context.Context, id domain.UserId, group domain.GroupName) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_groups (user_id, group_name) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		id, group,
	)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return internal_errors.NotFound("User not found")
		}
		return fmt.Errorf("failed to add user group: %w", err)
	}
	return nil
}

func (s *Storage) RemoveUserGroup(ctx context.Context, id domain.UserId, group domain.GroupName) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM user_groups WHERE user_id = $1 AND group_name = $2",
		id, group,
	); err != nil {
		return fmt.Errorf("failed to remove user group: %w", err)
	}
	return nil
}
