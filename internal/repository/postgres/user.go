package postgres

import (
	"context"

	"github.com/BloggingApp/community-service/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	db *pgxpool.Pool
}

func newUserRepo(db *pgxpool.Pool) User {
	return &userRepo{
		db: db,
	}
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*model.Author, error) {
	var user model.Author
	if err := r.db.QueryRow(
		ctx,
		"SELECT u.id, u.display_name, u.avatar_url, u.role, u.verified FROM users u WHERE u.id = $1",
		id,
	).Scan(
		&user.ID,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Role,
		&user.Verified,
	); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepo) Search(ctx context.Context, query string, limit int) ([]*model.Author, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT u.id, u.display_name, u.avatar_url, u.role, u.verified
		FROM users u
		WHERE LOWER(u.display_name) LIKE '%' || LOWER($1) || '%'
		ORDER BY u.verified DESC, u.display_name
		LIMIT $2`,
		query,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.Author
	for rows.Next() {
		var user model.Author
		if err := rows.Scan(
			&user.ID,
			&user.DisplayName,
			&user.AvatarURL,
			&user.Role,
			&user.Verified,
		); err != nil {
			return nil, err
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
