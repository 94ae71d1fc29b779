package postgres

import (
	"context"

	"github.com/BloggingApp/community-service/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type commentRepo struct {
	db *pgxpool.Pool
}

func newCommentRepo(db *pgxpool.Pool) Comment {
	return &commentRepo{
		db: db,
	}
}

func (r *commentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(
		ctx,
		"INSERT INTO comments(post_id, author_id, content) VALUES($1, $2, $3) RETURNING id, created_at",
		comment.PostID,
		comment.Author.ID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1", comment.PostID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &comment, nil
}

func (r *commentRepo) FindPostComments(ctx context.Context, postID int64, limit int) ([]*model.Comment, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT
		c.id, c.post_id, c.content, c.created_at, u.id, u.display_name, u.avatar_url, u.role, u.verified
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT $2`,
		postID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var comment model.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.Content,
			&comment.CreatedAt,
			&comment.Author.ID,
			&comment.Author.DisplayName,
			&comment.Author.AvatarURL,
			&comment.Author.Role,
			&comment.Author.Verified,
		); err != nil {
			return nil, err
		}

		comments = append(comments, &comment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
