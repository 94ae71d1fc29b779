package postgres

import (
	"context"

	"github.com/BloggingApp/community-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postRepo struct {
	db *pgxpool.Pool
}

func newPostRepo(db *pgxpool.Pool) Post {
	return &postRepo{
		db: db,
	}
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO posts(author_id, title, content, post_type, category, image_url)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		post.Author.ID,
		post.Title,
		post.Content,
		post.PostType,
		post.Category,
		post.ImageURL,
	).Scan(&post.ID, &post.CreatedAt); err != nil {
		return nil, err
	}

	for _, tag := range post.Tags {
		if _, err := tx.Exec(
			ctx,
			"INSERT INTO post_tags(post_id, tag) VALUES($1, $2) ON CONFLICT DO NOTHING",
			post.ID,
			tag,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindFeed(ctx context.Context, viewerID int64, following bool, limit int) ([]*model.Post, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT
		p.id, p.title, p.content, p.post_type, p.category, p.image_url, p.pinned,
		p.like_count, p.comment_count, p.share_count, p.view_count, p.created_at,
		u.id, u.display_name, u.avatar_url, u.role, u.verified,
		EXISTS(SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1),
		EXISTS(SELECT 1 FROM saved_posts s WHERE s.post_id = p.id AND s.user_id = $1),
		COALESCE((SELECT array_agg(t.tag ORDER BY t.tag) FROM post_tags t WHERE t.post_id = p.id), '{}')
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE NOT EXISTS(SELECT 1 FROM post_reports r WHERE r.post_id = p.id AND r.user_id = $1)
		AND (NOT $2::boolean OR p.author_id IN (SELECT f.followee_id FROM follows f WHERE f.follower_id = $1))
		ORDER BY p.pinned DESC, p.created_at DESC, p.id DESC
		LIMIT $3`,
		viewerID,
		following,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Content,
			&post.PostType,
			&post.Category,
			&post.ImageURL,
			&post.Pinned,
			&post.Likes,
			&post.Comments,
			&post.Shares,
			&post.Views,
			&post.CreatedAt,
			&post.Author.ID,
			&post.Author.DisplayName,
			&post.Author.AvatarURL,
			&post.Author.Role,
			&post.Author.Verified,
			&post.IsLiked,
			&post.IsSaved,
			&post.Tags,
		); err != nil {
			return nil, err
		}

		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func lockPost(ctx context.Context, tx pgx.Tx, postID int64) error {
	var id int64
	return tx.QueryRow(ctx, "SELECT id FROM posts WHERE id = $1 FOR UPDATE", postID).Scan(&id)
}

func (r *postRepo) ToggleLike(ctx context.Context, postID int64, userID int64) (bool, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback(ctx)

	if err := lockPost(ctx, tx, postID); err != nil {
		return false, 0, err
	}

	tag, err := tx.Exec(ctx, "DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2", userID, postID)
	if err != nil {
		return false, 0, err
	}

	liked := tag.RowsAffected() == 0
	query := "UPDATE posts SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1 RETURNING like_count"
	if liked {
		if _, err := tx.Exec(ctx, "INSERT INTO post_likes(user_id, post_id) VALUES($1, $2)", userID, postID); err != nil {
			return false, 0, err
		}
		query = "UPDATE posts SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count"
	}

	var likes int64
	if err := tx.QueryRow(ctx, query, postID).Scan(&likes); err != nil {
		return false, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, err
	}

	return liked, likes, nil
}

func (r *postRepo) ToggleSave(ctx context.Context, postID int64, userID int64) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if err := lockPost(ctx, tx, postID); err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, "DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2", userID, postID)
	if err != nil {
		return false, err
	}

	saved := tag.RowsAffected() == 0
	if saved {
		if _, err := tx.Exec(ctx, "INSERT INTO saved_posts(user_id, post_id) VALUES($1, $2)", userID, postID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return saved, nil
}

func (r *postRepo) Report(ctx context.Context, postID int64, userID int64, reason string) error {
	tag, err := r.db.Exec(
		ctx,
		`INSERT INTO post_reports(post_id, user_id, reason)
		SELECT id, $2, $3 FROM posts WHERE id = $1
		ON CONFLICT (post_id, user_id) DO UPDATE SET reason = EXCLUDED.reason`,
		postID,
		userID,
		reason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *postRepo) Delete(ctx context.Context, postID int64, authorID int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1 AND author_id = $2", postID, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)", postID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrNotPostAuthor
	}

	return pgx.ErrNoRows
}
