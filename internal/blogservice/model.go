package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sushihentaime/sharedblog/internal/common"
)

var (
	ErrUserForeignKey = errors.New("user_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// insert stores the blog inside tx and fills in its generated fields.
func (m *BlogModel) insert(ctx context.Context, tx *sql.Tx, blog *Blog) error {
	query := `
		INSERT INTO blogs (title, content, word_count, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at, version`

	err := tx.QueryRowContext(ctx, query, blog.Title, blog.Content, blog.WordCount, blog.UserID).Scan(&blog.ID, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "blogs_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

// getBlogById is a method to get a blog by its ID joining the users table to get the author's name.
func (m *BlogModel) getBlogById(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.word_count, b.user_id, u.username, b.created_at, b.updated_at, b.version
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`

	var blog Blog
	err := m.db.QueryRowContext(ctx, query, id).Scan(&blog.ID, &blog.Title, &blog.Content, &blog.WordCount, &blog.UserID, &blog.Author, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &blog, nil
}

// updateBlog writes title, content and word count. The author and creation time are never touched.
func (m *BlogModel) updateBlog(ctx context.Context, blog *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, word_count = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4 AND version = $5
		RETURNING version, updated_at`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, blog.WordCount, blog.ID, blog.Version).Scan(&blog.Version, &blog.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrEditConflict
		default:
			return err
		}
	}

	return nil
}

// deleteBlog removes the blog. Its grants go with it through the foreign key cascade.
func (m *BlogModel) deleteBlog(ctx context.Context, blogId int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, blogId)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// getVisibleBlogs returns the blogs the user wrote or holds a grant on, newest first.
// Each blog is matched once, so a blog that is both authored and granted is not repeated.
func (m *BlogModel) getVisibleBlogs(ctx context.Context, userID int, f ListFilter) ([]Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.word_count, b.user_id, u.username, b.created_at, b.updated_at, b.version
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE (b.user_id = $1 OR EXISTS (
			SELECT 1 FROM blog_permissions p
			WHERE p.blog_id = b.id AND p.user_id = $1
		))
		AND ($2 = '' OR b.title ILIKE '%' || $2 || '%')
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $3 OFFSET $4`

	rows, err := m.db.QueryContext(ctx, query, userID, f.Title, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&blog.ID, &blog.Title, &blog.Content, &blog.WordCount, &blog.UserID, &blog.Author, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}
