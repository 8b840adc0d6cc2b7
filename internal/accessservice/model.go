package accessservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/sharedblog/internal/common"
)

func newDBModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

// grant creates the grant for (blogID, userID) or overwrites its permission type. q may be a transaction.
func (m *DBModel) grant(ctx context.Context, q common.Querier, blogID, userID int, perm PermissionType) (*Grant, error) {
	v := common.NewValidator()
	validatePermissionType(v, perm)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	query := `
		INSERT INTO blog_permissions (blog_id, user_id, permission_type)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT blog_permissions_blog_id_user_id_key
		DO UPDATE SET permission_type = EXCLUDED.permission_type, updated_at = NOW()
		RETURNING id, blog_id, user_id, permission_type, created_at, updated_at`

	var g Grant
	err := q.QueryRowContext(ctx, query, blogID, userID, perm).Scan(&g.ID, &g.BlogID, &g.UserID, &g.Permission, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "blog_permissions_blog_id_fkey"),
			common.ForeignKeyError(err, "blog_permissions_user_id_fkey"):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &g, nil
}

// find returns the grant for the pair, or nil when there is none.
func (m *DBModel) find(ctx context.Context, blogID, userID int) (*Grant, error) {
	query := `
		SELECT id, blog_id, user_id, permission_type, created_at, updated_at
		FROM blog_permissions
		WHERE blog_id = $1 AND user_id = $2`

	var g Grant
	err := m.db.QueryRowContext(ctx, query, blogID, userID).Scan(&g.ID, &g.BlogID, &g.UserID, &g.Permission, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}

	return &g, nil
}

func (m *DBModel) existsWith(ctx context.Context, blogID, userID int, perm PermissionType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blog_permissions
			WHERE blog_id = $1 AND user_id = $2 AND permission_type = $3
		)`

	var exists bool
	err := m.db.QueryRowContext(ctx, query, blogID, userID, perm).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// listForBlog returns every grant on a blog, oldest first.
func (m *DBModel) listForBlog(ctx context.Context, blogID int) ([]Grant, error) {
	query := `
		SELECT p.id, p.blog_id, p.user_id, u.username, p.permission_type, p.created_at, p.updated_at
		FROM blog_permissions p
		INNER JOIN users u ON u.id = p.user_id
		WHERE p.blog_id = $1
		ORDER BY p.created_at, p.id`

	rows, err := m.db.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := []Grant{}
	for rows.Next() {
		var g Grant
		err := rows.Scan(&g.ID, &g.BlogID, &g.UserID, &g.Username, &g.Permission, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return grants, nil
}
