package userservice

import (
	"context"
	"database/sql"
)

func (m *DBModel) addUserPermission(ctx context.Context, tx *sql.Tx, id int, permissions ...Permission) error {
	for _, p := range permissions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_permissions (user_id, permission)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, id, p)
		if err != nil {
			return err
		}
	}

	return nil
}
