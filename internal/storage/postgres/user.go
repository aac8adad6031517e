package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

type UserRepository struct {
	db storage.DBTX
}

func NewUserRepository(db storage.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, fullname, is_admin, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Fullname,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash, fullname string, isAdmin bool) (*models.User, error) {
	query := `INSERT INTO users (email, password_hash, fullname, is_admin) VALUES ($1, $2, $3, $4) RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, email, passwordHash, fullname, isAdmin))
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) UpdateFullname(ctx context.Context, id int64, fullname string) (*models.User, error) {
	query := `UPDATE users SET fullname = $1, updated_at = now() WHERE id = $2 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, fullname, id))
}

func (r *UserRepository) SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case q == "":
		query := `SELECT ` + userColumns + ` FROM users ORDER BY id DESC LIMIT $1`
		rows, err = r.db.QueryContext(ctx, query, limit)
	default:
		query := `SELECT ` + userColumns + ` FROM users WHERE email ILIKE $1 OR fullname ILIKE $1 ORDER BY id DESC LIMIT $2`
		rows, err = r.db.QueryContext(ctx, query, "%"+q+"%", limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Fullname,
			&user.IsAdmin,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = $1 WHERE id = $2`, isAdmin, id); err != nil {
		return fmt.Errorf("set admin flag: %w", err)
	}
	return nil
}
