package repository

import (
	"context"
	"errors"

	"comanda-backend/internal/db"
	"comanda-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	DB *db.Postgres
}

type CreateUserParams struct {
	Name         string
	Email        string
	Role         domain.UserRole
	PasswordHash *string
}

func (r UserRepository) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	var u domain.User
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, role, password_hash, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4, true, now(), now())
		RETURNING id, name, email, role, password_hash, active, created_at, updated_at
	`, p.Name, p.Email, p.Role, p.PasswordHash).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, email, role, password_hash, active, created_at, updated_at
		FROM users
		WHERE email=$1 AND deleted_at IS NULL
	`, email)
	return scanUser(row)
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, email, role, password_hash, active, created_at, updated_at
		FROM users
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	return scanUser(row)
}

func (r UserRepository) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, email, role, password_hash, active, created_at, updated_at
		FROM users
		WHERE role=$1 AND deleted_at IS NULL
		ORDER BY name ASC
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}
