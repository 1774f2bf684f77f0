package repository

import (
	"context"
	"errors"

	"comanda-backend/internal/db"
	"comanda-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type TableRepository struct {
	DB *db.Postgres
}

const tableColumns = `id, number, capacity, status, current_customers, identification,
	assigned_waiter_id, opened_at, closed_at, created_at, updated_at`

func (r TableRepository) Create(ctx context.Context, number, capacity int) (*domain.Table, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO tables (number, capacity, status, created_at, updated_at)
		VALUES ($1,$2,$3, now(), now())
		RETURNING `+tableColumns+`
	`, number, capacity, domain.TableAvailable)
	return scanTable(row)
}

func (r TableRepository) List(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+tableColumns+`
		FROM tables
		WHERE deleted_at IS NULL
		ORDER BY number ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

func (r TableRepository) GetByID(ctx context.Context, id int64) (*domain.Table, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+tableColumns+`
		FROM tables
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	return scanTable(row)
}

// Update persists status and the occupancy fields. The caller is expected to
// keep them consistent: occupancy fields non-NULL iff status is occupied.
func (r TableRepository) Update(ctx context.Context, t domain.Table) (*domain.Table, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE tables
		SET capacity=$1,
			status=$2,
			current_customers=$3,
			identification=$4,
			assigned_waiter_id=$5,
			opened_at=$6,
			closed_at=$7,
			updated_at=now()
		WHERE id=$8 AND deleted_at IS NULL
		RETURNING `+tableColumns+`
	`, t.Capacity, t.Status, t.CurrentCustomers, t.Identification, t.AssignedWaiterID, t.OpenedAt, t.ClosedAt, t.ID)
	return scanTable(row)
}

func (r TableRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Pool.Exec(ctx, `UPDATE tables SET deleted_at = now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTable(row pgx.Row) (*domain.Table, error) {
	var t domain.Table
	if err := row.Scan(
		&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CurrentCustomers, &t.Identification,
		&t.AssignedWaiterID, &t.OpenedAt, &t.ClosedAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
