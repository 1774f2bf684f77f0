package repository

import (
	"context"
	"errors"

	"comanda-backend/internal/db"
	"comanda-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ProductRepository struct {
	DB *db.Postgres
}

func (r ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, category, price, available, created_at, updated_at
		FROM products
		WHERE deleted_at IS NULL
		ORDER BY category ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, category, price, available, created_at, updated_at
		FROM products
		WHERE id=$1 AND deleted_at IS NULL
	`, id)

	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r ProductRepository) Save(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == 0 {
		err := r.DB.Pool.QueryRow(ctx, `
			INSERT INTO products (name, category, price, available, created_at, updated_at)
			VALUES ($1,$2,$3,$4, now(), now())
			RETURNING id, name, category, price, available, created_at, updated_at
		`, p.Name, p.Category, p.Price, p.Available).
			Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}

	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE products
		SET name=$1, category=$2, price=$3, available=$4, updated_at=now(), deleted_at=NULL
		WHERE id=$5
		RETURNING id, name, category, price, available, created_at, updated_at
	`, p.Name, p.Category, p.Price, p.Available, p.ID).
		Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r ProductRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE products
		SET available=$1, updated_at=now()
		WHERE id=$2 AND deleted_at IS NULL
	`, available, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r ProductRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.Pool.Exec(ctx, `UPDATE products SET deleted_at = now() WHERE id=$1`, id)
	return err
}
