package repository

import (
	"context"

	"comanda-backend/internal/db"
	"comanda-backend/internal/domain"
)

type CommissionRepository struct {
	DB *db.Postgres
}

// GetOrCreateDefault reads the singleton commission config, creating the
// default row (disabled, 10%) on first read.
func (r CommissionRepository) GetOrCreateDefault(ctx context.Context) (*domain.CommissionConfig, error) {
	if _, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO commission_config (id, enabled, percentage, updated_at)
		VALUES (1, false, 10, now())
		ON CONFLICT (id) DO NOTHING
	`); err != nil {
		return nil, err
	}

	var c domain.CommissionConfig
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT enabled, percentage, updated_at
		FROM commission_config
		WHERE id=1
	`).Scan(&c.Enabled, &c.Percentage, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r CommissionRepository) Save(ctx context.Context, c domain.CommissionConfig) (*domain.CommissionConfig, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO commission_config (id, enabled, percentage, updated_at)
		VALUES (1,$1,$2, now())
		ON CONFLICT (id) DO UPDATE SET
			enabled=EXCLUDED.enabled,
			percentage=EXCLUDED.percentage,
			updated_at=now()
		RETURNING enabled, percentage, updated_at
	`, c.Enabled, c.Percentage).Scan(&c.Enabled, &c.Percentage, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
