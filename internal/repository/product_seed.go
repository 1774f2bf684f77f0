package repository

import (
	"context"

	"comanda-backend/internal/domain"
)

func (r ProductRepository) SeedDefaults(ctx context.Context) error {
	defaults := []domain.Product{
		{Name: "Feijoada Completa", Category: "Pratos", Price: 48.90, Available: true},
		{Name: "Picanha na Chapa", Category: "Pratos", Price: 89.90, Available: true},
		{Name: "Moqueca de Peixe", Category: "Pratos", Price: 72.00, Available: true},
		{Name: "Arroz Branco", Category: "Acompanhamentos", Price: 9.50, Available: true},
		{Name: "Farofa", Category: "Acompanhamentos", Price: 7.00, Available: true},
		{Name: "Caipirinha", Category: "Bebidas", Price: 18.00, Available: true},
		{Name: "Suco de Laranja", Category: "Bebidas", Price: 10.00, Available: true},
		{Name: "Refrigerante Lata", Category: "Bebidas", Price: 6.50, Available: true},
		{Name: "Pudim de Leite", Category: "Sobremesas", Price: 14.00, Available: true},
	}

	for _, p := range defaults {
		// Idempotent: products.name is unique.
		_, err := r.DB.Pool.Exec(ctx, `
			INSERT INTO products (name, category, price, available, created_at, updated_at)
			VALUES ($1,$2,$3,$4, now(), now())
			ON CONFLICT (name) DO NOTHING
		`, p.Name, p.Category, p.Price, p.Available)
		if err != nil {
			return err
		}
	}
	return nil
}
