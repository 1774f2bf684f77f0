package service

import "comanda-backend/internal/domain"

// CalculateCommission applies the waiter commission surcharge to a base
// amount. Pure function of the amount and the config snapshot.
func CalculateCommission(baseAmount float64, cfg domain.CommissionConfig) float64 {
	if !cfg.Enabled || cfg.Percentage <= 0 {
		return 0
	}
	return domain.Round2(baseAmount * cfg.Percentage / 100)
}
