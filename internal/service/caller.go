package service

import "comanda-backend/internal/domain"

// Caller is the resolved identity of the acting user. The core trusts it;
// credential verification happens at the HTTP boundary.
type Caller struct {
	ID   int64
	Role domain.UserRole
}

func (c Caller) IsWaiter() bool {
	return c.Role == domain.RoleWaiter
}
