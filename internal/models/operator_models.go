package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type OperatorRole string

const (
	RoleTeller     OperatorRole = "teller"
	RoleSupervisor OperatorRole = "supervisor"
	RoleAdmin      OperatorRole = "admin"
)

// Operator оператор, от имени которого выполняется операция.
// Идентичность приходит от внешнего сервиса и принимается как есть.
type Operator struct {
	ID       string       `json:"operator_id"`
	BranchID string       `json:"branch_id"`
	Role     OperatorRole `json:"role"`
}

func (o Operator) HasRole(roles ...OperatorRole) bool {
	for _, r := range roles {
		if o.Role == r {
			return true
		}
	}
	return false
}

// OperatorClaims claims JWT токена, выпущенного сервисом идентификации
type OperatorClaims struct {
	OperatorID string       `json:"operator_id"`
	BranchID   string       `json:"branch_id"`
	Role       OperatorRole `json:"role"`
	jwt.RegisteredClaims
}

func (c *OperatorClaims) Operator() Operator {
	role := c.Role
	if role == "" {
		role = RoleTeller
	}
	return Operator{ID: c.OperatorID, BranchID: c.BranchID, Role: role}
}
