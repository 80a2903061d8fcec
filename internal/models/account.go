package models

import (
	"fmt"
	"time"
)

// Role identifies which account partition authenticated a user.
type Role string

const (
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
	RoleDriver  Role = "driver"
)

// Roles lists the partitions in login precedence order.
var Roles = []Role{RoleCompany, RoleAdmin, RoleDriver}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCompany, RoleAdmin, RoleDriver:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Account is a matched record from one of the account partitions.
// CompanyID is only set for admins and drivers.
type Account struct {
	ID           string
	Name         string
	Email        string
	CompanyID    *string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is the authenticated identity handed to the navigation sink.
// It is a value: screens entered after login receive a copy and never mutate it.
type Session struct {
	Role      Role    `json:"role"`
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	CompanyID *string `json:"company_id,omitempty"`
}

// NewSession builds the session context for an account matched in the given partition.
// Company accounts never carry a company ID.
func NewSession(role Role, account *Account) Session {
	s := Session{
		Role:  role,
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
	}
	if role != RoleCompany && account.CompanyID != nil {
		companyID := *account.CompanyID
		s.CompanyID = &companyID
	}
	return s
}
