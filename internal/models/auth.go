package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type SessionClaims struct {
	Role      Role    `json:"role"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	CompanyID *string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Session rebuilds the session context carried by the claims.
func (c *SessionClaims) Session() Session {
	return Session{
		Role:      c.Role,
		ID:        c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		CompanyID: c.CompanyID,
	}
}
