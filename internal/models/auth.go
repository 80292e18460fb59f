package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the access token payload minted by the external identity provider.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Principal identifies the caller for logs.
func (c *Claims) Principal() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.Email
}
