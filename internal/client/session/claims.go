package session

import (
	"fmt"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

// DisplayClaims are hints decoded from a bearer token WITHOUT verifying its
// signature. They may be shown to the user and must never decide access;
// the client has no type for trusted claims on purpose.
type DisplayClaims struct {
	Subject string
	Email   string
	Role    string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email  string `json:"email"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
}

// DecodeDisplayClaims extracts subject, email and role from token.
func DecodeDisplayClaims(token string) (DisplayClaims, error) {
	var c tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return DisplayClaims{}, fmt.Errorf("decode token claims: %w", err)
	}
	sub := c.Subject
	if sub == "" {
		sub = c.UserID
	}
	return DisplayClaims{Subject: sub, Email: c.Email, Role: c.Role}, nil
}

// Identity turns display claims into a derived identity.
func (c DisplayClaims) Identity() *models.Identity {
	return &models.Identity{ID: c.Subject, Email: c.Email, Role: c.Role, Derived: true}
}

// deriveIdentity never fails: an undecodable token still gets a minimal,
// empty derived identity so that a token never exists without one.
func deriveIdentity(token string) *models.Identity {
	claims, err := DecodeDisplayClaims(token)
	if err != nil {
		return &models.Identity{Derived: true}
	}
	return claims.Identity()
}
