// Package testhelpers provides utilities for testing aidsense-engine components.
package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
)

// SignTestToken creates an HS256 token for auth middleware tests. teamID may
// be empty for tokens without a team claim.
func SignTestToken(secret string, sub uuid.UUID, role string, teamID string) string {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role:   role,
		TeamID: teamID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	return signed
}

// BearerTestToken returns a signed token with the "Bearer " prefix for the
// Authorization header.
func BearerTestToken(secret string, sub uuid.UUID, role string, teamID string) string {
	return "Bearer " + SignTestToken(secret, sub, role, teamID)
}
