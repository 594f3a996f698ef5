package models

import "github.com/golang-jwt/jwt/v5"

// EditorClaims is the JWT claim set accepted for editing requests
type EditorClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"` // "authenticated" or "anon"
	SessionID            string `json:"session_id"`
}

// GetUserID returns the user ID from the JWT subject claim
func (c *EditorClaims) GetUserID() string {
	return c.Subject
}
