package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates roles carried in access tokens.
type UserRole string

const (
	RoleStudent   UserRole = "STUDENT"
	RoleProfessor UserRole = "PROFESSOR"
	RoleAdmin     UserRole = "ADMIN"
)

// JWTClaims represents the JWT payload issued by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}
