package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles issued by the school backend.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
)

// JWTClaims is the payload of the access token issued by the school backend.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	FullName  string   `json:"full_name"`
	TeacherID *int     `json:"teacher_id,omitempty"`
	jwt.RegisteredClaims
}

// Session is the authenticated caller of a gateway operation. The raw token is
// forwarded to the school backend as the bearer credential.
type Session struct {
	UserID    string
	Role      UserRole
	FullName  string
	TeacherID *int
	Token     string
}

// NoSession is the explicit unauthenticated variant.
var NoSession = Session{}

// Authenticated reports whether the session carries a usable token.
func (s Session) Authenticated() bool {
	return s.UserID != "" && s.Token != ""
}

// IsAdmin reports whether the session may run administrative unit operations.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin || s.Role == RoleSuperAdmin
}
