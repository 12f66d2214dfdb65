package models

// Role is a user's authorization level
type Role string

// Role constants
const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User represents a user in the system
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         Role   `json:"role"`
}

// Credentials is the request body for signup and login
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned after successful signup or login
type TokenResponse struct {
	Token string `json:"token"`
}
