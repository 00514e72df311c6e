package model

import (
    "fmt"
    "time"
)

// Role is the authorization level of a user.
type Role string

const (
    RoleAdmin    Role = "admin"
    RoleOperator Role = "operator"
    RoleViewer   Role = "viewer"
)

// ParseRole accepts only known roles.  Tokens carrying anything else are
// rejected even when their signature is valid.
func ParseRole(s string) (Role, error) {
    switch r := Role(s); r {
    case RoleAdmin, RoleOperator, RoleViewer:
        return r, nil
    }
    return "", fmt.Errorf("unknown role %q", s)
}

// User represents an application user record as stored in the `users`
// table.  Users are deactivated, never deleted.
type User struct {
    ID           uint64     `db:"id" json:"id"`
    Username     string     `db:"username" json:"username"`
    Email        *string    `db:"email" json:"email"`
    PasswordHash string     `db:"password_hash" json:"-"`
    Role         Role       `db:"role" json:"role"`
    IsActive     bool       `db:"is_active" json:"is_active"`
    LastLogin    *time.Time `db:"last_login" json:"last_login"`
    CreatedAt    time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// token's jti is stored, never the token itself.  Revoked is one-way.
type RefreshToken struct {
    ID        uint64    `db:"id"`
    JTI       string    `db:"jti"`
    UserID    uint64    `db:"user_id"`
    ExpiresAt time.Time `db:"expires_at"`
    Revoked   bool      `db:"revoked"`
    CreatedAt time.Time `db:"created_at"`
}
