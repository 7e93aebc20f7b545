package entity

import "time"

// Roles de usuario.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User representa un usuario del sistema (admin o usuario regular).
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string // RoleAdmin | RoleUser
	AvatarPath   string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
