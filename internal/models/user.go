package models

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleFaculty UserRole = "faculty"
	UserRoleAdmin   UserRole = "admin"
)

// User is a row of the users table. PasswordHash is either an argon2id
// encoding or a legacy unsalted sha256 hex digest.
type User struct {
	ID           int64
	CreateTime   time.Time
	Email        string
	PasswordHash string
	LastLogin    *time.Time
	Phone        string
	FirstName    string
	MidName      string
	LastName     string
	Role         UserRole
}

func (u User) Username() string {
	return u.FirstName + u.LastName
}
