package identity

import (
	"strings"
	"time"

	"github.com/storehub/backend/internal/domain/shared"
)

// User is a staff account. Users are global; access to an organization
// comes from a Member row.
type User struct {
	shared.BaseAggregateRoot
	Name         string     `gorm:"type:varchar(200);not null"`
	Email        string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Active       bool       `gorm:"not null"`
	LastLoginAt  *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new active user with a hashed password
func NewUser(name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Name cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := shared.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := shared.HashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Active:            true,
	}, nil
}

// VerifyPassword checks the password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return shared.VerifyPassword(u.PasswordHash, password)
}

// ChangePassword replaces the password after checking the old one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.ErrUnauthorized.WithMessage("Current password is incorrect")
	}
	if err := shared.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := shared.HashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	u.IncrementVersion()
	return nil
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
}

// CanLogin reports whether the account may authenticate
func (u *User) CanLogin() bool {
	return u.Active
}
