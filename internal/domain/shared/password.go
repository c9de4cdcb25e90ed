package shared

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	passwordLetter = regexp.MustCompile(`[a-zA-Z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidatePassword enforces the password policy shared by staff and catalog users
func ValidatePassword(password string) error {
	if password == "" {
		return ErrInvalidInput.WithMessage("Password cannot be empty")
	}
	if len(password) < 8 {
		return ErrInvalidInput.WithMessage("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return ErrInvalidInput.WithMessage("Password cannot exceed 72 characters")
	}
	if !passwordLetter.MatchString(password) || !passwordDigit.MatchString(password) {
		return ErrInvalidInput.WithMessage("Password must contain at least one letter and one number")
	}
	return nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a bcrypt hash with a plaintext password
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateEmail checks basic email shape
func ValidateEmail(email string) error {
	if len(email) > 200 {
		return ErrInvalidInput.WithMessage("Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidInput.WithMessage("Invalid email format")
	}
	return nil
}
