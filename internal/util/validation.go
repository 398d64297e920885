package util

import (
	"regexp"

	"github.com/google/uuid"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// NewID returns a random UUID string used for admins, sessions and log rows.
func NewID() string {
	return uuid.NewString()
}

func IsValidID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func IsValidUsername(s string) bool {
	return usernameRegex.MatchString(s)
}

func IsValidEmail(s string) bool {
	if len(s) > 254 {
		return false
	}
	return emailRegex.MatchString(s)
}
