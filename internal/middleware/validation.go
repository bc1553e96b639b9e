package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateThreadID validates a conversation thread ID. Thread IDs are
// transport assigned and opaque, so only shape is checked.
func ValidateThreadID(id string) error {
	if len(id) == 0 {
		return errors.New("thread ID cannot be empty")
	}
	if len(id) > 128 {
		return errors.New("thread ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("thread ID must be valid UTF-8")
	}
	return nil
}
