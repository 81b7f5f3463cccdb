package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyValidationConfig controls which keys the emulator accepts. The
// defaults reject only keys that are not printable text; length caps and
// empty-key rejection are opt-in.
type KeyValidationConfig struct {
	ReservedPatterns  []string
	MaxKeyLength      int
	AllowEmpty        bool
	AllowControlChars bool
	AllowWhitespace   bool
}

func DefaultKeyValidationConfig() KeyValidationConfig {
	return KeyValidationConfig{
		MaxKeyLength:      0,
		AllowEmpty:        true,
		AllowControlChars: false,
		AllowWhitespace:   true,
	}
}

// KeyValidator rejects keys that are not printable identifiers. It never
// rewrites a key: a key either passes unchanged or fails.
type KeyValidator struct {
	config KeyValidationConfig
}

func NewKeyValidator(config KeyValidationConfig) *KeyValidator {
	return &KeyValidator{config: config}
}

// Validate checks key against the configured rules.
func (v *KeyValidator) Validate(key string) error {
	if key == "" {
		if v.config.AllowEmpty {
			return nil
		}
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}

	if v.config.MaxKeyLength > 0 && len(key) > v.config.MaxKeyLength {
		return fmt.Errorf("%w: key length %d exceeds maximum %d bytes",
			ErrInvalidKey, len(key), v.config.MaxKeyLength)
	}

	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key contains invalid UTF-8", ErrInvalidKey)
	}

	for i, r := range key {
		if !v.config.AllowControlChars && (r < 0x20 || r == 0x7f) {
			return fmt.Errorf("%w: key contains control character at position %d", ErrInvalidKey, i)
		}
		// Space stays legal; tabs and newlines are caught here when whitespace is disallowed
		if !v.config.AllowWhitespace && unicode.IsSpace(r) {
			return fmt.Errorf("%w: key contains whitespace at position %d", ErrInvalidKey, i)
		}
	}

	for _, pattern := range v.config.ReservedPatterns {
		if strings.Contains(key, pattern) {
			return fmt.Errorf("%w: key contains reserved pattern %q", ErrInvalidKey, pattern)
		}
	}

	return nil
}

var DefaultKeyValidator = NewKeyValidator(DefaultKeyValidationConfig())

// ValidateKey checks key against the default rules.
func ValidateKey(key string) error {
	return DefaultKeyValidator.Validate(key)
}

func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}
