package types

import (
	"errors"
	"strings"
	"testing"
)

func TestKeyValidator_Validate(t *testing.T) {
	defaults := DefaultKeyValidationConfig()

	tests := []struct {
		name    string
		config  KeyValidationConfig
		key     string
		wantErr bool
	}{
		{"simple key", defaults, "user:1", false},
		{"key with space", defaults, "my key", false},
		{"unicode key", defaults, "clé:ключ:键", false},
		{"empty key allowed", defaults, "", false},
		{"empty key rejected", KeyValidationConfig{AllowWhitespace: true}, "", true},
		{"null byte", defaults, "a\x00b", true},
		{"delete char", defaults, "a\x7fb", true},
		{"newline", defaults, "a\nb", true},
		{"control chars allowed", KeyValidationConfig{AllowControlChars: true, AllowWhitespace: true}, "a\tb", false},
		{"long key uncapped", defaults, strings.Repeat("k", 2000), false},
		{"too long", KeyValidationConfig{MaxKeyLength: 1024}, strings.Repeat("k", 1025), true},
		{"at max length", KeyValidationConfig{MaxKeyLength: 1024}, strings.Repeat("k", 1024), false},
		{"invalid utf8", defaults, "a\xffb", true},
		{"whitespace disallowed", KeyValidationConfig{}, "a b", true},
		{"reserved pattern", KeyValidationConfig{AllowWhitespace: true, ReservedPatterns: []string{"__internal"}}, "x__internal", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewKeyValidator(tt.config).Validate(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Validate(%q) error = %v, want wrapped ErrInvalidKey", tt.key, err)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("valid:key"); err != nil {
		t.Errorf("ValidateKey(\"valid:key\") = %v, want nil", err)
	}
	if err := ValidateKey(""); err == nil {
		t.Error("ValidateKey(\"\") = nil, want error")
	}
}

func TestIsInvalidKey(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"other error", errors.New("some error"), false},
		{"direct ErrInvalidKey", ErrInvalidKey, true},
		{"wrapped ErrInvalidKey", ValidateKey("a\x00b"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInvalidKey(tt.err); got != tt.expect {
				t.Errorf("IsInvalidKey() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func BenchmarkKeyValidator_Validate(b *testing.B) {
	v := NewKeyValidator(DefaultKeyValidationConfig())
	key := "user:123:profile:data"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Validate(key)
	}
}
