package auth

import (
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password sign-up accepts.
const MinPasswordLength = 6

// PasswordHints reports which password rules are met.
type PasswordHints struct {
	MinLength bool
	HasDigit  bool
}

// OK reports whether every rule is met.
func (h PasswordHints) OK() bool {
	return h.MinLength && h.HasDigit
}

// CheckPassword evaluates password against each rule.
func CheckPassword(password string) PasswordHints {
	return PasswordHints{
		MinLength: utf8.RuneCountInString(password) >= MinPasswordLength,
		HasDigit:  strings.ContainsAny(password, "0123456789"),
	}
}

// ValidatePassword reports whether password is at least six characters and
// contains a digit.
func ValidatePassword(password string) bool {
	return CheckPassword(password).OK()
}
