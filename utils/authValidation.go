package utils

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong    = errors.New("password must be at most 72 characters long")
	ErrPasswordNotComplex = errors.New("password must include at least one uppercase letter, one lowercase letter, one digit, and one special character")
)

var (
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`\d`)
	specialRegex   = regexp.MustCompile(`[^A-Za-z0-9]`)
	DateRegex      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// PasswordRule enforces length and complexity of new passwords.
var PasswordRule = validation.By(validatePassword)

func validatePassword(value interface{}) error {
	password, _ := value.(string)
	if password == "" {
		return nil
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	if !lowercaseRegex.MatchString(password) ||
		!uppercaseRegex.MatchString(password) ||
		!digitRegex.MatchString(password) ||
		!specialRegex.MatchString(password) {
		return ErrPasswordNotComplex
	}
	return nil
}
