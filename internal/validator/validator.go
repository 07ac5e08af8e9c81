package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCountryCode = errors.New("invalid country code")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidInstitution = errors.New("invalid institution id")
)

var (
	emailRegex       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	countryRegex     = regexp.MustCompile(`^[A-Z]{2}$`)
	currencyRegex    = regexp.MustCompile(`^[A-Z]{3}$`)
	institutionRegex = regexp.MustCompile(`^[A-Z0-9_]{2,64}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateCountryCode(code string) error {
	if !countryRegex.MatchString(code) {
		return ErrInvalidCountryCode
	}
	return nil
}

func ValidateCurrency(code string) error {
	if !currencyRegex.MatchString(code) {
		return ErrInvalidCurrency
	}
	return nil
}

func ValidateInstitutionID(id string) error {
	if !institutionRegex.MatchString(id) {
		return ErrInvalidInstitution
	}
	return nil
}
