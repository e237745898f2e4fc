package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API layers alongside error categories.
const (
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeTokenExpired     = "ACCESS_TOKEN_EXPIRED"
	TextCodeTokenNotFound    = "ACCESS_TOKEN_NOT_FOUND"
	TextCodeResetNotFound    = "RESET_TOKEN_NOT_FOUND"
	TextCodeResetExpired     = "RESET_TOKEN_EXPIRED"
	TextCodeAccountDeleted   = "ACCOUNT_DELETED"
	TextCodeDuplicateAccount = "DUPLICATE_ACCOUNT"
	TextCodeEmptyIdentifier  = "EMPTY_IDENTIFIER"
)

// ErrCustomerNotFound is returned when no customer matches the given reference.
var ErrCustomerNotFound = goerrors.New("customer not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when the presented secret does not
// match the stored hash.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrTokenNotFound is returned when no customer owns the presented access token.
var ErrTokenNotFound = goerrors.New("access token not found", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenNotFound)

// ErrTokenExpired is returned when the presented access token aged past the
// configured timeout. The stale token is cleared before this error surfaces,
// so retrying the same token yields ErrTokenNotFound.
var ErrTokenExpired = goerrors.New("access token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrResetTokenNotFound is returned when no customer owns the presented
// password reset token, including tokens already consumed.
var ErrResetTokenNotFound = goerrors.New("password reset token not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeResetNotFound)

// ErrResetTokenExpired is returned when the opt-in reset token TTL has elapsed.
var ErrResetTokenExpired = goerrors.New("password reset token has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeResetExpired)

// ErrCustomerDeleted blocks authentication for removed accounts.
var ErrCustomerDeleted = goerrors.New("customer account is deleted", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDeleted)

// ErrDuplicateCustomer is returned when registration loses a uniqueness race
// on the email column.
var ErrDuplicateCustomer = goerrors.New("a customer with this email already exists", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode(TextCodeDuplicateAccount)

// ErrEmptyIdentifier is returned for blank identifiers and empty references.
var ErrEmptyIdentifier = goerrors.New("identifier must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyIdentifier)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation)

// IsInvalidToken reports whether err represents a rejected access token,
// regardless of the reason (unknown, expired, or owned by a removed account).
func IsInvalidToken(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrCustomerDeleted)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.IsNotFound(err) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrResetTokenNotFound)
}

// isUniqueViolation sniffs driver error strings for uniqueness failures so a
// registration race surfaces as a conflict instead of a storage error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "duplicate key value")
}
