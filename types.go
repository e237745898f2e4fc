package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with customer authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	LoginByToken(ctx context.Context, token string) (*Customer, error)
	Logout(ctx context.Context, customer *Customer) (bool, error)
	FederatedLogin(ctx context.Context, profile FederatedProfile) (string, error)
	InitializePasswordReset(ctx context.Context, ref CustomerRef) (string, error)
	FinalizePasswordReset(ctx context.Context, token, password string) error
}

// CustomerStore is the persistence surface the auth services depend on.
// Lookups return a not-found error when nothing matches; mutations persist
// the change and keep the in-memory record in sync.
type CustomerStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	FindByAccessToken(ctx context.Context, token string) (*Customer, error)
	FindByResetToken(ctx context.Context, token string) (*Customer, error)

	StoreAccessToken(ctx context.Context, customer *Customer, token string, issuedAt time.Time) error
	TouchAccessToken(ctx context.Context, customer *Customer, issuedAt time.Time) error
	ClearAccessToken(ctx context.Context, customer *Customer) error

	StoreResetToken(ctx context.Context, customer *Customer, token string, at time.Time) error
	ResetCredentials(ctx context.Context, customer *Customer, passwordHash string, at time.Time) error
}

// CartMerger merges a guest cart into the customer's cart after login.
// Invocations are best-effort; failures never roll back the login.
type CartMerger interface {
	MergeOnLogin(ctx context.Context, customerID string) error
}

// NewsletterSubscriber subscribes an email address after registration
type NewsletterSubscriber interface {
	Subscribe(ctx context.Context, email string) error
}

// Registrar creates new customer records, enforcing email uniqueness
type Registrar interface {
	Register(ctx context.Context, msg RegisterCustomerMessage) (*Customer, error)
}

// FederatedProfile carries identity fields asserted by an external provider
type FederatedProfile struct {
	Provider  string `json:"provider"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Config holds auth options
type Config interface {
	GetTokenTimeout() time.Duration
	GetTokenRenewWindow() time.Duration
	GetRegisterNameMinLength() int
	GetRegisterNameMaxLength() int
	GetRegisterPassMinLength() int
	GetRegisterPassMaxLength() int
}

const (
	// DefaultTokenTimeout is the access token inactivity window
	DefaultTokenTimeout = time.Hour
	// DefaultTokenRenewWindow is how close to expiry a token gets renewed
	DefaultTokenRenewWindow = 5 * time.Minute
)

// SimpleConfig is a literal Config implementation
type SimpleConfig struct {
	TokenTimeout      time.Duration
	TokenRenewWindow  time.Duration
	NameMinLength     int
	NameMaxLength     int
	PasswordMinLength int
	PasswordMaxLength int
}

func (c SimpleConfig) GetTokenTimeout() time.Duration {
	if c.TokenTimeout <= 0 {
		return DefaultTokenTimeout
	}
	return c.TokenTimeout
}

func (c SimpleConfig) GetTokenRenewWindow() time.Duration {
	if c.TokenRenewWindow <= 0 {
		return DefaultTokenRenewWindow
	}
	return c.TokenRenewWindow
}

func (c SimpleConfig) GetRegisterNameMinLength() int {
	if c.NameMinLength <= 0 {
		return 1
	}
	return c.NameMinLength
}

func (c SimpleConfig) GetRegisterNameMaxLength() int {
	if c.NameMaxLength <= 0 {
		return 100
	}
	return c.NameMaxLength
}

func (c SimpleConfig) GetRegisterPassMinLength() int {
	if c.PasswordMinLength <= 0 {
		return 6
	}
	return c.PasswordMinLength
}

func (c SimpleConfig) GetRegisterPassMaxLength() int {
	if c.PasswordMaxLength <= 0 {
		return 100
	}
	return c.PasswordMaxLength
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
