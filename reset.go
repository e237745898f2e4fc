package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordResetService issues and consumes single-use password reset tokens.
//
// The model stores no issuance timestamp for reset tokens, so by default a
// token stays valid until it is consumed. WithResetTokenTTL opts into an
// expiry check against the customer's updated_at, which the store touches
// when the token is issued.
type PasswordResetService struct {
	store  CustomerStore
	tokens TokenSource
	ttl    time.Duration
	logger Logger
	now    func() time.Time
}

// ResetOption customizes PasswordResetService construction.
type ResetOption func(*PasswordResetService)

// WithResetTokenTTL bounds how long an unconsumed reset token stays usable.
// Zero keeps the default: valid until used.
func WithResetTokenTTL(ttl time.Duration) ResetOption {
	return func(s *PasswordResetService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithResetClock injects a custom clock (useful for tests).
func WithResetClock(clock func() time.Time) ResetOption {
	return func(s *PasswordResetService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithResetTokenSource overrides the token generator.
func WithResetTokenSource(source TokenSource) ResetOption {
	return func(s *PasswordResetService) {
		if source != nil {
			s.tokens = source
		}
	}
}

// WithResetLogger overrides the logger.
func WithResetLogger(logger Logger) ResetOption {
	return func(s *PasswordResetService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPasswordResetService returns a new PasswordResetService
func NewPasswordResetService(store CustomerStore, opts ...ResetOption) *PasswordResetService {
	s := &PasswordResetService{
		store:  store,
		tokens: NewRandomTokenSource(),
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Initialize issues a reset token for the referenced customer and persists
// it. Delivering the token (email etc.) is the caller's concern.
func (s *PasswordResetService) Initialize(ctx context.Context, ref CustomerRef) (string, error) {
	customer, err := ref.Resolve(ctx, s.store)
	if err != nil {
		if isNotFound(err) {
			return "", ErrCustomerNotFound
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return "", richErr
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve customer for password reset")
	}

	token, err := s.tokens.NewToken()
	if err != nil {
		return "", err
	}

	if err := s.store.StoreResetToken(ctx, customer, token, s.now()); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password reset token")
	}

	return token, nil
}

// Resolve looks up the owner of a reset token without consuming it.
// Consumption happens in Finalize once the password actually changes.
func (s *PasswordResetService) Resolve(ctx context.Context, token string) (*Customer, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrResetTokenNotFound
	}

	customer, err := s.store.FindByResetToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrResetTokenNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve password reset token")
	}

	if s.ttl > 0 && customer.UpdatedAt != nil {
		if s.now().Sub(*customer.UpdatedAt) >= s.ttl {
			return nil, ErrResetTokenExpired
		}
	}

	return customer, nil
}

// Finalize sets the new password, consumes the reset token, and clears any
// live access token so the customer has to log in again. The access token
// is cleared even when the change came from an authenticated session rather
// than the reset flow.
func (s *PasswordResetService) Finalize(ctx context.Context, customer *Customer, password string) error {
	if customer == nil {
		return ErrCustomerNotFound
	}

	hash, err := HashPassword(password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	if err := s.store.ResetCredentials(ctx, customer, hash, s.now()); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new credentials")
	}

	return nil
}
