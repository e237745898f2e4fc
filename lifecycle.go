package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AccessTokenService owns issuance, sliding-expiry validation, and
// invalidation of store-resolved access tokens.
//
// A token is valid while its age stays under the configured timeout. A valid
// token used within the renew window of its expiry gets its issue timestamp
// slid forward, so active customers stay logged in indefinitely while dormant
// tokens still expire after one timeout of inactivity. Expiry is computed
// lazily at validation time; there is no background sweeper.
type AccessTokenService struct {
	store       CustomerStore
	tokens      TokenSource
	timeout     time.Duration
	renewWindow time.Duration
	logger      Logger
	now         func() time.Time
}

// AccessTokenOption customizes AccessTokenService construction.
type AccessTokenOption func(*AccessTokenService)

// WithAccessTokenClock injects a custom clock (useful for tests).
func WithAccessTokenClock(clock func() time.Time) AccessTokenOption {
	return func(s *AccessTokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithAccessTokenSource overrides the token generator.
func WithAccessTokenSource(source TokenSource) AccessTokenOption {
	return func(s *AccessTokenService) {
		if source != nil {
			s.tokens = source
		}
	}
}

// WithAccessTokenLogger overrides the logger.
func WithAccessTokenLogger(logger Logger) AccessTokenOption {
	return func(s *AccessTokenService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAccessTokenService returns a new AccessTokenService
func NewAccessTokenService(store CustomerStore, cfg Config, opts ...AccessTokenOption) *AccessTokenService {
	s := &AccessTokenService{
		store:       store,
		tokens:      NewRandomTokenSource(),
		timeout:     cfg.GetTokenTimeout(),
		renewWindow: cfg.GetTokenRenewWindow(),
		logger:      defLogger{},
		now:         time.Now,
	}

	if s.timeout <= 0 {
		s.timeout = DefaultTokenTimeout
	}
	if s.renewWindow < 0 {
		s.renewWindow = 0
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	// a renew window wider than the timeout would renew on every call
	if s.renewWindow > s.timeout {
		s.logger.Warn("token renew window exceeds timeout, clamping", "renew_window", s.renewWindow, "timeout", s.timeout)
		s.renewWindow = s.timeout
	}

	return s
}

// Issue mints a fresh token for the customer and persists it, replacing any
// previously issued token. Concurrent issuance for the same customer is
// last-writer-wins: the losing token is invalid on its next use.
func (s *AccessTokenService) Issue(ctx context.Context, customer *Customer) (string, error) {
	if err := ensureAuthenticatableCustomer(customer); err != nil {
		return "", err
	}

	token, err := s.tokens.NewToken()
	if err != nil {
		return "", err
	}

	if err := s.store.StoreAccessToken(ctx, customer, token, s.now()); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist access token")
	}

	return token, nil
}

// Validate resolves a presented token and applies the sliding expiry rules.
// The returned bool reports whether the validity window was renewed; callers
// that only care about success can ignore it.
func (s *AccessTokenService) Validate(ctx context.Context, token string) (*Customer, bool, error) {
	if strings.TrimSpace(token) == "" {
		return nil, false, ErrTokenNotFound
	}

	customer, err := s.store.FindByAccessToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, false, ErrTokenNotFound
		}
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve access token")
	}

	customer.EnsureStatus()
	if err := statusAuthError(customer.Status); err != nil {
		// removed accounts do not get to keep a live token around
		if clearErr := s.store.ClearAccessToken(ctx, customer); clearErr != nil {
			s.logger.Error("failed to clear token for blocked customer", "error", clearErr)
		}
		return nil, false, err
	}

	issuedAt, ok := customer.TokenIssuedAt()
	if !ok {
		// a token without its issue timestamp violates the model, drop it
		if clearErr := s.store.ClearAccessToken(ctx, customer); clearErr != nil {
			s.logger.Error("failed to clear inconsistent token pair", "error", clearErr)
		}
		return nil, false, ErrTokenNotFound
	}

	now := s.now()
	age := now.Sub(issuedAt)

	if age >= s.timeout {
		if err := s.store.ClearAccessToken(ctx, customer); err != nil {
			return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear expired access token")
		}
		return nil, false, ErrTokenExpired
	}

	if age >= s.timeout-s.renewWindow {
		// renewal is idempotent: concurrent validators all set the issue
		// timestamp to "now", the only race hazard is millisecond skew
		if err := s.store.TouchAccessToken(ctx, customer, now); err != nil {
			return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to renew access token")
		}
		return customer, true, nil
	}

	return customer, false, nil
}

// Invalidate clears the customer's active token, if any. It reports whether
// the caller is anonymous afterwards, which is always true on success even
// when there was no token to clear.
func (s *AccessTokenService) Invalidate(ctx context.Context, customer *Customer) (bool, error) {
	if customer == nil {
		return true, nil
	}

	if customer.HasAccessToken() {
		if err := s.store.ClearAccessToken(ctx, customer); err != nil {
			return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear access token")
		}
	}

	return true, nil
}

// Timeout returns the configured inactivity window
func (s *AccessTokenService) Timeout() time.Duration {
	return s.timeout
}

// RenewWindow returns the configured renewal window
func (s *AccessTokenService) RenewWindow() time.Duration {
	return s.renewWindow
}
