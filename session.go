package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Auther coordinates logins, logouts, and password resets on top of the
// credential verifier and the token services. It owns the side effects
// around a successful login (cart merge, activity trace) but none of the
// expiry logic.
type Auther struct {
	provider  *CustomerProvider
	tokens    *AccessTokenService
	resets    *PasswordResetService
	registrar Registrar
	cart      CartMerger
	activity  ActivitySink
	logger    Logger

	// Debug dumps federated profiles before processing them
	Debug bool
}

var _ Authenticator = (*Auther)(nil)

// NewAuther returns a new Auther wired to the given store
func NewAuther(store CustomerStore, cfg Config, opts ...AccessTokenOption) *Auther {
	return &Auther{
		provider: NewCustomerProvider(store),
		tokens:   NewAccessTokenService(store, cfg, opts...),
		resets:   NewPasswordResetService(store),
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
		a.provider.WithLogger(logger)
	}
	return a
}

// WithRegistrar configures the collaborator that creates accounts for
// first-time federated logins.
func (a *Auther) WithRegistrar(registrar Registrar) *Auther {
	a.registrar = registrar
	return a
}

// WithCartMerger configures the post-login cart merge hook.
func (a *Auther) WithCartMerger(cart CartMerger) *Auther {
	a.cart = cart
	return a
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (a *Auther) WithActivitySink(sink ActivitySink) *Auther {
	a.activity = normalizeActivitySink(sink)
	return a
}

// WithPasswordResets overrides the password reset service, e.g. to opt into
// a reset token TTL.
func (a *Auther) WithPasswordResets(resets *PasswordResetService) *Auther {
	if resets != nil {
		a.resets = resets
	}
	return a
}

// AccessTokens returns the AccessTokenService used by this Auther
func (a *Auther) AccessTokens() *AccessTokenService {
	return a.tokens
}

// PasswordResets returns the PasswordResetService used by this Auther
func (a *Auther) PasswordResets() *PasswordResetService {
	return a.resets
}

// Login verifies the credential pair and issues a fresh access token,
// replacing any token from a previous login.
func (a *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	customer, err := a.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		a.logger.Error("Login verify identity error", "error", err)
		a.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	token, err := a.tokens.Issue(ctx, customer)
	if err != nil {
		a.emitEvent(ctx, ActivityEventLoginFailure, actorFromCustomer(customer), customer.ID.String(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	a.afterLogin(ctx, ActivityEventLoginSuccess, customer, map[string]any{
		"identifier": identifier,
	})

	return token, nil
}

// LoginByToken authenticates a presented access token. A near-expiry token
// gets renewed transparently; the caller sees the same success either way.
// Token logins do not trigger the cart merge hook.
func (a *Auther) LoginByToken(ctx context.Context, token string) (*Customer, error) {
	customer, renewed, err := a.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if renewed {
		a.logger.Debug("access token renewed", "customer_id", customer.ID.String())
	}

	return customer, nil
}

// Logout invalidates the customer's active token. When customer is nil the
// identity is taken from the context. It reports whether the caller is
// anonymous afterwards, which is always true on success.
func (a *Auther) Logout(ctx context.Context, customer *Customer) (bool, error) {
	if customer == nil {
		customer, _ = FromContext(ctx)
	}

	anonymous, err := a.tokens.Invalidate(ctx, customer)
	if err != nil {
		return false, err
	}

	if customer != nil {
		a.emitEvent(ctx, ActivityEventLogout, actorFromCustomer(customer), customer.ID.String(), nil)
	}

	return anonymous, nil
}

// FederatedLogin signs in a customer whose identity was asserted by an
// external provider, creating the account on first contact. Credential
// verification is skipped; the provider already authenticated the customer.
// Two concurrent first logins race on the registrar's uniqueness constraint,
// the loser surfaces a duplicate conflict.
func (a *Auther) FederatedLogin(ctx context.Context, profile FederatedProfile) (string, error) {
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return "", ErrEmptyIdentifier
	}

	if a.Debug {
		fmt.Println("======= FEDERATED LOGIN =======")
		fmt.Println(print.MaybePrettyJSON(profile))
		fmt.Println("===============================")
	}

	customer, err := a.provider.FindByRef(ctx, CustomerByEmail(email))
	if err == nil {
		return a.issueFederated(ctx, customer, profile)
	}

	if !isNotFound(err) {
		return "", err
	}

	if a.registrar == nil {
		return "", goerrors.New("no registrar configured for federated signup", goerrors.CategoryInternal)
	}

	password, err := RandomPassword()
	if err != nil {
		return "", err
	}

	customer, err = a.registrar.Register(ctx, RegisterCustomerMessage{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     email,
		Password:  password,
		Provider:  profile.Provider,
	})
	if err != nil {
		a.logger.Error("FederatedLogin registration error", "error", err, "provider", profile.Provider)
		return "", err
	}

	// the registrar emits the register event

	return a.issueFederated(ctx, customer, profile)
}

func (a *Auther) issueFederated(ctx context.Context, customer *Customer, profile FederatedProfile) (string, error) {
	token, err := a.tokens.Issue(ctx, customer)
	if err != nil {
		a.emitEvent(ctx, ActivityEventLoginFailure, actorFromCustomer(customer), customer.ID.String(), map[string]any{
			"identifier": profile.Email,
			"provider":   profile.Provider,
			"error":      err.Error(),
		})
		return "", err
	}

	a.afterLogin(ctx, ActivityEventFederatedLogin, customer, map[string]any{
		"identifier": profile.Email,
		"provider":   profile.Provider,
	})

	return token, nil
}

// InitializePasswordReset issues a reset token for the referenced customer
func (a *Auther) InitializePasswordReset(ctx context.Context, ref CustomerRef) (string, error) {
	return a.resets.Initialize(ctx, ref)
}

// FinalizePasswordReset resolves the reset token, changes the password, and
// consumes the token. Any live access token is invalidated.
func (a *Auther) FinalizePasswordReset(ctx context.Context, token, password string) error {
	customer, err := a.resets.Resolve(ctx, token)
	if err != nil {
		return err
	}

	if err := a.resets.Finalize(ctx, customer, password); err != nil {
		return err
	}

	a.emitEvent(ctx, ActivityEventPasswordResetSuccess, actorFromCustomer(customer), customer.ID.String(), nil)

	return nil
}

// afterLogin runs the best-effort post-login hooks. Hook failures are logged
// and never roll back the login.
func (a *Auther) afterLogin(ctx context.Context, eventType ActivityEventType, customer *Customer, metadata map[string]any) {
	if a.cart != nil {
		if err := a.cart.MergeOnLogin(ctx, customer.ID.String()); err != nil {
			a.logger.Warn("cart merge hook error", "error", err, "customer_id", customer.ID.String())
		}
	}

	a.emitEvent(ctx, eventType, actorFromCustomer(customer), customer.ID.String(), metadata)
}

func (a *Auther) emitEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, customerID string, metadata map[string]any) {
	sink := normalizeActivitySink(a.activity)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		CustomerID: customerID,
		Metadata:   metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error: %v", err)
	}
}
