package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// CustomerProvider resolves customers and verifies their credentials.
// Verification is a pure read; persisting login side effects belongs to
// the Auther.
type CustomerProvider struct {
	store  CustomerStore
	logger Logger
}

// NewCustomerProvider will create a new CustomerProvider
func NewCustomerProvider(store CustomerStore) *CustomerProvider {
	return &CustomerProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (p *CustomerProvider) WithLogger(l Logger) *CustomerProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyIdentity will find the customer by email and compare the password
// against the stored hash. It returns the customer unmodified on success.
// Callers decide how much of the failure reason to reveal; an unknown email
// and a bad password come back as distinct errors.
func (p *CustomerProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*Customer, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}

	customer, err := p.store.FindByEmail(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve customer during verification")
	}

	if err := ensureAuthenticatableCustomer(customer); err != nil {
		return nil, err
	}

	if err := ComparePasswordAndHash(password, customer.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return customer, nil
}

// FindByRef resolves a customer reference through the provider's store
func (p *CustomerProvider) FindByRef(ctx context.Context, ref CustomerRef) (*Customer, error) {
	customer, err := ref.Resolve(ctx, p.store)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}
