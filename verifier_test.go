package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/biggerfish/go-customer-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("successful verification", func(t *testing.T) {
		customer := activeCustomer(t, "test@example.com")
		provider := auth.NewCustomerProvider(newFakeStore(customer)).WithLogger(silentLogger{})

		found, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, customer.ID, found.ID)
		// verification is a pure read
		assert.Nil(t, found.AccessToken)
	})

	t.Run("unknown email", func(t *testing.T) {
		provider := auth.NewCustomerProvider(newFakeStore()).WithLogger(silentLogger{})

		_, err := provider.VerifyIdentity(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, auth.ErrCustomerNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		customer := activeCustomer(t, "test@example.com")
		provider := auth.NewCustomerProvider(newFakeStore(customer)).WithLogger(silentLogger{})

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "not-the-password")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("empty identifier", func(t *testing.T) {
		provider := auth.NewCustomerProvider(newFakeStore()).WithLogger(silentLogger{})

		_, err := provider.VerifyIdentity(ctx, "   ", "password123")
		assert.ErrorIs(t, err, auth.ErrEmptyIdentifier)
	})

	t.Run("deleted account", func(t *testing.T) {
		customer := activeCustomer(t, "gone@example.com")
		customer.Status = auth.CustomerStatusDeleted
		provider := auth.NewCustomerProvider(newFakeStore(customer)).WithLogger(silentLogger{})

		_, err := provider.VerifyIdentity(ctx, "gone@example.com", "password123")
		assert.ErrorIs(t, err, auth.ErrCustomerDeleted)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		store := newFakeStore()
		store.failFind = errors.New("connection refused")
		provider := auth.NewCustomerProvider(store).WithLogger(silentLogger{})

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrCustomerNotFound)
		assert.Contains(t, err.Error(), "failed to retrieve customer")
	})
}

func TestCustomerProviderFindByRef(t *testing.T) {
	ctx := context.Background()
	customer := activeCustomer(t, "ref@example.com")
	provider := auth.NewCustomerProvider(newFakeStore(customer)).WithLogger(silentLogger{})

	found, err := provider.FindByRef(ctx, auth.CustomerByEmail("ref@example.com"))
	require.NoError(t, err)
	assert.Equal(t, customer.ID, found.ID)

	_, err = provider.FindByRef(ctx, auth.CustomerByEmail("missing@example.com"))
	assert.ErrorIs(t, err, auth.ErrCustomerNotFound)
}
