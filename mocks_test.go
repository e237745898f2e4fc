package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/biggerfish/go-customer-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory auth.CustomerStore. Mutations mirror the real
// repository: they persist the change and sync the passed record. The fail*
// fields inject storage errors for the matching operation.
type fakeStore struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*auth.Customer

	findCalls  int
	touchCalls int
	clearCalls int

	failFind  error
	failStore error
	failTouch error
	failClear error
	failReset error
}

func newFakeStore(customers ...*auth.Customer) *fakeStore {
	s := &fakeStore{customers: map[uuid.UUID]*auth.Customer{}}
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	return s
}

func (s *fakeStore) add(c *auth.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *fakeStore) get(id uuid.UUID) *auth.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers[id]
}

func (s *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*auth.Customer, error) {
	return s.find(func(c *auth.Customer) bool { return c.ID == id })
}

func (s *fakeStore) FindByEmail(ctx context.Context, email string) (*auth.Customer, error) {
	email = strings.ToLower(email)
	return s.find(func(c *auth.Customer) bool { return strings.ToLower(c.Email) == email })
}

func (s *fakeStore) FindByAccessToken(ctx context.Context, token string) (*auth.Customer, error) {
	return s.find(func(c *auth.Customer) bool {
		return c.AccessToken != nil && *c.AccessToken == token
	})
}

func (s *fakeStore) FindByResetToken(ctx context.Context, token string) (*auth.Customer, error) {
	return s.find(func(c *auth.Customer) bool {
		return c.PasswordResetToken != nil && *c.PasswordResetToken == token
	})
}

func (s *fakeStore) find(match func(*auth.Customer) bool) (*auth.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.findCalls++
	if s.failFind != nil {
		return nil, s.failFind
	}

	for _, c := range s.customers {
		if match(c) {
			return c, nil
		}
	}
	return nil, auth.ErrCustomerNotFound
}

func (s *fakeStore) StoreAccessToken(ctx context.Context, customer *auth.Customer, token string, issuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failStore != nil {
		return s.failStore
	}

	record := s.customers[customer.ID]
	if record == nil {
		return auth.ErrCustomerNotFound
	}

	at := issuedAt
	record.AccessToken = &token
	record.AccessTokenCreatedAt = &at
	record.UpdatedAt = &at

	customer.AccessToken = &token
	customer.AccessTokenCreatedAt = &at
	customer.UpdatedAt = &at
	return nil
}

func (s *fakeStore) TouchAccessToken(ctx context.Context, customer *auth.Customer, issuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchCalls++
	if s.failTouch != nil {
		return s.failTouch
	}

	record := s.customers[customer.ID]
	if record == nil || record.AccessToken == nil {
		return nil
	}

	at := issuedAt
	record.AccessTokenCreatedAt = &at
	record.UpdatedAt = &at
	customer.AccessTokenCreatedAt = &at
	customer.UpdatedAt = &at
	return nil
}

func (s *fakeStore) ClearAccessToken(ctx context.Context, customer *auth.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearCalls++
	if s.failClear != nil {
		return s.failClear
	}

	record := s.customers[customer.ID]
	if record != nil {
		record.AccessToken = nil
		record.AccessTokenCreatedAt = nil
	}

	customer.AccessToken = nil
	customer.AccessTokenCreatedAt = nil
	return nil
}

func (s *fakeStore) StoreResetToken(ctx context.Context, customer *auth.Customer, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failStore != nil {
		return s.failStore
	}

	record := s.customers[customer.ID]
	if record == nil {
		return auth.ErrCustomerNotFound
	}

	ts := at
	record.PasswordResetToken = &token
	record.UpdatedAt = &ts
	customer.PasswordResetToken = &token
	customer.UpdatedAt = &ts
	return nil
}

func (s *fakeStore) ResetCredentials(ctx context.Context, customer *auth.Customer, passwordHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failReset != nil {
		return s.failReset
	}

	record := s.customers[customer.ID]
	if record == nil {
		return auth.ErrCustomerNotFound
	}

	ts := at
	for _, c := range []*auth.Customer{record, customer} {
		c.PasswordHash = passwordHash
		c.PasswordResetToken = nil
		c.AccessToken = nil
		c.AccessTokenCreatedAt = nil
		c.UpdatedAt = &ts
	}
	return nil
}

// stubTokenSource hands out a fixed sequence of tokens
type stubTokenSource struct {
	tokens []string
	calls  int
	err    error
}

func (s *stubTokenSource) NewToken() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.tokens) {
		return "", errors.New("stub token source exhausted")
	}
	token := s.tokens[s.calls]
	s.calls++
	return token, nil
}

// MockCartMerger implements auth.CartMerger
type MockCartMerger struct {
	mock.Mock
}

func (m *MockCartMerger) MergeOnLogin(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

// MockRegistrar implements auth.Registrar
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context, msg auth.RegisterCustomerMessage) (*auth.Customer, error) {
	args := m.Called(ctx, msg)
	if c, ok := args.Get(0).(*auth.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNewsletterSubscriber implements auth.NewsletterSubscriber
type MockNewsletterSubscriber struct {
	mock.Mock
}

func (m *MockNewsletterSubscriber) Subscribe(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// capturingSink records every activity event it sees
type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
	err    error
}

func (s *capturingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *capturingSink) byType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []auth.ActivityEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// silentLogger keeps test output clean
type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}

var (
	testHashOnce  sync.Once
	testHashValue string
	testHashErr   error
)

// testPasswordHash returns a bcrypt hash of "password123", computed once per
// test binary since hashing at the production cost is slow.
func testPasswordHash(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		testHashValue, testHashErr = auth.HashPassword("password123")
	})
	require.NoError(t, testHashErr)
	return testHashValue
}

func activeCustomer(t *testing.T, email string) *auth.Customer {
	t.Helper()
	now := time.Now()
	return &auth.Customer{
		ID:           uuid.New(),
		FirstName:    "Test",
		LastName:     "Customer",
		Email:        email,
		PasswordHash: testPasswordHash(t),
		Status:       auth.CustomerStatusActive,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
}
