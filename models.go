package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CustomerStatus is the account status of a customer
type CustomerStatus = string

const (
	// CustomerStatusActive is a customer in good standing
	CustomerStatusActive CustomerStatus = "active"
	// CustomerStatusPending is a customer that has not completed registration
	CustomerStatusPending CustomerStatus = "pending"
	// CustomerStatusDeleted is a removed account; it can no longer authenticate
	CustomerStatusDeleted CustomerStatus = "deleted"
)

// Customer is the customer account model. The access token pair
// (access_token, access_token_created_at) is always set or cleared together;
// a token without its issue timestamp is treated as invalid.
type Customer struct {
	bun.BaseModel        `bun:"table:customers,alias:cst"`
	ID                   uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName            string         `bun:"first_name" json:"first_name,omitempty"`
	LastName             string         `bun:"last_name" json:"last_name,omitempty"`
	Email                string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash         string         `bun:"password_hash" json:"password_hash,omitempty"`
	Status               CustomerStatus `bun:"status,notnull" json:"status,omitempty"`
	IsSubscribed         bool           `bun:"is_subscribed" json:"is_subscribed,omitempty"`
	AccessToken          *string        `bun:"access_token,nullzero" json:"-"`
	AccessTokenCreatedAt *time.Time     `bun:"access_token_created_at,nullzero" json:"-"`
	PasswordResetToken   *string        `bun:"password_reset_token,nullzero" json:"-"`
	CreatedAt            *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt            *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt            *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus defaults blank statuses to active
func (c *Customer) EnsureStatus() {
	if c != nil && c.Status == "" {
		c.Status = CustomerStatusActive
	}
}

// HasAccessToken reports whether the customer owns a live access token
func (c *Customer) HasAccessToken() bool {
	return c != nil && c.AccessToken != nil && *c.AccessToken != ""
}

// TokenIssuedAt returns the access token issue timestamp. The second return
// is false when the token pair is absent or inconsistent.
func (c *Customer) TokenIssuedAt() (time.Time, bool) {
	if !c.HasAccessToken() || c.AccessTokenCreatedAt == nil {
		return time.Time{}, false
	}
	return *c.AccessTokenCreatedAt, true
}

func (c *Customer) setAccessToken(token string, issuedAt time.Time) {
	c.AccessToken = &token
	at := issuedAt
	c.AccessTokenCreatedAt = &at
	c.UpdatedAt = &at
}

func (c *Customer) clearAccessToken(at time.Time) {
	c.AccessToken = nil
	c.AccessTokenCreatedAt = nil
	ts := at
	c.UpdatedAt = &ts
}

// statusAuthError maps an account status to the error that blocks
// authentication, or nil when the status allows it.
func statusAuthError(status CustomerStatus) error {
	switch status {
	case CustomerStatusDeleted:
		return ErrCustomerDeleted
	default:
		return nil
	}
}

func ensureAuthenticatableCustomer(c *Customer) error {
	if c == nil {
		return ErrCustomerNotFound
	}
	c.EnsureStatus()
	return statusAuthError(c.Status)
}
