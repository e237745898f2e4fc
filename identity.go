package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type customerRefKind int

const (
	refEmpty customerRefKind = iota
	refByID
	refByEmail
	refByRecord
)

// CustomerRef names a customer by id, by email, or by an already loaded
// record. Callers pick the variant up front, so the services never inspect
// the dynamic type of an identity argument.
type CustomerRef struct {
	kind     customerRefKind
	id       uuid.UUID
	email    string
	customer *Customer
}

// CustomerByID references a customer by primary key
func CustomerByID(id uuid.UUID) CustomerRef {
	return CustomerRef{kind: refByID, id: id}
}

// CustomerByEmail references a customer by login email
func CustomerByEmail(email string) CustomerRef {
	return CustomerRef{kind: refByEmail, email: email}
}

// CustomerByRecord references an already resolved customer
func CustomerByRecord(customer *Customer) CustomerRef {
	return CustomerRef{kind: refByRecord, customer: customer}
}

// Resolve loads the referenced customer from the store. A ByRecord reference
// resolves without touching the store.
func (r CustomerRef) Resolve(ctx context.Context, store CustomerStore) (*Customer, error) {
	switch r.kind {
	case refByID:
		if r.id == uuid.Nil {
			return nil, ErrEmptyIdentifier
		}
		return store.FindByID(ctx, r.id)
	case refByEmail:
		email := strings.TrimSpace(r.email)
		if email == "" {
			return nil, ErrEmptyIdentifier
		}
		return store.FindByEmail(ctx, email)
	case refByRecord:
		if r.customer == nil {
			return nil, ErrCustomerNotFound
		}
		return r.customer, nil
	default:
		return nil, ErrEmptyIdentifier
	}
}

// IsEmpty reports whether the reference carries no identity at all
func (r CustomerRef) IsEmpty() bool {
	return r.kind == refEmpty
}
