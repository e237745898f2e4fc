package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var storeAccessTokenSQL = `UPDATE "customers" AS "cst"
SET
	"access_token" = ?,
	"access_token_created_at" = ?,
	"updated_at" = ?
WHERE
	"cst"."deleted_at" IS NULL
AND "cst"."id" = ?;`

var touchAccessTokenSQL = `UPDATE "customers" AS "cst"
SET
	"access_token_created_at" = ?,
	"updated_at" = ?
WHERE
	"cst"."deleted_at" IS NULL
AND "cst"."access_token" IS NOT NULL
AND "cst"."id" = ?;`

var clearAccessTokenSQL = `UPDATE "customers" AS "cst"
SET
	"access_token" = NULL,
	"access_token_created_at" = NULL,
	"updated_at" = ?
WHERE
	"cst"."deleted_at" IS NULL
AND "cst"."id" = ?;`

var storeResetTokenSQL = `UPDATE "customers" AS "cst"
SET
	"password_reset_token" = ?,
	"updated_at" = ?
WHERE
	"cst"."deleted_at" IS NULL
AND "cst"."id" = ?;`

var resetCredentialsSQL = `UPDATE "customers" AS "cst"
SET
	"password_hash" = ?,
	"password_reset_token" = NULL,
	"access_token" = NULL,
	"access_token_created_at" = NULL,
	"updated_at" = ?
WHERE
	"cst"."deleted_at" IS NULL
AND "cst"."id" = ?;`

// Customers is the customer repository. It doubles as the CustomerStore the
// auth services consume.
type Customers interface {
	repository.Repository[*Customer]
	CustomerStore

	Register(ctx context.Context, customer *Customer) (*Customer, error)
	RegisterTx(ctx context.Context, tx bun.IDB, customer *Customer) (*Customer, error)

	StoreAccessTokenTx(ctx context.Context, tx bun.IDB, customer *Customer, token string, issuedAt time.Time) error
	TouchAccessTokenTx(ctx context.Context, tx bun.IDB, customer *Customer, issuedAt time.Time) error
	ClearAccessTokenTx(ctx context.Context, tx bun.IDB, customer *Customer) error
	StoreResetTokenTx(ctx context.Context, tx bun.IDB, customer *Customer, token string, at time.Time) error
	ResetCredentialsTx(ctx context.Context, tx bun.IDB, customer *Customer, passwordHash string, at time.Time) error
}

type customers struct {
	repository.Repository[*Customer]
	db *bun.DB
}

var (
	_ Customers                        = (*customers)(nil)
	_ CustomerStore                    = (*customers)(nil)
	_ repository.Repository[*Customer] = (*customers)(nil)
)

// NewCustomersRepository builds the bun-backed customer repository
func NewCustomersRepository(db *bun.DB) Customers {
	repo := repository.NewRepository[*Customer](db, repository.ModelHandlers[*Customer]{
		NewRecord: func() *Customer { return &Customer{} },
		GetID: func(c *Customer) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Customer, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &customers{
		Repository: repo,
		db:         db,
	}
}

func (r *customers) Register(ctx context.Context, customer *Customer) (*Customer, error) {
	return r.RegisterTx(ctx, r.db, customer)
}

func (r *customers) RegisterTx(ctx context.Context, tx bun.IDB, customer *Customer) (*Customer, error) {
	prepareCustomerDefaults(customer)

	record, err := r.Repository.CreateTx(ctx, tx, customer)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCustomer
		}
		return nil, err
	}

	return record, nil
}

func (r *customers) FindByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	if id == uuid.Nil {
		return nil, ErrEmptyIdentifier
	}
	return r.findOne(ctx, "id", id.String())
}

func (r *customers) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmptyIdentifier
	}
	return r.findOne(ctx, "email", email)
}

func (r *customers) FindByAccessToken(ctx context.Context, token string) (*Customer, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	return r.findOne(ctx, "access_token", token)
}

func (r *customers) FindByResetToken(ctx context.Context, token string) (*Customer, error) {
	if token == "" {
		return nil, ErrResetTokenNotFound
	}
	return r.findOne(ctx, "password_reset_token", token)
}

func (r *customers) findOne(ctx context.Context, column, value string) (*Customer, error) {
	record := &Customer{}

	err := r.db.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			// token values stay out of error metadata
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"lookup": column,
				})
		}
		return nil, err
	}

	return record, nil
}

func (r *customers) StoreAccessToken(ctx context.Context, customer *Customer, token string, issuedAt time.Time) error {
	return r.StoreAccessTokenTx(ctx, r.db, customer, token, issuedAt)
}

func (r *customers) StoreAccessTokenTx(ctx context.Context, tx bun.IDB, customer *Customer, token string, issuedAt time.Time) error {
	if customer == nil {
		return ErrCustomerNotFound
	}

	_, err := tx.NewRaw(storeAccessTokenSQL, token, issuedAt, issuedAt, customer.ID).Exec(ctx)
	if err != nil {
		return err
	}

	customer.setAccessToken(token, issuedAt)
	return nil
}

func (r *customers) TouchAccessToken(ctx context.Context, customer *Customer, issuedAt time.Time) error {
	return r.TouchAccessTokenTx(ctx, r.db, customer, issuedAt)
}

func (r *customers) TouchAccessTokenTx(ctx context.Context, tx bun.IDB, customer *Customer, issuedAt time.Time) error {
	if customer == nil {
		return ErrCustomerNotFound
	}

	_, err := tx.NewRaw(touchAccessTokenSQL, issuedAt, issuedAt, customer.ID).Exec(ctx)
	if err != nil {
		return err
	}

	at := issuedAt
	customer.AccessTokenCreatedAt = &at
	customer.UpdatedAt = &at
	return nil
}

func (r *customers) ClearAccessToken(ctx context.Context, customer *Customer) error {
	return r.ClearAccessTokenTx(ctx, r.db, customer)
}

func (r *customers) ClearAccessTokenTx(ctx context.Context, tx bun.IDB, customer *Customer) error {
	if customer == nil {
		return ErrCustomerNotFound
	}

	now := time.Now()
	_, err := tx.NewRaw(clearAccessTokenSQL, now, customer.ID).Exec(ctx)
	if err != nil {
		return err
	}

	customer.clearAccessToken(now)
	return nil
}

func (r *customers) StoreResetToken(ctx context.Context, customer *Customer, token string, at time.Time) error {
	return r.StoreResetTokenTx(ctx, r.db, customer, token, at)
}

func (r *customers) StoreResetTokenTx(ctx context.Context, tx bun.IDB, customer *Customer, token string, at time.Time) error {
	if customer == nil {
		return ErrCustomerNotFound
	}

	_, err := tx.NewRaw(storeResetTokenSQL, token, at, customer.ID).Exec(ctx)
	if err != nil {
		return err
	}

	customer.PasswordResetToken = &token
	ts := at
	customer.UpdatedAt = &ts
	return nil
}

func (r *customers) ResetCredentials(ctx context.Context, customer *Customer, passwordHash string, at time.Time) error {
	return r.ResetCredentialsTx(ctx, r.db, customer, passwordHash, at)
}

func (r *customers) ResetCredentialsTx(ctx context.Context, tx bun.IDB, customer *Customer, passwordHash string, at time.Time) error {
	if customer == nil {
		return ErrCustomerNotFound
	}

	_, err := tx.NewRaw(resetCredentialsSQL, passwordHash, at, customer.ID).Exec(ctx)
	if err != nil {
		return err
	}

	customer.PasswordHash = passwordHash
	customer.PasswordResetToken = nil
	customer.clearAccessToken(at)
	return nil
}

func prepareCustomerDefaults(record *Customer) {
	if record == nil {
		return
	}

	record.EnsureStatus()
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
