package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// defaultPhoneRegion is used when the phone number has no country prefix
var defaultPhoneRegion = "US"

type RegisterCustomerMessage struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	IsSubscribed bool   `json:"is_subscribed"`
	// Provider names the federated source for accounts created through an
	// external identity provider; empty for direct signups.
	Provider  string `json:"provider,omitempty"`
	UseHashid bool
}

func (m RegisterCustomerMessage) Type() string { return "customer.register" }

// Validate will run validation rules using the configured length bounds
func (m RegisterCustomerMessage) Validate(cfg Config) error {
	nameMin, nameMax := cfg.GetRegisterNameMinLength(), cfg.GetRegisterNameMaxLength()
	passMin, passMax := cfg.GetRegisterPassMinLength(), cfg.GetRegisterPassMaxLength()

	return validation.ValidateStruct(&m,
		validation.Field(&m.FirstName, validation.Required, validation.Length(nameMin, nameMax)),
		validation.Field(&m.LastName, validation.Required, validation.Length(nameMin, nameMax)),
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(passMin, passMax)),
		validation.Field(&m.Phone, validation.By(validatePhoneNumber)),
	)
}

func validatePhoneNumber(value any) error {
	phone, _ := value.(string)
	if phone == "" {
		return nil
	}

	num, err := phonenumbers.Parse(phone, defaultPhoneRegion)
	if err != nil {
		return err
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

// RegisterCustomerHandler creates customer records. It is the registration
// collaborator used by federated logins and the `customer.register` command
// surface for direct signups.
type RegisterCustomerHandler struct {
	repo       RepositoryManager
	config     Config
	newsletter NewsletterSubscriber
	activity   ActivitySink
	logger     Logger
}

var _ Registrar = (*RegisterCustomerHandler)(nil)

// NewRegisterCustomerHandler creates a handler with sane defaults.
func NewRegisterCustomerHandler(repo RepositoryManager, cfg Config) *RegisterCustomerHandler {
	return &RegisterCustomerHandler{
		repo:     repo,
		config:   cfg,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithNewsletterSubscriber sets the hook invoked for subscribed signups.
func (h *RegisterCustomerHandler) WithNewsletterSubscriber(subscriber NewsletterSubscriber) *RegisterCustomerHandler {
	h.newsletter = subscriber
	return h
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterCustomerHandler) WithActivitySink(sink ActivitySink) *RegisterCustomerHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterCustomerHandler) WithLogger(logger Logger) *RegisterCustomerHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterCustomerHandler) Execute(ctx context.Context, event RegisterCustomerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during customer registration",
		)
	default:
		_, err := h.Register(ctx, event)
		return err
	}
}

// Register validates the payload and creates the customer record. The email
// uniqueness constraint decides registration races: the first write wins and
// the second surfaces ErrDuplicateCustomer.
func (h *RegisterCustomerHandler) Register(ctx context.Context, event RegisterCustomerMessage) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(h.config); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	customer := &Customer{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		customer.PasswordHash = hash
		customer.Email = strings.ToLower(strings.TrimSpace(event.Email))
		customer.FirstName = event.FirstName
		customer.LastName = event.LastName
		customer.IsSubscribed = event.IsSubscribed
		customer.Status = CustomerStatusActive
		if event.UseHashid {
			if id, err := hashid.NewUUID(customer.Email); err == nil {
				customer.ID = id
			}
		}

		if customer, err = h.repo.Customers().RegisterTx(ctx, tx, customer); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "customer registration transaction failed")
	}

	h.afterRegister(ctx, customer, event)

	return customer, nil
}

func (h *RegisterCustomerHandler) afterRegister(ctx context.Context, customer *Customer, event RegisterCustomerMessage) {
	if customer == nil {
		return
	}

	if event.IsSubscribed && h.newsletter != nil {
		if err := h.newsletter.Subscribe(ctx, customer.Email); err != nil {
			h.logger.Warn("newsletter subscribe hook error", "error", err)
		}
	}

	recordEvent := ActivityEvent{
		EventType:  ActivityEventRegisterSuccess,
		Actor:      actorFromCustomer(customer),
		CustomerID: customer.ID.String(),
		Metadata: map[string]any{
			"identifier": customer.Email,
		},
		OccurredAt: time.Now(),
	}
	if event.Provider != "" {
		recordEvent.Metadata["provider"] = event.Provider
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, recordEvent); err != nil {
		h.logger.Warn("activity sink error during registration: %v", err)
	}
}
