package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess         ActivityEventType = "customer.login.success"
	ActivityEventLoginFailure         ActivityEventType = "customer.login.failure"
	ActivityEventFederatedLogin       ActivityEventType = "customer.login.federated"
	ActivityEventLogout               ActivityEventType = "customer.logout"
	ActivityEventRegisterSuccess      ActivityEventType = "customer.register.success"
	ActivityEventPasswordResetSuccess ActivityEventType = "customer.password.reset"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	CustomerID string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged and never abort the operation
// that produced the event.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

func actorFromCustomer(customer *Customer) ActorRef {
	if customer == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{
		ID:   customer.ID.String(),
		Type: "customer",
	}
}
