// Package notify carries notification intents from the ledger to delivery.
// Services hand intents to a Dispatcher after commit; the dispatcher
// publishes them to RabbitMQ where the notifier worker renders and sends
// them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the template an intent is rendered with.
type Kind string

const (
	KindContributionConfirmed Kind = "contribution_confirmed"
	KindPledgeConfirmation    Kind = "pledge_confirmation"
	KindPledgeReminder        Kind = "pledge_reminder"
	KindPledgeCancelled       Kind = "pledge_cancelled"
)

// Intent is a request to notify a member. Params feed the template.
type Intent struct {
	MemberID   string            `json:"member_id"`
	Kind       Kind              `json:"kind"`
	Params     map[string]string `json:"params"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewIntent stamps an intent with the current time.
func NewIntent(memberID string, kind Kind, params map[string]string) Intent {
	return Intent{
		MemberID:   memberID,
		Kind:       kind,
		Params:     params,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON encodes the intent for the wire.
func (i Intent) ToJSON() ([]byte, error) {
	return json.Marshal(i)
}

// IntentFromJSON decodes an intent and rejects unknown kinds.
func IntentFromJSON(data []byte) (Intent, error) {
	var i Intent
	if err := json.Unmarshal(data, &i); err != nil {
		return Intent{}, err
	}
	if _, ok := templates[i.Kind]; !ok {
		return Intent{}, fmt.Errorf("unknown intent kind %q", i.Kind)
	}
	if i.MemberID == "" {
		return Intent{}, fmt.Errorf("intent missing member_id")
	}
	return i, nil
}

// Dispatcher accepts intents without blocking the caller. Implementations
// must never report delivery failures back to the ledger.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent)
}

// Publisher delivers a single intent to the transport.
type Publisher interface {
	Publish(ctx context.Context, intent Intent) error
}

// Discard is a Dispatcher that drops every intent.
type Discard struct{}

func (Discard) Dispatch(context.Context, Intent) {}

// PublisherFunc adapts a function to Publisher. With Worker.Handle it
// delivers intents in-process when no broker is configured.
type PublisherFunc func(ctx context.Context, intent Intent) error

func (f PublisherFunc) Publish(ctx context.Context, intent Intent) error {
	return f(ctx, intent)
}
