// Package notify delivers ticket notifications. Delivery is best-effort:
// a Notifier never reports failure to the operation that triggered it.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/observability"
)

// Message is one notification addressed to a set of user emails.
type Message struct {
	CompanyID  string   `json:"company_id"`
	TicketID   string   `json:"ticket_id,omitempty"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// Notifier hands a message off for delivery.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Sender delivers a message over one transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Fanout sends to every sender and joins their errors.
type Fanout []Sender

func (f Fanout) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range f {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DirectNotifier sends in-process, on the caller's goroutine.
type DirectNotifier struct {
	sender  Sender
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDirectNotifier is used when no queue is configured.
func NewDirectNotifier(sender Sender, logger *zap.Logger, metrics *observability.Metrics) *DirectNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectNotifier{sender: sender, logger: logger, metrics: metrics}
}

func (n *DirectNotifier) Notify(ctx context.Context, msg Message) {
	if n.sender == nil || len(msg.Recipients) == 0 {
		return
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.metrics.RecordSideEffectFailure("notification")
		n.logger.Warn("notification delivery failed",
			zap.String("subject", msg.Subject),
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
	}
}

// Discard drops every message.
type Discard struct{}

func (Discard) Notify(context.Context, Message) {}
