// Package notify delivers user-facing notices (revocations, one-time codes).
// Delivery is fire-and-forget: callers never see a failure.
package notify

import (
	"context"
	"log/slog"

	"credvault/pkg/platform/privacy"
	"credvault/pkg/requestcontext"
)

type Kind string

const (
	KindCertificateRevoked Kind = "certificate_revoked"
	KindOneTimeCode        Kind = "one_time_code"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Kind    Kind   `json:"kind"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// LogNotifier writes notices to the log instead of sending them. The body is
// only logged at debug level since it may carry a one-time code.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) {
	n.logger.InfoContext(ctx, "notification",
		"kind", string(msg.Kind),
		"to", privacy.MaskEmail(msg.To),
		"subject", msg.Subject,
		"request_id", requestcontext.RequestID(ctx),
	)
	n.logger.DebugContext(ctx, "notification body",
		"kind", string(msg.Kind),
		"to", msg.To,
		"body", msg.Body,
	)
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, msg)
		}
	}
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}
