// Package notify delivers outbound messages.  The reporting code only sees
// the Sink interface; which transport sits behind it is chosen at startup.
package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Message is one outbound notification.  Body is HTML.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Sink accepts a message for delivery.  An error means the message was not
// accepted.
type Sink interface {
	Deliver(ctx context.Context, m Message) error
}

// LogSink logs messages instead of sending them.  It is the default when
// no mail server or broker is configured.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Deliver(_ context.Context, m Message) error {
	s.Log.Info("notification delivery skipped: no transport configured",
		"to", strings.Join(m.To, ","), "subject", m.Subject)
	return nil
}
