// Package events publishes auth lifecycle events to NATS. Publishing is
// fire-and-forget: a nil Publisher or a failed publish never affects the
// request that triggered it.
package events

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	SubjectPinIssued    = "storefront.auth.pin_issued"
	SubjectSignedIn     = "storefront.auth.signed_in"
	SubjectSignInFailed = "storefront.auth.sign_in_failed"
)

// Publisher wraps a NATS connection. All methods are nil-safe.
type Publisher struct {
	conn *nats.Conn
}

// Connect dials NATS, or returns a nil Publisher when url is empty so
// callers need no enabled/disabled branching.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

// Close drains the underlying connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Publish encodes payload as JSON and publishes it to subject. Failures are
// logged and dropped.
func (p *Publisher) Publish(subject string, payload map[string]any) {
	if p == nil || p.conn == nil || subject == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}
