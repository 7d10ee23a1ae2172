package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/hangout/internal/domain/model"
)

const (
	defaultNATSSubject = "hangout.audit"
	natsReconnectWait  = 500 * time.Millisecond
	natsTimeout        = 3 * time.Second
)

// NATSSink publishes entries as JSON on a core NATS subject.
// The entry action is appended as the last subject token.
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// NATSOption configures the NATS sink.
type NATSOption func(*natsSettings)

type natsSettings struct {
	subject string
	name    string
	timeout time.Duration
}

// WithSubject sets the base subject.
func WithSubject(subject string) NATSOption {
	return func(s *natsSettings) { s.subject = strings.TrimSpace(subject) }
}

// WithClientName sets the connection name reported to the server.
func WithClientName(name string) NATSOption {
	return func(s *natsSettings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithConnectTimeout bounds the initial dial.
func WithConnectTimeout(d time.Duration) NATSOption {
	return func(s *natsSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewNATSSink dials url, which may list several servers separated by commas.
func NewNATSSink(url string, opts ...NATSOption) (*NATSSink, error) {
	cfg := natsSettings{subject: defaultNATSSubject, name: "hangout-audit", timeout: natsTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if strings.TrimSpace(url) == "" {
		return nil, ErrNoServers
	}
	if cfg.subject == "" {
		return nil, ErrNoSubject
	}

	nc, err := nats.Connect(url,
		nats.Name(cfg.name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("audit: nats connect: %w", err)
	}
	return &NATSSink{nc: nc, subject: cfg.subject}, nil
}

func (s *NATSSink) Name() string { return "nats" }

// SubjectFor returns the subject an entry is published on.
func (s *NATSSink) SubjectFor(e model.AuditEntry) string {
	return s.subject + "." + string(e.Action)
}

func (s *NATSSink) Deliver(ctx context.Context, e model.AuditEntry) error {
	if e.ID == "" {
		return fmt.Errorf("deliver %s: %w", e.Action, ErrMissingID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal %s: %w", e.ID, err)
	}
	msg := nats.NewMsg(s.SubjectFor(e))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, e.ID)
	if err := s.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("audit: publish %s: %w", e.ID, err)
	}
	return nil
}

// Close flushes pending publishes and drains the connection.
func (s *NATSSink) Close() error {
	if s.nc == nil || s.nc.IsClosed() {
		return nil
	}
	if err := s.nc.FlushTimeout(natsTimeout); err != nil {
		s.nc.Close()
		return fmt.Errorf("audit: flush: %w", err)
	}
	return s.nc.Drain()
}
