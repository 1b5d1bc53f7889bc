// Package link tracks the lifecycle of the connection to the telemetry
// broker and decides when a reconnect attempt is due.
//
// The Manager is owned by the ingest goroutine. The render goroutine only
// sees the Status booleans.
package link

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/harveysanders/envdisplay/logging"
)

// DefaultRetryInterval is the fixed wait between reconnect attempts.
const DefaultRetryInterval = 5 * time.Second

// State is the connection lifecycle state.
type State uint8

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "unknown"
}

// ErrTransport is wrapped by every TransportError.
var ErrTransport = errors.New("link: transport")

// TransportError reports a failed connect or subscribe.
type TransportError struct {
	Op  string // "connect" or "subscribe"
	Err error
}

func (e *TransportError) Error() string {
	return "link: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// Dialer is the part of the transport the Manager drives.
type Dialer interface {
	Connect(clientID string) error
	Subscribe(topic string) error
}

// Status exposes the connection state to other goroutines. Each field has a
// single writer (the Manager).
type Status struct {
	linkUp     atomic.Bool
	subscribed atomic.Bool
	state      atomic.Uint32
}

// LinkUp reports whether the broker connection is established.
func (s *Status) LinkUp() bool { return s.linkUp.Load() }

// Subscribed reports whether the telemetry topic subscription is active.
func (s *Status) Subscribed() bool { return s.subscribed.Load() }

// State returns the last published lifecycle state.
func (s *Status) State() State { return State(s.state.Load()) }

func (s *Status) set(st State, linkUp, subscribed bool) {
	s.linkUp.Store(linkUp)
	s.subscribed.Store(subscribed)
	s.state.Store(uint32(st))
}

// Config configures a Manager.
type Config struct {
	ClientID      string
	Topic         string
	RetryInterval time.Duration
	Logger        *slog.Logger
}

// Manager is the connection lifecycle state machine:
//
//	Disconnected -> Connecting -> Connected
//	Connecting   -> Disconnected   (attempt failed)
//	Connected    -> Disconnected   (link lost)
//
// Attempts are spaced at least RetryInterval apart and never give up.
type Manager struct {
	cfg         Config
	status      *Status
	log         *slog.Logger
	state       State
	since       time.Time // Time of the last transition.
	lastAttempt time.Time // Also reset when the link drops.
	attempts    uint32
	lastErr     error
}

// NewManager returns a Manager in Disconnected whose retry clock starts at
// now, so the first attempt happens one RetryInterval later.
func NewManager(cfg Config, status *Status, now time.Time) *Manager {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	logger := logging.OrDiscard(cfg.Logger)
	if status == nil {
		status = &Status{}
	}
	m := &Manager{
		cfg:         cfg,
		status:      status,
		log:         logger,
		since:       now,
		lastAttempt: now,
	}
	m.status.set(Disconnected, false, false)
	return m
}

// State returns the current state.
func (m *Manager) State() State { return m.state }

// Since returns when the current state was entered.
func (m *Manager) Since() time.Time { return m.since }

// Attempts returns the number of connect attempts made so far.
func (m *Manager) Attempts() uint32 { return m.attempts }

// Err returns the error of the most recent failed attempt, or nil.
func (m *Manager) Err() error { return m.lastErr }

// Status returns the shared status published by m.
func (m *Manager) Status() *Status { return m.status }

// Due reports whether a reconnect attempt may run at now.
func (m *Manager) Due(now time.Time) bool {
	return m.state == Disconnected && now.Sub(m.lastAttempt) >= m.cfg.RetryInterval
}

// Poll runs at most one connect attempt through d if one is due. It reports
// whether an attempt ran, and the attempt's error.
func (m *Manager) Poll(now time.Time, d Dialer) (attempted bool, err error) {
	if !m.Due(now) {
		return false, nil
	}
	m.transition(Connecting, now)
	m.lastAttempt = now
	m.attempts++
	m.log.Info("link:connecting",
		slog.String("clientID", m.cfg.ClientID),
		slog.Uint64("attempt", uint64(m.attempts)),
	)

	if err := d.Connect(m.cfg.ClientID); err != nil {
		return true, m.fail(now, &TransportError{Op: "connect", Err: err})
	}
	m.status.set(Connecting, true, false)

	if err := d.Subscribe(m.cfg.Topic); err != nil {
		return true, m.fail(now, &TransportError{Op: "subscribe", Err: err})
	}

	m.lastErr = nil
	m.transition(Connected, now)
	m.log.Info("link:connected", slog.String("topic", m.cfg.Topic))
	return true, nil
}

// Lost records that an established link dropped. It is a no-op unless the
// Manager is Connected.
func (m *Manager) Lost(now time.Time, reason error) {
	if m.state != Connected {
		return
	}
	m.lastErr = reason
	m.lastAttempt = now
	m.transition(Disconnected, now)
	m.log.Warn("link:lost", slog.Any("reason", reason))
}

func (m *Manager) fail(now time.Time, err error) error {
	m.lastErr = err
	m.transition(Disconnected, now)
	m.log.Error("link:attempt-failed",
		slog.String("err", err.Error()),
		slog.Duration("retryIn", m.cfg.RetryInterval),
	)
	return err
}

func (m *Manager) transition(to State, now time.Time) {
	m.state = to
	m.since = now
	up := to == Connected
	m.status.set(to, up, up)
}
