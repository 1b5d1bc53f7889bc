// Package ingest runs the goroutine that keeps the broker connection alive
// and feeds decoded telemetry into the shared Store.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/harveysanders/envdisplay/link"
	"github.com/harveysanders/envdisplay/logging"
	"github.com/harveysanders/envdisplay/telemetry"
)

// DefaultInboxSize bounds the number of undelivered messages.
const DefaultInboxSize = 10

// DefaultPollInterval is the wait between iterations when idle.
const DefaultPollInterval = 20 * time.Millisecond

// ErrLinkDropped is recorded when the transport reports it is no longer
// connected.
var ErrLinkDropped = errors.New("ingest: transport disconnected")

// Message is one payload received on a subscribed topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Transport is the pub/sub connection. Messages are handed back through the
// deliver function the transport was built with, either synchronously from
// Service or from the transport's own goroutine.
type Transport interface {
	link.Dialer
	IsConnected() bool
	// Service pumps pending I/O once.
	Service() error
}

// Config configures a Worker.
type Config struct {
	InboxSize    int
	PollInterval time.Duration
	Logger       *slog.Logger
	// OnAccept, if set, is called after every accepted update.
	OnAccept func(version uint64)
}

// Stats are counters kept by the Worker.
type Stats struct {
	Accepted     uint32
	DecodeErrors uint32
	Dropped      uint32
}

// Worker is the ingest loop. Only its own goroutine calls Step or Run;
// Deliver may be called from any goroutine.
type Worker struct {
	transport Transport
	decoder   telemetry.Decoder
	store     *telemetry.Store
	link      *link.Manager
	inbox     chan Message
	cfg       Config
	log       *slog.Logger

	accepted     uint32
	decodeErrors uint32
	dropped      atomic.Uint32
}

// New returns a Worker. The transport must deliver messages to w.Deliver.
func New(t Transport, dec telemetry.Decoder, store *telemetry.Store, mgr *link.Manager, cfg Config) *Worker {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultInboxSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	logger := logging.OrDiscard(cfg.Logger)
	return &Worker{
		transport: t,
		decoder:   dec,
		store:     store,
		link:      mgr,
		inbox:     make(chan Message, cfg.InboxSize),
		cfg:       cfg,
		log:       logger,
	}
}

// SetTransport attaches the transport. It exists because transports are
// usually built with w.Deliver as their callback.
func (w *Worker) SetTransport(t Transport) { w.transport = t }

// Deliver queues a message without blocking. The payload must not be
// modified afterwards. It reports false when the inbox is full and the
// message was dropped.
func (w *Worker) Deliver(topic string, payload []byte) bool {
	select {
	case w.inbox <- Message{Topic: topic, Payload: payload}:
		return true
	default:
		w.dropped.Add(1)
		w.log.Warn("ingest:inbox-full", slog.String("topic", topic))
		return false
	}
}

// Step runs one iteration: reconnect if the link is down and a retry is
// due, otherwise pump the transport; then apply every queued message. A
// transport that connected but failed to subscribe counts as down.
func (w *Worker) Step(now time.Time) {
	if w.link.State() != link.Connected || !w.transport.IsConnected() {
		w.link.Lost(now, ErrLinkDropped)
		w.link.Poll(now, w.transport)
	} else if err := w.transport.Service(); err != nil {
		w.log.Error("ingest:service-failed", slog.String("err", err.Error()))
	}
	w.drain()
}

// Run loops until ctx is done. Messages queued between iterations are
// applied as soon as they arrive.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		w.Step(time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-w.inbox:
			w.handle(msg)
		case <-ticker.C:
		}
	}
}

// Stats returns the worker's counters. Only the worker goroutine may call
// it while Run is active.
func (w *Worker) Stats() Stats {
	return Stats{
		Accepted:     w.accepted,
		DecodeErrors: w.decodeErrors,
		Dropped:      w.dropped.Load(),
	}
}

func (w *Worker) drain() {
	for {
		select {
		case msg := <-w.inbox:
			w.handle(msg)
		default:
			return
		}
	}
}

// handle decodes msg and merges it into the store. A payload that does not
// decode is logged and dropped; the next message is independent.
func (w *Worker) handle(msg Message) {
	f, err := w.decoder.Decode(msg.Payload)
	if err != nil {
		w.decodeErrors++
		w.log.Warn("ingest:decode-failed",
			slog.String("topic", msg.Topic),
			slog.Int("size", len(msg.Payload)),
			slog.String("err", err.Error()),
		)
		return
	}
	v := w.store.Update(f)
	w.accepted++
	w.log.Debug("ingest:update", slog.String("topic", msg.Topic), slog.Uint64("version", v))
	if w.cfg.OnAccept != nil {
		w.cfg.OnAccept(v)
	}
}
