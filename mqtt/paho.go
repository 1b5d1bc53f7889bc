//go:build !tinygo

package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/harveysanders/envdisplay/logging"
)

// PahoConfig configures a Paho transport.
type PahoConfig struct {
	// Broker is "host:port" or a URL such as "tcp://host:1883".
	Broker    string
	Username  string
	Password  string
	Timeout   time.Duration
	Keepalive time.Duration
	Logger    *slog.Logger
}

// Paho is the host transport. Paho runs its own network goroutines, so
// Service has nothing to pump and messages are delivered from Paho's
// callback goroutine.
type Paho struct {
	cfg       PahoConfig
	log       *slog.Logger
	deliver   DeliverFunc
	client    paho.Client
	connected atomic.Bool
}

// NewPaho returns a Paho transport that hands messages to deliver.
func NewPaho(cfg PahoConfig, deliver DeliverFunc) *Paho {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = DefaultKeepalive
	}
	logger := logging.OrDiscard(cfg.Logger)
	return &Paho{cfg: cfg, log: logger, deliver: deliver}
}

// BrokerURL turns a "host:port" address into the URL form Paho expects.
func BrokerURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "tcp://" + addr
}

// Connect opens a new session with clientID. Retries are left to the
// caller, so Paho's own reconnect logic is disabled.
func (p *Paho) Connect(clientID string) error {
	p.disconnect()

	opts := paho.NewClientOptions()
	opts.AddBroker(BrokerURL(p.cfg.Broker))
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(p.cfg.Timeout)
	opts.SetKeepAlive(p.cfg.Keepalive)
	opts.SetPingTimeout(p.cfg.Timeout)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}
	opts.SetOnConnectHandler(func(_ paho.Client) {
		p.connected.Store(true)
		p.log.Info("mqtt:connected", slog.String("broker", p.cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.connected.Store(false)
		p.log.Warn("mqtt:connection-lost", slog.Any("reason", err))
	})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(p.cfg.Timeout) {
		p.disconnect()
		return errors.New("mqtt connect: timed out")
	}
	if err := token.Error(); err != nil {
		p.disconnect()
		return fmt.Errorf("mqtt connect: %w", err)
	}
	// The OnConnect handler runs on its own goroutine and may not have
	// fired yet.
	p.connected.Store(true)
	return nil
}

// Subscribe subscribes to topic at QoS 0.
func (p *Paho) Subscribe(topic string) error {
	if topic == "" {
		return errEmptyTopic
	}
	if !p.IsConnected() {
		return errNotDialed
	}
	token := p.client.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		if p.deliver != nil {
			p.deliver(msg.Topic(), msg.Payload())
		}
	})
	if !token.WaitTimeout(p.cfg.Timeout) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	p.log.Info("mqtt:subscribed", slog.String("topic", topic))
	return nil
}

// IsConnected reports whether the session is up.
func (p *Paho) IsConnected() bool {
	return p.client != nil && p.connected.Load() && p.client.IsConnectionOpen()
}

// Service is a no-op; Paho pumps its connection itself.
func (p *Paho) Service() error { return nil }

// Close disconnects from the broker.
func (p *Paho) Close() error {
	p.disconnect()
	return nil
}

func (p *Paho) disconnect() {
	if p.client == nil {
		return
	}
	p.client.Disconnect(250)
	p.client = nil
	p.connected.Store(false)
}
