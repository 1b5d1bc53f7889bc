// Package mqtt holds the broker transports used by the ingest worker: a
// natiu-mqtt client that runs on the Pico W over an lneto TCP connection,
// and a paho client for the host simulator.
package mqtt

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

const (
	// DefaultTimeout bounds the CONNECT and SUBSCRIBE handshakes.
	DefaultTimeout = 5 * time.Second
	// DefaultKeepalive is advertised to the broker. A ping is sent every
	// half keepalive.
	DefaultKeepalive = 30 * time.Second

	handshakePoll = 100 * time.Millisecond
)

var (
	errNotDialed   = errors.New("mqtt: not connected")
	errConnTimeout = errors.New("mqtt: timed out waiting for CONNACK")
	errSubTimeout  = errors.New("mqtt: timed out waiting for SUBACK")
	errNoDialer    = errors.New("mqtt: no dial function")
	errEmptyTopic  = errors.New("mqtt: empty topic")
)

// DeliverFunc receives the topic and payload of every PUBLISH. The payload
// is owned by the callee.
type DeliverFunc func(topic string, payload []byte) bool

// ClientConfig configures a Client.
type ClientConfig struct {
	Timeout   time.Duration
	Keepalive time.Duration
	Username  string
	Password  string // Ignored without Username.
	// MaxPayload caps accepted payloads; larger messages are discarded.
	MaxPayload int
	Logger     *slog.Logger
	// Dial opens the byte stream to the broker. On the Pico W this is an
	// lneto TCP connection.
	Dial func() (io.ReadWriteCloser, error)
}

// Client is a natiu-mqtt subscriber. It is not safe for concurrent use; the
// ingest worker goroutine owns it.
type Client struct {
	cfg     ClientConfig
	log     *slog.Logger
	deliver DeliverFunc
	mc      *mqtt.Client
	conn    io.ReadWriteCloser

	packetID uint16
	lastPing time.Time
	rx       bytes.Buffer
	decBuf   []byte
}

// NewClient returns a Client that hands received messages to deliver.
func NewClient(cfg ClientConfig, deliver DeliverFunc) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = DefaultKeepalive
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = 1024
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{cfg: cfg, log: logger, deliver: deliver, decBuf: make([]byte, 4096)}
	c.newSession()
	return c
}

// newSession replaces the natiu session state. A session left connected or
// awaiting an ack by a failed handshake would refuse the next StartConnect.
func (c *Client) newSession() {
	c.mc = mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: c.decBuf},
		OnPub:   c.onPub,
	})
}

// onPub copies the payload out of the decoder buffer and passes it on.
func (c *Client) onPub(_ mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
	c.rx.Reset()
	n, err := c.rx.ReadFrom(io.LimitReader(r, int64(c.cfg.MaxPayload)+1))
	if err != nil {
		return err
	}
	topic := string(varPub.TopicName)
	if int(n) > c.cfg.MaxPayload {
		c.log.Warn("mqtt:payload-too-large", slog.String("topic", topic), slog.Int64("size", n))
		_, err = io.Copy(io.Discard, r)
		return err
	}
	payload := bytes.Clone(c.rx.Bytes())
	if c.deliver != nil {
		c.deliver(topic, payload)
	}
	return nil
}

// Connect dials the broker and completes the MQTT CONNECT handshake. Any
// previous connection is closed first.
func (c *Client) Connect(clientID string) error {
	if c.cfg.Dial == nil {
		return errNoDialer
	}
	c.close("reconnect")
	c.newSession()

	conn, err := c.cfg.Dial()
	if err != nil {
		return errors.New("dial: " + err.Error())
	}
	c.conn = conn

	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(clientID))
	varconn.KeepAlive = uint16(c.cfg.Keepalive / time.Second)
	if c.cfg.Username != "" {
		varconn.Username = []byte(c.cfg.Username)
		if c.cfg.Password != "" {
			varconn.Password = []byte(c.cfg.Password)
		}
	}

	c.log.Info("mqtt:start-connecting", slog.String("clientID", clientID))
	c.setDeadline(time.Now().Add(c.cfg.Timeout))
	if err := c.mc.StartConnect(conn, &varconn); err != nil {
		c.close("start connect failed")
		return errors.New("start connect: " + err.Error())
	}
	if err := c.await(c.mc.IsConnected, errConnTimeout); err != nil {
		c.close("connect failed")
		return err
	}
	c.lastPing = time.Now()
	c.log.Info("mqtt:connected")
	return nil
}

// Subscribe subscribes to topic at QoS 0 and waits for the SUBACK.
func (c *Client) Subscribe(topic string) error {
	if topic == "" {
		return errEmptyTopic
	}
	if !c.IsConnected() {
		return errNotDialed
	}
	c.packetID++
	if c.packetID == 0 {
		c.packetID = 1
	}
	c.setDeadline(time.Now().Add(c.cfg.Timeout))
	err := c.mc.StartSubscribe(mqtt.VariablesSubscribe{
		PacketIdentifier: c.packetID,
		TopicFilters: []mqtt.SubscribeRequest{
			{TopicFilter: []byte(topic), QoS: mqtt.QoS0},
		},
	})
	if err != nil {
		return errors.New("start subscribe: " + err.Error())
	}
	err = c.await(func() bool { return !c.mc.AwaitingSuback() }, errSubTimeout)
	if err != nil {
		c.close("subscribe failed")
		return err
	}
	c.log.Info("mqtt:subscribed", slog.String("topic", topic))
	return nil
}

// IsConnected reports whether the broker session is up.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.mc.IsConnected()
}

// Service pings the broker every half keepalive and handles every packet
// already buffered on the connection.
func (c *Client) Service() error {
	if !c.IsConnected() {
		return errNotDialed
	}
	now := time.Now()
	if now.Sub(c.lastPing) >= c.cfg.Keepalive/2 {
		c.setDeadline(now.Add(c.cfg.Timeout))
		if err := c.mc.StartPing(); err != nil {
			c.close("ping failed")
			return errors.New("ping: " + err.Error())
		}
		c.lastPing = now
		c.log.Debug("mqtt:ping")
	}
	for c.pending() {
		c.setDeadline(time.Now().Add(c.cfg.Timeout))
		if err := c.mc.HandleNext(); err != nil {
			if !c.mc.IsConnected() {
				c.close("handle next failed")
			}
			return errors.New("handle next: " + err.Error())
		}
	}
	return nil
}

// Close drops the connection.
func (c *Client) Close() error {
	c.close("closed")
	return nil
}

// pending reports whether a packet is waiting. Streams that cannot report
// buffered input are only read during handshakes.
func (c *Client) pending() bool {
	b, ok := c.conn.(interface{ BufferedInput() int })
	return ok && b.BufferedInput() > 0
}

// await calls HandleNext until done reports true or the timeout passes.
func (c *Client) await(done func() bool, timeout error) error {
	deadline := time.Now().Add(c.cfg.Timeout)
	for !done() {
		if time.Now().After(deadline) {
			if err := c.mc.Err(); err != nil {
				return errors.New(timeout.Error() + ": " + err.Error())
			}
			return timeout
		}
		if err := c.mc.HandleNext(); err != nil {
			c.log.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
			time.Sleep(handshakePoll)
		}
	}
	return nil
}

func (c *Client) setDeadline(t time.Time) {
	if d, ok := c.conn.(interface{ SetDeadline(time.Time) error }); ok {
		d.SetDeadline(t)
	}
}

func (c *Client) close(reason string) {
	if c.conn == nil {
		return
	}
	c.log.Info("mqtt:closing", slog.String("reason", reason))
	c.conn.Close()
	c.conn = nil
}
