package mqtt

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

var errNoData = errors.New("i/o timeout")

// fakeBroker is an in-memory stream that answers CONNECT, SUBSCRIBE and
// PINGREQ the way a broker would.
type fakeBroker struct {
	written   bytes.Buffer // Unparsed client bytes.
	rx        bytes.Buffer // Bytes waiting for the client.
	silent    bool         // Never answer.
	ignoreSub bool         // Never answer SUBSCRIBE.
	closed    bool
	connects  [][]byte
	subscribe [][]byte
	pings     int
}

func (b *fakeBroker) Read(p []byte) (int, error) {
	if b.rx.Len() == 0 {
		return 0, errNoData
	}
	return b.rx.Read(p)
}

func (b *fakeBroker) Write(p []byte) (int, error) {
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	b.written.Write(p)
	for b.nextPacket() {
	}
	return len(p), nil
}

func (b *fakeBroker) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBroker) BufferedInput() int { return b.rx.Len() }

// nextPacket consumes one complete control packet from written.
func (b *fakeBroker) nextPacket() bool {
	buf := b.written.Bytes()
	if len(buf) < 2 {
		return false
	}
	var remaining, shift, i int
	for i = 1; i < len(buf); i++ {
		remaining |= int(buf[i]&0x7f) << shift
		shift += 7
		if buf[i]&0x80 == 0 {
			break
		}
	}
	if i >= len(buf) {
		return false
	}
	end := i + 1 + remaining
	if len(buf) < end {
		return false
	}
	pkt := append([]byte(nil), buf[:end]...)
	body := pkt[i+1:]
	b.written.Next(end)

	if b.silent {
		return true
	}
	switch pkt[0] >> 4 {
	case 1: // CONNECT
		b.connects = append(b.connects, pkt)
		b.rx.Write([]byte{0x20, 0x02, 0x00, 0x00})
	case 8: // SUBSCRIBE
		b.subscribe = append(b.subscribe, pkt)
		if b.ignoreSub {
			return true
		}
		b.rx.Write([]byte{0x90, 0x03, body[0], body[1], 0x00})
	case 12: // PINGREQ
		b.pings++
		b.rx.Write([]byte{0xd0, 0x00})
	}
	return true
}

// publish queues a QoS 0 PUBLISH for the client.
func (b *fakeBroker) publish(topic string, payload []byte) {
	remaining := 2 + len(topic) + len(payload)
	b.rx.WriteByte(0x30)
	for {
		d := byte(remaining % 128)
		remaining /= 128
		if remaining > 0 {
			d |= 0x80
		}
		b.rx.WriteByte(d)
		if remaining == 0 {
			break
		}
	}
	b.rx.Write([]byte{byte(len(topic) >> 8), byte(len(topic))})
	b.rx.WriteString(topic)
	b.rx.Write(payload)
}

type delivery struct {
	topic   string
	payload []byte
}

func newTestClient(b *fakeBroker, cfg ClientConfig) (*Client, *[]delivery) {
	var got []delivery
	cfg.Dial = func() (io.ReadWriteCloser, error) { return b, nil }
	c := NewClient(cfg, func(topic string, payload []byte) bool {
		got = append(got, delivery{topic, payload})
		return true
	})
	return c, &got
}

func TestClientConnectSubscribeReceive(t *testing.T) {
	b := &fakeBroker{}
	c, got := newTestClient(b, ClientConfig{Keepalive: time.Hour})

	if err := c.Connect("envdisplay"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !c.IsConnected() {
		t.Fatal("IsConnected() = false after CONNACK")
	}
	if len(b.connects) != 1 || !bytes.Contains(b.connects[0], []byte("envdisplay")) {
		t.Errorf("CONNECT packets = %q; want one carrying the client id", b.connects)
	}

	if err := c.Subscribe("env/telemetry"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if len(b.subscribe) != 1 || !bytes.Contains(b.subscribe[0], []byte("env/telemetry")) {
		t.Errorf("SUBSCRIBE packets = %q", b.subscribe)
	}

	b.publish("env/telemetry", []byte(`{"temperature_c": 21.5}`))
	b.publish("env/telemetry", []byte(`{"humidity_pct": 40}`))
	if err := c.Service(); err != nil {
		t.Fatalf("Service() error = %v", err)
	}
	if len(*got) != 2 {
		t.Fatalf("delivered %d messages; want 2", len(*got))
	}
	if d := (*got)[0]; d.topic != "env/telemetry" || string(d.payload) != `{"temperature_c": 21.5}` {
		t.Errorf("first delivery = %q %q", d.topic, d.payload)
	}
	if string((*got)[1].payload) != `{"humidity_pct": 40}` {
		t.Errorf("second payload = %q; first payload must not be overwritten", (*got)[1].payload)
	}

	if err := c.Service(); err != nil {
		t.Errorf("idle Service() error = %v", err)
	}
}

func TestClientPingsEveryHalfKeepalive(t *testing.T) {
	b := &fakeBroker{}
	c, _ := newTestClient(b, ClientConfig{Keepalive: 2 * time.Millisecond})
	if err := c.Connect("envdisplay"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := c.Service(); err != nil {
		t.Fatalf("Service() error = %v", err)
	}
	if b.pings != 1 {
		t.Errorf("pings = %d; want 1", b.pings)
	}
	if !c.IsConnected() {
		t.Error("disconnected after PINGRESP")
	}
}

func TestClientConnectTimeout(t *testing.T) {
	b := &fakeBroker{silent: true}
	c, _ := newTestClient(b, ClientConfig{Timeout: 250 * time.Millisecond})

	if err := c.Connect("envdisplay"); err == nil {
		t.Fatal("Connect() error = nil; want timeout")
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true without CONNACK")
	}
	if !b.closed {
		t.Error("connection left open after a failed handshake")
	}
}

func TestClientReconnectsAfterSubscribeTimeout(t *testing.T) {
	brokers := []*fakeBroker{{ignoreSub: true}, {}}
	dials := 0
	c := NewClient(ClientConfig{
		Timeout:   250 * time.Millisecond,
		Keepalive: time.Hour,
		Dial: func() (io.ReadWriteCloser, error) {
			b := brokers[dials]
			dials++
			return b, nil
		},
	}, nil)

	if err := c.Connect("envdisplay"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := c.Subscribe("env/telemetry"); !errors.Is(err, errSubTimeout) {
		t.Fatalf("Subscribe() error = %v; want errSubTimeout", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after a SUBACK timeout")
	}
	if !brokers[0].closed {
		t.Error("connection left open after a SUBACK timeout")
	}

	if err := c.Connect("envdisplay"); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if err := c.Subscribe("env/telemetry"); err != nil {
		t.Fatalf("second Subscribe() error = %v", err)
	}
	if len(brokers[1].connects) != 1 || len(brokers[1].subscribe) != 1 {
		t.Errorf("second broker saw %d CONNECT and %d SUBSCRIBE; want 1 each",
			len(brokers[1].connects), len(brokers[1].subscribe))
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false after reconnecting")
	}
}

func TestClientDialError(t *testing.T) {
	c := NewClient(ClientConfig{Dial: func() (io.ReadWriteCloser, error) {
		return nil, errors.New("no route to host")
	}}, nil)
	if err := c.Connect("envdisplay"); err == nil {
		t.Fatal("Connect() error = nil")
	}
	if err := c.Subscribe("env/telemetry"); !errors.Is(err, errNotDialed) {
		t.Errorf("Subscribe() error = %v; want errNotDialed", err)
	}
	if err := c.Service(); !errors.Is(err, errNotDialed) {
		t.Errorf("Service() error = %v; want errNotDialed", err)
	}
}

func TestClientDropsOversizedPayload(t *testing.T) {
	b := &fakeBroker{}
	c, got := newTestClient(b, ClientConfig{MaxPayload: 8, Keepalive: time.Hour})
	if err := c.Connect("envdisplay"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	b.publish("env/telemetry", []byte(`{"temperature_c": 21.5}`))
	b.publish("env/telemetry", []byte(`{}`))
	if err := c.Service(); err != nil {
		t.Fatalf("Service() error = %v", err)
	}
	if len(*got) != 1 || string((*got)[0].payload) != `{}` {
		t.Errorf("deliveries = %v; want only the small payload", *got)
	}
}
