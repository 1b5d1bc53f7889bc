package link

import (
	"errors"
	"testing"
	"time"
)

type fakeDialer struct {
	connectErr   error
	subscribeErr error
	connects     int
	subscribes   []string
}

func (d *fakeDialer) Connect(clientID string) error {
	d.connects++
	return d.connectErr
}

func (d *fakeDialer) Subscribe(topic string) error {
	d.subscribes = append(d.subscribes, topic)
	return d.subscribeErr
}

var t0 = time.Unix(0, 0)

func at(sec float64) time.Time {
	return t0.Add(time.Duration(sec * float64(time.Second)))
}

func TestManagerRetryTiming(t *testing.T) {
	d := &fakeDialer{connectErr: errors.New("refused")}
	m := NewManager(Config{ClientID: "disp", Topic: "env", RetryInterval: 5 * time.Second}, nil, t0)

	for _, sec := range []float64{0, 1, 4.999} {
		if attempted, _ := m.Poll(at(sec), d); attempted {
			t.Fatalf("attempt at t=%v; want none before 5s", sec)
		}
	}
	if d.connects != 0 {
		t.Fatalf("connects = %d; want 0", d.connects)
	}

	attempted, err := m.Poll(at(5), d)
	if !attempted {
		t.Fatal("no attempt at t=5")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v; want ErrTransport", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "connect" {
		t.Errorf("err = %v; want connect TransportError", err)
	}

	// Still disconnected: the next attempt waits another full interval.
	for _, sec := range []float64{5, 6, 9.9} {
		if attempted, _ := m.Poll(at(sec), d); attempted {
			t.Fatalf("second attempt at t=%v; want none before 10s", sec)
		}
	}
	if attempted, _ := m.Poll(at(10), d); !attempted {
		t.Fatal("no second attempt at t=10")
	}
	if d.connects != 2 {
		t.Errorf("connects = %d; want 2", d.connects)
	}
	if m.Attempts() != 2 {
		t.Errorf("Attempts() = %d; want 2", m.Attempts())
	}
}

func TestManagerConnectSubscribe(t *testing.T) {
	status := &Status{}
	d := &fakeDialer{}
	m := NewManager(Config{ClientID: "disp", Topic: "stations/home/telemetry"}, status, t0)

	if status.LinkUp() || status.Subscribed() {
		t.Fatal("status up before connecting")
	}

	attempted, err := m.Poll(at(5), d)
	if !attempted || err != nil {
		t.Fatalf("Poll = %v, %v; want true, nil", attempted, err)
	}
	if m.State() != Connected {
		t.Errorf("State() = %v; want connected", m.State())
	}
	if !m.Since().Equal(at(5)) {
		t.Errorf("Since() = %v; want %v", m.Since(), at(5))
	}
	if !status.LinkUp() || !status.Subscribed() {
		t.Errorf("status = %v/%v; want up/subscribed", status.LinkUp(), status.Subscribed())
	}
	if status.State() != Connected {
		t.Errorf("status.State() = %v; want connected", status.State())
	}
	if len(d.subscribes) != 1 || d.subscribes[0] != "stations/home/telemetry" {
		t.Errorf("subscribes = %v", d.subscribes)
	}

	// Connected managers never attempt again.
	if attempted, _ := m.Poll(at(100), d); attempted {
		t.Error("attempt while connected")
	}
}

func TestManagerSubscribeFailure(t *testing.T) {
	status := &Status{}
	d := &fakeDialer{subscribeErr: errors.New("not authorized")}
	m := NewManager(Config{Topic: "env"}, status, t0)

	_, err := m.Poll(at(5), d)
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "subscribe" {
		t.Fatalf("err = %v; want subscribe TransportError", err)
	}
	if m.State() != Disconnected {
		t.Errorf("State() = %v; want disconnected", m.State())
	}
	if status.LinkUp() || status.Subscribed() {
		t.Error("status still up after failed subscribe")
	}
	if m.Err() == nil {
		t.Error("Err() = nil after failure")
	}
}

func TestManagerLost(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(Config{Topic: "env"}, nil, t0)

	m.Lost(at(1), errors.New("ignored"))
	if m.State() != Disconnected || m.Err() != nil {
		t.Fatal("Lost changed a manager that was not connected")
	}

	m.Poll(at(5), d)
	m.Lost(at(20), errors.New("eof"))
	if m.State() != Disconnected {
		t.Fatalf("State() = %v; want disconnected", m.State())
	}
	if m.Status().LinkUp() {
		t.Error("status still up after Lost")
	}
	if attempted, _ := m.Poll(at(24), d); attempted {
		t.Error("reconnect sooner than the retry interval after losing the link")
	}
	if attempted, _ := m.Poll(at(25), d); !attempted {
		t.Error("no reconnect one interval after losing the link")
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{
		Disconnected: "disconnected",
		Connecting:   "connecting",
		Connected:    "connected",
		State(9):     "unknown",
	} {
		if got := st.String(); got != want {
			t.Errorf("State(%d).String() = %q; want %q", st, got, want)
		}
	}
}
