//go:build tinygo

// Package cyw43439 brings up WiFi on the Pico W and exposes the lneto
// network stack the MQTT transport dials through: join, DHCP, DNS, TCP
// and the packet pump.
//
// Adapted from the soypat/cyw43439 examples:
// https://github.com/soypat/cyw43439/tree/main/examples/common
package cyw43439

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"runtime"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/tcp"
	"github.com/soypat/lneto/x/xnet"
)

const (
	mtu = cyw43439.MTU
	// tcpBufSize is MTU minus the Ethernet, IP and TCP headers.
	tcpBufSize = 2030
	pollTime   = 5 * time.Millisecond
)

// Set with -ldflags "-X github.com/harveysanders/envdisplay/cyw43439.ssid=...".
var (
	ssid string
	pass string
)

// SSID returns the WiFi SSID set via linker flags.
func SSID() string { return ssid }

// Password returns the WiFi password set via linker flags.
func Password() string { return pass }

// StackConfig configures the lneto stack.
type StackConfig struct {
	Hostname    string // Used for DHCP.
	MaxTCPPorts int
	Logger      *slog.Logger
	RandSeed    int64
	// JoinRetry is the wait between failed WiFi joins.
	JoinRetry time.Duration
}

// Stack owns the CYW43439 device and the lneto stack on top of it.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Join initializes the radio, joins the network (retrying forever) and
// resets the stack. An empty pass joins an open network.
func Join(ssid, pass string, cfg StackConfig) (*Stack, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("empty hostname")
	}
	if cfg.JoinRetry <= 0 {
		cfg.JoinRetry = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, errors.New("wifi init failed:" + err.Error())
	}
	logger.Info("wifi:init", slog.Duration("duration", time.Since(start)))

	logger.Info("wifi:joining", slog.String("ssid", ssid), slog.Bool("open", pass == ""))
	for {
		err := dev.JoinWPA2(ssid, pass)
		if err == nil {
			break
		}
		logger.Error("wifi:join-failed", slog.String("err", err.Error()))
		time.Sleep(cfg.JoinRetry)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("get hardware address:" + err.Error())
	}
	logger.Info("wifi:joined", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := &Stack{
		dev:     dev,
		log:     logger,
		sendbuf: make([]byte, mtu),
	}
	err = stack.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     max(cfg.MaxTCPPorts, 1),
		RandSeed:        time.Since(start).Nanoseconds() ^ cfg.RandSeed,
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return stack.s.Demux(pkt, 0)
	})
	return stack, nil
}

// SetupDHCP acquires an address and the gateway's hardware address. When
// DHCP fails and fallback is a valid IPv4 address, it is used statically.
func (s *Stack) SetupDHCP(fallback netip.Addr) (*xnet.DHCPResults, error) {
	requested := netip.AddrFrom4([4]byte{})
	if fallback.Is4() {
		requested = fallback
	}
	rstack := s.s.StackRetrying(50 * time.Millisecond)

	s.log.Info("dhcp:starting")
	results, err := rstack.DoDHCPv4(requested.As4(), 3*time.Second, 3)
	if err != nil {
		if fallback.Is4() && !fallback.IsUnspecified() {
			s.log.Warn("dhcp:static-fallback", slog.String("ip", fallback.String()))
			s.s.SetIPAddr(fallback)
			return &xnet.DHCPResults{AssignedAddr: fallback}, nil
		}
		return nil, errors.New("dhcp failed:" + err.Error())
	}
	if err := s.s.AssimilateDHCPResults(results); err != nil {
		return nil, errors.New("assimilate dhcp:" + err.Error())
	}
	gatewayHW, err := rstack.DoResolveHardwareAddress6(results.Router, 500*time.Millisecond, 4)
	if err != nil {
		return nil, errors.New("resolve gateway:" + err.Error())
	}
	s.s.SetGateway6(gatewayHW)

	s.log.Info("dhcp:complete",
		slog.String("ourIP", results.AssignedAddr.String()),
		slog.String("router", results.Router.String()),
		slog.Uint64("lease_sec", uint64(results.TLease)),
	)
	return results, nil
}

// Resolve returns host as an address, looking it up through DNS when it is
// not a literal IP.
func (s *Stack) Resolve(host string, timeout time.Duration) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}
	s.log.Info("dns:resolving", slog.String("host", host))
	addrs, err := s.s.StackRetrying(pollTime).DoLookupIP(host, timeout, 3)
	if err != nil {
		return netip.Addr{}, errors.New("dns lookup for " + host + ": " + err.Error())
	}
	if len(addrs) == 0 {
		return netip.Addr{}, errors.New("dns lookup for " + host + ": no addresses returned")
	}
	return addrs[0], nil
}

// Conn is a TCP connection that releases its port when closed.
type Conn struct {
	tcp.Conn
}

// Close closes the connection, waits briefly for the FIN exchange and
// aborts whatever is left.
func (c *Conn) Close() error {
	err := c.Conn.Close()
	for i := 0; i < 50 && !c.Conn.State().IsClosed(); i++ {
		time.Sleep(100 * time.Millisecond)
	}
	c.Conn.Abort()
	return err
}

// DialTCP resolves host and completes a TCP handshake from a random local
// port.
func (s *Stack) DialTCP(host string, port uint16, timeout time.Duration) (*Conn, error) {
	addr, err := s.Resolve(host, timeout)
	if err != nil {
		return nil, err
	}
	conn := &Conn{}
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, tcpBufSize),
		TxBuf:             make([]byte, tcpBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return nil, errors.New("tcp configure:" + err.Error())
	}
	localPort := uint16(s.s.Prand32()>>17) + 1024
	s.log.Info("tcp:dialing",
		slog.String("addr", addr.String()),
		slog.Uint64("port", uint64(port)),
		slog.Uint64("localPort", uint64(localPort)),
	)
	err = s.s.StackRetrying(pollTime).DoDialTCP(&conn.Conn, localPort, netip.AddrPortFrom(addr, port), timeout, 3)
	if err != nil {
		conn.Conn.Abort()
		return nil, errors.New("tcp dial:" + err.Error())
	}
	s.log.Info("tcp:connected", slog.String("state", conn.State().String()))
	return conn, nil
}

// RecvAndSend polls one incoming packet and sends one outgoing packet.
func (s *Stack) RecvAndSend() (send, recv int, err error) {
	gotPacket, errRecv := s.dev.PollOne()
	if gotPacket {
		recv = 1
	}
	if errRecv != nil {
		s.log.Error("stack:poll", slog.String("err", errRecv.Error()))
	}

	send, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("stack:encapsulate", slog.Int("plen", send), slog.String("err", err.Error()))
	} else {
		err = errRecv
	}
	if send == 0 {
		return send, recv, err
	}
	if err = s.dev.SendEth(s.sendbuf[:send]); err != nil {
		s.log.Error("stack:send", slog.Int("plen", send), slog.String("err", err.Error()))
	}
	return send, recv, err
}

// Pump runs RecvAndSend forever, yielding when idle. Start it in its own
// goroutine before dialing.
func (s *Stack) Pump() {
	for {
		send, recv, _ := s.RecvAndSend()
		if send == 0 && recv == 0 {
			time.Sleep(pollTime)
		}
		runtime.Gosched()
	}
}

// Addr returns the stack's IP address.
func (s *Stack) Addr() netip.Addr { return s.s.Addr() }
