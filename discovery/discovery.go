//go:build !tinygo

// Package discovery finds an MQTT broker advertised over mDNS, so the
// simulator can run with --broker auto on a LAN.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the DNS-SD type brokers such as Mosquitto advertise.
	ServiceType = "_mqtt._tcp"
	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
	// DefaultTimeout bounds a FindBroker call.
	DefaultTimeout = 5 * time.Second

	defaultPort = 1883
)

// ErrNotFound is returned when no broker answered before the timeout.
var ErrNotFound = errors.New("discovery: no MQTT broker found")

// FindBroker browses for ServiceType and returns the first usable broker as
// "host:port".
func FindBroker(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan string, 1)
	go func() {
		for entry := range entries {
			if addr, ok := brokerAddr(entry); ok {
				select {
				case found <- addr:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return "", fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case addr := <-found:
		return addr, nil
	case <-ctx.Done():
		// A hit may land right as the context is cancelled.
		select {
		case addr := <-found:
			return addr, nil
		default:
		}
		return "", ErrNotFound
	}
}

// brokerAddr returns the dialable address of entry, preferring IPv4.
func brokerAddr(entry *zeroconf.ServiceEntry) (string, bool) {
	if entry == nil {
		return "", false
	}
	var ip net.IP
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0]
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0]
	}
	if ip == nil {
		return "", false
	}
	port := entry.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(port)), true
}
