//go:build !tinygo

package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestBrokerAddr(t *testing.T) {
	tests := []struct {
		name   string
		entry  *zeroconf.ServiceEntry
		want   string
		wantOK bool
	}{
		{
			name: "ipv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "mosquitto.local.",
				Port:     1883,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.2")},
			},
			want:   "192.168.4.2:1883",
			wantOK: true,
		},
		{
			name: "prefers ipv4",
			entry: &zeroconf.ServiceEntry{
				Port:     8883,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.9")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			want:   "10.0.0.9:8883",
			wantOK: true,
		},
		{
			name: "ipv6 only",
			entry: &zeroconf.ServiceEntry{
				Port:     1883,
				AddrIPv6: []net.IP{net.ParseIP("fd00::2")},
			},
			want:   "[fd00::2]:1883",
			wantOK: true,
		},
		{
			name: "default port",
			entry: &zeroconf.ServiceEntry{
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.9")},
			},
			want:   "10.0.0.9:1883",
			wantOK: true,
		},
		{
			name:  "no address",
			entry: &zeroconf.ServiceEntry{HostName: "broker.local.", Port: 1883},
		},
		{
			name: "nil entry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := brokerAddr(tt.entry)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("brokerAddr() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
