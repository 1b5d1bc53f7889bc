package mqtt

import "testing"

func TestSplitHostPort(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort uint16
		wantErr  bool
	}{
		{addr: "10.0.0.9:1883", wantHost: "10.0.0.9", wantPort: 1883},
		{addr: "broker.local:8883", wantHost: "broker.local", wantPort: 8883},
		{addr: "[fe80::1]:1883", wantHost: "fe80::1", wantPort: 1883},
		{addr: "fe80::1:1883", wantHost: "fe80::1", wantPort: 1883},
		{addr: "broker.local", wantErr: true},
		{addr: ":1883", wantErr: true},
		{addr: "broker:", wantErr: true},
		{addr: "broker:http", wantErr: true},
		{addr: "broker:70000", wantErr: true},
		{addr: "broker:0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port, err := SplitHostPort(tt.addr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SplitHostPort(%q) error = nil; want error", tt.addr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitHostPort(%q) error = %v", tt.addr, err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("SplitHostPort(%q) = %q, %d; want %q, %d", tt.addr, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}
