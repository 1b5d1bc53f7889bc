package mqtt

import "errors"

// DefaultPort is the plain-TCP MQTT port.
const DefaultPort = 1883

// SplitHostPort splits a "host:port" broker address. The last colon
// separates the port so bracketless IPv6 hosts keep their colons.
func SplitHostPort(addr string) (host string, port uint16, err error) {
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}
	if colonIdx == -1 {
		return "", 0, errors.New("missing port in address " + addr)
	}

	host = addr[:colonIdx]
	portStr := addr[colonIdx+1:]
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	if host == "" {
		return "", 0, errors.New("empty host in address " + addr)
	}
	if portStr == "" {
		return "", 0, errors.New("empty port in address " + addr)
	}
	port = parsePort(portStr)
	if port == 0 {
		return "", 0, errors.New("invalid port in address " + addr)
	}
	return host, port, nil
}

// parsePort converts a decimal port to uint16. It returns 0 for anything
// that is not a number in 1..65535.
func parsePort(s string) uint16 {
	if len(s) > 5 {
		return 0
	}
	var port uint32
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		port = port*10 + uint32(s[i]-'0')
	}
	if port > 65535 {
		return 0
	}
	return uint16(port)
}
