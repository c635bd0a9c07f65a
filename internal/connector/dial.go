package connector

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
)

// Dialer opens a net.Conn to an MQTT server that is ready to read from and
// write to. Injectable so tests can hand the connector one end of a pipe.
type Dialer func(ctx context.Context) (net.Conn, error)

// brokerDialer builds a Dialer from a broker URL. Supported schemes: tcp and
// mqtt (plain TCP, default port 1883), ssl, tls and mqtts (TLS, default port
// 8883).
func brokerDialer(brokerURL string, tlsConfig *tls.Config) (Dialer, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parse broker url %q: %w", brokerURL, err)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("broker url %q has no host", brokerURL)
	}
	port := u.Port()

	switch u.Scheme {
	case "tcp", "mqtt":
		if port == "" {
			port = "1883"
		}
		addr := net.JoinHostPort(host, port)
		return func(ctx context.Context) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		}, nil

	case "ssl", "tls", "mqtts":
		if port == "" {
			port = "8883"
		}
		addr := net.JoinHostPort(host, port)
		cfg := tlsConfig
		if cfg == nil {
			cfg = &tls.Config{ServerName: host}
		}
		return func(ctx context.Context) (net.Conn, error) {
			d := tls.Dialer{Config: cfg}
			return d.DialContext(ctx, "tcp", addr)
		}, nil

	default:
		return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}
