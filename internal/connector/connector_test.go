package connector

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gabrielmt/hived/internal/errors"
)

func failingDialer(count *atomic.Int64) Dialer {
	return func(ctx context.Context) (net.Conn, error) {
		count.Add(1)
		return nil, errors.New("broker unreachable")
	}
}

func TestConnector_RetriesFailedDials(t *testing.T) {
	var dials atomic.Int64
	c := New(Config{
		BrokerURL:  "tcp://broker.test:1883",
		Topic:      "hive/sensors",
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	}, WithDialer(failingDialer(&dials)))

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for dials.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 dial attempts, got %d", dials.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	c.Stop()
}

func TestConnector_StartStopIdempotent(t *testing.T) {
	var dials atomic.Int64
	c := New(Config{
		BrokerURL:  "tcp://broker.test:1883",
		Topic:      "hive/sensors",
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	}, WithDialer(failingDialer(&dials)))

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Second start while running is a no-op.
	if err := c.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}

	c.Stop()
	c.Stop() // no-op when already stopped

	// Restart after stop.
	before := dials.Load()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for dials.Load() == before {
		select {
		case <-deadline:
			t.Fatal("expected dial attempts after restart")
		case <-time.After(5 * time.Millisecond):
		}
	}
	c.Stop()
}

func TestConnector_InvalidBrokerURL(t *testing.T) {
	c := New(Config{BrokerURL: "ftp://nope:21", Topic: "hive/sensors"})

	err := c.Start(context.Background())
	if err == nil {
		c.Stop()
		t.Fatal("expected error for unsupported scheme")
	}
	if !errors.Is(err, errors.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestConnector_StatusTransitions(t *testing.T) {
	var dials atomic.Int64
	var sawConnecting atomic.Bool
	var sawDisconnected atomic.Bool

	c := New(Config{
		BrokerURL:  "tcp://broker.test:1883",
		Topic:      "hive/sensors",
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	},
		WithDialer(failingDialer(&dials)),
		WithStatusHandler(func(s Status) {
			switch s {
			case StatusConnecting:
				sawConnecting.Store(true)
			case StatusDisconnected:
				sawDisconnected.Store(true)
			}
		}),
	)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for !sawConnecting.Load() {
		select {
		case <-deadline:
			t.Fatal("never observed connecting status")
		case <-time.After(5 * time.Millisecond):
		}
	}

	c.Stop()
	if !sawDisconnected.Load() {
		t.Error("expected disconnected status after stop")
	}
}

func TestConnector_DefaultsApplied(t *testing.T) {
	c := New(Config{BrokerURL: "tcp://broker.test:1883", Topic: "t"})
	if c.cfg.ClientID == "" {
		t.Error("expected generated client id")
	}
	if c.cfg.KeepAlive != 60*time.Second {
		t.Errorf("keepalive default: got %v", c.cfg.KeepAlive)
	}
	if cap(c.records) != 256 {
		t.Errorf("channel size default: got %d", cap(c.records))
	}
}
