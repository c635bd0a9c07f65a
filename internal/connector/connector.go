// Package connector maintains the MQTT subscription that feeds the pipeline.
//
// The connector owns an explicit reconnect state machine: Disconnected ->
// Connecting -> Connected -> message loop -> Disconnected on error, with
// jittered exponential backoff between attempts. Each dial epoch gets a
// generation token, and messages from a superseded session are discarded, so
// a reconnect race can never deliver a payload twice nor leave two live
// sessions.
//
// Decoded readings are delivered on an order-preserving channel consumed by
// the ingest writer; malformed payloads are logged and dropped, never
// propagated and never retried.
package connector

import (
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/gabrielmt/hived/internal/errors"
	"github.com/gabrielmt/hived/internal/logging"
	"github.com/gabrielmt/hived/internal/store"
)

var log = logging.Component("connector")

// Status describes a connection state transition reported to OnStatus.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusConnectionLost
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusConnectionLost:
		return "connection lost"
	default:
		return "unknown"
	}
}

// Config holds connector configuration.
type Config struct {
	// BrokerURL is the MQTT server, e.g. ssl://broker.example.com:8883.
	BrokerURL string

	// Topic is the subscription topic filter.
	Topic string

	// ClientID identifies this client to the server. A random one is
	// generated when empty.
	ClientID string

	// QoS for the subscription. The feed is at-least-once; 2 matches the
	// upstream publisher.
	QoS byte

	// KeepAlive interval for the MQTT session. Default 60s.
	KeepAlive time.Duration

	// ChannelSize is the capacity of the records channel. Default 256.
	ChannelSize int

	// BackoffMin and BackoffMax bound the reconnect delay.
	BackoffMin time.Duration
	BackoffMax time.Duration

	// TLS overrides the TLS configuration for ssl/tls/mqtts schemes.
	TLS *tls.Config
}

// Stats holds connector counters.
type Stats struct {
	Received   int64
	Delivered  int64
	Dropped    int64
	Reconnects int64
}

// Connector subscribes to the upstream feed and forwards decoded readings.
//
// Connector is safe for concurrent use. Start is idempotent while running
// and Stop is a no-op when already stopped.
type Connector struct {
	cfg      Config
	dial     Dialer
	onStatus func(Status)
	records  chan store.Reading

	// generation identifies the current dial epoch; receivers created for
	// an older epoch discard their deliveries.
	generation atomic.Uint64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	stats   Stats
}

// Option configures a Connector.
type Option func(*Connector)

// WithDialer overrides the network dialer, letting tests hand the connector
// one end of an in-memory pipe.
func WithDialer(d Dialer) Option {
	return func(c *Connector) { c.dial = d }
}

// WithStatusHandler registers a callback invoked on connection state
// changes. The callback must not block.
func WithStatusHandler(f func(Status)) Option {
	return func(c *Connector) { c.onStatus = f }
}

// New creates a Connector. Records are delivered on the channel returned by
// Records once Start is called.
func New(cfg Config, opts ...Option) *Connector {
	if cfg.ClientID == "" {
		cfg.ClientID = "hived-" + uuid.NewString()[:8]
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 60 * time.Second
	}
	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = 256
	}

	c := &Connector{
		cfg:     cfg,
		records: make(chan store.Reading, cfg.ChannelSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Records returns the channel decoded readings are delivered on. The
// channel is never closed; consumers stop via their own context.
func (c *Connector) Records() <-chan store.Reading {
	return c.records
}

// Stats returns a snapshot of connector counters.
func (c *Connector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Start begins the connect/subscribe/reconnect loop in the background.
// Calling Start while already running is a no-op: there is never more than
// one active session.
func (c *Connector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		log.Debug("already connected, ignoring start")
		return nil
	}

	if c.dial == nil {
		d, err := brokerDialer(c.cfg.BrokerURL, c.cfg.TLS)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidConfig, "%v", err)
		}
		c.dial = d
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.run(runCtx)
	return nil
}

// Stop tears down the session and waits for the run loop to exit. Safe to
// call when already stopped.
func (c *Connector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

func (c *Connector) notifyStatus(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

// run drives the reconnect state machine until the context is canceled.
func (c *Connector) run(ctx context.Context) {
	defer close(c.done)

	backoff := NewBackoff(c.cfg.BackoffMin, c.cfg.BackoffMax)

	for {
		if ctx.Err() != nil {
			c.notifyStatus(StatusDisconnected)
			return
		}

		connected, err := c.session(ctx, backoff)
		if ctx.Err() != nil {
			c.notifyStatus(StatusDisconnected)
			return
		}

		if connected {
			log.Warn("connection lost", "error", err)
			c.notifyStatus(StatusConnectionLost)
			c.mu.Lock()
			c.stats.Reconnects++
			c.mu.Unlock()
		} else {
			log.Warn("connect attempt failed", "error", err)
		}

		select {
		case <-time.After(backoff.Next()):
		case <-ctx.Done():
			c.notifyStatus(StatusDisconnected)
			return
		}
	}
}

// session runs one dial/connect/subscribe/message-loop epoch. It returns
// whether a connection was established and the error that ended the epoch.
func (c *Connector) session(ctx context.Context, backoff *Backoff) (bool, error) {
	c.notifyStatus(StatusConnecting)

	epoch := c.generation.Add(1)

	conn, err := c.dial(ctx)
	if err != nil {
		return false, errors.Wrapf(errors.ErrConnectionLost, "dial: %v", err)
	}

	// Buffered so paho's callbacks never block if both fire.
	lost := make(chan error, 2)

	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: c.cfg.ClientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			c.receiver(ctx, epoch),
		},
		OnClientError: func(err error) {
			select {
			case lost <- err:
			default:
			}
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			select {
			case lost <- errors.Wrapf(errors.ErrConnectionLost, "server disconnect, reason %d", d.ReasonCode):
			default:
			}
		},
	})

	connack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   c.cfg.ClientID,
		CleanStart: true,
		KeepAlive:  uint16(c.cfg.KeepAlive.Seconds()),
	})
	if err != nil {
		conn.Close()
		return false, errors.Wrapf(errors.ErrConnectionLost, "connect: %v", err)
	}
	if connack.ReasonCode >= 0x80 {
		conn.Close()
		return false, errors.Wrapf(errors.ErrConnectionLost, "connect refused, reason %d", connack.ReasonCode)
	}

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: c.cfg.Topic, QoS: c.cfg.QoS},
		},
	}); err != nil {
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return false, errors.Wrapf(errors.ErrConnectionLost, "subscribe: %v", err)
	}

	log.Info("connected", "broker", c.cfg.BrokerURL, "topic", c.cfg.Topic, "client_id", c.cfg.ClientID)
	c.notifyStatus(StatusConnected)
	backoff.Reset()

	select {
	case err := <-lost:
		return true, err
	case <-ctx.Done():
		// Graceful teardown.
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return true, ctx.Err()
	}
}

// receiver builds the message handler for one dial epoch. Malformed
// payloads never raise out of the handler and never reach the records
// channel.
func (c *Connector) receiver(ctx context.Context, epoch uint64) func(paho.PublishReceived) (bool, error) {
	return func(pr paho.PublishReceived) (bool, error) {
		if c.generation.Load() != epoch {
			// A newer session exists; this delivery is from a stale
			// epoch and must not be forwarded again.
			return true, nil
		}

		c.mu.Lock()
		c.stats.Received++
		c.mu.Unlock()

		r, err := Decode(pr.Packet.Payload)
		if err != nil {
			c.mu.Lock()
			c.stats.Dropped++
			c.mu.Unlock()
			log.Warn("dropping malformed payload", "topic", pr.Packet.Topic, "error", err)
			return true, nil
		}

		select {
		case c.records <- r:
			c.mu.Lock()
			c.stats.Delivered++
			c.mu.Unlock()
		case <-ctx.Done():
		}
		return true, nil
	}
}
