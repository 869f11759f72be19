package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

const (
	SubjectTelemetry  = "telemetry.position"
	SubjectConflicts  = "conflicts.detected"
	SubjectAdminReset = "atc.admin.reset"
)

// Client represents a NATS client
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New creates a new NATS client and ensures the telemetry and conflict
// streams exist.
func New(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	streams := []*nats.StreamConfig{
		{
			Name:     "TELEMETRY",
			Subjects: []string{SubjectTelemetry},
			Storage:  nats.FileStorage,
			MaxAge:   24 * time.Hour,
		},
		{
			Name:     "CONFLICTS",
			Subjects: []string{SubjectConflicts},
			Storage:  nats.FileStorage,
			MaxAge:   72 * time.Hour,
		},
	}
	for _, sc := range streams {
		if _, err := js.AddStream(sc); err != nil && !strings.Contains(err.Error(), "stream name already in use") {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", sc.Name, err)
		}
	}

	return &Client{
		conn: nc,
		js:   js,
	}, nil
}

// PublishTelemetry publishes a raw telemetry envelope
func (c *Client) PublishTelemetry(msg *types.TelemetryMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry: %w", err)
	}

	if _, err := c.js.Publish(SubjectTelemetry, data); err != nil {
		return fmt.Errorf("failed to publish telemetry: %w", err)
	}

	return nil
}

// SubscribeTelemetry subscribes to raw telemetry envelopes
func (c *Client) SubscribeTelemetry(handler func(*types.TelemetryMessage)) error {
	_, err := c.js.Subscribe(SubjectTelemetry, func(msg *nats.Msg) {
		var tm types.TelemetryMessage
		if err := json.Unmarshal(msg.Data, &tm); err != nil {
			log.Printf("Error unmarshaling telemetry: %v", err)
			return
		}
		handler(&tm)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to telemetry: %w", err)
	}

	return nil
}

// PublishConflicts publishes the conflicts found by one scan
func (c *Client) PublishConflicts(conflicts []types.Conflict) error {
	data, err := json.Marshal(conflicts)
	if err != nil {
		return fmt.Errorf("failed to marshal conflicts: %w", err)
	}

	if _, err := c.js.Publish(SubjectConflicts, data); err != nil {
		return fmt.Errorf("failed to publish conflicts: %w", err)
	}

	return nil
}

// SubscribeConflicts subscribes to scan results
func (c *Client) SubscribeConflicts(handler func([]types.Conflict)) error {
	_, err := c.js.Subscribe(SubjectConflicts, func(msg *nats.Msg) {
		var conflicts []types.Conflict
		if err := json.Unmarshal(msg.Data, &conflicts); err != nil {
			log.Printf("Error unmarshaling conflicts: %v", err)
			return
		}
		handler(conflicts)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to conflicts: %w", err)
	}

	return nil
}

// SubscribeAdminReset subscribes to engine reset requests. Reset is a plain
// core-NATS subject, not a stream: a reset that nobody hears is stale by
// definition and should not be replayed.
func (c *Client) SubscribeAdminReset(handler func()) error {
	_, err := c.conn.Subscribe(SubjectAdminReset, func(*nats.Msg) {
		handler()
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to admin reset: %w", err)
	}

	return nil
}

// PublishAdminReset requests an engine reset from the monitor.
func (c *Client) PublishAdminReset() error {
	if err := c.conn.Publish(SubjectAdminReset, nil); err != nil {
		return fmt.Errorf("failed to publish admin reset: %w", err)
	}
	return c.conn.Flush()
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
