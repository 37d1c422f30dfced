package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject measurements are published on.
const DefaultSubject = "technews.webvitals"

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each measurement as a JSON message.
type NATSSink struct {
	pub     Publisher
	subject string
	conn    *nats.Conn
}

// NewNATSSink publishes on subject through pub.
func NewNATSSink(pub Publisher, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{pub: pub, subject: subject}
}

// ConnectNATS dials url and returns a sink owning the connection.
func ConnectNATS(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url, nats.Name("technews"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	s := NewNATSSink(nc, subject)
	s.conn = nc
	return s, nil
}

func (n *NATSSink) Record(_ context.Context, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode measurement: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish measurement: %w", err)
	}
	return nil
}

// Close drains the connection opened by ConnectNATS. It is a no-op for
// sinks built with NewNATSSink.
func (n *NATSSink) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
