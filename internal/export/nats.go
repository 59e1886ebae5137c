package export

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/metricsd/internal/logfields"
)

// NATSPublisher publishes snapshot documents to a NATS subject. Snapshots
// are fire-and-forget telemetry, so core NATS publish is sufficient; no
// stream persistence is requested on the server side.
type NATSPublisher struct {
	conn *nats.Conn
}

var _ Publisher = (*NATSPublisher)(nil)

// ConnectNATS establishes a NATS connection for snapshot publishing.
func ConnectNATS(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("metricsd-exporter"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher connected", slog.String("url", url))
	return &NATSPublisher{conn: conn}, nil
}

// Publish sends data to subject.
func (p *NATSPublisher) Publish(subject string, data []byte) error {
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		slog.Warn("Error draining NATS connection", logfields.Error(err))
	}
}
