// Package draftlog publishes completed draft logs to an external
// collector over NATS Streaming, fire-and-forget. The core never
// persists a draft log itself (spec's explicit non-goal); this package
// is the one-way door out of the process.
package draftlog

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/stan.go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher is the narrow surface session.Session depends on.
type Publisher interface {
	Publish(sessionID string, payload interface{}) error
}

// NATSPublisher publishes one message per completed draft to a NATS
// Streaming channel.
type NATSPublisher struct {
	sc      stan.Conn
	nc      *nats.Conn
	subject string
	log     zerolog.Logger
}

// Connect dials NATS and opens a Streaming session under clientID,
// publishing to subject on every Publish call.
func Connect(clusterID, clientID, natsURL, subject string, log zerolog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	sc, err := stan.Connect(clusterID, clientID, stan.NatsConn(nc))
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &NATSPublisher{sc: sc, nc: nc, subject: subject, log: log}, nil
}

// Publish marshals payload and publishes it asynchronously. A missing
// ack is logged here; a marshal error or an error from starting the
// publish is returned to the caller.
func (p *NATSPublisher) Publish(sessionID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = p.sc.PublishAsync(p.subject, data, func(_ string, ackErr error) {
		if ackErr != nil {
			p.log.Warn().Err(ackErr).Str("session", sessionID).Msg("draft log publish not acked")
		}
	})
	return err
}

// Close tears down the Streaming and NATS connections.
func (p *NATSPublisher) Close() {
	if p.sc != nil {
		_ = p.sc.Close()
	}
	if p.nc != nil {
		p.nc.Close()
	}
}
