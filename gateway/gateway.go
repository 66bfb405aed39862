// Package gateway is the adapter translating inbound wire events into
// Session method calls and outbound Session events into wire frames.
// Inbound dispatch is a table keyed by event name; an unknown key is
// logged at Debug and dropped, and a payload that fails to decode is
// dropped silently, so a single bad client frame never brings down a
// session.
package gateway

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/TheBarnacle/MTGADraft/registry"
	"github.com/TheBarnacle/MTGADraft/session"
	"github.com/TheBarnacle/MTGADraft/transport"
)

// mustDeliver names the outbound events the Concurrency Model requires
// a slow consumer never miss; everything else is best-effort and may be
// dropped under back-pressure.
var mustDeliver = map[string]bool{
	"nextBooster": true,
	"startDraft":  true,
	"endDraft":    true,
	"rejoinDraft": true,
}

const outboxSize = 64

type connState struct {
	conn   *transport.Connection
	outbox chan wireFrame
}

type wireFrame struct {
	event   string
	payload interface{}
}

// Gateway fans outbound Session events to per-participant connections
// and, via its dispatch table, routes inbound frames into Registry and
// Session calls.
type Gateway struct {
	mu    sync.RWMutex
	conns map[string]*connState

	codec    Codec
	registry *registry.Registry
	log      zerolog.Logger
}

// New builds a Gateway. AttachRegistry must be called once the Registry
// is constructed (the Registry needs the Gateway as its Sink, so the
// two are wired together after both exist).
func New(codec Codec, log zerolog.Logger) *Gateway {
	return &Gateway{conns: make(map[string]*connState), codec: codec, log: log}
}

// AttachRegistry completes the Gateway<->Registry wiring.
func (g *Gateway) AttachRegistry(r *registry.Registry) { g.registry = r }

// Send implements registry.Sink. must-deliver events block until the
// per-connection outbox accepts them; everything else is dropped under
// back-pressure rather than stalling the session's mailbox goroutine.
func (g *Gateway) Send(userID, event string, payload interface{}) {
	g.mu.RLock()
	cs, ok := g.conns[userID]
	g.mu.RUnlock()
	if !ok {
		return
	}

	frame := wireFrame{event: event, payload: payload}
	if mustDeliver[event] {
		cs.outbox <- frame
		return
	}
	select {
	case cs.outbox <- frame:
	default:
		g.log.Debug().Str("user", userID).Str("event", event).Msg("dropped outbound frame under back-pressure")
	}
}

// Register binds a connection to a resolved userID and starts its
// outbound pump goroutine.
func (g *Gateway) Register(userID string, conn *transport.Connection) {
	cs := &connState{conn: conn, outbox: make(chan wireFrame, outboxSize)}
	g.mu.Lock()
	g.conns[userID] = cs
	g.mu.Unlock()

	go g.pump(userID, cs)
}

func (g *Gateway) pump(userID string, cs *connState) {
	for frame := range cs.outbox {
		data, err := g.codec.Encode(frame.event, frame.payload)
		if err != nil {
			g.log.Warn().Err(err).Str("event", frame.event).Msg("encode failed")
			continue
		}
		if err := cs.conn.Write(data); err != nil {
			g.log.Debug().Err(err).Str("user", userID).Msg("write failed, dropping connection")
			g.Unregister(userID)
			return
		}
	}
}

// Unregister tears down a connection's outbound pump. Idempotent.
func (g *Gateway) Unregister(userID string) {
	g.mu.Lock()
	cs, ok := g.conns[userID]
	if ok {
		delete(g.conns, userID)
	}
	g.mu.Unlock()
	if ok {
		close(cs.outbox)
		_ = cs.conn.Close()
	}
}

// Serve accepts one connection's lifetime: the handshake, then the read
// loop dispatching frames until disconnect, at which point it tells the
// Session and Registry the participant is gone.
func (g *Gateway) Serve(ctx context.Context, raw *transport.Connection) {
	ic, err := g.handshake(ctx, raw)
	if err != nil {
		g.log.Debug().Err(err).Msg("handshake failed")
		_ = raw.Close()
		return
	}

	err = raw.ReadLoop(ctx, func(payload []byte) error {
		event, body, derr := g.codec.Decode(payload)
		if derr != nil {
			return derr
		}
		return g.dispatch(ic, event, body)
	})
	g.log.Debug().Err(err).Str("user", ic.userID).Msg("connection closed")

	g.Unregister(ic.userID)
	g.disconnectParticipant(ic)
}

// disconnectOutcome reports, for one permanent-or-pause decision, whether
// the registry's bookkeeping needs updating and whether the session is
// now empty.
type disconnectOutcome struct {
	permanent bool
	empty     bool
}

// disconnectParticipant handles a websocket read error: mid-draft it only
// pauses the seat (Session.Disconnect keeps a reconnect snapshot), but
// everywhere else it is a real departure: Session.Leave (owner handoff)
// runs on the mailbox, then the registry's Leave — empty-session
// teardown, public-list broadcast — runs too, per registry.Leave's own
// contract of being called once the caller knows the resulting
// membership.
func (g *Gateway) disconnectParticipant(ic *inboundCtx) {
	sessionID, ok := g.registry.Lookup(ic.userID)
	if !ok {
		return
	}
	sess := g.registry.SessionFor(sessionID, ic.userID)
	userID := ic.userID

	outcome := make(chan disconnectOutcome, 1)
	sess.Enqueue(func(s *session.Session) {
		if s.Phase == session.PhaseDrafting {
			s.Disconnect(userID)
			outcome <- disconnectOutcome{}
			return
		}
		s.Leave(userID)
		_, order, _ := s.Snapshot()
		outcome <- disconnectOutcome{permanent: true, empty: len(order) == 0}
	})

	if o := <-outcome; o.permanent {
		g.registry.Leave(userID, sessionID, o.empty)
	}
}
