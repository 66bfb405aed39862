package gateway

import (
	"context"
	"errors"

	"github.com/TheBarnacle/MTGADraft/session"
	"github.com/TheBarnacle/MTGADraft/transport"
)

// inboundCtx is the per-connection state threaded through every
// dispatched handler: who this socket speaks for and which session they
// currently belong to.
type inboundCtx struct {
	userID    string
	sessionID string
	conn      *transport.Connection
}

type handshakePayload struct {
	UserID    string `json:"userID"`
	UserName  string `json:"userName"`
	SessionID string `json:"sessionID"`
}

var errBadHandshake = errors.New("gateway: malformed handshake")

// handshake reads the first frame off a freshly accepted connection,
// resolves id collisions through the Registry (spec §6's "if userID is
// already connected, mint a replacement and notify alreadyConnected"),
// and joins the participant to their requested session.
func (g *Gateway) handshake(ctx context.Context, raw *transport.Connection) (*inboundCtx, error) {
	payload, err := raw.ReadOnce()
	if err != nil {
		return nil, err
	}
	event, body, err := g.codec.Decode(payload)
	if err != nil || event != "handshake" {
		return nil, errBadHandshake
	}

	var hs handshakePayload
	if err := json.Unmarshal(body, &hs); err != nil || hs.UserID == "" || hs.SessionID == "" {
		return nil, errBadHandshake
	}

	resolvedID, renamed := g.registry.Join(hs.UserID, hs.SessionID)
	g.Register(resolvedID, raw)
	if renamed {
		g.Send(resolvedID, "alreadyConnected", map[string]string{"userID": resolvedID})
	}

	sess := g.registry.SessionFor(hs.SessionID, resolvedID)
	p := &session.Participant{UserID: resolvedID, UserName: hs.UserName}
	sess.Enqueue(func(s *session.Session) {
		// A disconnected participant reconnecting under the same id resumes
		// their paused seat instead of being treated as a brand new join.
		if s.Reconnect(resolvedID) {
			return
		}
		s.Join(p)
	})

	return &inboundCtx{userID: resolvedID, sessionID: hs.SessionID, conn: raw}, nil
}
