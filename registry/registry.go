// Package registry is the single process-wide coordinator spec §4.6
// names: the live participant -> session mapping and the public-session
// discovery list. Design Notes' "global mutable registry" guidance is
// followed literally — there is exactly one Registry, no package-level
// globals, and every mutation goes through its methods rather than
// through ad-hoc locks on shared maps.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// publicSessionsChannel is the cross-instance pub/sub key, namespaced so
// it can't collide with any other channel on a shared Redis instance.
const publicSessionsChannel = "mtgadraft:public-sessions"

// Sink is the abstract per-participant delivery primitive the gateway
// supplies; Registry.Emit (which it hands to every Session as its
// session.Emitter) is a thin resolver over this.
type Sink interface {
	Send(userID, event string, payload interface{})
}

// Registry is the coordinator: participants, sessions, and the public
// list. Safe for concurrent use from many gateway connection goroutines.
type Registry struct {
	mu           sync.RWMutex
	participants map[string]string // userID -> sessionID
	sessions     map[string]*session.Session

	public *LockSet

	cat       *catalog.Catalog
	sink      Sink
	publisher session.Publisher
	redis     *redis.Client
	log       zerolog.Logger
}

// New builds a Registry. redisClient may be nil, in which case the
// public-session list is process-local only (a single-instance
// deployment needs no Redis, per SPEC_FULL's Domain Stack).
func New(cat *catalog.Catalog, sink Sink, publisher session.Publisher, redisClient *redis.Client, log zerolog.Logger) *Registry {
	r := &Registry{
		participants: make(map[string]string),
		sessions:     make(map[string]*session.Session),
		public:       NewLockSet(),
		cat:          cat,
		sink:         sink,
		publisher:    publisher,
		redis:        redisClient,
		log:          log,
	}
	if redisClient != nil {
		go r.subscribePublicSessions()
	}
	return r
}

// Emit implements session.Emitter by delegating to the gateway's Sink;
// every Session is constructed with the Registry itself as its Emitter.
func (r *Registry) Emit(userID, event string, payload interface{}) {
	r.sink.Send(userID, event, payload)
}

func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Join resolves the handshake's requested UserID against the live
// participant table. If it is already taken by a different connection,
// a replacement id is minted and `renamed` is true; the gateway then
// registers the new connection under resolvedID, sends it
// `alreadyConnected{resolvedID}`, and uses resolvedID for every
// subsequent Sink lookup.
func (r *Registry) Join(requestedUserID, sessionID string) (resolvedUserID string, renamed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.participants[requestedUserID]; taken {
		resolvedUserID = randomID()
		renamed = true
	} else {
		resolvedUserID = requestedUserID
	}
	r.participants[resolvedUserID] = sessionID
	return resolvedUserID, renamed
}

// SessionFor returns the live Session for id, creating and starting a
// fresh one if none exists yet — the "session created on first join to
// an unknown sessionID" lifecycle rule.
func (r *Registry) SessionFor(sessionID, ownerID string) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s
	}
	s := session.New(sessionID, ownerID, r.cat, r, r.publisher, r.log)
	s.Run()
	r.sessions[sessionID] = s
	return s
}

// Peek returns the live Session for sessionID without creating one,
// for read-only callers (the httpapi debug surface) that must not
// spin up a session goroutine just by asking about it.
func (r *Registry) Peek(sessionID string) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Lookup returns the session id a participant currently belongs to.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.participants[userID]
	return id, ok
}

// Move reassigns userID's session mapping, used by RemovePlayer's
// reallocation and by join-into-a-new-session redirects (scenario 2's
// "ninth client... receives setSession redirecting to a new session").
func (r *Registry) Move(userID, newSessionID string) {
	r.mu.Lock()
	r.participants[userID] = newSessionID
	r.mu.Unlock()
}

// Leave removes userID from the registry's bookkeeping and, if the
// session it leaves becomes empty, tears the session down. It does NOT
// call Session.Leave itself — callers invoke that on the session's own
// mailbox first (via Enqueue) so seating mutation stays serialized, then
// call Leave here once they know the resulting membership.
func (r *Registry) Leave(userID, sessionID string, sessionNowEmpty bool) {
	r.mu.Lock()
	delete(r.participants, userID)
	var s *session.Session
	wasPublic := false
	if sessionNowEmpty {
		s = r.sessions[sessionID]
		delete(r.sessions, sessionID)
		wasPublic = r.public.Remove(sessionID)
	}
	r.mu.Unlock()

	if s != nil {
		s.Stop()
		r.log.Info().Str("session", sessionID).Msg("session destroyed")
	}
	if wasPublic {
		r.broadcastPublicSessions()
	}
}

// SetPublic adds or removes sessionID from the discovery list and
// re-broadcasts it to every connected participant, per spec §4.6.
func (r *Registry) SetPublic(sessionID string, public bool) {
	var changed bool
	if public {
		changed = r.public.Add(sessionID)
	} else {
		changed = r.public.Remove(sessionID)
	}
	if changed {
		r.broadcastPublicSessions()
	}
}

func (r *Registry) broadcastPublicSessions() {
	list := r.public.List()
	r.toAll("publicSessions", list)

	if r.redis != nil {
		if data, err := json.Marshal(list); err == nil {
			r.redis.Publish(context.Background(), publicSessionsChannel, data)
		}
	}
}

// toAll implements spec §4.7's global fan-out, used only for
// publicSessions.
func (r *Registry) toAll(event string, payload interface{}) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.participants))
	for uid := range r.participants {
		ids = append(ids, uid)
	}
	r.mu.RUnlock()
	for _, uid := range ids {
		r.sink.Send(uid, event, payload)
	}
}

func (r *Registry) subscribePublicSessions() {
	sub := r.redis.Subscribe(context.Background(), publicSessionsChannel)
	ch := sub.Channel()
	for msg := range ch {
		var remote []string
		if err := json.Unmarshal([]byte(msg.Payload), &remote); err != nil {
			continue
		}
		local := r.public.List()
		merged := NewLockSet()
		for _, id := range local {
			merged.Add(id)
		}
		for _, id := range remote {
			merged.Add(id)
		}
		r.toAll("publicSessions", merged.List())
	}
}
