package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/TheBarnacle/MTGADraft/bot"
	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/draft"
)

// Session is one draft table. Every exported method that mutates state
// (everything except Snapshot) must be called from inside a closure
// passed to Enqueue — the mailbox goroutine is the only writer. Fields
// also read from outside the mailbox (the HTTP debug surface's
// GET /getUsers/:sid) are additionally guarded by mu.
type Session struct {
	mu sync.RWMutex

	ID            string
	OwnerID       string
	OwnerIsPlayer bool
	Users         map[string]*Participant
	UserOrder     []string // seating, frozen while Phase == PhaseDrafting

	Options           Options
	Phase             Phase
	DisconnectedUsers map[string]*Participant

	Draft draft.Draft
	Bots  []*bot.Bot

	seats           []seat
	draftLog        *DraftLog
	pickedThisRound int
	humanPending    int

	winston *winstonRuntime

	cat       *catalog.Catalog
	emit      Emitter
	publisher Publisher
	log       zerolog.Logger

	ops  chan func(*Session)
	stop chan struct{}
	done chan struct{}

	timerStop    chan struct{}
	timerRunning bool
	remaining    int // seconds left in the current pick
}

// New builds an idle session. Run must be called to start its mailbox
// goroutine before any Enqueue'd closure executes.
func New(id, ownerID string, cat *catalog.Catalog, emit Emitter, publisher Publisher, log zerolog.Logger) *Session {
	return &Session{
		ID:                id,
		OwnerID:           ownerID,
		OwnerIsPlayer:     true,
		Users:             make(map[string]*Participant),
		DisconnectedUsers: make(map[string]*Participant),
		Options:           DefaultOptions(),
		Phase:             PhaseIdle,
		cat:               cat,
		emit:              emit,
		publisher:         publisher,
		log:               log.With().Str("session", id).Logger(),
		ops:               make(chan func(*Session), 64),
		stop:              make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// Run starts the mailbox goroutine and returns immediately. The
// goroutine exits once Stop is called; closures still queued at that
// point are not run.
func (s *Session) Run() {
	go func() {
		defer close(s.done)
		for {
			select {
			case fn := <-s.ops:
				fn(s)
			case <-s.stop:
				s.stopTimer()
				return
			}
		}
	}()
}

// Enqueue schedules fn to run on the mailbox goroutine. Safe to call
// from any goroutine, including the gateway's per-connection readers.
func (s *Session) Enqueue(fn func(*Session)) {
	select {
	case s.ops <- fn:
	case <-s.stop:
	}
}

// Stop cancels the mailbox goroutine and any pending timer, per Design
// Notes §5's "session destruction cancels pending timers".
func (s *Session) Stop() {
	close(s.stop)
	<-s.done
}

// Snapshot returns the data GET /getUsers/:sid needs, safe to call
// concurrently with the mailbox goroutine.
func (s *Session) Snapshot() (owner string, order []string, users map[string]*Participant) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order = append([]string(nil), s.UserOrder...)
	users = make(map[string]*Participant, len(s.Users))
	for k, v := range s.Users {
		cp := *v
		users[k] = &cp
	}
	return s.OwnerID, order, users
}

func (s *Session) setUserOrder(order []string) {
	s.mu.Lock()
	s.UserOrder = order
	s.mu.Unlock()
}

func (s *Session) addUser(p *Participant) {
	s.mu.Lock()
	s.Users[p.UserID] = p
	s.UserOrder = append(s.UserOrder, p.UserID)
	s.mu.Unlock()
}

func (s *Session) dropUser(userID string) {
	s.mu.Lock()
	delete(s.Users, userID)
	for i, id := range s.UserOrder {
		if id == userID {
			s.UserOrder = append(s.UserOrder[:i:i], s.UserOrder[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Broadcast sends event/payload to every session member, including the
// non-playing owner. Exported for gateway handlers (chatMessage) that
// have no dedicated Session method of their own.
func (s *Session) Broadcast(event string, payload interface{}) {
	s.broadcast(event, payload, "")
}

// broadcast sends event/payload to every session member plus the
// non-playing owner, optionally skipping one user id (the "not echoed
// to the initiating owner" rule for option changes).
func (s *Session) broadcast(event string, payload interface{}, except string) {
	s.mu.RLock()
	order := append([]string(nil), s.UserOrder...)
	owner, ownerIsPlayer := s.OwnerID, s.OwnerIsPlayer
	s.mu.RUnlock()

	sent := make(map[string]bool, len(order)+1)
	for _, uid := range order {
		if uid == except {
			continue
		}
		s.emit.Emit(uid, event, payload)
		sent[uid] = true
	}
	if !ownerIsPlayer && owner != "" && owner != except && !sent[owner] {
		s.emit.Emit(owner, event, payload)
	}
}

// Join adds a participant. Disallowed mid-draft without being recorded
// as a reconnect (callers check DisconnectedUsers first); this is the
// fresh-join path only.
func (s *Session) Join(p *Participant) {
	s.addUser(p)
	if s.OwnerID == "" {
		s.OwnerID = p.UserID
	}
	s.log.Info().Str("user", p.UserID).Msg("participant joined")
	s.broadcast("sessionUsers", s.userInfos(), "")
}

// Leave removes a participant who is not mid-draft. Mid-draft
// disconnects must go through Disconnect instead so their snapshot is
// preserved.
func (s *Session) Leave(userID string) {
	wasOwner := s.OwnerID == userID
	s.dropUser(userID)

	s.mu.RLock()
	remaining := len(s.UserOrder)
	var nextOwner string
	if remaining > 0 {
		nextOwner = s.UserOrder[0]
	}
	s.mu.RUnlock()

	if wasOwner && remaining > 0 {
		s.OwnerID = nextOwner
		s.broadcast("sessionOwner", map[string]string{"sessionOwner": nextOwner}, "")
	}
	s.log.Info().Str("user", userID).Msg("participant left")
	s.broadcast("sessionUsers", s.userInfos(), "")
}

// Disconnect freezes the draft for userID, per Design Notes' "disconnect
// is the only cancellation": timer paused, a snapshot saved so the seat
// can be resumed on reconnect or taken over by ReplaceDisconnectedPlayers.
// Outside an active draft it is a plain Leave and keeps no snapshot.
func (s *Session) Disconnect(userID string) {
	drafting := s.Phase == PhaseDrafting
	if !drafting {
		if _, ok := s.Users[userID]; ok {
			s.Leave(userID)
		}
		return
	}

	s.mu.Lock()
	p, ok := s.Users[userID]
	if ok {
		delete(s.Users, userID)
		if drafting {
			s.DisconnectedUsers[userID] = p
		}
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	if drafting {
		s.Phase = PhasePaused
		s.stopTimer()
	}
	s.log.Info().Str("user", userID).Msg("participant disconnected")
	s.broadcast("userDisconnected", []string{userID}, "")
}

// Reconnect restores a previously disconnected participant under the
// same UserID, resuming the timer and notifying the owner, matching
// scenario 4's "Player reconnected" message.
func (s *Session) Reconnect(userID string) bool {
	s.mu.Lock()
	p, ok := s.DisconnectedUsers[userID]
	if ok {
		delete(s.DisconnectedUsers, userID)
		s.Users[userID] = p
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.log.Info().Str("user", userID).Msg("participant reconnected")
	if s.OwnerID != userID {
		s.emit.Emit(s.OwnerID, "message", map[string]interface{}{"title": "Player reconnected", "text": p.UserName + " reconnected."})
	}
	if s.Phase == PhasePaused && len(s.DisconnectedUsers) == 0 {
		s.Phase = PhaseDrafting
		s.resumeTimer()
	}
	s.emit.Emit(userID, "rejoinDraft", s.rejoinState(userID))
	return true
}

type userInfo struct {
	UserID   string `json:"userID"`
	UserName string `json:"userName"`
	IsBot    bool   `json:"isBot,omitempty"`
}

func (s *Session) userInfos() []userInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]userInfo, 0, len(s.UserOrder))
	for _, uid := range s.UserOrder {
		p := s.Users[uid]
		if p == nil {
			continue
		}
		out = append(out, userInfo{UserID: p.UserID, UserName: p.UserName, IsBot: p.IsBot})
	}
	return out
}

// SetUserName updates a participant's display name. No-op if userID isn't
// currently seated (e.g. a stale frame racing a disconnect).
func (s *Session) SetUserName(userID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.Users[userID]; p != nil {
		p.UserName = name
	}
}

// SetCollection replaces a participant's known collection, consulted by
// the booster generator when UseCollection is set.
func (s *Session) SetCollection(userID string, collection map[catalog.CardID]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.Users[userID]; p != nil {
		p.Collection = collection
	}
}

// SetUseCollection toggles whether a participant's collection restricts
// the boosters they're dealt.
func (s *Session) SetUseCollection(userID string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.Users[userID]; p != nil {
		p.UseCollection = v
	}
}

// SetSessionOwner implements the explicit owner-transfer operation;
// newID must already be seated and different from the current owner.
func (s *Session) SetSessionOwner(callerID, newID string) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	s.mu.RLock()
	_, ok := s.Users[newID]
	s.mu.RUnlock()
	if !ok || newID == s.OwnerID {
		return nil
	}
	s.OwnerID = newID
	s.broadcast("sessionOwner", map[string]string{"sessionOwner": newID}, "")
	return nil
}

// RemovePlayer moves userID out of this session into a freshly allocated
// one, identified by newSessionID, notifying them via setSession.
func (s *Session) RemovePlayer(callerID, userID, newSessionID string) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	s.mu.RLock()
	_, ok := s.Users[userID]
	s.mu.RUnlock()
	if !ok {
		return ErrUnknownUser
	}

	s.Leave(userID)
	s.emit.Emit(userID, "setSession", map[string]string{"sessionID": newSessionID})
	s.emit.Emit(userID, "message", map[string]interface{}{"title": "Removed", "text": "You were removed from the session."})
	return nil
}

func (s *Session) rejoinState(userID string) interface{} {
	type rejoin = struct {
		Phase Phase       `json:"phase"`
		Kind  string      `json:"kind,omitempty"`
		Pack  interface{} `json:"pack,omitempty"`
	}
	r := rejoin{Phase: s.Phase}
	if s.Draft != nil {
		r.Kind = s.Draft.Kind().String()
	}
	if pack := s.CurrentPack(userID); pack != nil {
		r.Pack = pack
	}
	return r
}
