package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBarnacle/MTGADraft/catalog"
)

// fakeEmitter records every Emit call, keyed by userID then event, safe
// for the timer goroutine's concurrent Enqueue-driven ticks.
type fakeEmitter struct {
	mu     sync.Mutex
	events map[string][]string
	last   map[string]map[string]interface{}
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{events: make(map[string][]string), last: make(map[string]map[string]interface{})}
}

func (f *fakeEmitter) Emit(userID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[userID] = append(f.events[userID], event)
	if f.last[userID] == nil {
		f.last[userID] = make(map[string]interface{})
	}
	f.last[userID][event] = payload
}

func (f *fakeEmitter) count(userID, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events[userID] {
		if e == event {
			n++
		}
	}
	return n
}

// run enqueues fn onto the session's mailbox and blocks until it (and
// everything enqueued before it) has executed, giving tests a
// synchronous view of an otherwise asynchronous mailbox.
func run(t *testing.T, s *Session, fn func(*Session)) {
	t.Helper()
	done := make(chan struct{})
	s.Enqueue(func(s *Session) {
		fn(s)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mailbox op timed out")
	}
}

// testCatalog builds a small card pool: enough unique commons, across
// every color, to satisfy a common-only booster target (14 commons) with
// room to spare for several rounds.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cards := make(map[string]interface{})
	colors := []string{"W", "U", "B", "R", "G"}
	for i := 0; i < 40; i++ {
		cards[fmt.Sprintf("c%d", i)] = map[string]interface{}{
			"set": "tst", "rarity": "common", "colorIdentity": colors[i%len(colors)], "inBooster": true,
		}
	}
	raw := map[string]interface{}{"cards": cards, "setList": []string{"tst"}, "jumpstartThemes": []interface{}{}}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	cat, err := catalog.Load(data)
	require.NoError(t, err)
	return cat
}

func newTestSession(t *testing.T) (*Session, *fakeEmitter) {
	t.Helper()
	emit := newFakeEmitter()
	s := New("sess1", "owner", testCatalog(t), emit, nil, zerolog.Nop())
	s.Options.MaxRarity = catalog.RarityCommon
	s.Options.BoostersPerPlayer = 1
	s.Options.PickTimer = 0
	s.Run()
	t.Cleanup(s.Stop)
	return s, emit
}

func TestJoinLeaveOwnerHandoff(t *testing.T) {
	s, emit := newTestSession(t)

	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner", UserName: "Owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2", UserName: "P2"}) })

	_, order, users := s.Snapshot()
	assert.Equal(t, []string{"owner", "p2"}, order)
	assert.Len(t, users, 2)

	run(t, s, func(s *Session) { s.Leave("owner") })
	owner, order, _ := s.Snapshot()
	assert.Equal(t, "p2", owner)
	assert.Equal(t, []string{"p2"}, order)
	assert.Equal(t, 1, emit.count("p2", "sessionOwner"))
}

func TestStartDraftRequiresTwoPlayers(t *testing.T) {
	s, _ := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })

	var err error
	run(t, s, func(s *Session) { err = s.StartDraft("owner") })
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestStartDraftRejectsNonOwner(t *testing.T) {
	s, _ := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	var err error
	run(t, s, func(s *Session) { err = s.StartDraft("p2") })
	assert.ErrorIs(t, err, ErrNotOwner)
}

// TestTraditionalDraftRunsToCompletion drives a full two-human,
// one-booster-per-player draft (no burns) to its end and checks every
// participant leaves with exactly 14 cards, matching the common-only
// booster target.
func TestTraditionalDraftRunsToCompletion(t *testing.T) {
	s, emit := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	var startErr error
	run(t, s, func(s *Session) { startErr = s.StartDraft("owner") })
	require.NoError(t, startErr)
	assert.Equal(t, PhaseDrafting, s.Phase)
	require.Equal(t, 1, emit.count("owner", "nextBooster"))

	for round := 0; round < 14; round++ {
		var ownerPack, p2Pack interface{}
		run(t, s, func(s *Session) {
			ownerPack = s.last("owner", "nextBooster")
			p2Pack = s.last("p2", "nextBooster")
		})
		require.NotNil(t, ownerPack)
		require.NotNil(t, p2Pack)

		var err1, err2 error
		var ownerEmpty, p2Empty bool
		run(t, s, func(s *Session) {
			pack := s.CurrentPack("owner")
			ownerEmpty = len(pack) == 0
			if !ownerEmpty {
				err1 = s.PickCard("owner", pack[0], nil)
			}
		})
		require.False(t, ownerEmpty)
		require.NoError(t, err1)
		run(t, s, func(s *Session) {
			pack := s.CurrentPack("p2")
			p2Empty = len(pack) == 0
			if !p2Empty {
				err2 = s.PickCard("p2", pack[0], nil)
			}
		})
		require.False(t, p2Empty)
		require.NoError(t, err2)
	}

	assert.Equal(t, PhaseEnded, s.Phase)
	_, _, users := s.Snapshot()
	assert.Len(t, users["owner"].PickedCards, 14)
	assert.Len(t, users["p2"].PickedCards, 14)
	assert.Equal(t, 1, emit.count("owner", "endDraft"))
}

func TestPickCardRejectsCardNotInBooster(t *testing.T) {
	s, _ := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	var startErr error
	run(t, s, func(s *Session) { startErr = s.StartDraft("owner") })
	require.NoError(t, startErr)

	var err error
	run(t, s, func(s *Session) { err = s.PickCard("owner", catalog.CardID("not-a-real-card"), nil) })
	assert.ErrorIs(t, err, ErrCardNotInBooster)
}

func TestPickCardRejectsDoublePick(t *testing.T) {
	s, _ := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	var startErr error
	run(t, s, func(s *Session) { startErr = s.StartDraft("owner") })
	require.NoError(t, startErr)

	var first, second error
	var packEmpty bool
	run(t, s, func(s *Session) {
		pack := s.CurrentPack("owner")
		packEmpty = len(pack) == 0
		if !packEmpty {
			first = s.PickCard("owner", pack[0], nil)
			second = s.PickCard("owner", pack[0], nil)
		}
	})
	require.False(t, packEmpty)
	assert.NoError(t, first)
	assert.ErrorIs(t, second, ErrAlreadyPicked)
}

// TestDisconnectPausesAndReplaceSubstitutesBot drives a disconnect mid
// draft, confirms the draft pauses, then exercises
// ReplaceDisconnectedPlayers and confirms the draft resumes with a bot
// seated in the disconnected participant's place.
func TestDisconnectPausesAndReplaceSubstitutesBot(t *testing.T) {
	s, _ := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	var startErr error
	run(t, s, func(s *Session) { startErr = s.StartDraft("owner") })
	require.NoError(t, startErr)

	run(t, s, func(s *Session) { s.Disconnect("p2") })
	assert.Equal(t, PhasePaused, s.Phase)

	var err error
	run(t, s, func(s *Session) { err = s.ReplaceDisconnectedPlayers("owner") })
	require.NoError(t, err)
	assert.Equal(t, PhaseDrafting, s.Phase)

	var substituted bool
	run(t, s, func(s *Session) { substituted = s.seats[1].Substituted })
	assert.True(t, substituted)
}

// TestDisconnectOutsideDraftingDoesNotSnapshot confirms a disconnect
// while idle behaves like a plain drop, not a rejoinable pause: no entry
// is kept in DisconnectedUsers since there is no paused draft to resume.
func TestDisconnectOutsideDraftingDoesNotSnapshot(t *testing.T) {
	s, _ := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	run(t, s, func(s *Session) { s.Disconnect("p2") })

	var snapshotted bool
	var stillUser bool
	run(t, s, func(s *Session) {
		_, snapshotted = s.DisconnectedUsers["p2"]
		_, stillUser = s.Users["p2"]
	})
	assert.False(t, snapshotted)
	assert.False(t, stillUser)
	assert.Equal(t, PhaseIdle, s.Phase)
}

// TestReconnectRestoresSeatAndPopulatesRejoinState drives a mid-draft
// disconnect/reconnect cycle and confirms Reconnect both resumes the
// draft and ships a rejoinDraft payload carrying the draft kind and the
// participant's current pack, not just the phase.
func TestReconnectRestoresSeatAndPopulatesRejoinState(t *testing.T) {
	s, emit := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	var startErr error
	run(t, s, func(s *Session) { startErr = s.StartDraft("owner") })
	require.NoError(t, startErr)

	run(t, s, func(s *Session) { s.Disconnect("p2") })
	assert.Equal(t, PhasePaused, s.Phase)

	var reconnected bool
	run(t, s, func(s *Session) { reconnected = s.Reconnect("p2") })
	assert.True(t, reconnected)
	assert.Equal(t, PhaseDrafting, s.Phase)

	payload := s.last("p2", "rejoinDraft")
	require.NotNil(t, payload)
	rejoin, ok := payload.(struct {
		Phase Phase       `json:"phase"`
		Kind  string      `json:"kind,omitempty"`
		Pack  interface{} `json:"pack,omitempty"`
	})
	require.True(t, ok)
	assert.Equal(t, "traditional", rejoin.Kind)
	assert.NotNil(t, rejoin.Pack)
}

func TestSetOptionsOwnerGatedAndIdempotent(t *testing.T) {
	s, emit := newTestSession(t)
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "owner"}) })
	run(t, s, func(s *Session) { s.Join(&Participant{UserID: "p2"}) })

	var err error
	run(t, s, func(s *Session) { err = s.SetBoostersPerPlayer("p2", 5) })
	assert.ErrorIs(t, err, ErrNotOwner)

	run(t, s, func(s *Session) { err = s.SetBoostersPerPlayer("owner", 5) })
	require.NoError(t, err)
	assert.Equal(t, 5, s.Options.BoostersPerPlayer)
	assert.Equal(t, 1, emit.count("p2", "boostersPerPlayer"))
	assert.Equal(t, 0, emit.count("owner", "boostersPerPlayer")) // not echoed to the caller

	run(t, s, func(s *Session) { err = s.SetBoostersPerPlayer("owner", 5) })
	require.NoError(t, err)
	assert.Equal(t, 1, emit.count("p2", "boostersPerPlayer")) // idempotent, no second broadcast
}

// last is a test-only helper reaching into fakeEmitter through the
// Session's Emitter field, since Session itself has no public accessor
// for "what was last sent to this user".
func (s *Session) last(userID, event string) interface{} {
	fe, ok := s.emit.(*fakeEmitter)
	if !ok {
		return nil
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last[userID][event]
}
