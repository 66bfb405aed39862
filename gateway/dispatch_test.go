package gateway

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/registry"
	"github.com/TheBarnacle/MTGADraft/session"
)

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
	data, err := encJSON(raw)
	require.NoError(t, err)
	cat, err := catalog.Load(data)
	require.NoError(t, err)
	return cat
}

func encJSON(v interface{}) ([]byte, error) { return json.Marshal(v) }

func newTestGateway(t *testing.T) (*Gateway, *registry.Registry) {
	t.Helper()
	gw := New(JSONCodec{}, zerolog.Nop())
	reg := registry.New(testCatalog(t), gw, nil, nil, zerolog.Nop())
	gw.AttachRegistry(reg)
	return gw, reg
}

// waitIdle blocks until every op enqueued on s before this call has run,
// giving the test a synchronous checkpoint after an async dispatch.
func waitIdle(t *testing.T, s *session.Session) {
	t.Helper()
	done := make(chan struct{})
	s.Enqueue(func(*session.Session) { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session mailbox did not drain in time")
	}
}

func joinedSession(t *testing.T, reg *registry.Registry, userID, sessionID string) *session.Session {
	t.Helper()
	resolved, renamed := reg.Join(userID, sessionID)
	require.False(t, renamed)
	sess := reg.SessionFor(sessionID, resolved)
	t.Cleanup(sess.Stop)
	done := make(chan struct{})
	sess.Enqueue(func(s *session.Session) {
		s.Join(&session.Participant{UserID: resolved})
		close(done)
	})
	<-done
	return sess
}

func TestDispatchUnknownEventIsDroppedNotErrored(t *testing.T) {
	gw, _ := newTestGateway(t)
	ic := &inboundCtx{userID: "alice", sessionID: "sess1"}
	err := gw.dispatch(ic, "thisEventDoesNotExist", nil)
	assert.NoError(t, err)
}

func TestDispatchSetUserNameUpdatesParticipant(t *testing.T) {
	gw, reg := newTestGateway(t)
	sess := joinedSession(t, reg, "alice", "sess1")
	ic := &inboundCtx{userID: "alice", sessionID: "sess1"}

	body, err := encJSON("Alicia")
	require.NoError(t, err)
	require.NoError(t, gw.dispatch(ic, "setUserName", body))
	waitIdle(t, sess)

	_, _, users := sess.Snapshot()
	require.Contains(t, users, "alice")
	assert.Equal(t, "Alicia", users["alice"].UserName)
}

func TestDispatchSetCollectionAndUseCollection(t *testing.T) {
	gw, reg := newTestGateway(t)
	sess := joinedSession(t, reg, "alice", "sess1")
	ic := &inboundCtx{userID: "alice", sessionID: "sess1"}

	collBody, err := encJSON(map[catalog.CardID]int{"c0": 4})
	require.NoError(t, err)
	require.NoError(t, gw.dispatch(ic, "setCollection", collBody))

	useBody, err := encJSON(true)
	require.NoError(t, err)
	require.NoError(t, gw.dispatch(ic, "useCollection", useBody))
	waitIdle(t, sess)

	_, _, users := sess.Snapshot()
	require.Contains(t, users, "alice")
	assert.Equal(t, 4, users["alice"].Collection["c0"])
	assert.True(t, users["alice"].UseCollection)
}

func TestDispatchMalformedPayloadIsDroppedSilently(t *testing.T) {
	gw, reg := newTestGateway(t)
	sess := joinedSession(t, reg, "alice", "sess1")
	ic := &inboundCtx{userID: "alice", sessionID: "sess1"}

	// setUserName expects a JSON string; feed it an object instead.
	err := gw.dispatch(ic, "setUserName", json.RawMessage(`{"not":"a string"}`))
	assert.NoError(t, err)
	waitIdle(t, sess)

	_, _, users := sess.Snapshot()
	assert.Equal(t, "", users["alice"].UserName)
}

func TestRegistryJoinRenamesOnUserIDCollision(t *testing.T) {
	_, reg := newTestGateway(t)
	resolved1, renamed1 := reg.Join("alice", "sess1")
	require.False(t, renamed1)

	resolved2, renamed2 := reg.Join("alice", "sess2")
	assert.True(t, renamed2)
	assert.NotEqual(t, "alice", resolved2)
	assert.Equal(t, "alice", resolved1)
}

func TestResolvePickIndicesTranslatesWireIndexToCardID(t *testing.T) {
	cat := testCatalog(t)
	s := session.New("sess1", "owner", cat, noopEmitter{}, nil, zerolog.Nop())
	s.Options.MaxRarity = catalog.RarityCommon
	s.Options.BoostersPerPlayer = 1
	s.Options.PickTimer = 0
	s.Run()
	t.Cleanup(s.Stop)

	done := make(chan struct{})
	var startErr error
	s.Enqueue(func(s *session.Session) {
		s.Join(&session.Participant{UserID: "owner"})
		s.Join(&session.Participant{UserID: "p2"})
		startErr = s.StartDraft("owner")
		close(done)
	})
	<-done
	require.NoError(t, startErr)

	var sel catalog.CardID
	var ok bool
	done2 := make(chan struct{})
	s.Enqueue(func(s *session.Session) {
		sel, _, ok = resolvePickIndices(s, "owner", pickCardPayload{SelectedCard: 0})
		close(done2)
	})
	<-done2
	require.True(t, ok)
	assert.NotEmpty(t, sel)
}

func TestResolvePickIndicesRejectsOutOfRange(t *testing.T) {
	cat := testCatalog(t)
	s := session.New("sess1", "owner", cat, noopEmitter{}, nil, zerolog.Nop())
	s.Options.MaxRarity = catalog.RarityCommon
	s.Options.BoostersPerPlayer = 1
	s.Options.PickTimer = 0
	s.Run()
	t.Cleanup(s.Stop)

	done := make(chan struct{})
	var startErr error
	s.Enqueue(func(s *session.Session) {
		s.Join(&session.Participant{UserID: "owner"})
		s.Join(&session.Participant{UserID: "p2"})
		startErr = s.StartDraft("owner")
		close(done)
	})
	<-done
	require.NoError(t, startErr)

	var ok bool
	done2 := make(chan struct{})
	s.Enqueue(func(s *session.Session) {
		_, _, ok = resolvePickIndices(s, "owner", pickCardPayload{SelectedCard: 9999})
		close(done2)
	})
	<-done2
	assert.False(t, ok)
}

// noopEmitter discards every event, standing in for the gateway's real
// Registry-backed Emitter in tests that only exercise Session internals.
type noopEmitter struct{}

func (noopEmitter) Emit(userID, event string, payload interface{}) {}
