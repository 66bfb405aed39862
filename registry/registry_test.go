package registry

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBarnacle/MTGADraft/catalog"
)

// fakeSink records every Send call, keyed by userID, mirroring the
// gateway's real per-connection delivery without any transport involved.
type fakeSink struct {
	mu   sync.Mutex
	sent map[string][]string
}

func newFakeSink() *fakeSink {
	return &fakeSink{sent: make(map[string][]string)}
}

func (f *fakeSink) Send(userID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[userID] = append(f.sent[userID], event)
}

func (f *fakeSink) count(userID, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.sent[userID] {
		if e == event {
			n++
		}
	}
	return n
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cards := make(map[string]interface{})
	for i := 0; i < 10; i++ {
		cards[fmt.Sprintf("c%d", i)] = map[string]interface{}{
			"set": "tst", "rarity": "common", "colorIdentity": "W", "inBooster": true,
		}
	}
	raw := map[string]interface{}{"cards": cards, "setList": []string{"tst"}, "jumpstartThemes": []interface{}{}}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	cat, err := catalog.Load(data)
	require.NoError(t, err)
	return cat
}

func newTestRegistry(t *testing.T) (*Registry, *fakeSink) {
	t.Helper()
	sink := newFakeSink()
	r := New(testCatalog(t), sink, nil, nil, zerolog.Nop())
	return r, sink
}

func TestJoinAssignsRequestedIDWhenFree(t *testing.T) {
	r, _ := newTestRegistry(t)
	resolved, renamed := r.Join("alice", "sess1")
	assert.Equal(t, "alice", resolved)
	assert.False(t, renamed)

	sid, ok := r.Lookup("alice")
	assert.True(t, ok)
	assert.Equal(t, "sess1", sid)
}

func TestJoinRenamesOnCollision(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, renamed := r.Join("alice", "sess1")
	require.False(t, renamed)

	resolved, renamed := r.Join("alice", "sess2")
	assert.True(t, renamed)
	assert.NotEqual(t, "alice", resolved)

	sid, ok := r.Lookup(resolved)
	require.True(t, ok)
	assert.Equal(t, "sess2", sid)

	// the original "alice" registration is untouched by the collision.
	sid, ok = r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "sess1", sid)
}

func TestPeekDoesNotCreateSession(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, ok := r.Peek("nonexistent")
	assert.False(t, ok)

	// confirm Peek really created nothing: SessionFor on the same id
	// should still hit the create-on-miss path, not find a prior one.
	s := r.SessionFor("nonexistent", "owner")
	t.Cleanup(s.Stop)
	s2, ok := r.Peek("nonexistent")
	assert.True(t, ok)
	assert.Same(t, s, s2)
}

func TestSessionForCreatesOnceAndReuses(t *testing.T) {
	r, _ := newTestRegistry(t)
	s1 := r.SessionFor("sess1", "owner")
	t.Cleanup(s1.Stop)
	s2 := r.SessionFor("sess1", "owner")
	assert.Same(t, s1, s2)
}

func TestLeaveTearsDownEmptySession(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.SessionFor("sess1", "owner")
	r.Join("owner", "sess1")

	// Leave stops the session itself when it empties; a fresh SessionFor
	// call for the same id must then mint a brand new one rather than
	// returning the torn-down instance.
	r.Leave("owner", "sess1", true)

	_, ok := r.Peek("sess1")
	assert.False(t, ok)
	_, ok = r.Lookup("owner")
	assert.False(t, ok)

	s2 := r.SessionFor("sess1", "owner")
	t.Cleanup(s2.Stop)
}

func TestLeaveKeepsSessionWhenNotEmpty(t *testing.T) {
	r, _ := newTestRegistry(t)
	s := r.SessionFor("sess1", "owner")
	t.Cleanup(s.Stop)
	r.Join("owner", "sess1")
	r.Join("p2", "sess1")

	r.Leave("p2", "sess1", false)

	got, ok := r.Peek("sess1")
	assert.True(t, ok)
	assert.Same(t, s, got)
}

func TestSetPublicBroadcastsToEveryParticipant(t *testing.T) {
	r, sink := newTestRegistry(t)
	r.Join("alice", "sess1")
	r.Join("bob", "sess2")

	r.SetPublic("sess1", true)
	assert.Equal(t, 1, sink.count("alice", "publicSessions"))
	assert.Equal(t, 1, sink.count("bob", "publicSessions"))

	// re-adding an already-public session is a no-op, no second broadcast.
	r.SetPublic("sess1", true)
	assert.Equal(t, 1, sink.count("alice", "publicSessions"))

	r.SetPublic("sess1", false)
	assert.Equal(t, 2, sink.count("alice", "publicSessions"))
}

func TestMoveReassignsParticipant(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Join("alice", "sess1")
	r.Move("alice", "sess2")

	sid, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "sess2", sid)
}

