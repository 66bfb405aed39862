package gateway

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/session"
)

type handlerFunc func(g *Gateway, ic *inboundCtx, body RawMessage)

// dispatchTable is the one-to-one mapping from inbound event name to a
// Session method, per spec §4.7. Every handler resolves the caller's
// current Session and enqueues a closure onto its mailbox so the
// mutation is serialized with every other op on that session.
var dispatchTable = map[string]handlerFunc{
	"setUserName":                handleSetUserName,
	"setSession":                 handleSetSession,
	"setCollection":              handleSetCollection,
	"useCollection":              handleUseCollection,
	"chatMessage":                handleChatMessage,
	"startDraft":                 handleStartDraft,
	"pickCard":                   handlePickCard,
	"setSessionOwner":            handleSetSessionOwner,
	"removePlayer":               handleRemovePlayer,
	"boostersPerPlayer":          handleBoostersPerPlayer,
	"bots":                       handleBots,
	"setRestriction":             handleSetRestriction,
	"ignoreCollections":          handleIgnoreCollections,
	"setPickTimer":               handleSetPickTimer,
	"setMaxPlayers":              handleSetMaxPlayers,
	"setMaxRarity":               handleSetMaxRarity,
	"setColorBalance":            handleSetColorBalance,
	"setUseCustomCardList":       handleSetUseCustomCardList,
	"setFoil":                    handleSetFoil,
	"setPublic":                  handleSetPublic,
	"setMaxDuplicates":           handleSetMaxDuplicates,
	"setBurnedCardsPerRound":     handleSetBurnedCardsPerRound,
	"setCustomBoosters":          handleSetCustomBoosters,
	"setDistributionMode":        handleSetDistributionMode,
	"replaceDisconnectedPlayers": handleReplaceDisconnectedPlayers,
	"distributeSealed":           handleDistributeSealed,
	"distributeJumpstart":        handleDistributeJumpstart,
	"startWinstonDraft":          handleStartWinstonDraft,
	"winstonDraftTakePile":       handleWinstonTake,
	"winstonDraftSkipPile":       handleWinstonSkip,
}

func (g *Gateway) dispatch(ic *inboundCtx, event string, body RawMessage) error {
	h, ok := dispatchTable[event]
	if !ok {
		g.log.Debug().Str("event", event).Msg("unknown inbound event, dropped")
		return nil
	}
	h(g, ic, body)
	return nil
}

// withSession resolves ic's current session and enqueues fn onto its
// mailbox; a lookup miss (stale/already-destroyed session) is logged
// and dropped, matching spec's "server never crashes on client input".
func (g *Gateway) withSession(ic *inboundCtx, fn func(s *session.Session)) {
	sessionID, ok := g.registry.Lookup(ic.userID)
	if !ok {
		return
	}
	sess := g.registry.SessionFor(sessionID, ic.userID)
	sess.Enqueue(fn)
}

func decode(body RawMessage, v interface{}) bool {
	return json.Unmarshal(body, v) == nil
}

func handleSetUserName(g *Gateway, ic *inboundCtx, body RawMessage) {
	var name string
	if !decode(body, &name) {
		return
	}
	g.withSession(ic, func(s *session.Session) { s.SetUserName(ic.userID, name) })
}

func handleSetSession(g *Gateway, ic *inboundCtx, body RawMessage) {
	var newSessionID string
	if !decode(body, &newSessionID) {
		return
	}
	g.withSession(ic, func(s *session.Session) { s.Leave(ic.userID) })
	g.registry.Move(ic.userID, newSessionID)
	newSess := g.registry.SessionFor(newSessionID, ic.userID)
	p := &session.Participant{UserID: ic.userID}
	newSess.Enqueue(func(s *session.Session) { s.Join(p) })
	ic.sessionID = newSessionID
}

func handleSetCollection(g *Gateway, ic *inboundCtx, body RawMessage) {
	var collection map[catalog.CardID]int
	if !decode(body, &collection) {
		return
	}
	g.withSession(ic, func(s *session.Session) { s.SetCollection(ic.userID, collection) })
}

func handleUseCollection(g *Gateway, ic *inboundCtx, body RawMessage) {
	var v bool
	if !decode(body, &v) {
		return
	}
	g.withSession(ic, func(s *session.Session) { s.SetUseCollection(ic.userID, v) })
}

func handleChatMessage(g *Gateway, ic *inboundCtx, body RawMessage) {
	var msg struct {
		Text string `json:"text"`
	}
	if !decode(body, &msg) {
		return
	}
	if len(msg.Text) > 255 {
		msg.Text = msg.Text[:255]
	}
	g.withSession(ic, func(s *session.Session) {
		s.Broadcast("chatMessage", map[string]string{"userID": ic.userID, "text": msg.Text})
	})
}

func handleStartDraft(g *Gateway, ic *inboundCtx, _ RawMessage) {
	g.withSession(ic, func(s *session.Session) { _ = s.StartDraft(ic.userID) })
}

// pickCardPayload accepts the structured object canonical form and
// falls back to a bare integer (selectedCard only), per SPEC_FULL's
// Open Questions decision.
type pickCardPayload struct {
	SelectedCard int   `json:"selectedCard"`
	BurnedCards  []int `json:"burnedCards"`
}

func handlePickCard(g *Gateway, ic *inboundCtx, body RawMessage) {
	var p pickCardPayload
	if !decode(body, &p) {
		var bare int
		if !decode(body, &bare) {
			return
		}
		p = pickCardPayload{SelectedCard: bare}
	}

	g.withSession(ic, func(s *session.Session) {
		sel, burns, ok := resolvePickIndices(s, ic.userID, p)
		if !ok {
			g.Send(ic.userID, "pickCard_ack", map[string]interface{}{"code": 1, "error": "invalid selection"})
			return
		}
		if err := s.PickCard(ic.userID, sel, burns); err != nil {
			g.Send(ic.userID, "pickCard_ack", map[string]interface{}{"code": 1, "error": err.Error()})
			return
		}
		g.Send(ic.userID, "pickCard_ack", map[string]interface{}{"code": 0})
	})
}

// resolvePickIndices translates the wire payload's integer indices back
// into CardIDs against the participant's currently assigned booster.
func resolvePickIndices(s *session.Session, userID string, p pickCardPayload) (catalog.CardID, []catalog.CardID, bool) {
	pack := s.CurrentPack(userID)
	if pack == nil || p.SelectedCard < 0 || p.SelectedCard >= len(pack) {
		return "", nil, false
	}
	sel := pack[p.SelectedCard]
	var burns []catalog.CardID
	for _, idx := range p.BurnedCards {
		if idx < 0 || idx >= len(pack) {
			return "", nil, false
		}
		burns = append(burns, pack[idx])
	}
	return sel, burns, true
}

func handleSetSessionOwner(g *Gateway, ic *inboundCtx, body RawMessage) {
	var newOwner string
	if !decode(body, &newOwner) {
		return
	}
	g.withSession(ic, func(s *session.Session) { _ = s.SetSessionOwner(ic.userID, newOwner) })
}

func handleRemovePlayer(g *Gateway, ic *inboundCtx, body RawMessage) {
	var target string
	if !decode(body, &target) {
		return
	}
	newID := randomSessionID()
	g.withSession(ic, func(s *session.Session) { _ = s.RemovePlayer(ic.userID, target, newID) })
	g.registry.Move(target, newID)
}

func handleBoostersPerPlayer(g *Gateway, ic *inboundCtx, body RawMessage) {
	var n int
	if decode(body, &n) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetBoostersPerPlayer(ic.userID, n) })
	}
}

func handleBots(g *Gateway, ic *inboundCtx, body RawMessage) {
	var n int
	if decode(body, &n) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetBots(ic.userID, n) })
	}
}

func handleSetRestriction(g *Gateway, ic *inboundCtx, body RawMessage) {
	var codes []string
	if decode(body, &codes) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetSetRestriction(ic.userID, codes) })
	}
}

func handleIgnoreCollections(g *Gateway, ic *inboundCtx, body RawMessage) {
	var v bool
	if decode(body, &v) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetIgnoreCollections(ic.userID, v) })
	}
}

func handleSetPickTimer(g *Gateway, ic *inboundCtx, body RawMessage) {
	var n int
	if decode(body, &n) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetPickTimer(ic.userID, n) })
	}
}

func handleSetMaxPlayers(g *Gateway, ic *inboundCtx, body RawMessage) {
	var n int
	if decode(body, &n) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetMaxPlayers(ic.userID, n) })
	}
}

func handleSetMaxRarity(g *Gateway, ic *inboundCtx, body RawMessage) {
	var r string
	if decode(body, &r) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetMaxRarity(ic.userID, catalog.Rarity(r)) })
	}
}

func handleSetColorBalance(g *Gateway, ic *inboundCtx, body RawMessage) {
	var v bool
	if decode(body, &v) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetColorBalance(ic.userID, v) })
	}
}

func handleSetUseCustomCardList(g *Gateway, ic *inboundCtx, body RawMessage) {
	var v bool
	if decode(body, &v) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetUseCustomCardList(ic.userID, v) })
	}
}

func handleSetFoil(g *Gateway, ic *inboundCtx, body RawMessage) {
	var v bool
	if decode(body, &v) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetFoil(ic.userID, v) })
	}
}

func handleSetPublic(g *Gateway, ic *inboundCtx, body RawMessage) {
	var v bool
	if decode(body, &v) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetPublic(ic.userID, v) })
		if v {
			g.registry.SetPublic(ic.sessionID, true)
		} else {
			g.registry.SetPublic(ic.sessionID, false)
		}
	}
}

func handleSetMaxDuplicates(g *Gateway, ic *inboundCtx, body RawMessage) {
	var m map[catalog.Rarity]int
	if decode(body, &m) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetMaxDuplicates(ic.userID, m) })
	}
}

func handleSetBurnedCardsPerRound(g *Gateway, ic *inboundCtx, body RawMessage) {
	var n int
	if decode(body, &n) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetBurnedCardsPerRound(ic.userID, n) })
	}
}

func handleSetCustomBoosters(g *Gateway, ic *inboundCtx, body RawMessage) {
	var codes []string
	if decode(body, &codes) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetCustomBoosters(ic.userID, codes) })
	}
}

func handleSetDistributionMode(g *Gateway, ic *inboundCtx, body RawMessage) {
	var mode string
	if decode(body, &mode) {
		g.withSession(ic, func(s *session.Session) { _ = s.SetDistributionMode(ic.userID, mode) })
	}
}

func handleReplaceDisconnectedPlayers(g *Gateway, ic *inboundCtx, _ RawMessage) {
	g.withSession(ic, func(s *session.Session) { _ = s.ReplaceDisconnectedPlayers(ic.userID) })
}

func handleDistributeSealed(g *Gateway, ic *inboundCtx, body RawMessage) {
	var n int
	if decode(body, &n) {
		g.withSession(ic, func(s *session.Session) { _ = s.DistributeSealed(ic.userID, n) })
	}
}

func handleDistributeJumpstart(g *Gateway, ic *inboundCtx, _ RawMessage) {
	g.withSession(ic, func(s *session.Session) { _ = s.DistributeJumpstart(ic.userID) })
}

func handleStartWinstonDraft(g *Gateway, ic *inboundCtx, body RawMessage) {
	var n int
	if decode(body, &n) {
		g.withSession(ic, func(s *session.Session) { _ = s.StartWinstonDraft(ic.userID, n) })
	}
}

func handleWinstonTake(g *Gateway, ic *inboundCtx, _ RawMessage) {
	g.withSession(ic, func(s *session.Session) { _ = s.WinstonTake(ic.userID) })
}

func handleWinstonSkip(g *Gateway, ic *inboundCtx, _ RawMessage) {
	g.withSession(ic, func(s *session.Session) { _ = s.WinstonSkip(ic.userID) })
}

// randomSessionID mints a fresh session id for RemovePlayer's reallocation,
// grounded in registry's own randomID convention (crypto/rand, hex-encoded).
func randomSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
