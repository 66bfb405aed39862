package session

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/TheBarnacle/MTGADraft/bot"
	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/draft"
)

// seat is one position in the frozen virtual-player order: either a
// connected human, a pure bot, or a human substituted by a bot after
// ReplaceDisconnectedPlayers.
type seat struct {
	UserID      string
	IsBot       bool
	Substituted bool
	substitute  *bot.Bot
}

type nextBoosterPayload struct {
	Booster       booster.Booster `json:"booster"`
	BoosterNumber int             `json:"boosterNumber"`
	PickNumber    int             `json:"pickNumber"`
}

func cryptoSeed() int64 {
	var seedBuf [8]byte
	if _, err := cryptorand.Read(seedBuf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(seedBuf[:]))
}

func (s *Session) facts(id catalog.CardID) (catalog.CardFacts, error) {
	return s.cat.Facts(id)
}

// StartDraft begins the traditional rotation draft: owner-only, requires
// at least two virtual players, freezes seating, generates every pack
// up front, and deals the first round.
func (s *Session) StartDraft(callerID string) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	if s.Phase == PhaseDrafting || s.Phase == PhasePaused {
		return ErrAlreadyDrafting
	}

	s.mu.RLock()
	order := append([]string(nil), s.UserOrder...)
	s.mu.RUnlock()

	seats := make([]seat, 0, len(order)+s.Options.Bots)
	for _, uid := range order {
		seats = append(seats, seat{UserID: uid})
	}
	s.Bots = s.Bots[:0]
	for i := 0; i < s.Options.Bots; i++ {
		id := fmt.Sprintf("bot-%d", i)
		b := bot.New(id, i, s.facts)
		s.Bots = append(s.Bots, b)
		seats = append(seats, seat{UserID: id, IsBot: true, substitute: b})
	}
	if len(seats) < 2 {
		return ErrNotEnoughPlayers
	}
	s.seats = seats

	for _, uid := range order {
		if p := s.Users[uid]; p != nil {
			p.PickedCards = nil
			p.PickedThisRound = false
		}
	}

	packs, err := s.generateAllPacks(order)
	if err != nil {
		if be, ok := err.(*booster.BoosterError); ok {
			s.emit.Emit(s.OwnerID, "message", map[string]interface{}{
				"title": "Not enough cards", "text": be.Detail,
			})
		}
		return err
	}

	s.Draft = draft.NewTraditionalDraft(packs, len(seats), s.Options.BoostersPerPlayer)
	s.Phase = PhaseDrafting
	s.draftLog = &DraftLog{
		SessionID:      s.ID,
		Time:           time.Now().Unix(),
		SetRestriction: s.Options.SetRestriction,
		Boosters:       append([]booster.Booster(nil), packs...),
		Users:          make(map[string]DraftLogUser, len(seats)),
	}
	for _, st := range seats {
		s.draftLog.Users[st.UserID] = DraftLogUser{
			UserName: s.displayName(st),
			UserID:   st.UserID,
			IsBot:    st.IsBot,
		}
	}

	s.broadcast("startDraft", nil, "")
	s.dealRound()
	return nil
}

func (s *Session) displayName(st seat) string {
	if p := s.Users[st.UserID]; p != nil {
		return p.UserName
	}
	return st.UserID
}

// generateAllPacks produces every booster for the draft, one
// Generator.Generate call per round so customBoosters[i] can restrict a
// single round to one set, then applies the configured distribution
// mode.
func (s *Session) generateAllPacks(order []string) ([]booster.Booster, error) {
	gen := booster.NewGenerator(s.cat, cryptoSeed())

	supplies := make([]booster.ParticipantSupply, 0, len(order))
	for _, uid := range order {
		if p := s.Users[uid]; p != nil {
			supplies = append(supplies, p.supply())
		}
	}

	v := len(s.seats)
	var all []booster.Booster
	for r := 0; r < s.Options.BoostersPerPlayer; r++ {
		opts := s.Options.boosterOptions()
		if r < len(s.Options.CustomBoosters) && s.Options.CustomBoosters[r] != "" {
			opts.SetRestriction = []string{s.Options.CustomBoosters[r]}
		}
		packs, err := gen.Generate(supplies, opts, v)
		if err != nil {
			return nil, err
		}
		all = append(all, packs...)
	}

	shuffleRNG := mrand.New(mrand.NewSource(cryptoSeed()))
	switch s.Options.DistributionMode {
	case DistributionShufflePlayerBoosters:
		for pos := 0; pos < v; pos++ {
			var idxs []int
			for i := pos; i < len(all); i += v {
				idxs = append(idxs, i)
			}
			shuffleRNG.Shuffle(len(idxs), func(i, j int) {
				all[idxs[i]], all[idxs[j]] = all[idxs[j]], all[idxs[i]]
			})
		}
	case DistributionShuffleBoosterPool:
		shuffleRNG.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	}
	return all, nil
}

// dealRound hands out the current pack to every connected human seat and
// resolves every bot/substituted seat synchronously, then starts the
// pick timer. If no human seat is pending (every seat is a bot), it
// advances immediately.
func (s *Session) dealRound() {
	td := s.Draft.(*draft.TraditionalDraft)
	s.pickedThisRound = 0
	s.humanPending = 0

	for pos, st := range s.seats {
		pack := td.CurrentBooster(pos)
		if pack == nil {
			continue
		}
		if st.IsBot || st.Substituted {
			s.resolveBotPick(td, pos, st)
			continue
		}
		p := s.Users[st.UserID]
		if p == nil {
			continue // frozen by a pending disconnect; session should be Paused
		}
		s.mu.Lock()
		p.BoosterIndex = pos
		p.PickedThisRound = false
		s.mu.Unlock()
		s.humanPending++
		s.emit.Emit(st.UserID, "nextBooster", nextBoosterPayload{
			Booster: pack, BoosterNumber: td.BoosterNumber, PickNumber: td.PickNumber,
		})
	}

	s.startTimer(td.PickNumber)
	if s.humanPending == 0 {
		s.advanceAfterPicks()
	}
}

func (s *Session) resolveBotPick(td *draft.TraditionalDraft, pos int, st seat) {
	pack := td.CurrentBooster(pos)
	snapshot := append(booster.Booster(nil), pack...)

	b := st.substitute
	idx := b.Pick(pack)
	if idx < 0 {
		return
	}
	picked := pack[idx]
	td.RemoveCard(pos, picked)

	var burned []catalog.CardID
	for i := 0; i < s.Options.BurnedCardsPerRound; i++ {
		rest := td.CurrentBooster(pos)
		if len(rest) == 0 {
			break
		}
		bi := b.Burn(rest)
		if bi < 0 {
			break
		}
		burned = append(burned, rest[bi])
		td.RemoveCard(pos, rest[bi])
	}

	s.recordPick(st.UserID, picked, burned, snapshot)
}

// PickCard implements spec §4.4's pickCard validation and effects for
// the traditional draft.
func (s *Session) PickCard(userID string, cardID catalog.CardID, burnedCards []catalog.CardID) error {
	td, ok := s.Draft.(*draft.TraditionalDraft)
	if !ok {
		return ErrWrongDraftKind
	}
	if s.Phase != PhaseDrafting {
		return ErrNotDrafting
	}
	p := s.Users[userID]
	if p == nil {
		return ErrUnknownUser
	}
	if p.PickedThisRound {
		return ErrAlreadyPicked
	}

	pack := td.CurrentBooster(p.BoosterIndex)
	if !containsCard(pack, cardID) {
		return ErrCardNotInBooster
	}
	maxBurn := s.Options.BurnedCardsPerRound
	if len(burnedCards) > maxBurn {
		return ErrTooManyBurns
	}
	if len(pack) >= 1+maxBurn && len(burnedCards) != maxBurn {
		return ErrTooManyBurns
	}
	for _, b := range burnedCards {
		if !containsCard(pack, b) {
			return ErrCardNotInBooster
		}
	}

	snapshot := append(booster.Booster(nil), pack...)
	td.RemoveCard(p.BoosterIndex, cardID)
	for _, b := range burnedCards {
		td.RemoveCard(p.BoosterIndex, b)
	}
	s.mu.Lock()
	p.PickedCards = append(p.PickedCards, cardID)
	p.PickedThisRound = true
	s.mu.Unlock()
	s.pickedThisRound++

	s.recordPick(userID, cardID, burnedCards, snapshot)
	s.broadcast("updateUser", map[string]interface{}{
		"userID": userID, "updatedProperties": map[string]interface{}{"pickedThisRound": true},
	}, "")

	if s.pickedThisRound >= s.humanPending {
		s.advanceAfterPicks()
	}
	return nil
}

func (s *Session) recordPick(userID string, pick catalog.CardID, burned []catalog.CardID, snapshot booster.Booster) {
	if s.draftLog == nil {
		return
	}
	u := s.draftLog.Users[userID]
	u.Picks = append(u.Picks, DraftLogPick{Pick: pick, Burn: burned, BoosterSnapshot: snapshot})
	s.draftLog.Users[userID] = u
}

func (s *Session) advanceAfterPicks() {
	td := s.Draft.(*draft.TraditionalDraft)
	if ended := td.Advance(); ended {
		s.endTraditionalDraft()
		return
	}
	s.dealRound()
}

func (s *Session) endTraditionalDraft() {
	s.Phase = PhaseEnded
	s.stopTimer()

	for _, st := range s.seats {
		var cards []catalog.CardID
		if st.IsBot || st.Substituted {
			cards = st.substitute.Cards
		} else if p := s.Users[st.UserID]; p != nil {
			cards = p.PickedCards
		} else if p := s.DisconnectedUsers[st.UserID]; p != nil {
			cards = p.PickedCards
		}
		if s.draftLog != nil {
			u := s.draftLog.Users[st.UserID]
			u.Cards = cards
			s.draftLog.Users[st.UserID] = u
		}
	}

	if s.draftLog != nil && s.publisher != nil && s.Options.DraftLogRecipients != RecipientsNone {
		logCopy := *s.draftLog
		go func() {
			if err := s.publisher.Publish(s.ID, logCopy); err != nil {
				s.log.Warn().Err(err).Msg("draft log publish failed")
			}
		}()
	}

	switch s.Options.DraftLogRecipients {
	case RecipientsOwner:
		s.emit.Emit(s.OwnerID, "draftLog", s.draftLog)
	case RecipientsEveryone, RecipientsDelayed:
		s.broadcast("draftLog", s.draftLog, "")
	}

	s.broadcast("endDraft", nil, "")
}

// CurrentPack returns the booster currently assigned to userID, or nil if
// the user has none (wrong draft kind, not dealt in yet, or unknown).
// Exported so the gateway can translate a pickCard wire payload's
// integer index back into a CardID before calling PickCard.
func (s *Session) CurrentPack(userID string) booster.Booster {
	td, ok := s.Draft.(*draft.TraditionalDraft)
	if !ok {
		return nil
	}
	s.mu.RLock()
	p := s.Users[userID]
	s.mu.RUnlock()
	if p == nil {
		return nil
	}
	return td.CurrentBooster(p.BoosterIndex)
}

func containsCard(pack booster.Booster, id catalog.CardID) bool {
	for _, c := range pack {
		if c == id {
			return true
		}
	}
	return false
}

// ReplaceDisconnectedPlayers substitutes a bot for every currently
// disconnected participant, resuming the draft at its frozen seat
// position. The substitute is first fed the participant's prior picks
// so its color commitments approximate theirs, per spec §4.3.
func (s *Session) ReplaceDisconnectedPlayers(callerID string) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	if len(s.DisconnectedUsers) == 0 {
		return nil
	}

	var pending []int
	for i, st := range s.seats {
		if st.IsBot || st.Substituted {
			continue
		}
		dp, ok := s.DisconnectedUsers[st.UserID]
		if !ok {
			continue
		}
		b := bot.New(st.UserID, i, s.facts)
		for _, c := range dp.PickedCards {
			b.Feed(c)
		}
		s.seats[i] = seat{UserID: st.UserID, Substituted: true, substitute: b}
		delete(s.DisconnectedUsers, st.UserID)
		if !dp.PickedThisRound {
			pending = append(pending, i)
		}
	}

	if s.Phase == PhasePaused {
		s.Phase = PhaseDrafting
		if td, ok := s.Draft.(*draft.TraditionalDraft); ok {
			for _, i := range pending {
				s.resolveBotPick(td, i, s.seats[i])
				s.pickedThisRound++
			}
			s.resumeTimer()
			if s.pickedThisRound >= s.humanPending {
				s.advanceAfterPicks()
			}
		}
	}
	return nil
}
