package session

import (
	mrand "math/rand"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/draft"
)

// DistributeSealed implements the single-shot sealed distribution: N
// packs per connected participant, no rounds, no timer. Once every
// participant has their pool the session's booster state is cleared,
// matching scenario 5.
func (s *Session) DistributeSealed(callerID string, packsPerPlayer int) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	if s.Phase == PhaseDrafting || s.Phase == PhasePaused {
		return ErrAlreadyDrafting
	}

	s.mu.RLock()
	order := append([]string(nil), s.UserOrder...)
	s.mu.RUnlock()

	supplies := make([]booster.ParticipantSupply, 0, len(order))
	for _, uid := range order {
		if p := s.Users[uid]; p != nil {
			supplies = append(supplies, p.supply())
		}
	}

	gen := booster.NewGenerator(s.cat, cryptoSeed())
	packs, err := gen.Generate(supplies, s.Options.boosterOptions(), packsPerPlayer*len(order))
	if err != nil {
		if be, ok := err.(*booster.BoosterError); ok {
			s.emit.Emit(s.OwnerID, "message", map[string]interface{}{"title": "Not enough cards", "text": be.Detail})
		}
		return err
	}

	sd := draft.NewSealedDraft(order, packs, packsPerPlayer)
	for _, uid := range order {
		pool := flattenPacks(sd.Pools[uid])
		if p := s.Users[uid]; p != nil {
			p.PickedCards = pool
		}
		s.emit.Emit(uid, "setCardSelection", pool)
	}

	s.Phase = PhaseEnded
	s.Draft = nil
	return nil
}

// DistributeJumpstart hands every connected participant two random,
// non-repeating themed half-decks from the catalog's static theme table.
func (s *Session) DistributeJumpstart(callerID string) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	if s.Phase == PhaseDrafting || s.Phase == PhasePaused {
		return ErrAlreadyDrafting
	}

	s.mu.RLock()
	order := append([]string(nil), s.UserOrder...)
	s.mu.RUnlock()

	themes := s.cat.JumpstartThemes()
	jd := draft.NewJumpstartDraft(order, themes, mrand.New(mrand.NewSource(cryptoSeed())))

	for _, uid := range order {
		var pool []catalog.CardID
		for _, t := range jd.Pools[uid] {
			pool = append(pool, t.Cards...)
		}
		if p := s.Users[uid]; p != nil {
			p.PickedCards = pool
		}
		s.emit.Emit(uid, "setCardSelection", pool)
	}

	s.Phase = PhaseEnded
	s.Draft = nil
	return nil
}

func flattenPacks(packs []booster.Booster) []catalog.CardID {
	var out []catalog.CardID
	for _, p := range packs {
		out = append(out, p...)
	}
	return out
}
