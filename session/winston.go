package session

import (
	mrand "math/rand"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/draft"
)

// winstonRuntime tracks which of the two seated humans corresponds to
// draft.WinstonDraft's Round index (0 or 1), which is stable across the
// whole draft since Winston requires exactly two humans and no bots.
type winstonRuntime struct {
	players [2]string
}

type winstonSyncPayload struct {
	Piles       [3]booster.Booster `json:"piles"`
	CurrentPile int                `json:"currentPile"`
	PoolSize    int                `json:"cardPoolSize"`
}

// StartWinstonDraft begins a two-player pile draft. boosterCount packs
// are generated, concatenated, and shuffled into the starting piles and
// card pool per spec §4.4.
func (s *Session) StartWinstonDraft(callerID string, boosterCount int) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	if s.Phase == PhaseDrafting || s.Phase == PhasePaused {
		return ErrAlreadyDrafting
	}

	s.mu.RLock()
	order := append([]string(nil), s.UserOrder...)
	s.mu.RUnlock()
	if len(order) != 2 {
		return ErrWinstonWrongArity
	}

	supplies := make([]booster.ParticipantSupply, 0, 2)
	for _, uid := range order {
		if p := s.Users[uid]; p != nil {
			supplies = append(supplies, p.supply())
			p.PickedCards = nil
		}
	}

	gen := booster.NewGenerator(s.cat, cryptoSeed())
	packs, err := gen.Generate(supplies, s.Options.boosterOptions(), boosterCount)
	if err != nil {
		if be, ok := err.(*booster.BoosterError); ok {
			s.emit.Emit(s.OwnerID, "message", map[string]interface{}{"title": "Not enough cards", "text": be.Detail})
		}
		return err
	}

	s.Draft = draft.NewWinstonDraft(packs, mrand.New(mrand.NewSource(cryptoSeed())))
	s.winston = &winstonRuntime{players: [2]string{order[0], order[1]}}
	s.Phase = PhaseDrafting

	s.broadcast("startWinstonDraft", nil, "")
	s.syncWinston()
	return nil
}

// WinstonTake takes the pile the caller is currently looking at.
func (s *Session) WinstonTake(userID string) error {
	wd, _, err := s.winstonTurn(userID)
	if err != nil {
		return err
	}
	wd.Take()
	s.afterWinstonMove(wd)
	return nil
}

// WinstonSkip skips the pile the caller is currently looking at.
func (s *Session) WinstonSkip(userID string) error {
	wd, _, err := s.winstonTurn(userID)
	if err != nil {
		return err
	}
	wd.Skip()
	s.afterWinstonMove(wd)
	return nil
}

func (s *Session) winstonTurn(userID string) (*draft.WinstonDraft, string, error) {
	wd, ok := s.Draft.(*draft.WinstonDraft)
	if !ok {
		return nil, "", ErrWrongDraftKind
	}
	if s.Phase != PhaseDrafting {
		return nil, "", ErrNotDrafting
	}
	current := s.winston.players[wd.Round]
	if current != userID {
		return nil, "", ErrNotYourTurn
	}
	return wd, current, nil
}

func (s *Session) afterWinstonMove(wd *draft.WinstonDraft) {
	if wd.Ended {
		s.endWinstonDraft(wd)
		return
	}
	s.syncWinston()
}

func (s *Session) syncWinston() {
	wd := s.Draft.(*draft.WinstonDraft)
	payload := winstonSyncPayload{Piles: wd.Piles, CurrentPile: wd.CurrentPile, PoolSize: len(wd.CardPool)}
	next := s.winston.players[wd.Round]
	for _, uid := range s.winston.players {
		s.emit.Emit(uid, "winstonDraftSync", payload)
	}
	s.broadcast("winstonDraftNextRound", next, "")
}

func (s *Session) endWinstonDraft(wd *draft.WinstonDraft) {
	s.Phase = PhaseEnded
	for i, uid := range s.winston.players {
		if p := s.Users[uid]; p != nil {
			p.PickedCards = append([]catalog.CardID(nil), wd.Picks[i]...)
		}
	}
	s.broadcast("winstonDraftEnd", nil, "")
}
