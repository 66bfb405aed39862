package draft

import (
	"math/rand"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
)

// SealedDraft is the single-shot sealed pool distribution: every
// participant gets their packs up front, there are no rounds and no pick
// timer, and the draft is "done" the instant it is constructed.
type SealedDraft struct {
	Pools map[string][]booster.Booster // participant ID -> their packs
}

// NewSealedDraft splits packs (already generated, PacksPerPlayer*len(participantIDs)
// long) into one pool per participant, in participantIDs order.
func NewSealedDraft(participantIDs []string, packs []booster.Booster, packsPerPlayer int) *SealedDraft {
	pools := make(map[string][]booster.Booster, len(participantIDs))
	for i, id := range participantIDs {
		start := i * packsPerPlayer
		end := start + packsPerPlayer
		if start > len(packs) {
			start = len(packs)
		}
		if end > len(packs) {
			end = len(packs)
		}
		pools[id] = packs[start:end]
	}
	return &SealedDraft{Pools: pools}
}

func (d *SealedDraft) Kind() Kind { return KindSealed }

// JumpstartDraft hands every participant two random themed half-decks
// drawn from the catalog's static theme table.
type JumpstartDraft struct {
	Pools map[string][]catalog.ThemeBooster
}

// NewJumpstartDraft draws two distinct themes per participant from themes
// using rng, without repeating a theme within one participant's pair.
func NewJumpstartDraft(participantIDs []string, themes []catalog.ThemeBooster, rng *rand.Rand) *JumpstartDraft {
	pools := make(map[string][]catalog.ThemeBooster, len(participantIDs))
	for _, id := range participantIDs {
		if len(themes) == 0 {
			pools[id] = nil
			continue
		}
		first := themes[rng.Intn(len(themes))]
		second := first
		for second.Name == first.Name && len(themes) > 1 {
			second = themes[rng.Intn(len(themes))]
		}
		pools[id] = []catalog.ThemeBooster{first, second}
	}
	return &JumpstartDraft{Pools: pools}
}

func (d *JumpstartDraft) Kind() Kind { return KindJumpstart }
