package draft

import (
	"errors"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
)

// TraditionalState is the traditional rotation draft's lifecycle state.
type TraditionalState int

// Valid TraditionalState values.
const (
	TraditionalIdle TraditionalState = iota
	TraditionalPreparing
	TraditionalInRound
	TraditionalBetweenRounds
	TraditionalPaused
	TraditionalEnded
)

// ErrCardNotInBooster is returned when a pick or burn names a card absent
// from the booster it is supposed to come from.
var ErrCardNotInBooster = errors.New("draft: card not in booster")

// TraditionalDraft is the rotation draft: a queue of boosters, grouped in
// batches of VirtualPlayerCount (one batch per pack/round-set), passed
// around the table in alternating directions pack over pack.
type TraditionalDraft struct {
	State              TraditionalState
	VirtualPlayerCount int
	BoostersPerPlayer  int

	// Boosters is a queue; only the first VirtualPlayerCount entries are
	// "in play" for the current pack. Advance pops a whole batch off the
	// front once every booster in it is empty.
	Boosters []booster.Booster

	BoosterNumber int // 0-based index of the current pack
	PickNumber    int // 0-based pick within the current pack
}

// NewTraditionalDraft seeds a draft from an already-generated, already
// distributed stack of boosters (one batch of virtualPlayerCount per pack,
// boostersPerPlayer batches total).
func NewTraditionalDraft(boosters []booster.Booster, virtualPlayerCount, boostersPerPlayer int) *TraditionalDraft {
	return &TraditionalDraft{
		State:              TraditionalPreparing,
		VirtualPlayerCount: virtualPlayerCount,
		BoostersPerPlayer:  boostersPerPlayer,
		Boosters:           boosters,
	}
}

func (d *TraditionalDraft) Kind() Kind { return KindTraditional }

// boosterOffset implements spec §4.4's alternating pass direction: even
// pack numbers pass in reverse.
func (d *TraditionalDraft) boosterOffset() int {
	if d.BoosterNumber%2 == 0 {
		return -d.PickNumber
	}
	return d.PickNumber
}

// BoosterIndexFor returns the index into Boosters' active batch that
// virtual player position currently holds.
func (d *TraditionalDraft) BoosterIndexFor(position int) int {
	return negMod(d.boosterOffset()+position, d.VirtualPlayerCount)
}

// CurrentBooster returns the booster a virtual player currently holds.
func (d *TraditionalDraft) CurrentBooster(position int) booster.Booster {
	idx := d.BoosterIndexFor(position)
	if idx >= len(d.Boosters) {
		return nil
	}
	return d.Boosters[idx]
}

// RemoveCard removes the first occurrence of id from the booster a
// virtual player currently holds, reporting whether it was present.
func (d *TraditionalDraft) RemoveCard(position int, id catalog.CardID) bool {
	idx := d.BoosterIndexFor(position)
	pack := d.Boosters[idx]
	for i, c := range pack {
		if c == id {
			d.Boosters[idx] = append(pack[:i:i], pack[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the draft to the next pick, draining a whole batch of
// boosters once all of them are empty and ending the draft once no
// batches remain. It reports whether the draft just ended.
func (d *TraditionalDraft) Advance() (ended bool) {
	d.PickNumber++

	if len(d.Boosters) > 0 && len(d.Boosters[0]) == 0 {
		if len(d.Boosters) >= d.VirtualPlayerCount {
			d.Boosters = d.Boosters[d.VirtualPlayerCount:]
		} else {
			d.Boosters = nil
		}
		d.BoosterNumber++
		d.PickNumber = 0

		if len(d.Boosters) == 0 {
			d.State = TraditionalEnded
			return true
		}
	}
	return false
}
