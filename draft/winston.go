package draft

import (
	"math/rand"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
)

// WinstonDraft is the two-player pile draft: three piles seeded with one
// card each from a shuffled common pool, grown by skips, taken whole.
type WinstonDraft struct {
	Piles       [3][]catalog.CardID
	CardPool    []catalog.CardID
	CurrentPile int
	Round       int // index into Picks: 0 or 1, the player whose turn it is
	Picks       [2][]catalog.CardID
	Ended       bool
}

// NewWinstonDraft concatenates every generated pack into one pool,
// shuffles it with rng, and deals the three starting piles.
func NewWinstonDraft(packs []booster.Booster, rng *rand.Rand) *WinstonDraft {
	var pool []catalog.CardID
	for _, pack := range packs {
		pool = append(pool, pack...)
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	w := &WinstonDraft{}
	for i := 0; i < 3 && len(pool) > 0; i++ {
		w.Piles[i] = []catalog.CardID{pool[0]}
		pool = pool[1:]
	}
	w.CardPool = pool
	return w
}

func (w *WinstonDraft) Kind() Kind { return KindWinston }

// Take gives the current player everything in the pile they are looking
// at, replenishes it (or empties it if the pool is dry), and advances to
// the other player's turn.
func (w *WinstonDraft) Take() {
	w.Picks[w.Round] = append(w.Picks[w.Round], w.Piles[w.CurrentPile]...)

	if len(w.CardPool) > 0 {
		w.Piles[w.CurrentPile] = []catalog.CardID{w.CardPool[0]}
		w.CardPool = w.CardPool[1:]
	} else {
		w.Piles[w.CurrentPile] = nil
	}

	w.nextTurn()
}

// Skip grows the current pile by one card from the pool (if any remains),
// then either moves the current player on to the next pile — auto-skipping
// an empty one — or, once they decline the third pile, hands them the top
// of the card pool directly and advances to the other player's turn.
func (w *WinstonDraft) Skip() {
	if len(w.CardPool) > 0 {
		w.Piles[w.CurrentPile] = append(w.Piles[w.CurrentPile], w.CardPool[0])
		w.CardPool = w.CardPool[1:]
	}

	if w.CurrentPile < 2 {
		w.CurrentPile++
		if len(w.Piles[w.CurrentPile]) == 0 {
			w.Skip()
		}
		return
	}

	if len(w.CardPool) > 0 {
		w.Picks[w.Round] = append(w.Picks[w.Round], w.CardPool[0])
		w.CardPool = w.CardPool[1:]
	}
	w.nextTurn()
}

func (w *WinstonDraft) nextTurn() {
	w.Round = 1 - w.Round
	w.CurrentPile = 0
	for w.CurrentPile < 2 && len(w.Piles[w.CurrentPile]) == 0 {
		w.CurrentPile++
	}
	if len(w.Piles[0]) == 0 && len(w.Piles[1]) == 0 && len(w.Piles[2]) == 0 {
		w.Ended = true
	}
}
