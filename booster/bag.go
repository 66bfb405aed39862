package booster

import (
	"math/rand"
	"sort"

	"github.com/TheBarnacle/MTGADraft/catalog"
)

// bag is a weighted-without-replacement draw pool: sorted, deterministic
// iteration order so that Generate(same seed, same inputs) reproduces
// identical output regardless of Go's randomized map iteration. Grounded
// on the weighted-choice-without-replacement pattern used by the mtgjson
// booster simulator (weighted remaining-count draw, decrement in place,
// drop exhausted entries).
type bag struct {
	ids    []catalog.CardID
	counts []int
}

func newBag(counts map[catalog.CardID]int) *bag {
	b := &bag{}
	for id, n := range counts {
		if n <= 0 {
			continue
		}
		b.ids = append(b.ids, id)
		b.counts = append(b.counts, n)
	}
	sort.Slice(b.ids, func(i, j int) bool { return b.ids[i] < b.ids[j] })
	// counts must follow the same permutation as ids; re-derive from the map.
	for i, id := range b.ids {
		b.counts[i] = counts[id]
	}
	return b
}

func (b *bag) total() int {
	t := 0
	for _, c := range b.counts {
		t += c
	}
	return t
}

// draw picks one card weighted by remaining count and decrements it,
// dropping the entry once exhausted.
func (b *bag) draw(rng *rand.Rand) (catalog.CardID, bool) {
	return b.drawWhere(rng, nil)
}

// drawWhere restricts the draw to ids satisfying predicate (or all ids if
// predicate is nil), but decrements state in the same underlying bag so a
// color-restricted draw still consumes from the shared supply.
func (b *bag) drawWhere(rng *rand.Rand, predicate func(catalog.CardID) bool) (catalog.CardID, bool) {
	total := 0
	for i, c := range b.counts {
		if predicate == nil || predicate(b.ids[i]) {
			total += c
		}
	}
	if total == 0 {
		return "", false
	}

	r := rng.Float64() * float64(total)
	cumulative := 0.0
	chosen := -1
	for i, c := range b.counts {
		if predicate != nil && !predicate(b.ids[i]) {
			continue
		}
		cumulative += float64(c)
		if r < cumulative {
			chosen = i
			break
		}
	}
	if chosen == -1 {
		// floating point edge case: fall back to the last matching entry.
		for i := len(b.counts) - 1; i >= 0; i-- {
			if predicate == nil || predicate(b.ids[i]) {
				chosen = i
				break
			}
		}
	}
	if chosen == -1 {
		return "", false
	}

	id := b.ids[chosen]
	b.counts[chosen]--
	if b.counts[chosen] == 0 {
		b.ids = append(b.ids[:chosen], b.ids[chosen+1:]...)
		b.counts = append(b.counts[:chosen], b.counts[chosen+1:]...)
	}
	return id, true
}

// Remove drops every remaining copy of id from the bag, used when the
// land slot setup consumes basics out of the shared commons pool. Its
// value-receiver-free pointer signature is what lets *bag satisfy
// catalog.CommonsPool.
func (b *bag) Remove(id catalog.CardID) {
	for i, existing := range b.ids {
		if existing == id {
			b.ids = append(b.ids[:i], b.ids[i+1:]...)
			b.counts = append(b.counts[:i], b.counts[i+1:]...)
			return
		}
	}
}

// weightedPick chooses among a small fixed set of weighted options using
// a single roll, cumulative-weight style (mtgjson's pickPack pattern).
func weightedPick[T any](rng *rand.Rand, options []T, weights []float64) T {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return options[i]
		}
	}
	return options[len(options)-1]
}
