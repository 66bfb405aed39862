// Package bot implements the deterministic-per-instance bot pick/burn
// policy used to fill empty seats and to stand in for disconnected
// participants.
package bot

import (
	"hash/fnv"
	"math/rand"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
)

// Bot is one bot seat: an identifier, its accumulated picks, and a
// deterministic RNG seeded from its identifier so repeated runs against
// the same seat produce the same picks (Design Notes' "Deterministic RNG").
type Bot struct {
	ID    string
	Cards []catalog.CardID

	rng        *rand.Rand
	commitment map[catalog.Color]int
	facts      func(catalog.CardID) (catalog.CardFacts, error)
}

// New builds a bot seat. index disambiguates multiple bots sharing a
// session so two bots never share a seed.
func New(id string, index int, facts func(catalog.CardID) (catalog.CardFacts, error)) *Bot {
	h := fnv.New64a()
	h.Write([]byte(id))
	seed := int64(h.Sum64()) ^ int64(index)

	return &Bot{
		ID:         id,
		rng:        rand.New(rand.NewSource(seed)),
		commitment: make(map[catalog.Color]int),
		facts:      facts,
	}
}

// Pick chooses a card from the booster and returns its index, biased
// toward whichever color the bot has committed to the most among the
// colors present, and records the color commitment and the pick. The
// booster itself is left untouched; callers remove the chosen card.
func (b *Bot) Pick(pack booster.Booster) int {
	best := -1
	bestScore := -1
	for i, id := range pack {
		facts, err := b.facts(id)
		score := 0
		if err == nil {
			score = b.commitment[facts.ColorIdentity]
		}
		// Tie-break by a random jitter so bots without commitments yet
		// don't all pick the first card of the pack.
		jitter := b.rng.Intn(1000)
		if score*1000+jitter > bestScore {
			bestScore = score*1000 + jitter
			best = i
		}
	}
	if best == -1 {
		return -1
	}

	id := pack[best]
	if facts, err := b.facts(id); err == nil && facts.ColorIdentity != catalog.ColorColorless && facts.ColorIdentity != catalog.ColorMulti {
		b.commitment[facts.ColorIdentity]++
	}
	b.Cards = append(b.Cards, id)
	return best
}

// Burn returns the index of a card to discard: the card the bot is LEAST
// committed to. Callers remove the pick from the booster before calling
// Burn, which is what guarantees burn and pick never land on the same
// card for a single round.
func (b *Bot) Burn(pack booster.Booster) int {
	worst := -1
	worstScore := int(^uint(0) >> 1)
	for i, id := range pack {
		facts, err := b.facts(id)
		score := 0
		if err == nil {
			score = b.commitment[facts.ColorIdentity]
		}
		if score < worstScore {
			worstScore = score
			worst = i
		}
	}
	return worst
}

// Feed records a prior human pick so a bot substituting for a
// disconnected participant approximates their color commitments before
// it starts picking on their behalf.
func (b *Bot) Feed(id catalog.CardID) {
	if facts, err := b.facts(id); err == nil && facts.ColorIdentity != catalog.ColorColorless && facts.ColorIdentity != catalog.ColorMulti {
		b.commitment[facts.ColorIdentity]++
	}
	b.Cards = append(b.Cards, id)
}
