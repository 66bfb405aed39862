package draft

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
)

func TestWinstonDraftExhaustsAllCards(t *testing.T) {
	packs := []booster.Booster{
		{"c1", "c2", "c3", "c4", "c5"},
		{"c6", "c7", "c8", "c9", "c10"},
		{"c11", "c12", "c13", "c14", "c15"},
	}
	total := 0
	for _, p := range packs {
		total += len(p)
	}

	w := NewWinstonDraft(packs, rand.New(rand.NewSource(1)))

	// Alternate take/skip until the draft ends; skip is always legal: once
	// the pool is dry it just moves on without handing out a card.
	steps := 0
	for !w.Ended {
		if steps%2 == 0 {
			w.Take()
		} else {
			w.Skip()
		}
		steps++
		require.Less(t, steps, 10000, "draft did not terminate")
	}

	assert.Equal(t, total, len(w.Picks[0])+len(w.Picks[1]))
}

func TestWinstonTakeNeverDuplicatesCards(t *testing.T) {
	packs := []booster.Booster{
		{"c1", "c2", "c3"},
		{"c4", "c5", "c6"},
	}
	w := NewWinstonDraft(packs, rand.New(rand.NewSource(7)))

	seen := map[catalog.CardID]bool{}
	for !w.Ended {
		w.Take()
	}
	for _, pile := range w.Picks {
		for _, id := range pile {
			assert.False(t, seen[id], "card %s picked twice", id)
			seen[id] = true
		}
	}
}

func TestTraditionalDraftAdvancesAndEnds(t *testing.T) {
	boosters := []booster.Booster{
		{"p1a", "p1b"}, {"p2a", "p2b"}, {"p3a", "p3b"},
	}
	d := NewTraditionalDraft(boosters, 3, 1)

	for pos := 0; pos < 3; pos++ {
		assert.NotNil(t, d.CurrentBooster(pos))
	}

	for pos := 0; pos < 3; pos++ {
		pack := d.CurrentBooster(pos)
		require.NotEmpty(t, pack)
		require.True(t, d.RemoveCard(pos, pack[0]))
	}
	ended := d.Advance()
	assert.False(t, ended)

	for pos := 0; pos < 3; pos++ {
		pack := d.CurrentBooster(pos)
		require.NotEmpty(t, pack)
		require.True(t, d.RemoveCard(pos, pack[0]))
	}
	ended = d.Advance()
	assert.True(t, ended)
	assert.Equal(t, TraditionalEnded, d.State)
}

func TestTraditionalBoosterOffsetAlternatesDirection(t *testing.T) {
	boosters := []booster.Booster{{"a"}, {"b"}, {"c"}}
	d := NewTraditionalDraft(boosters, 3, 1)

	// Pack 0 (even) passes in reverse: position 0 holds booster 0.
	assert.Equal(t, 0, d.BoosterIndexFor(0))
	d.PickNumber = 1
	assert.Equal(t, negMod(-1, 3), d.BoosterIndexFor(0))

	d.BoosterNumber = 1
	d.PickNumber = 0
	assert.Equal(t, 0, d.BoosterIndexFor(0))
	d.PickNumber = 1
	assert.Equal(t, negMod(1, 3), d.BoosterIndexFor(0))
}

func TestSealedDraftSplitsPoolsEvenly(t *testing.T) {
	packs := []booster.Booster{{"a"}, {"b"}, {"c"}, {"d"}}
	d := NewSealedDraft([]string{"u1", "u2"}, packs, 2)
	assert.Equal(t, 2, len(d.Pools["u1"]))
	assert.Equal(t, 2, len(d.Pools["u2"]))
}

func TestJumpstartDraftAvoidsDuplicateThemesPerParticipant(t *testing.T) {
	themes := []catalog.ThemeBooster{
		{Name: "Dogs", Cards: []catalog.CardID{"d1"}},
		{Name: "Cats", Cards: []catalog.CardID{"c1"}},
	}
	d := NewJumpstartDraft([]string{"u1"}, themes, rand.New(rand.NewSource(3)))
	pair := d.Pools["u1"]
	require.Len(t, pair, 2)
	assert.NotEqual(t, pair[0].Name, pair[1].Name)
}
