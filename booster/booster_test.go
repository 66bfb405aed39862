package booster

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBarnacle/MTGADraft/catalog"
)

func buildCatalog(t *testing.T, commons, uncommons, rares, mythics int) *catalog.Catalog {
	t.Helper()
	cards := map[catalog.CardID]catalog.CardFacts{}
	colors := []catalog.Color{catalog.ColorWhite, catalog.ColorBlue, catalog.ColorBlack, catalog.ColorRed, catalog.ColorGreen}
	add := func(prefix string, n int, rarity catalog.Rarity) {
		for i := 0; i < n; i++ {
			cards[catalog.CardID(prefix+itoa(i))] = catalog.CardFacts{
				Set:           "thb",
				Rarity:        rarity,
				ColorIdentity: colors[i%len(colors)],
				InBooster:     true,
			}
		}
	}
	add("c", commons, catalog.RarityCommon)
	add("u", uncommons, catalog.RarityUncommon)
	add("r", rares, catalog.RarityRare)
	add("m", mythics, catalog.RarityMythic)

	raw, err := jsonMarshalCards(cards)
	require.NoError(t, err)
	cat, err := catalog.Load(raw)
	require.NoError(t, err)
	return cat
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}

func jsonMarshalCards(cards map[catalog.CardID]catalog.CardFacts) ([]byte, error) {
	return json.Marshal(map[string]any{
		"cards":   cards,
		"setList": []string{"thb"},
	})
}

func unlimitedOptions(maxRarity catalog.Rarity, colorBalance, foil bool) Options {
	return Options{
		MaxRarity:         maxRarity,
		ColorBalance:      colorBalance,
		Foil:              foil,
		IgnoreCollections: true,
		MaxDuplicates: map[catalog.Rarity]int{
			catalog.RarityCommon:   1000,
			catalog.RarityUncommon: 1000,
			catalog.RarityRare:     1000,
			catalog.RarityMythic:   1000,
		},
	}
}

func TestGenerateColorBalancedPack(t *testing.T) {
	cat := buildCatalog(t, 101, 80, 53, 15)
	gen := NewGenerator(cat, 42)

	packs, err := gen.Generate(nil, unlimitedOptions(catalog.RarityRare, true, false), 6)
	require.NoError(t, err)
	require.Len(t, packs, 6)

	for _, pack := range packs {
		assert.GreaterOrEqual(t, len(pack), 14)
		seen := map[catalog.Color]bool{}
		for _, id := range pack {
			facts, err := cat.Facts(id)
			require.NoError(t, err)
			if facts.Rarity == catalog.RarityCommon {
				seen[facts.ColorIdentity] = true
			}
		}
		for _, c := range catalog.Colors {
			assert.True(t, seen[c], "color %s missing from common block", c)
		}
	}
}

func TestGenerateRespectsSetRestriction(t *testing.T) {
	cat := buildCatalog(t, 30, 20, 15, 5)
	gen := NewGenerator(cat, 7)

	opts := unlimitedOptions(catalog.RarityMythic, false, false)
	opts.SetRestriction = []string{"thb"}

	packs, err := gen.Generate(nil, opts, 3)
	require.NoError(t, err)
	for _, pack := range packs {
		for _, id := range pack {
			facts, err := cat.Facts(id)
			require.NoError(t, err)
			assert.Equal(t, "thb", facts.Set)
		}
	}
}

func TestGenerateShortageError(t *testing.T) {
	cat := buildCatalog(t, 5, 5, 5, 5)
	gen := NewGenerator(cat, 1)

	_, err := gen.Generate(nil, unlimitedOptions(catalog.RarityRare, false, false), 10)
	require.Error(t, err)
	var boosterErr *BoosterError
	require.ErrorAs(t, err, &boosterErr)
	assert.Equal(t, Shortage, boosterErr.Kind)
}

func TestGenerateIsReproducible(t *testing.T) {
	cat := buildCatalog(t, 101, 80, 53, 15)
	opts := unlimitedOptions(catalog.RarityRare, true, true)

	a, err := NewGenerator(cat, 99).Generate(nil, opts, 6)
	require.NoError(t, err)
	b, err := NewGenerator(cat, 99).Generate(nil, opts, 6)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEffectiveCollectionIntersection(t *testing.T) {
	cat := buildCatalog(t, 3, 0, 0, 0)
	participants := []ParticipantSupply{
		{UseCollection: true, Collection: map[catalog.CardID]int{"c0": 4, "c1": 1}},
		{UseCollection: true, Collection: map[catalog.CardID]int{"c0": 2, "c1": 0, "c2": 5}},
	}
	eff := EffectiveCollection(cat, participants, false, nil)
	assert.Equal(t, 2, eff["c0"])
	_, hasC1 := eff["c1"]
	assert.False(t, hasC1)
	_, hasC2 := eff["c2"]
	assert.False(t, hasC2)
}

// TestLandSlotRemovesCardFromSharedCommonsPool confirms a registered
// land slot withdraws its land from the live draw pool, not a disposable
// copy: across many packs the land card must never also turn up out of
// the regular common draw, since the bag that feeds it has lost it too.
func TestLandSlotRemovesCardFromSharedCommonsPool(t *testing.T) {
	cat := buildCatalog(t, 30, 0, 0, 0)
	cat.RegisterLandSlot("thb", catalog.BasicLandSlot{Lands: []catalog.CardID{"c0"}})

	gen := NewGenerator(cat, 11)
	opts := unlimitedOptions(catalog.RarityCommon, false, false)
	opts.SetRestriction = []string{"thb"}

	packs, err := gen.Generate(nil, opts, 20)
	require.NoError(t, err)

	for _, pack := range packs {
		count := 0
		for _, id := range pack {
			if id == "c0" {
				count++
			}
		}
		assert.LessOrEqual(t, count, 1, "land card must not still be drawable from the common pool once the land slot has claimed it")
	}
}

func TestGenerateCustomCube(t *testing.T) {
	cat := buildCatalog(t, 40, 0, 0, 0)
	gen := NewGenerator(cat, 3)

	cube := map[catalog.CardID]int{}
	for i := 0; i < 40; i++ {
		cube[catalog.CardID("c"+itoa(i))] = 1
	}

	opts := Options{UseCustomCardList: true, CustomCardList: &CustomCardList{Cards: cube}}
	packs, err := gen.Generate(nil, opts, 2)
	require.NoError(t, err)
	require.Len(t, packs, 2)
	for _, p := range packs {
		assert.Len(t, p, 15)
	}
}
