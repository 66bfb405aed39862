package booster

import (
	"fmt"
	"math/rand"

	"github.com/TheBarnacle/MTGADraft/catalog"
)

// ParticipantSupply is the slice of a participant relevant to effective
// collection computation: whether they opted into their owned collection,
// and what they own.
type ParticipantSupply struct {
	UseCollection bool
	Collection    map[catalog.CardID]int
}

// Generator produces boosters from a collection, restrictions, and
// options. It is seeded once at construction so that repeated Generate
// calls against the same Generator are NOT independent (the RNG advances),
// matching Design Notes' "Deterministic RNG" — tests construct a fresh
// Generator per case to get reproducible output.
type Generator struct {
	rng *rand.Rand
	cat *catalog.Catalog
}

// NewGenerator builds a Generator over a catalog, seeded from seed.
// Production callers seed from a crypto-random source (see session);
// tests pass a fixed seed for reproducibility.
func NewGenerator(cat *catalog.Catalog, seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), cat: cat}
}

// EffectiveCollection implements spec §4.2's "Effective collection" rule:
// the intersection (by minimum owned count) across every participant who
// opted into their collection and has a non-empty one, restricted to
// inBooster cards; falling back to unlimited (maxDuplicates-capped) supply
// of every inBooster card when no such participant exists or
// ignoreCollections is set.
func EffectiveCollection(cat *catalog.Catalog, participants []ParticipantSupply, ignoreCollections bool, maxDuplicates map[catalog.Rarity]int) map[catalog.CardID]int {
	var contributing []ParticipantSupply
	for _, p := range participants {
		if p.UseCollection && len(p.Collection) > 0 {
			contributing = append(contributing, p)
		}
	}

	if ignoreCollections || len(contributing) == 0 {
		out := make(map[catalog.CardID]int)
		for id, facts := range cat.Cards() {
			if !facts.InBooster {
				continue
			}
			out[id] = maxDuplicates[facts.Rarity]
		}
		return out
	}

	out := make(map[catalog.CardID]int)
	for id, facts := range cat.Cards() {
		if !facts.InBooster {
			continue
		}
		min := -1
		for _, p := range contributing {
			n := p.Collection[id]
			if min == -1 || n < min {
				min = n
			}
		}
		if min > 0 {
			out[id] = min
		}
	}
	return out
}

// restrictedView buckets an effective collection into per-rarity bags,
// dropping cards whose set does not belong to setRestriction.
func restrictedView(cat *catalog.Catalog, collection map[catalog.CardID]int, setRestriction []string) map[catalog.Rarity]map[catalog.CardID]int {
	buckets := map[catalog.Rarity]map[catalog.CardID]int{
		catalog.RarityCommon:   {},
		catalog.RarityUncommon: {},
		catalog.RarityRare:     {},
		catalog.RarityMythic:   {},
	}
	for id, n := range collection {
		facts, err := cat.Facts(id)
		if err != nil || !catalog.InSet(setRestriction, facts.Set) {
			continue
		}
		buckets[facts.Rarity][id] = n
	}
	return buckets
}

// Generate produces quantity boosters. setRestriction and the single land
// slot it implies are the caller's concern per-call (the session
// re-invokes Generate once per round when customBoosters overrides the
// restriction for that round).
func (g *Generator) Generate(participants []ParticipantSupply, opts Options, quantity int) ([]Booster, error) {
	if opts.UseCustomCardList && opts.CustomCardList != nil && len(opts.CustomCardList.Sheets) > 0 {
		return g.generateFromSheets(*opts.CustomCardList, opts.ColorBalance, quantity)
	}
	if opts.UseCustomCardList && opts.CustomCardList != nil {
		return g.generateFromCube(*opts.CustomCardList, opts.ColorBalance, quantity)
	}
	return g.generateStandard(participants, opts, quantity)
}

func (g *Generator) generateStandard(participants []ParticipantSupply, opts Options, quantity int) ([]Booster, error) {
	collection := EffectiveCollection(g.cat, participants, opts.IgnoreCollections, opts.MaxDuplicates)
	buckets := restrictedView(g.cat, collection, opts.SetRestriction)

	tg := targetsFor(opts.MaxRarity)
	if err := preflight(buckets, tg, quantity); err != nil {
		return nil, err
	}

	bags := map[catalog.Rarity]*bag{}
	for rarity, m := range buckets {
		bags[rarity] = newBag(m)
	}

	var landSlot catalog.LandSlot
	if len(opts.SetRestriction) == 1 {
		if ls, ok := g.cat.LandSlot(opts.SetRestriction[0]); ok {
			landSlot = ls.Setup(bags[catalog.RarityCommon])
		}
	}

	packs := make([]Booster, 0, quantity)
	for i := 0; i < quantity; i++ {
		pack, err := g.generateStandardPack(bags, tg, opts, landSlot)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

func preflight(buckets map[catalog.Rarity]map[catalog.CardID]int, tg targets, quantity int) error {
	need := map[catalog.Rarity]int{
		catalog.RarityUncommon: tg.uncommon * quantity,
		catalog.RarityCommon:   tg.common * quantity,
	}
	// rare-or-mythic demand is satisfied out of either pool combined, since
	// promotion only ever moves a rare slot into the mythic pool.
	rareMythicHave := supplyTotal(buckets[catalog.RarityRare]) + supplyTotal(buckets[catalog.RarityMythic])
	if rareMythicHave < tg.rare*quantity {
		return &BoosterError{Kind: Shortage, Detail: fmt.Sprintf("need %d rare/mythic cards, have %d", tg.rare*quantity, rareMythicHave)}
	}
	for rarity, n := range need {
		if n == 0 {
			continue
		}
		if supplyTotal(buckets[rarity]) < n {
			return &BoosterError{Kind: Shortage, Detail: fmt.Sprintf("need %d %s cards, have %d", n, rarity, supplyTotal(buckets[rarity]))}
		}
	}
	return nil
}

func supplyTotal(m map[catalog.CardID]int) int {
	t := 0
	for _, n := range m {
		t += n
	}
	return t
}

var foilRarities = []catalog.Rarity{catalog.RarityMythic, catalog.RarityRare, catalog.RarityUncommon, catalog.RarityCommon}
var foilWeights = []float64{1.0 / 128.0, 8.0 / 128.0, 4.0 / 16.0, 1.0}

func (g *Generator) generateStandardPack(bags map[catalog.Rarity]*bag, tg targets, opts Options, landSlot catalog.LandSlot) (Booster, error) {
	pack := make(Booster, 0, tg.rare+tg.uncommon+tg.common+2)

	rareTarget, uncTarget, commonTarget := tg.rare, tg.uncommon, tg.common

	if opts.Foil && g.rng.Float64() < 15.0/63.0 {
		foilRarity := weightedPick(g.rng, foilRarities, foilWeights)
		card, ok := bags[foilRarity].draw(g.rng)
		if !ok {
			return nil, &BoosterError{Kind: Shortage, Detail: "foil slot requested but pool exhausted"}
		}
		pack = append(pack, card)
		switch foilRarity {
		case catalog.RarityMythic, catalog.RarityRare:
			rareTarget = max0(rareTarget - 1)
		case catalog.RarityUncommon:
			uncTarget = max0(uncTarget - 1)
		case catalog.RarityCommon:
			commonTarget = max0(commonTarget - 1)
		}
	}

	for i := 0; i < rareTarget; i++ {
		rarity := catalog.RarityRare
		if opts.MaxRarity == catalog.RarityMythic && bags[catalog.RarityMythic].total() > 0 && g.rng.Float64() < 1.0/8.0 {
			rarity = catalog.RarityMythic
		}
		if bags[rarity].total() == 0 {
			rarity = catalog.RarityRare
		}
		card, ok := bags[rarity].draw(g.rng)
		if !ok {
			return nil, &BoosterError{Kind: Shortage, Detail: "rare/mythic pool exhausted mid-generation"}
		}
		pack = append(pack, card)
	}

	for i := 0; i < uncTarget; i++ {
		card, ok := bags[catalog.RarityUncommon].draw(g.rng)
		if !ok {
			return nil, &BoosterError{Kind: Shortage, Detail: "uncommon pool exhausted mid-generation"}
		}
		pack = append(pack, card)
	}

	commons, err := g.drawCommons(bags[catalog.RarityCommon], commonTarget, opts.ColorBalance)
	if err != nil {
		return nil, err
	}
	g.rng.Shuffle(len(commons), func(i, j int) { commons[i], commons[j] = commons[j], commons[i] })
	pack = append(pack, commons...)

	if landSlot != nil {
		pack = append(pack, landSlot.Pick(g.rng.Float64()))
	}

	return pack, nil
}

// drawCommons implements the color-balance rule: up to one of each of the
// five colors first (from a fresh per-draw partition of the remaining
// commons, so the partition always reflects the current bag state), then
// fill the rest from the unrestricted commons bag.
func (g *Generator) drawCommons(commons *bag, target int, colorBalance bool) ([]catalog.CardID, error) {
	var drawn []catalog.CardID

	if colorBalance {
		for _, color := range catalog.Colors {
			if len(drawn) >= target {
				break
			}
			card, ok := commons.drawWhere(g.rng, func(id catalog.CardID) bool {
				facts, err := g.cat.Facts(id)
				return err == nil && facts.ColorIdentity == color
			})
			if ok {
				drawn = append(drawn, card)
			}
		}
	}

	for len(drawn) < target {
		card, ok := commons.draw(g.rng)
		if !ok {
			return nil, &BoosterError{Kind: Shortage, Detail: "common pool exhausted mid-generation"}
		}
		drawn = append(drawn, card)
	}
	return drawn, nil
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
