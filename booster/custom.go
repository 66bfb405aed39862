package booster

import (
	"fmt"

	"github.com/TheBarnacle/MTGADraft/catalog"
)

// generateFromSheets implements the custom-sheet path: each named sheet
// contributes a fixed per-pack count drawn from its own persistent bag.
// Color balancing, when enabled, is applied to the widest sheet once it
// lists at least 5 cards (repeated entries count).
func (g *Generator) generateFromSheets(list CustomCardList, colorBalance bool, quantity int) ([]Booster, error) {
	names := make([]string, 0, len(list.Sheets))
	for name := range list.Sheets {
		names = append(names, name)
	}
	sortStrings(names)

	bags := make(map[string]*bag, len(names))
	widest := ""
	widestSize := -1
	for _, name := range names {
		sheet := list.Sheets[name]
		counts := make(map[catalog.CardID]int)
		for _, id := range sheet.Cards {
			counts[id]++
		}
		bags[name] = newBag(counts)
		need := sheet.CardsPerBooster * quantity
		if bags[name].total() < need {
			return nil, &BoosterError{Kind: Shortage, Detail: fmt.Sprintf("sheet %q needs %d cards, has %d", name, need, bags[name].total())}
		}
		if len(sheet.Cards) > widestSize {
			widestSize = len(sheet.Cards)
			widest = name
		}
	}

	balanceSheet := colorBalance && widestSize >= 5

	packs := make([]Booster, 0, quantity)
	for i := 0; i < quantity; i++ {
		var pack Booster
		for _, name := range names {
			sheet := list.Sheets[name]
			if name == widest && balanceSheet {
				drawn, err := g.drawCommons(bags[name], sheet.CardsPerBooster, true)
				if err != nil {
					return nil, err
				}
				pack = append(pack, drawn...)
				continue
			}
			for j := 0; j < sheet.CardsPerBooster; j++ {
				card, ok := bags[name].draw(g.rng)
				if !ok {
					return nil, &BoosterError{Kind: Shortage, Detail: fmt.Sprintf("sheet %q exhausted mid-generation", name)}
				}
				pack = append(pack, card)
			}
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// customCubePackSize is the fixed pack size for the custom-cube path.
const customCubePackSize = 15

// generateFromCube implements the custom-cube path: 15 cards per pack
// drawn from the flat custom list, color balanced identically to the
// standard commons draw when requested.
func (g *Generator) generateFromCube(list CustomCardList, colorBalance bool, quantity int) ([]Booster, error) {
	b := newBag(list.Cards)
	need := customCubePackSize * quantity
	if b.total() < need {
		return nil, &BoosterError{Kind: Shortage, Detail: fmt.Sprintf("custom cube needs %d cards, has %d", need, b.total())}
	}

	packs := make([]Booster, 0, quantity)
	for i := 0; i < quantity; i++ {
		drawn, err := g.drawCommons(b, customCubePackSize, colorBalance)
		if err != nil {
			return nil, err
		}
		g.rng.Shuffle(len(drawn), func(i, j int) { drawn[i], drawn[j] = drawn[j], drawn[i] })
		packs = append(packs, Booster(drawn))
	}
	return packs, nil
}

// sortStrings is a tiny insertion sort over the (typically small)
// sheet-name list, keeping iteration order deterministic.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
