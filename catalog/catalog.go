// Package catalog holds the immutable card database the rest of the
// system draws boosters from. It is read-only at runtime: apart from
// RegisterLandSlot, called at startup right after Load, nothing in this
// package mutates a Catalog.
package catalog

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CardID identifies a single printing in the catalog.
type CardID string

// Rarity is one of the four booster rarities.
type Rarity string

// Valid Rarity values, ordered from most to least common.
const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityMythic   Rarity = "mythic"
)

// Color is one of the five WUBRG colors plus the two identity buckets
// used for color-balancing: colorless and multi.
type Color string

// Valid Color values.
const (
	ColorWhite     Color = "W"
	ColorBlue      Color = "U"
	ColorBlack     Color = "B"
	ColorRed       Color = "R"
	ColorGreen     Color = "G"
	ColorMulti     Color = "multi"
	ColorColorless Color = "colorless"
)

// Colors lists the five drafting colors, in the order color-balancing
// walks them.
var Colors = [5]Color{ColorWhite, ColorBlue, ColorBlack, ColorRed, ColorGreen}

// ErrUnknownCard is returned when a CardID has no entry in the catalog.
var ErrUnknownCard = errors.New("catalog: unknown card id")

// CardFacts is everything the booster generator and bot need to know
// about a single card.
type CardFacts struct {
	Set           string `json:"set"`
	Rarity        Rarity `json:"rarity"`
	ColorIdentity Color  `json:"colorIdentity"`
	InBooster     bool   `json:"inBooster"`
}

// ThemeBooster is a static Jumpstart-style themed pack: a fixed list of
// cards handed out as a unit rather than drawn from a weighted sheet.
type ThemeBooster struct {
	Name  string   `json:"name"`
	Cards []CardID `json:"cards"`
}

// CommonsPool is the minimal view of a common-card draw pool a LandSlot
// needs: the ability to permanently withdraw a card so it never surfaces
// again from the pool the rest of a booster draws from. booster.bag
// satisfies this directly, which is what lets Setup remove lands straight
// out of the live draw pool instead of a disconnected snapshot of it.
type CommonsPool interface {
	Remove(id CardID)
}

// MapCommonsPool adapts a plain counts map to CommonsPool, for callers
// (tests, anything not backed by a live bag) that just want a map.
type MapCommonsPool map[CardID]int

func (m MapCommonsPool) Remove(id CardID) { delete(m, id) }

// LandSlot is the per-set special case for a dedicated basic/dual land
// slot appended after the rest of a booster. Setup withdraws whatever
// land cards it needs from the supplied commons pool and returns a
// configured copy ready to Pick from.
type LandSlot interface {
	Setup(commonsPool CommonsPool) LandSlot
	Pick(roll float64) CardID
}

type rawCatalog struct {
	Cards    map[CardID]CardFacts    `json:"cards"`
	SetList  []string                `json:"setList"`
	Jumpstart []ThemeBooster         `json:"jumpstartThemes"`
}

// Catalog is the immutable card database plus the per-set land slots and
// the static Jumpstart theme table.
type Catalog struct {
	cards     map[CardID]CardFacts
	setList   []string
	landSlots map[string]LandSlot
	jumpstart []ThemeBooster
}

// Load parses a JSON card database into a Catalog. The wire format is a
// flat object: {"cards": {...}, "setList": [...], "jumpstartThemes": [...]}.
// Land slots are not serializable and must be registered afterward with
// RegisterLandSlot; Load never fails because a set lacks one.
func Load(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	c := &Catalog{
		cards:     raw.Cards,
		setList:   raw.SetList,
		landSlots: make(map[string]LandSlot),
		jumpstart: raw.Jumpstart,
	}
	if c.cards == nil {
		c.cards = make(map[CardID]CardFacts)
	}
	return c, nil
}

// RegisterLandSlot wires a land slot implementation for a given set code.
// Called once at startup after Load, since LandSlot implementations are
// Go values, not JSON.
func (c *Catalog) RegisterLandSlot(set string, slot LandSlot) {
	c.landSlots[set] = slot
}

// Cards returns the full card-facts map. Callers must not mutate it.
func (c *Catalog) Cards() map[CardID]CardFacts {
	return c.cards
}

// Facts looks up a single card's facts.
func (c *Catalog) Facts(id CardID) (CardFacts, error) {
	f, ok := c.cards[id]
	if !ok {
		return CardFacts{}, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	return f, nil
}

// SetList returns the ordered list of known set codes.
func (c *Catalog) SetList() []string {
	return c.setList
}

// LandSlot returns the configured land slot for a set, if one exists.
func (c *Catalog) LandSlot(set string) (LandSlot, bool) {
	ls, ok := c.landSlots[set]
	return ls, ok
}

// JumpstartThemes returns the static table of Jumpstart theme boosters.
func (c *Catalog) JumpstartThemes() []ThemeBooster {
	return c.jumpstart
}

// InSet reports whether a set code belongs to a restriction list; an
// empty restriction always matches.
func InSet(restriction []string, set string) bool {
	if len(restriction) == 0 {
		return true
	}
	for _, s := range restriction {
		if s == set {
			return true
		}
	}
	return false
}
