// Package booster implements pure, deterministic-given-a-seed booster pack
// generation: rarity targeting, duplicate limits, color balancing, foil
// insertion, and the custom-sheet/custom-cube paths.
package booster

import (
	"github.com/TheBarnacle/MTGADraft/catalog"
)

// Booster is one ordered pack handed to a single participant for a single
// pick round.
type Booster []catalog.CardID

// BoosterErrorKind enumerates ways generation can fail. Shortage is the
// only retryable kind: the caller reports it to the session owner and the
// session never enters the drafting state.
type BoosterErrorKind int

// Valid BoosterErrorKind values.
const (
	Shortage BoosterErrorKind = iota
)

// BoosterError is returned by Generate when the supplied collection
// cannot satisfy the requested targets.
type BoosterError struct {
	Kind   BoosterErrorKind
	Detail string
}

func (e *BoosterError) Error() string {
	return "booster: " + e.Detail
}

// CardSheet is a named subset of cards with a fixed per-pack draw count,
// used by the custom-sheet path.
type CardSheet struct {
	Cards           []catalog.CardID
	CardsPerBooster int
}

// CustomCardList is either a flat bag of cards (the custom-cube path, 15
// cards per pack) or a set of named sheets each with its own per-pack
// count (the custom-sheet path). Sheets takes priority when non-empty.
type CustomCardList struct {
	Cards  map[catalog.CardID]int
	Sheets map[string]CardSheet
}

// Options is the closed set of generation-affecting configuration options,
// a pure-value mirror of the subset of session.Options the generator reads.
type Options struct {
	SetRestriction    []string
	IgnoreCollections bool
	MaxRarity         catalog.Rarity
	ColorBalance      bool
	MaxDuplicates     map[catalog.Rarity]int
	Foil              bool
	UseCustomCardList bool
	CustomCardList    *CustomCardList
}

// targets is the per-rarity count a single non-custom pack draws, before
// any foil substitution.
type targets struct {
	rare, uncommon, common int
}

// targetsFor implements the table in spec §4.2.
func targetsFor(maxRarity catalog.Rarity) targets {
	switch maxRarity {
	case catalog.RarityUncommon:
		return targets{rare: 0, uncommon: 3, common: 11}
	case catalog.RarityCommon:
		return targets{rare: 0, uncommon: 0, common: 14}
	default: // mythic or rare
		return targets{rare: 1, uncommon: 3, common: 10}
	}
}
