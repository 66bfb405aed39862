// Package session owns everything spec §4.5 assigns to one draft table:
// membership, the closed set of configuration options, the active draft
// state machine, the per-pick timer, and disconnect/reconnect bookkeeping.
// A Session is not itself goroutine-safe by method call; callers must
// route every mutation through Enqueue so exactly one goroutine ever
// touches a Session's draft state at a time (Design Notes §5/§9's
// "one lightweight task per session").
package session

import (
	"errors"
	"math"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
	"github.com/TheBarnacle/MTGADraft/draft"
)

// Sentinel errors, one per package-level failure mode.
var (
	ErrNotOwner          = errors.New("session: caller is not the owner")
	ErrNotDrafting       = errors.New("session: draft is not in progress")
	ErrAlreadyDrafting   = errors.New("session: draft already in progress")
	ErrUnknownUser       = errors.New("session: unknown user id")
	ErrNotEnoughPlayers  = errors.New("session: fewer than two virtual players")
	ErrCardNotInBooster  = errors.New("session: card not in booster")
	ErrAlreadyPicked     = errors.New("session: user already picked this round")
	ErrTooManyBurns      = errors.New("session: burned card count out of range")
	ErrWrongDraftKind    = errors.New("session: operation does not apply to the active draft kind")
	ErrWinstonWrongArity = errors.New("session: winston draft requires exactly two humans")
	ErrNotYourTurn       = errors.New("session: not your turn")
)

// Phase is the Session-level lifecycle, shared across every draft Kind
// (the per-format state machines in the draft package layer their own
// detail — pile/round counters, booster queues — underneath this).
type Phase int

// Valid Phase values.
const (
	PhaseIdle Phase = iota
	PhasePreparing
	PhaseDrafting
	PhasePaused
	PhaseEnded
)

// Participant is the session-local view of one seat: identity plus the
// draft-local fields spec §3 names. The transport handle itself is not
// held here; the gateway resolves UserID -> connection through the
// registry, matching Design Notes' "store by identifier" guidance.
type Participant struct {
	UserID          string
	UserName        string
	IsBot           bool
	Collection      map[catalog.CardID]int
	UseCollection   bool
	PickedCards     []catalog.CardID
	PickedThisRound bool
	BoosterIndex    int
}

func (p *Participant) supply() booster.ParticipantSupply {
	return booster.ParticipantSupply{UseCollection: p.UseCollection, Collection: p.Collection}
}

// Options is the closed set of configuration options from spec §3. Zero
// value is not valid configuration; use DefaultOptions.
type Options struct {
	SetRestriction       []string
	IsPublic             bool
	IgnoreCollections    bool
	BoostersPerPlayer    int
	Bots                 int
	MaxPlayers           int
	MaxRarity            catalog.Rarity
	ColorBalance         bool
	MaxDuplicates        map[catalog.Rarity]int
	Foil                 bool
	UseCustomCardList    bool
	CustomCardList       *booster.CustomCardList
	BurnedCardsPerRound  int
	CustomBoosters       []string
	DistributionMode     string
	DraftLogRecipients   string
	PickTimer            int // maxTimer seconds; 0 disables
}

// Distribution modes.
const (
	DistributionRegular               = "regular"
	DistributionShufflePlayerBoosters = "shufflePlayerBoosters"
	DistributionShuffleBoosterPool    = "shuffleBoosterPool"
)

// Draft log recipient modes.
const (
	RecipientsNone     = "none"
	RecipientsOwner    = "owner"
	RecipientsDelayed  = "delayed"
	RecipientsEveryone = "everyone"
)

// DefaultOptions mirrors the session defaults a freshly created table
// starts with before the owner configures anything.
func DefaultOptions() Options {
	return Options{
		BoostersPerPlayer: 3,
		MaxPlayers:        8,
		MaxRarity:         catalog.RarityMythic,
		MaxDuplicates: map[catalog.Rarity]int{
			catalog.RarityCommon:   math.MaxInt32,
			catalog.RarityUncommon: math.MaxInt32,
			catalog.RarityRare:     math.MaxInt32,
			catalog.RarityMythic:   math.MaxInt32,
		},
		PickTimer:          75,
		DistributionMode:   DistributionRegular,
		DraftLogRecipients: RecipientsDelayed,
	}
}

// booster.Options projects a session's Options down to the pure subset
// the generator reads.
func (o Options) boosterOptions() booster.Options {
	return booster.Options{
		SetRestriction:    o.SetRestriction,
		IgnoreCollections: o.IgnoreCollections,
		MaxRarity:         o.MaxRarity,
		ColorBalance:      o.ColorBalance,
		MaxDuplicates:     o.MaxDuplicates,
		Foil:              o.Foil,
		UseCustomCardList: o.UseCustomCardList,
		CustomCardList:    o.CustomCardList,
	}
}

// DraftLog is the in-memory record spec §6 describes: no persistence,
// published fire-and-forget through the draftlog package once a draft
// ends.
type DraftLog struct {
	SessionID      string                    `json:"sessionID"`
	Time           int64                     `json:"time"`
	SetRestriction []string                  `json:"setRestriction"`
	Boosters       []booster.Booster         `json:"boosters"`
	Users          map[string]DraftLogUser   `json:"users"`
}

// DraftLogUser is one participant's entry in a DraftLog.
type DraftLogUser struct {
	UserName string          `json:"userName"`
	UserID   string          `json:"userID"`
	IsBot    bool            `json:"isBot,omitempty"`
	Picks    []DraftLogPick  `json:"picks"`
	Cards    []catalog.CardID `json:"cards,omitempty"`
}

// DraftLogPick is a single recorded pick/burn for the draft log.
type DraftLogPick struct {
	Pick             catalog.CardID   `json:"pick"`
	Burn             []catalog.CardID `json:"burn,omitempty"`
	BoosterSnapshot  booster.Booster  `json:"boosterSnapshot"`
}

// Emitter is the abstract outbound sink the Session fans events through;
// the gateway package supplies the concrete implementation over
// transport.Connection. Kept to the single primitive spec §4.7 calls
// toUser — toSession/toAll are built on top of it by whoever holds
// multiple sessions (the Session itself implements its own toSession
// via broadcast, since it already knows its membership).
type Emitter interface {
	Emit(userID, event string, payload interface{})
}

// Publisher is the narrow surface draftlog exposes; Session depends on
// this interface only; see draftlog.NATSPublisher for the concrete
// NATS Streaming-backed implementation.
type Publisher interface {
	Publish(sessionID string, payload interface{}) error
}

// Kind re-exports draft.Kind so callers outside this package don't need
// to import draft directly just to branch on it.
type Kind = draft.Kind
