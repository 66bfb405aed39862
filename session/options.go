package session

import (
	"reflect"

	"github.com/TheBarnacle/MTGADraft/booster"
	"github.com/TheBarnacle/MTGADraft/catalog"
)

// setOption is the owner-gated, idempotent-update helper for options
// that get their own dedicated outbound event (spec §4.5's "dedicated
// event" list: bots, boostersPerPlayer, setRestriction, isPublic,
// setPickTimer, setMaxPlayers, setMaxRarity, ignoreCollections).
func (s *Session) setOption(callerID string, apply func(*Options) bool, event string, payload interface{}) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	if !apply(&s.Options) {
		return nil
	}
	s.broadcast(event, payload, callerID)
	return nil
}

// setCoalescedOption is the same idempotent-update contract for options
// that share the generic sessionOptions delta event instead of a
// dedicated one.
func (s *Session) setCoalescedOption(callerID string, apply func(*Options) (bool, map[string]interface{})) error {
	if callerID != s.OwnerID {
		return ErrNotOwner
	}
	changed, delta := apply(&s.Options)
	if !changed {
		return nil
	}
	s.broadcast("sessionOptions", delta, callerID)
	return nil
}

func (s *Session) SetBoostersPerPlayer(callerID string, n int) error {
	return s.setOption(callerID, func(o *Options) bool {
		if o.BoostersPerPlayer == n {
			return false
		}
		o.BoostersPerPlayer = n
		return true
	}, "boostersPerPlayer", n)
}

func (s *Session) SetBots(callerID string, n int) error {
	return s.setOption(callerID, func(o *Options) bool {
		if o.Bots == n {
			return false
		}
		o.Bots = n
		return true
	}, "bots", n)
}

func (s *Session) SetSetRestriction(callerID string, codes []string) error {
	return s.setOption(callerID, func(o *Options) bool {
		if reflect.DeepEqual(o.SetRestriction, codes) {
			return false
		}
		o.SetRestriction = codes
		return true
	}, "setRestriction", codes)
}

func (s *Session) SetPublic(callerID string, v bool) error {
	return s.setOption(callerID, func(o *Options) bool {
		if o.IsPublic == v {
			return false
		}
		o.IsPublic = v
		return true
	}, "isPublic", v)
}

func (s *Session) SetPickTimer(callerID string, seconds int) error {
	return s.setOption(callerID, func(o *Options) bool {
		if o.PickTimer == seconds {
			return false
		}
		o.PickTimer = seconds
		return true
	}, "setPickTimer", seconds)
}

func (s *Session) SetMaxPlayers(callerID string, n int) error {
	return s.setOption(callerID, func(o *Options) bool {
		if o.MaxPlayers == n {
			return false
		}
		o.MaxPlayers = n
		return true
	}, "setMaxPlayers", n)
}

func (s *Session) SetMaxRarity(callerID string, r catalog.Rarity) error {
	return s.setOption(callerID, func(o *Options) bool {
		if o.MaxRarity == r {
			return false
		}
		o.MaxRarity = r
		return true
	}, "setMaxRarity", r)
}

func (s *Session) SetIgnoreCollections(callerID string, v bool) error {
	return s.setOption(callerID, func(o *Options) bool {
		if o.IgnoreCollections == v {
			return false
		}
		o.IgnoreCollections = v
		return true
	}, "ignoreCollections", v)
}

func (s *Session) SetColorBalance(callerID string, v bool) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if o.ColorBalance == v {
			return false, nil
		}
		o.ColorBalance = v
		return true, map[string]interface{}{"colorBalance": v}
	})
}

func (s *Session) SetFoil(callerID string, v bool) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if o.Foil == v {
			return false, nil
		}
		o.Foil = v
		return true, map[string]interface{}{"foil": v}
	})
}

func (s *Session) SetUseCustomCardList(callerID string, v bool) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if o.UseCustomCardList == v {
			return false, nil
		}
		o.UseCustomCardList = v
		return true, map[string]interface{}{"useCustomCardList": v}
	})
}

func (s *Session) SetCustomCardList(callerID string, list *booster.CustomCardList) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if reflect.DeepEqual(o.CustomCardList, list) {
			return false, nil
		}
		o.CustomCardList = list
		return true, map[string]interface{}{"customCardList": list}
	})
}

func (s *Session) SetBurnedCardsPerRound(callerID string, n int) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if o.BurnedCardsPerRound == n {
			return false, nil
		}
		o.BurnedCardsPerRound = n
		return true, map[string]interface{}{"burnedCardsPerRound": n}
	})
}

func (s *Session) SetCustomBoosters(callerID string, boosters []string) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if reflect.DeepEqual(o.CustomBoosters, boosters) {
			return false, nil
		}
		o.CustomBoosters = boosters
		return true, map[string]interface{}{"customBoosters": boosters}
	})
}

func (s *Session) SetDistributionMode(callerID string, mode string) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if o.DistributionMode == mode {
			return false, nil
		}
		o.DistributionMode = mode
		return true, map[string]interface{}{"distributionMode": mode}
	})
}

func (s *Session) SetDraftLogRecipients(callerID string, mode string) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if o.DraftLogRecipients == mode {
			return false, nil
		}
		o.DraftLogRecipients = mode
		return true, map[string]interface{}{"draftLogRecipients": mode}
	})
}

func (s *Session) SetMaxDuplicates(callerID string, m map[catalog.Rarity]int) error {
	return s.setCoalescedOption(callerID, func(o *Options) (bool, map[string]interface{}) {
		if reflect.DeepEqual(o.MaxDuplicates, m) {
			return false, nil
		}
		o.MaxDuplicates = m
		return true, map[string]interface{}{"maxDuplicates": m}
	})
}
