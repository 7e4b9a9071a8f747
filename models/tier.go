package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"deluxe-isa/apperrors"
)

// Tier is a membership rank. The order of the constants is the only thing that matters
// for policy decisions; names are for display and parsing.
type Tier int

const (
	TierBronze Tier = iota
	TierPrata
	TierGold
	TierPlatinum
	TierDiamante
)

// TierDefaultContent is the tier a post or story gets when none is given.
const TierDefaultContent = TierGold

// tierThresholds[t] is the minimum total XP for tier t.
var tierThresholds = [...]int64{
	TierBronze:   0,
	TierPrata:    500,
	TierGold:     1500,
	TierPlatinum: 3000,
	TierDiamante: 6000,
}

var tierNames = [...]string{
	TierBronze:   "Bronze",
	TierPrata:    "Prata",
	TierGold:     "Gold",
	TierPlatinum: "Platinum",
	TierDiamante: "Diamante",
}

// tierAliases maps every lowercase spelling seen in clients to the canonical tier.
var tierAliases = map[string]Tier{
	"bronze":   TierBronze,
	"prata":    TierPrata,
	"silver":   TierPrata,
	"gold":     TierGold,
	"platinum": TierPlatinum,
	"premium":  TierPlatinum,
	"diamante": TierDiamante,
	"diamond":  TierDiamante,
}

// AllTiers lists tiers from lowest to highest.
func AllTiers() []Tier {
	return []Tier{TierBronze, TierPrata, TierGold, TierPlatinum, TierDiamante}
}

func (t Tier) Rank() int { return int(t) }

func (t Tier) Valid() bool { return t >= TierBronze && t <= TierDiamante }

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// Threshold is the total XP at which t is reached.
func (t Tier) Threshold() int64 {
	if !t.Valid() {
		return 0
	}
	return tierThresholds[t]
}

// Next returns the tier above t, or false at the top.
func (t Tier) Next() (Tier, bool) {
	if t >= TierDiamante {
		return t, false
	}
	return t + 1, true
}

// TierFromTotalXP returns the highest tier whose threshold is <= totalXP.
// Negative values are treated as 0.
func TierFromTotalXP(totalXP int64) Tier {
	if totalXP < 0 {
		totalXP = 0
	}
	for t := TierDiamante; t > TierBronze; t-- {
		if totalXP >= tierThresholds[t] {
			return t
		}
	}
	return TierBronze
}

// XPToNextTier is how much XP is missing to reach the next tier; 0 at the top tier.
func XPToNextTier(totalXP int64) int64 {
	next, ok := TierFromTotalXP(totalXP).Next()
	if !ok {
		return 0
	}
	if totalXP < 0 {
		totalXP = 0
	}
	return next.Threshold() - totalXP
}

// ParseTier accepts any casing and the known aliases ("Premium" is Platinum, and so on).
func ParseTier(s string) (Tier, error) {
	t, ok := tierAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return TierBronze, apperrors.NewInvalidInputError(fmt.Sprintf("unknown tier %q", s))
	}
	return t, nil
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores tiers as their rank.
func (t Tier) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *Tier) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		return t.scanRank(v)
	case int32:
		return t.scanRank(int64(v))
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	case nil:
		*t = TierBronze
	default:
		return fmt.Errorf("cannot scan %T into Tier", src)
	}
	return nil
}

func (t *Tier) scanString(s string) error {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return t.scanRank(n)
	}
	return t.UnmarshalText([]byte(s))
}

func (t *Tier) scanRank(n int64) error {
	if !Tier(n).Valid() {
		return fmt.Errorf("invalid tier rank %d", n)
	}
	*t = Tier(n)
	return nil
}
