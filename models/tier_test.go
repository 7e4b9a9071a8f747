package models

import (
	"encoding/json"
	"errors"
	"testing"

	"deluxe-isa/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFromTotalXPThresholds(t *testing.T) {
	cases := []struct {
		xp   int64
		want Tier
	}{
		{-50, TierBronze},
		{0, TierBronze},
		{100, TierBronze},
		{499, TierBronze},
		{500, TierPrata},
		{1499, TierPrata},
		{1500, TierGold},
		{2999, TierGold},
		{3000, TierPlatinum},
		{5999, TierPlatinum},
		{6000, TierDiamante},
		{1 << 40, TierDiamante},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TierFromTotalXP(c.xp), "xp=%d", c.xp)
	}
}

func TestTierFromTotalXPMonotonicAndStable(t *testing.T) {
	prev := TierFromTotalXP(0)
	for xp := int64(0); xp <= 7000; xp += 7 {
		got := TierFromTotalXP(xp)
		assert.GreaterOrEqual(t, got.Rank(), prev.Rank(), "xp=%d", xp)
		assert.Equal(t, got, TierFromTotalXP(xp))
		prev = got
	}
}

func TestTierOrderIsTotal(t *testing.T) {
	tiers := AllTiers()
	require.Len(t, tiers, 5)
	for i := 1; i < len(tiers); i++ {
		assert.Less(t, tiers[i-1].Rank(), tiers[i].Rank())
		assert.Less(t, tiers[i-1].Threshold(), tiers[i].Threshold())
	}
}

func TestParseTierAliases(t *testing.T) {
	cases := map[string]Tier{
		"Bronze":     TierBronze,
		"prata":      TierPrata,
		"Silver":     TierPrata,
		"GOLD":       TierGold,
		"Premium":    TierPlatinum,
		"platinum":   TierPlatinum,
		" Diamante ": TierDiamante,
		"diamond":    TierDiamante,
	}
	for in, want := range cases {
		got, err := ParseTier(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTier("vip")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestTierNextAndXPToNext(t *testing.T) {
	next, ok := TierBronze.Next()
	assert.True(t, ok)
	assert.Equal(t, TierPrata, next)

	_, ok = TierDiamante.Next()
	assert.False(t, ok)

	assert.Equal(t, int64(500), XPToNextTier(0))
	assert.Equal(t, int64(100), XPToNextTier(400))
	assert.Equal(t, int64(1000), XPToNextTier(500))
	assert.Equal(t, int64(0), XPToNextTier(9000))
}

func TestTierJSON(t *testing.T) {
	type payload struct {
		Tier Tier `json:"tier"`
	}

	out, err := json.Marshal(payload{Tier: TierPlatinum})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"Platinum"}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"tier":"Premium"}`), &in))
	assert.Equal(t, TierPlatinum, in.Tier)

	assert.Error(t, json.Unmarshal([]byte(`{"tier":"vip"}`), &in))
}

func TestTierScanRejectsUnknownRanks(t *testing.T) {
	var tier Tier
	require.NoError(t, tier.Scan(int64(3)))
	assert.Equal(t, TierPlatinum, tier)
	require.NoError(t, tier.Scan([]byte("4")))
	assert.Equal(t, TierDiamante, tier)
	require.NoError(t, tier.Scan("gold"))
	assert.Equal(t, TierGold, tier)

	for _, src := range []interface{}{int64(7), int64(-1), int32(5), "9", []byte("-2")} {
		tier = TierGold
		assert.Error(t, tier.Scan(src), "%v", src)
		assert.Equal(t, TierGold, tier)
	}
}
