package asset

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	usdc, ok := Lookup("USDC")
	require.True(t, ok)
	assert.True(t, usdc.Stable)
	assert.EqualValues(t, 6, usdc.Decimals)

	_, ok = Lookup("DOGE")
	assert.False(t, ok)
}

func TestIsStable(t *testing.T) {
	assert.True(t, IsStable("USDT"))
	assert.False(t, IsStable("ETH"))
	assert.False(t, IsStable("DOGE"))
}

func TestToSmallestUnit(t *testing.T) {
	units, err := ToSmallestUnit("USDC", decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.EqualValues(t, 12500000, units)

	units, err = ToSmallestUnit("WBTC", decimal.RequireFromString("0.00000001"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, units)
}

func TestToSmallestUnitRejectsDust(t *testing.T) {
	_, err := ToSmallestUnit("USDC", decimal.RequireFromString("0.0000001"))
	assert.Error(t, err)
}

func TestToSmallestUnitRejectsUnknownAsset(t *testing.T) {
	_, err := ToSmallestUnit("DOGE", decimal.RequireFromString("1"))
	assert.Error(t, err)
}

func TestFromSmallestUnitRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("1234.567891")
	units, err := ToSmallestUnit("USDC", amount)
	require.NoError(t, err)

	back, err := FromSmallestUnit("USDC", units)
	require.NoError(t, err)
	assert.True(t, amount.Equal(back))
}

func TestAllSorted(t *testing.T) {
	assets := All()
	require.NotEmpty(t, assets)
	for i := 1; i < len(assets); i++ {
		assert.Less(t, assets[i-1].Symbol, assets[i].Symbol)
	}
}
