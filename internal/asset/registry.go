package asset

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Asset describes one recognized settlement-layer asset. Amounts move
// through the system as int64 in the asset's smallest unit; the settlement
// network reports balances as decimal strings, converted with Decimals.
type Asset struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
	Stable   bool   `json:"stable"`
}

var registry = map[string]Asset{
	"USDC": {Symbol: "USDC", Name: "USD Coin", Decimals: 6, Stable: true},
	"USDT": {Symbol: "USDT", Name: "Tether USD", Decimals: 6, Stable: true},
	"DAI":  {Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18, Stable: true},
	"EURC": {Symbol: "EURC", Name: "Euro Coin", Decimals: 6, Stable: true},
	"ETH":  {Symbol: "ETH", Name: "Ether", Decimals: 18, Stable: false},
	"WBTC": {Symbol: "WBTC", Name: "Wrapped Bitcoin", Decimals: 8, Stable: false},
}

func Lookup(symbol string) (Asset, bool) {
	a, ok := registry[symbol]
	return a, ok
}

func IsRecognized(symbol string) bool {
	_, ok := registry[symbol]
	return ok
}

func IsStable(symbol string) bool {
	a, ok := registry[symbol]
	return ok && a.Stable
}

func All() []Asset {
	assets := make([]Asset, 0, len(registry))
	for _, a := range registry {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })
	return assets
}

// ToSmallestUnit converts a settlement-layer decimal amount into the
// asset's smallest unit. Fractional dust beyond the asset's precision is
// rejected rather than rounded.
func ToSmallestUnit(symbol string, amount decimal.Decimal) (int64, error) {
	a, ok := registry[symbol]
	if !ok {
		return 0, fmt.Errorf("unrecognized asset: %s", symbol)
	}

	scaled := amount.Shift(a.Decimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s exceeds %s precision", amount, symbol)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s overflows smallest-unit range", amount)
	}
	return scaled.IntPart(), nil
}

func FromSmallestUnit(symbol string, units int64) (decimal.Decimal, error) {
	a, ok := registry[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("unrecognized asset: %s", symbol)
	}
	return decimal.NewFromInt(units).Shift(-a.Decimals), nil
}
