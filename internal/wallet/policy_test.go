package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAssetAllowed(t *testing.T) {
	tests := []struct {
		name    string
		wallet  Wallet
		asset   string
		allowed bool
	}{
		{"standard allows stablecoin", Wallet{Type: TypeStandard}, "USDC", true},
		{"standard allows volatile asset", Wallet{Type: TypeStandard}, "ETH", true},
		{"standard rejects unrecognized", Wallet{Type: TypeStandard}, "DOGE", false},
		{"savings allows recognized", Wallet{Type: TypeSavingsOnly}, "USDT", true},
		{"stablecoins-only allows stable", Wallet{Type: TypeStableCoinsOnly}, "DAI", true},
		{"stablecoins-only rejects volatile", Wallet{Type: TypeStableCoinsOnly}, "ETH", false},
		{"custom allows member", Wallet{Type: TypeCustom, AllowedAssets: []string{"USDC"}}, "USDC", true},
		{"custom rejects non-member", Wallet{Type: TypeCustom, AllowedAssets: []string{"USDC"}}, "USDT", false},
		{"custom rejects unrecognized member", Wallet{Type: TypeCustom, AllowedAssets: []string{"DOGE"}}, "DOGE", false},
		{"unknown type rejects everything", Wallet{Type: Type("LEGACY")}, "USDC", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, IsAssetAllowed(&tt.wallet, tt.asset))
		})
	}
}

func TestValidType(t *testing.T) {
	for _, typ := range AllowedTypes {
		assert.True(t, ValidType(typ))
	}
	assert.False(t, ValidType(Type("CHECKING")))
}
