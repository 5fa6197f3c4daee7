package wallet

import "github.com/veltapay/velta-wallet/internal/asset"

// IsAssetAllowed evaluates the wallet's asset policy. STANDARD and
// SAVINGS_ONLY accept any recognized asset, STABLECOINS_ONLY only assets
// flagged stable in the registry, CUSTOM only the configured list.
func IsAssetAllowed(w *Wallet, symbol string) bool {
	if !asset.IsRecognized(symbol) {
		return false
	}

	switch w.Type {
	case TypeStandard, TypeSavingsOnly:
		return true
	case TypeStableCoinsOnly:
		return asset.IsStable(symbol)
	case TypeCustom:
		for _, allowed := range w.AllowedAssets {
			if allowed == symbol {
				return true
			}
		}
		return false
	default:
		return false
	}
}
