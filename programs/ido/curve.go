package ido

// Bonding-curve pricing for the token sale. Both curves are closed-form
// arithmetic: no iteration, no on-chain reads.

// Curve parameters. Amounts are in whole USDC, prices in USDC per token.
const (
	// MinPrice is the sale floor price before any deposits.
	MinPrice = 0.15

	// MaxPrice is the asymptotic ceiling the price approaches as deposits
	// grow.
	MaxPrice = 4.0

	// PriceCurveConstant is the USDC amount at which the price sits halfway
	// between floor and ceiling.
	PriceCurveConstant = 2_000_000.0

	// MinDepositCap and MaxDepositCap bound the per-wallet deposit limit
	// over the life of the sale.
	MinDepositCap = 500.0
	MaxDepositCap = 25_000.0
)

// MeanPriceCurve returns the current token price for a given total USDC
// deposited into the pool. The curve rises from MinPrice toward MaxPrice,
// reaching the midpoint at PriceCurveConstant deposited:
//
//	price(d) = MinPrice + (MaxPrice-MinPrice) * d / (d + PriceCurveConstant)
//
// It is monotonically increasing and bounded above by MaxPrice.
func MeanPriceCurve(usdcDeposited float64) float64 {
	if usdcDeposited <= 0 {
		return MinPrice
	}
	return MinPrice + (MaxPrice-MinPrice)*usdcDeposited/(usdcDeposited+PriceCurveConstant)
}

// USDCMaxCurve returns the per-wallet deposit cap as a function of sale
// progress. elapsed and duration are in seconds; the cap grows linearly
// from MinDepositCap at open to MaxDepositCap at close, clamped at both
// ends.
func USDCMaxCurve(elapsedSeconds, durationSeconds uint64) float64 {
	if durationSeconds == 0 || elapsedSeconds >= durationSeconds {
		return MaxDepositCap
	}
	progress := float64(elapsedSeconds) / float64(durationSeconds)
	return MinDepositCap + (MaxDepositCap-MinDepositCap)*progress
}

// TokensForDeposit returns how many tokens a deposit of usdc buys at the
// current pool level, priced at the curve midpoint of the deposit range so
// large deposits do not all fill at the pre-deposit price.
func TokensForDeposit(usdcDeposited, usdc float64) float64 {
	if usdc <= 0 {
		return 0
	}
	price := MeanPriceCurve(usdcDeposited + usdc/2)
	return usdc / price
}
