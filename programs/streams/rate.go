package streams

import "math/big"

// StreamedUnits returns how many token units have vested after
// elapsedSeconds for a stream paying rateAmount units per rateInterval
// seconds, with cliffUnits released at start. The result saturates at
// allocationUnits. Intermediate math uses big.Int so rate * elapsed cannot
// overflow.
func StreamedUnits(rateAmount, rateInterval, elapsedSeconds, cliffUnits, allocationUnits uint64) uint64 {
	if rateInterval == 0 {
		return min64(cliffUnits, allocationUnits)
	}

	vested := new(big.Int).Mul(
		new(big.Int).SetUint64(rateAmount),
		new(big.Int).SetUint64(elapsedSeconds),
	)
	vested.Div(vested, new(big.Int).SetUint64(rateInterval))
	vested.Add(vested, new(big.Int).SetUint64(cliffUnits))

	total := new(big.Int).SetUint64(allocationUnits)
	if vested.Cmp(total) > 0 {
		return allocationUnits
	}
	return vested.Uint64()
}

// WithdrawableUnits returns how much the beneficiary can withdraw now:
// vested units minus what was already withdrawn.
func WithdrawableUnits(rateAmount, rateInterval, elapsedSeconds, cliffUnits, allocationUnits, withdrawnUnits uint64) uint64 {
	vested := StreamedUnits(rateAmount, rateInterval, elapsedSeconds, cliffUnits, allocationUnits)
	if withdrawnUnits >= vested {
		return 0
	}
	return vested - withdrawnUnits
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
