package approval

import "github.com/holiman/uint256"

// unlimitedThreshold is floor(0.9 * (2^256 - 1)), computed once in 256-bit
// integer arithmetic. A float64 comparison against 2^256 loses more than 200
// bits of precision and would misclassify allowances near the threshold;
// uint256 comparison is exact.
var unlimitedThreshold = computeUnlimitedThreshold()

func computeUnlimitedThreshold() *uint256.Int {
	maxU256, _ := uint256.FromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	// floor(max * 9 / 10) without overflow: max*9 wraps in 256 bits, so split
	// max = 10q + r and compute 9q + floor(9r/10), which is exact.
	q, r := new(uint256.Int), new(uint256.Int)
	ten := uint256.NewInt(10)
	q.DivMod(maxU256, ten, r)

	nine := uint256.NewInt(9)
	whole := new(uint256.Int).Mul(q, nine)
	frac := new(uint256.Int).Mul(r, nine)
	frac.Div(frac, ten)

	return whole.Add(whole, frac)
}

// IsUnlimited reports whether an ERC-20 allowance should be treated as
// unlimited: v >= floor(0.9 * (2^256 - 1)).
func IsUnlimited(v *uint256.Int) bool {
	if v == nil {
		return false
	}
	return v.Cmp(unlimitedThreshold) >= 0
}

// UnlimitedThreshold returns the threshold value, for tests and display.
func UnlimitedThreshold() *uint256.Int {
	return new(uint256.Int).Set(unlimitedThreshold)
}
