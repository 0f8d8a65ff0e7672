package listing

import "math/big"

// mulDiv computes a*b/den with floor division, widening through big.Int so
// escrow rate math cannot overflow uint64 midway.
func mulDiv(a, b, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	var n, m, d big.Int
	n.SetUint64(a)
	m.SetUint64(b)
	d.SetUint64(den)
	n.Mul(&n, &m)
	n.Div(&n, &d)
	return n.Uint64()
}
