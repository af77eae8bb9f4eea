package interpolation

import "math/big"

// Mix writes round(a*(1-alpha) + b*alpha) per channel into dst with
// alpha = num/den, computed in integer arithmetic so the result is exact
// and halves round up. 0 <= num <= den is required; the weighted mean of two
// bytes then always fits in a byte.
func Mix(dst, a, b []byte, num, den int) {
	wa := uint32(den - num)
	wb := uint32(num)
	d := uint32(den)
	half := d / 2
	for i := range dst {
		dst[i] = byte((uint32(a[i])*wa + uint32(b[i])*wb + half) / d)
	}
}

// OutputFrameCount returns how many frames a source of n frames produces.
func OutputFrameCount(n, factor int) int {
	if n <= 0 {
		return 0
	}
	return (n-1)*(factor+1) + 1
}

// OutputFrameRate returns rate*(factor+1) exactly.
func OutputFrameRate(rate *big.Rat, factor int) *big.Rat {
	return new(big.Rat).Mul(rate, big.NewRat(int64(factor+1), 1))
}
