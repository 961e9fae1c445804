package mercury

import "github.com/ChrisMcGann/mstk/pkg/core"

// distribution is an isotope envelope indexed by nominal isotope shift.
type distribution []core.SpectrumElement

// convolve returns the sparse convolution of a and b. Output index k holds
// the total abundance of all (i, j) with i+j == k and its abundance-weighted
// mean mass. An empty operand yields an empty result.
func convolve(a, b distribution) distribution {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return nil
	}
	out := make(distribution, n1+n2-1)
	for k := range out {
		start := 0
		if k >= n2 {
			start = k - n2 + 1
		}
		end := k
		if end > n1-1 {
			end = n1 - 1
		}
		var total, massExpectation float64
		for i := start; i <= end; i++ {
			ab := a[i].Abundance * b[k-i].Abundance
			if ab > 0 {
				total += ab
				massExpectation += ab * (a[i].Mz + b[k-i].Mz)
			}
		}
		// zero-probability slots are kept so that index k stays the isotope shift
		if total > 0 {
			out[k].Mz = massExpectation / total
		}
		out[k].Abundance = total
	}
	return out
}

// prune trims entries with abundance <= limit from both ends. Interior
// entries are kept so that indices keep their meaning. A zero limit leaves
// the distribution untouched.
func prune(d distribution, limit float64) distribution {
	if limit <= 0 {
		return d
	}
	l := 0
	for l < len(d) && d[l].Abundance <= limit {
		l++
	}
	r := len(d)
	for r > l && d[r-1].Abundance <= limit {
		r--
	}
	return d[l:r]
}

// power returns d convolved with itself n times by binary exponentiation,
// pruning after every step.
func power(d distribution, n uint64, limit float64) distribution {
	var acc distribution
	initialized := false
	esa := d
	for n > 0 {
		if n&1 == 1 {
			if initialized {
				acc = convolve(acc, esa)
			} else {
				acc = append(distribution(nil), esa...)
				initialized = true
			}
			acc = prune(acc, limit)
		}
		n >>= 1
		if n == 0 {
			break
		}
		esa = prune(convolve(esa, esa), limit)
	}
	return acc
}
