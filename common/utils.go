package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// PrefixSum returns the exclusive prefix sum of counts, so out[i] is the sum of counts[:i].
//
// Parameters:
//   - counts: the values to accumulate
//
// Returns:
//   - []uint32: the exclusive prefix sum, same length as counts
//   - uint32: the total of all counts
func PrefixSum(counts []uint32) ([]uint32, uint32) {
	out := make([]uint32, len(counts))
	var running uint32
	for i, c := range counts {
		out[i] = running
		running += c
	}
	return out, running
}
