package registry

// isPermutation reports whether b contains exactly the same dimension
// names as a, in any order.
func isPermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	count := map[string]int{}
	for _, d := range a {
		count[d]++
	}
	for _, d := range b {
		count[d]--
	}
	for _, n := range count {
		if n != 0 {
			return false
		}
	}
	return true
}

// removeDim returns dims with name removed (first occurrence only).
func removeDim(dims []string, name string) []string {
	out := make([]string, 0, len(dims))
	removed := false
	for _, d := range dims {
		if !removed && d == name {
			removed = true
			continue
		}
		out = append(out, d)
	}
	return out
}

// hasDim reports whether name is present in dims.
func hasDim(dims []string, name string) bool {
	for _, d := range dims {
		if d == name {
			return true
		}
	}
	return false
}

// rowMajorStrides returns the stride of each axis of a row-major array
// of the given shape (last axis fastest).
func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

