package radix

// SortLocal sorts keys ascending on the host with a single-threaded least
// significant digit radix sort using 11 bit digits. It needs no device and
// serves as the baseline the device path is measured against. The input is
// not modified.
func SortLocal(keys []uint64) []uint64 {
	const bits = 11
	const buckets = 1 << bits
	const passes = (KeyBits + bits - 1) / bits

	n := len(keys)
	out := make([]uint64, n)
	if n == 0 {
		return out
	}

	src := make([]uint64, n)
	copy(src, keys)
	dst := out

	var hist [buckets]uint32
	var offsets [buckets + 1]int

	for pass := 0; pass < passes; pass++ {
		shift := (uint)(pass * bits)

		for b := range hist {
			hist[b] = 0
		}
		for i := 0; i < n; i++ {
			hist[(src[i]>>shift)&(buckets-1)]++
		}

		offsets[0] = 0
		for b := 0; b < buckets; b++ {
			offsets[b+1] = offsets[b] + (int)(hist[b])
		}

		for i := 0; i < n; i++ {
			b := (src[i] >> shift) & (buckets - 1)
			dst[offsets[b]] = src[i]
			offsets[b]++
		}

		src, dst = dst, src
	}

	// An odd pass count would have left the final ordering in the scratch
	// buffer instead of out.
	if &src[0] != &out[0] {
		copy(out, src)
	}
	return out
}
