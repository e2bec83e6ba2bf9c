package radix

// Host side of each pass: fold the per-group histograms into the global
// placement tables the scatter stage consumes. All of it is plain serial code,
// the tables are tiny compared to the key data.

// bucketTotals sums each digit's count across all groups. dst holds Radix
// entries, gh holds ngroup rows of Radix counts.
func bucketTotals(dst []uint32, gh []uint32, ngroup int) {
	for d := 0; d < Radix; d++ {
		sum := (uint32)(0)
		for g := 0; g < ngroup; g++ {
			sum += gh[g*Radix+d]
		}
		dst[d] = sum
	}
}

// globalPrefix computes the exclusive prefix sum of the bucket totals: where
// each digit's run begins in the pass's output. dst[0] is always 0.
func globalPrefix(dst []uint32, bt []uint32) {
	dst[0] = 0
	for d := 1; d < Radix; d++ {
		dst[d] = dst[d-1] + bt[d-1]
	}
}

// groupOffsets computes how many keys of each digit sit in groups before g,
// for every (group, digit) pair. Groups are walked in increasing index order;
// the scatter stage depends on that order for cross-group stability.
func groupOffsets(dst []uint32, gh []uint32, ngroup int) {
	for d := 0; d < Radix; d++ {
		sum := (uint32)(0)
		for g := 0; g < ngroup; g++ {
			dst[g*Radix+d] = sum
			sum += gh[g*Radix+d]
		}
	}
}
