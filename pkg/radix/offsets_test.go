package radix

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomHistograms(ngroup int, seed int64) []uint32 {
	rnd := rand.New(rand.NewSource(seed))
	gh := make([]uint32, ngroup*Radix)
	for i := range gh {
		gh[i] = (uint32)(rnd.Intn(37))
	}
	return gh
}

func TestBucketTotals(t *testing.T) {
	ngroup := 5
	gh := randomHistograms(ngroup, 1)

	bt := make([]uint32, Radix)
	bucketTotals(bt, gh, ngroup)

	for d := 0; d < Radix; d++ {
		want := (uint32)(0)
		for g := 0; g < ngroup; g++ {
			want += gh[g*Radix+d]
		}
		require.Equalf(t, want, bt[d], "Wrong total for digit %v", d)
	}
}

func TestGlobalPrefix(t *testing.T) {
	ngroup := 5
	gh := randomHistograms(ngroup, 2)

	bt := make([]uint32, Radix)
	pg := make([]uint32, Radix)
	bucketTotals(bt, gh, ngroup)
	globalPrefix(pg, bt)

	require.Zero(t, pg[0], "Prefix must start at zero")
	for d := 1; d < Radix; d++ {
		require.Equalf(t, pg[d-1]+bt[d-1], pg[d], "Prefix broken at digit %v", d)
	}

	total := (uint32)(0)
	for d := 0; d < Radix; d++ {
		total += bt[d]
	}
	require.Equal(t, total, pg[Radix-1]+bt[Radix-1], "Prefix does not cover all keys")
}

func TestGroupOffsets(t *testing.T) {
	ngroup := 5
	gh := randomHistograms(ngroup, 3)

	goTab := make([]uint32, ngroup*Radix)
	groupOffsets(goTab, gh, ngroup)

	for d := 0; d < Radix; d++ {
		require.Zerof(t, goTab[d], "Group 0 must start digit %v at zero", d)
		for g := 1; g < ngroup; g++ {
			want := goTab[(g-1)*Radix+d] + gh[(g-1)*Radix+d]
			require.Equalf(t, want, goTab[g*Radix+d], "Offset broken at group %v digit %v", g, d)
		}
	}
}
