package radix

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// MismatchError reports the first position where a sort result disagrees with
// the reference ordering. Callers treat any CheckSort failure as a
// correctness failure, which is reported separately from operational errors.
type MismatchError struct {
	Index int
	Want  uint64
	Got   uint64
}

func (self *MismatchError) Error() string {
	return fmt.Sprintf("Result doesn't match reference at %v: expected %v, got %v", self.Index, self.Want, self.Got)
}

// CheckSort verifies new against an independently sorted copy of orig. The
// reference comes from the standard comparison sort, none of the bucketed
// machinery under test is involved.
func CheckSort(orig []uint64, new []uint64) error {
	if len(orig) != len(new) {
		return errors.Errorf("Lengths do not match: expected %v, got %v", len(orig), len(new))
	}

	ref := make([]uint64, len(orig))
	copy(ref, orig)
	sort.Slice(ref, func(i, j int) bool { return ref[i] < ref[j] })

	for i := 0; i < len(ref); i++ {
		if ref[i] != new[i] {
			return &MismatchError{Index: i, Want: ref[i], Got: new[i]}
		}
	}
	return nil
}
