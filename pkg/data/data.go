package data

import (
	"encoding/binary"
	"math/rand"
	"os"

	"github.com/pkg/errors"
)

// Keys travel between host, device and disk as little endian bytes, 8 bytes
// per key.
const KeyBytes = 8

// RandomKeys generates n uniformly random keys. The generator is local to the
// call so runs with the same seed are reproducible and concurrent callers
// don't interfere.
func RandomKeys(n int, seed int64) []uint64 {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = rnd.Uint64()
	}
	return out
}

// ToBytes encodes keys as little endian bytes.
func ToBytes(keys []uint64) []byte {
	out := make([]byte, len(keys)*KeyBytes)
	for i, k := range keys {
		binary.LittleEndian.PutUint64(out[i*KeyBytes:], k)
	}
	return out
}

// FromBytes decodes little endian bytes back into keys. The input must be a
// whole number of keys.
func FromBytes(raw []byte) ([]uint64, error) {
	if len(raw)%KeyBytes != 0 {
		return nil, errors.Errorf("Length %v is not a whole number of keys", len(raw))
	}

	out := make([]uint64, len(raw)/KeyBytes)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(raw[i*KeyBytes:])
	}
	return out, nil
}

// WriteFile stores keys at path, overwriting whatever was there.
func WriteFile(path string, keys []uint64) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Couldn't create key file %v", path)
	}

	if err := binary.Write(file, binary.LittleEndian, keys); err != nil {
		file.Close()
		return errors.Wrapf(err, "Couldn't write %v keys to %v", len(keys), path)
	}

	return file.Close()
}

// ReadFile loads a key file written by WriteFile.
func ReadFile(path string) ([]uint64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't stat key file %v", path)
	}
	if stat.Size()%KeyBytes != 0 {
		return nil, errors.Errorf("Key file %v has a partial key (%v bytes)", path, stat.Size())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't open key file %v", path)
	}
	defer file.Close()

	keys := make([]uint64, stat.Size()/KeyBytes)
	if err := binary.Read(file, binary.LittleEndian, keys); err != nil {
		return nil, errors.Wrapf(err, "Couldn't read keys from %v", path)
	}

	return keys, nil
}
