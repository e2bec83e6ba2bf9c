package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomKeys(t *testing.T) {
	a := RandomKeys(1021, 42)
	b := RandomKeys(1021, 42)
	require.Equal(t, a, b, "Same seed should give the same keys")

	c := RandomKeys(1021, 43)
	require.NotEqual(t, a, c, "Different seeds should give different keys")

	require.Empty(t, RandomKeys(0, 0), "Zero keys requested")
}

func TestByteRoundTrip(t *testing.T) {
	keys := RandomKeys(257, 0)

	raw := ToBytes(keys)
	require.Equal(t, len(keys)*KeyBytes, len(raw), "Encoded length is wrong")

	back, err := FromBytes(raw)
	require.Nil(t, err, "Failed to decode")
	require.Equal(t, keys, back, "Round trip changed the keys")
}

func TestByteOrder(t *testing.T) {
	raw := ToBytes([]uint64{0x0807060504030201})
	for i := 0; i < KeyBytes; i++ {
		require.Equalf(t, (byte)(i+1), raw[i], "Byte %v is not little endian", i)
	}
}

func TestFromBytesPartialKey(t *testing.T) {
	_, err := FromBytes(make([]byte, KeyBytes+3))
	require.NotNil(t, err, "Partial keys should be rejected")
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.dat")
	keys := RandomKeys(1111, 7)

	err := WriteFile(path, keys)
	require.Nil(t, err, "Failed to write key file")

	back, err := ReadFile(path)
	require.Nil(t, err, "Failed to read key file")
	require.Equal(t, keys, back, "File round trip changed the keys")
}

func TestReadFileErrors(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "nope.dat"))
		require.NotNil(t, err, "Missing file should fail")
	})

	t.Run("PartialKey", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ragged.dat")
		require.Nil(t, os.WriteFile(path, make([]byte, KeyBytes*3+1), 0644), "Setup failed")

		_, err := ReadFile(path)
		require.NotNil(t, err, "Ragged file should fail")
	})
}
