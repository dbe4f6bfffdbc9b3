package blockio_test

import (
	"testing"

	"github.com/kbasic/blockfuse/blockio"
	"github.com/stretchr/testify/require"
)

func TestShim_WriteAt_PreservesSurroundingBytes(t *testing.T) {
	dev := blockio.NewMemDevice(16, 4)
	shim := blockio.NewShim(dev)

	full := make([]byte, 16)
	for i := range full {
		full[i] = 0xAA
	}
	require.NoError(t, shim.WriteAt(0, full))

	// A short, unaligned write in the middle of sector 0 must leave the rest
	// of that sector untouched.
	require.NoError(t, shim.WriteAt(4, []byte{1, 2, 3}))

	got, err := shim.ReadAt(0, 16)
	require.NoError(t, err)
	want := append([]byte{}, full...)
	copy(want[4:7], []byte{1, 2, 3})
	require.Equal(t, want, got)
}

func TestShim_ReadAt_SpansMultipleSectors(t *testing.T) {
	dev := blockio.NewMemDevice(8, 4)
	shim := blockio.NewShim(dev)

	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, shim.WriteAt(0, data))

	got, err := shim.ReadAt(5, 10)
	require.NoError(t, err)
	require.Equal(t, data[5:15], got)
}

func TestShim_RoundTrip_ArbitraryOffsets(t *testing.T) {
	dev := blockio.NewMemDevice(512, 8)
	shim := blockio.NewShim(dev)

	payload := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, shim.WriteAt(1000, payload))

	got, err := shim.ReadAt(1000, len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
