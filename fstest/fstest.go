// Package fstest holds test helpers shared across this module's package
// tests: building a fresh formatted mount backed entirely by memory, and
// loading a compressed reference image the way a real test fixture would
// ship one.
package fstest

import (
	"bytes"
	"testing"

	"github.com/kbasic/blockfuse/blockio"
	"github.com/kbasic/blockfuse/fs"
	"github.com/kbasic/blockfuse/imagepack"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// NewFormattedMount formats a fresh in-memory device at the reference
// geometry (512 B sectors, 4 MiB device) and returns the resulting mount.
func NewFormattedMount(t *testing.T) *fs.Mount {
	t.Helper()
	dev := blockio.NewMemDevice(fs.SectorSize, fs.RefDeviceBlocks*(fs.BlockSize/fs.SectorSize))
	m, err := fs.Format(dev)
	require.NoError(t, err)
	return m
}

// LoadPackedImage decompresses a packed reference image and wraps it as a
// blockio.Device backed by bytesextra's byte-slice seeker, without writing
// anything to the real filesystem.
func LoadPackedImage(t *testing.T, packed []byte, sectorSize, totalSectors uint) blockio.Device {
	t.Helper()
	require.Greater(t, len(packed), 0, "packed image is empty")

	raw, err := imagepack.Unpack(bytes.NewReader(packed))
	require.NoError(t, err)
	require.Equal(t, int(sectorSize*totalSectors), len(raw), "unpacked image is the wrong size")

	stream := bytesextra.NewReadWriteSeeker(raw)
	return blockio.NewSeekerDevice(stream, sectorSize, totalSectors)
}
