package imagepack_test

import (
	"bytes"
	"testing"

	"github.com/kbasic/blockfuse/imagepack"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/require"
)

func TestPackUnpack_RoundTrip(t *testing.T) {
	source := make([]byte, 8192)
	for i := 2000; i < 2050; i++ {
		source[i] = byte(i)
	}

	var packed bytes.Buffer
	_, err := imagepack.Pack(source, &packed)
	require.NoError(t, err)
	require.Less(t, packed.Len(), len(source), "a mostly-zero image should compress")

	got, err := imagepack.Unpack(&packed)
	require.NoError(t, err)
	require.Equal(t, source, got)
}

func TestPackUnpack_IntoFixedBuffer(t *testing.T) {
	source := bytes.Repeat([]byte{0x42}, 4096)

	fixed := make([]byte, 1024)
	writer := bytewriter.New(fixed)

	n, err := imagepack.Pack(source, writer)
	require.NoError(t, err)
	require.Greater(t, n, int64(0))

	got, err := imagepack.Unpack(bytes.NewReader(fixed[:n]))
	require.NoError(t, err)
	require.Equal(t, source, got)
}
