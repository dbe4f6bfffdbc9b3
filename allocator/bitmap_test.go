package allocator_test

import (
	"testing"

	"github.com/kbasic/blockfuse/allocator"
	fserrors "github.com/kbasic/blockfuse/errors"
	"github.com/stretchr/testify/require"
)

func TestBitmap_AllocIsFirstFit(t *testing.T) {
	bm := allocator.New(8)

	a, err := bm.Alloc()
	require.NoError(t, err)
	require.EqualValues(t, 0, a)

	b, err := bm.Alloc()
	require.NoError(t, err)
	require.EqualValues(t, 1, b)

	require.NoError(t, bm.Free(0))

	c, err := bm.Alloc()
	require.NoError(t, err)
	require.EqualValues(t, 0, c, "freeing index 0 should make it the next first-fit result")
}

func TestBitmap_AllocUniqueUntilExhausted(t *testing.T) {
	bm := allocator.New(4)
	seen := map[uint]bool{}
	for i := 0; i < 4; i++ {
		idx, err := bm.Alloc()
		require.NoError(t, err)
		require.False(t, seen[idx], "index %d allocated twice", idx)
		seen[idx] = true
	}

	_, err := bm.Alloc()
	require.ErrorIs(t, err, fserrors.ErrNoSpaceOnDevice)
}

func TestBitmap_FreeRejectsAlreadyFreeOrOutOfRange(t *testing.T) {
	bm := allocator.New(4)
	require.Error(t, bm.Free(0))
	require.Error(t, bm.Free(10))
}
