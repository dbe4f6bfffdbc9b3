package fs_test

import (
	"testing"

	"github.com/kbasic/blockfuse/blockio"
	fserrors "github.com/kbasic/blockfuse/errors"
	"github.com/kbasic/blockfuse/fs"
	"github.com/kbasic/blockfuse/fstest"
	"github.com/stretchr/testify/require"
)

func newRefDevice() *blockio.MemDevice {
	return blockio.NewMemDevice(fs.SectorSize, fs.RefDeviceBlocks*(fs.BlockSize/fs.SectorSize))
}

func TestFormat_RootDirectoryExistsAndIsEmpty(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	st, err := fsys.Getattr("/")
	require.Nil(t, err)
	require.True(t, st.IsDir())

	entries, err := fsys.Readdir("/")
	require.Nil(t, err)
	require.Empty(t, entries)
}

func TestMkdirCreateReaddir(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Mkdir("/a"))
	require.Nil(t, fsys.Create("/a/file.txt"))

	entries, err := fsys.Readdir("/a")
	require.Nil(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "file.txt", entries[0].Name)
	require.True(t, entries[0].Stat.IsFile())
}

func TestCreate_DuplicateNameFails(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Create("/dup"))
	err := fsys.Create("/dup")
	require.NotNil(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Create("/hello.txt"))
	payload := []byte("hello, block device")
	n, err := fsys.Write("/hello.txt", payload, 0)
	require.Nil(t, err)
	require.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = fsys.Read("/hello.txt", buf, 0)
	require.Nil(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)

	st, err := fsys.Getattr("/hello.txt")
	require.Nil(t, err)
	require.EqualValues(t, len(payload), st.Size)
}

func TestWrite_UnalignedOffsetsPreserveSurroundingData(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Create("/f"))
	full := make([]byte, fs.BlockSize)
	for i := range full {
		full[i] = 0xAB
	}
	_, err := fsys.Write("/f", full, 0)
	require.Nil(t, err)

	_, err = fsys.Write("/f", []byte{1, 2, 3}, 10)
	require.Nil(t, err)

	got := make([]byte, fs.BlockSize)
	_, err = fsys.Read("/f", got, 0)
	require.Nil(t, err)

	want := append([]byte{}, full...)
	copy(want[10:13], []byte{1, 2, 3})
	require.Equal(t, want, got)
}

func TestUnlink_RemovesEntryAndFreesSpace(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Create("/gone.txt"))
	_, err := fsys.Write("/gone.txt", []byte("data"), 0)
	require.Nil(t, err)

	before := fsys.Statfs()
	require.Nil(t, fsys.Unlink("/gone.txt"))
	after := fsys.Statfs()

	require.Greater(t, after.BlocksFree, before.BlocksFree)
	require.Greater(t, after.FilesFree, before.FilesFree)

	_, err = fsys.Getattr("/gone.txt")
	require.NotNil(t, err)
}

func TestRmdir_RefusesNonEmptyDirectory(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Mkdir("/d"))
	require.Nil(t, fsys.Create("/d/child"))

	require.NotNil(t, fsys.Rmdir("/d"))

	require.Nil(t, fsys.Unlink("/d/child"))
	require.Nil(t, fsys.Rmdir("/d"))
}

func TestRename_MovesEntryBetweenDirectories(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Mkdir("/src"))
	require.Nil(t, fsys.Mkdir("/dst"))
	require.Nil(t, fsys.Create("/src/file"))

	require.Nil(t, fsys.Rename("/src/file", "/dst/file"))

	_, err := fsys.Getattr("/src/file")
	require.NotNil(t, err)

	st, err := fsys.Getattr("/dst/file")
	require.Nil(t, err)
	require.True(t, st.IsFile())
}

// TestTruncate_IsANoOp pins down truncate's documented behavior: it's one of
// the three operations (truncate, access, utimens) that return success
// without changing anything.
func TestTruncate_IsANoOp(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Create("/big"))
	data := make([]byte, 3*fs.BlockSize)
	_, err := fsys.Write("/big", data, 0)
	require.Nil(t, err)

	before := fsys.Statfs()
	require.Nil(t, fsys.Truncate("/big", fs.BlockSize))
	after := fsys.Statfs()

	st, err := fsys.Getattr("/big")
	require.Nil(t, err)
	require.EqualValues(t, len(data), st.Size)
	require.Equal(t, before.BlocksFree, after.BlocksFree)
}

// TestResolve_NameIsNotAPrefixMatch pins the strict-equality decision
// recorded in DESIGN.md: a lookup for a short name must not be satisfied by
// a longer stored name that merely starts with it.
func TestResolve_NameIsNotAPrefixMatch(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Create("/abcdef"))

	_, err := fsys.Getattr("/abc")
	require.NotNil(t, err, "a prefix of a stored name must not resolve")
}

// TestResolve_PathThroughAFileIsNotFound pins down the resolver miss
// scenario: with /a existing as a regular file, resolving /a/b must report
// the same not-found error as a plain missing name, not a directory-type
// mismatch.
func TestResolve_PathThroughAFileIsNotFound(t *testing.T) {
	m := fstest.NewFormattedMount(t)
	fsys := fs.NewFileSystem(m)

	require.Nil(t, fsys.Create("/a"))

	_, err := fsys.Getattr("/a/b")
	require.NotNil(t, err)
	require.ErrorIs(t, err, fserrors.ErrNotFound)
}

func TestUnmount_PersistsAcrossReopen(t *testing.T) {
	dev := newRefDevice()
	m, err := fs.Format(dev)
	require.NoError(t, err)

	fsys := fs.NewFileSystem(m)
	require.Nil(t, fsys.Mkdir("/persisted"))
	require.Nil(t, fsys.Create("/persisted/file"))
	_, writeErr := fsys.Write("/persisted/file", []byte("durable"), 0)
	require.Nil(t, writeErr)
	require.NoError(t, fsys.Unmount())

	reopened, err := fs.Open(dev)
	require.NoError(t, err)
	reopenedFS := fs.NewFileSystem(reopened)

	st, gerr := reopenedFS.Getattr("/persisted/file")
	require.Nil(t, gerr)
	require.EqualValues(t, len("durable"), st.Size)

	buf := make([]byte, len("durable"))
	_, rerr := reopenedFS.Read("/persisted/file", buf, 0)
	require.Nil(t, rerr)
	require.Equal(t, "durable", string(buf))
}
