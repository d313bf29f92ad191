package block

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to create a new AferoStore backed by an in-memory filesystem
func newTestStore(t *testing.T) (*AferoStore, afero.Fs) {
	t.Helper()
	memFs := afero.NewMemMapFs()
	store, err := NewAferoStore(memFs, "/blocks", nil)
	require.NoError(t, err)
	return store, memFs
}

func TestAferoStore_PutAndGet(t *testing.T) {
	tests := []struct {
		name        string
		blockID     string
		data        []byte
		expectErr   bool
		expectedErr error
	}{
		{
			name:    "success: store and get block",
			blockID: FormatBlockID("file-1", 0),
			data:    []byte("hello"),
		},
		{
			name:    "success: empty block",
			blockID: FormatBlockID("file-1", 1),
			data:    []byte{},
		},
		{
			name:        "error: invalid id format",
			blockID:     "invalid",
			data:        []byte("bad"),
			expectErr:   true,
			expectedErr: ErrInvalidBlockID,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, _ := newTestStore(t)
			header, err := store.Put(tc.blockID, tc.data)
			if tc.expectErr {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(len(tc.data)), header.Size)
			assert.Equal(t, CalculateChecksum(tc.data), header.Checksum)

			got, err := store.Get(tc.blockID)
			require.NoError(t, err)
			assert.Equal(t, tc.data, got)

			gotHeader, err := store.Header(tc.blockID)
			require.NoError(t, err)
			assert.Equal(t, header, gotHeader)
			assert.True(t, store.Exists(tc.blockID))
		})
	}
}

func TestAferoStore_GetDetectsCorruption(t *testing.T) {
	store, memFs := newTestStore(t)
	blockID := FormatBlockID("file-1", 0)
	_, err := store.Put(blockID, []byte("original"))
	require.NoError(t, err)

	path, err := store.blockPath(blockID)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(memFs, path, []byte("tampered"), 0644))

	_, err = store.Get(blockID)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestAferoStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get(FormatBlockID("missing", 0))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Exists(FormatBlockID("missing", 0)))
}

func TestAferoStore_DeleteAndList(t *testing.T) {
	store, memFs := newTestStore(t)
	ids := []string{FormatBlockID("a", 0), FormatBlockID("a", 1), FormatBlockID("b", 0)}
	for _, id := range ids {
		_, err := store.Put(id, []byte(id))
		require.NoError(t, err)
	}

	listed, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, listed)

	require.NoError(t, store.Delete(ids[2]))
	assert.False(t, store.Exists(ids[2]))

	// prefix directories of the deleted block are cleaned up
	path, _ := store.blockPath(ids[2])
	exists, err := afero.DirExists(memFs, filepath.Dir(filepath.Dir(path)))
	require.NoError(t, err)
	if HashFileID("b")[:2] != HashFileID("a")[:2] {
		assert.False(t, exists)
	}

	listed, err = store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[:2], listed)

	assert.ErrorIs(t, store.Delete(ids[2]), ErrNotFound)
}

func TestParseBlockID(t *testing.T) {
	id := FormatBlockID("file-7", 12)
	hash, index, err := ParseBlockID(id)
	require.NoError(t, err)
	assert.Equal(t, HashFileID("file-7"), hash)
	assert.Equal(t, 12, index)

	for _, bad := range []string{"", "abc_1", "zzzzzzzzzzzzzzzz_1", HashFileID("x") + "_-1", HashFileID("x") + "_one", "a_b_c"} {
		_, _, err := ParseBlockID(bad)
		assert.ErrorIs(t, err, ErrInvalidBlockID, bad)
	}
}
