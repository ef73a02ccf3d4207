package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)

	require.NoError(t, db.Put([]byte("futures/id"), []byte{0x01}))

	got, err := db.Get([]byte("futures/id"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)

	ok, err := db.Has([]byte("futures/id"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Delete([]byte("futures/id")))
	ok, err = db.Has([]byte("futures/id"))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = db.Get([]byte("futures/id"))
	require.Error(t, err)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)

	value := []byte{0xAA, 0xBB}
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 0x00

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, got)
}

func TestLevelDBRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLevelDB(filepath.Join(dir, "state"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	ok, err := db.Has([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}
