//go:build !js

package storage_test

import (
	"testing"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/object/storage"
	tu "github.com/named-data/ndnplay/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore(t *testing.T) {
	tu.SetT(t)
	dir := t.TempDir()

	store := tu.NoErr(storage.NewBadgerStore(dir))
	testStoreBasic(t, store)
	require.NoError(t, store.Close())

	// persisted across reopen
	store = tu.NoErr(storage.NewBadgerStore(dir))
	name := tu.NoErr(enc.NameFromStr("/persist/v=1"))
	require.NoError(t, store.Put(name, []byte("data")))
	require.NoError(t, store.Close())

	store = tu.NoErr(storage.NewBadgerStore(dir))
	require.Equal(t, []byte("data"), tu.NoErr(store.Get(name)))
	require.NoError(t, store.Close())
}
