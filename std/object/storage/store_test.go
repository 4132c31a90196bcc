package storage_test

import (
	"testing"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/ndn"
	"github.com/named-data/ndnplay/std/object/storage"
	tu "github.com/named-data/ndnplay/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func testStoreBasic(t *testing.T, store ndn.Store) {
	name1 := tu.NoErr(enc.NameFromStr("/ndn/edu/ucla/video/seg.m4s/v=1"))
	name2 := tu.NoErr(enc.NameFromStr("/ndn/edu/ucla/video/seg.m4s/v=5"))
	name3 := tu.NoErr(enc.NameFromStr("/ndn/edu/arizona/video/init.mp4/v=11"))

	payload1 := []byte{0x01, 0x02, 0x03}
	payload2 := []byte{0x04, 0x05, 0x06}
	payload3 := []byte{0x07, 0x08, 0x09}

	// get when empty
	require.Nil(t, tu.NoErr(store.Get(name1)))

	require.NoError(t, store.Put(name1, payload1))
	require.Equal(t, payload1, tu.NoErr(store.Get(name1)))

	// only exact names match
	require.Nil(t, tu.NoErr(store.Get(name1.Prefix(-1))))

	require.NoError(t, store.Put(name2, payload2))
	require.NoError(t, store.Put(name3, payload3))
	require.Equal(t, payload2, tu.NoErr(store.Get(name2)))

	// replace
	require.NoError(t, store.Put(name2, payload3))
	require.Equal(t, payload3, tu.NoErr(store.Get(name2)))

	require.NoError(t, store.Remove(name1))
	require.Nil(t, tu.NoErr(store.Get(name1)))

	// clear the ucla subtree
	require.NoError(t, store.RemovePrefix(name1.Prefix(3)))
	require.Nil(t, tu.NoErr(store.Get(name2)))
	require.Equal(t, payload3, tu.NoErr(store.Get(name3)))

	// a sibling with a longer component is not under the prefix
	sibling := tu.NoErr(enc.NameFromStr("/ndn/edu/arizonax/a"))
	require.NoError(t, store.Put(sibling, payload1))
	require.NoError(t, store.RemovePrefix(tu.NoErr(enc.NameFromStr("/ndn/edu/arizona"))))
	require.Nil(t, tu.NoErr(store.Get(name3)))
	require.Equal(t, payload1, tu.NoErr(store.Get(sibling)))
}

func TestMemoryStore(t *testing.T) {
	tu.SetT(t)

	store := tu.NoErr(storage.NewMemoryStore(16))
	testStoreBasic(t, store)
	require.NoError(t, store.Close())
}

func TestMemoryStoreEviction(t *testing.T) {
	tu.SetT(t)

	store := tu.NoErr(storage.NewMemoryStore(2))
	a := tu.NoErr(enc.NameFromStr("/a/v=1"))
	b := tu.NoErr(enc.NameFromStr("/b/v=1"))
	c := tu.NoErr(enc.NameFromStr("/c/v=1"))

	require.NoError(t, store.Put(a, []byte("a")))
	require.NoError(t, store.Put(b, []byte("b")))
	tu.NoErr(store.Get(a)) // a is now most recent
	require.NoError(t, store.Put(c, []byte("c")))

	require.Equal(t, 2, store.Len())
	require.Equal(t, []byte("a"), tu.NoErr(store.Get(a)))
	require.Nil(t, tu.NoErr(store.Get(b)))

	tu.Err(storage.NewMemoryStore(0))
}
