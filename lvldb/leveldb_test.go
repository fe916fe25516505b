// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	disk, err := New(filepath.Join(t.TempDir(), "db"), Options{16, 16})
	require.NoError(t, err)
	defer disk.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{disk, mem} {
		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		require.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(inValidKey)
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestLevelDBBulkAndIterate(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("p0"), []byte("gone")))

	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("p1"), []byte("a")))
	require.NoError(t, bulk.Put([]byte("p2"), []byte("b")))
	require.NoError(t, bulk.Put([]byte("q1"), []byte("c")))
	require.NoError(t, bulk.Delete([]byte("p0")))
	assert.Equal(t, 4, bulk.Len())

	has, _ := db.Has([]byte("p1"))
	assert.False(t, has, "bulk not yet written")

	require.NoError(t, bulk.Write())
	assert.Equal(t, 0, bulk.Len())

	it := db.Iterate(kv.PrefixRange([]byte("p")))
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"p1", "p2"}, keys)
}

func TestLevelDBBucket(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	s := kv.Bucket("x/").NewStore(db)
	require.NoError(t, s.Put([]byte("k"), []byte("v")))

	got, err := db.Get([]byte("x/k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	stats, err := db.Stats("leveldb.stats")
	require.NoError(t, err)
	assert.NotEmpty(t, stats)
}
