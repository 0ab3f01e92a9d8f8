package memdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/db/schema"
)

func TestGetPutHas(t *testing.T) {
	d := New()
	_, ok, err := d.Get(schema.Meta, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, d.Put(schema.Meta, []byte("k"), []byte("v")))

	v, ok, err := d.Get(schema.Meta, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	has, err := d.Has(schema.Meta, []byte("k"))
	require.NoError(t, err)
	require.True(t, has)
}

func TestBatchIsAtomicAndOrdered(t *testing.T) {
	d := New()
	b := d.NewBatch()
	require.NoError(t, b.Put(schema.Meta, []byte("a"), []byte("1")))
	require.NoError(t, b.Put(schema.Meta, []byte("b"), []byte("2")))
	require.NoError(t, b.Write())

	v, ok, _ := d.Get(schema.Meta, []byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)
	v, ok, _ = d.Get(schema.Meta, []byte("b"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

func TestIteratorAscendingFromSeek(t *testing.T) {
	d := New()
	require.NoError(t, d.Put(schema.ContractStorage, []byte("k1"), []byte("a")))
	require.NoError(t, d.Put(schema.ContractStorage, []byte("k3"), []byte("b")))
	require.NoError(t, d.Put(schema.ContractStorage, []byte("k2"), []byte("c")))

	it := d.NewIterator(schema.ContractStorage, []byte("k2"))
	defer it.Close()

	require.True(t, it.Valid())
	require.Equal(t, []byte("k2"), it.Key())
	it.Next()
	require.True(t, it.Valid())
	require.Equal(t, []byte("k3"), it.Key())
	it.Next()
	require.False(t, it.Valid())
}

func TestIteratorPrevWalksBackward(t *testing.T) {
	d := New()
	require.NoError(t, d.Put(schema.ContractStorage, []byte("k1"), []byte("a")))
	require.NoError(t, d.Put(schema.ContractStorage, []byte("k2"), []byte("b")))

	it := d.NewIterator(schema.ContractStorage, []byte("k9"))
	defer it.Close()
	require.False(t, it.Valid()) // seek past the end

	it.Prev()
	require.True(t, it.Valid())
	require.Equal(t, []byte("k2"), it.Key())
}

func TestRequestBackupDisabled(t *testing.T) {
	d := New()
	err := d.RequestBackup(nil)
	require.Error(t, err)
}
