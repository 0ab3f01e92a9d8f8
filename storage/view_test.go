package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
	"github.com/sncore/node/db/schema"
)

func TestViewGetContainsRoundTrip(t *testing.T) {
	d := memdb.New()
	mut := NewViewMut[felt.Felt, felt.Felt](d, schema.ContractClassHashes, feltKeyEncoder, feltValueCodec())

	k := felt.FromUint64(1)
	v := felt.FromUint64(2)
	mut.Insert(k, v)
	require.Equal(t, 1, mut.Len())
	require.NoError(t, mut.Commit(0))

	view := NewView[felt.Felt, felt.Felt](d, schema.ContractClassHashes, feltKeyEncoder, feltValueCodec())
	got, ok, err := view.Get(k)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(v))

	has, err := view.Contains(k)
	require.NoError(t, err)
	require.True(t, has)

	has, err = view.Contains(felt.FromUint64(999))
	require.NoError(t, err)
	require.False(t, has)
}

func TestViewMutPanicsOnDoubleCommit(t *testing.T) {
	d := memdb.New()
	mut := NewViewMut[felt.Felt, felt.Felt](d, schema.ContractClassHashes, feltKeyEncoder, feltValueCodec())
	mut.Insert(felt.FromUint64(1), felt.FromUint64(1))
	require.NoError(t, mut.Commit(0))
	require.Panics(t, func() { _ = mut.Commit(0) })
}

func TestViewContainsNeverTrueWithoutGet(t *testing.T) {
	d := memdb.New()
	view := NewView[felt.Felt, felt.Felt](d, schema.ContractClassHashes, feltKeyEncoder, feltValueCodec())
	has, err := view.Contains(felt.FromUint64(123))
	require.NoError(t, err)
	require.False(t, has)
	_, ok, err := view.Get(felt.FromUint64(123))
	require.NoError(t, err)
	require.False(t, ok)
}
