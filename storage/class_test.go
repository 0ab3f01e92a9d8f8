package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
)

func TestClassStoreRoundTrip(t *testing.T) {
	d := memdb.New()
	cs := NewClassStore(d)
	classHash := felt.FromUint64(0xC1A55)

	batch := d.NewBatch()
	require.NoError(t, cs.PutClass(batch, ContractClass{ClassHash: classHash, Raw: []byte("sierra-bytes"), Legacy: false}))
	require.NoError(t, cs.PutCompiledClass(batch, CompiledClass{ClassHash: classHash, Raw: []byte("casm-bytes")}))
	require.NoError(t, cs.PutCompiledClassHash(batch, classHash, felt.FromUint64(0xCC)))
	require.NoError(t, batch.Write())

	class, ok, err := cs.GetClass(classHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "sierra-bytes", string(class.Raw))
	require.False(t, class.Legacy)

	compiled, ok, err := cs.GetCompiledClass(classHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "casm-bytes", string(compiled.Raw))

	cch, ok, err := cs.GetCompiledClassHash(classHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, cch.Equal(felt.FromUint64(0xCC)))
}

func TestClassStoreMissing(t *testing.T) {
	d := memdb.New()
	cs := NewClassStore(d)
	_, ok, err := cs.GetClass(felt.FromUint64(1))
	require.NoError(t, err)
	require.False(t, ok)
}
