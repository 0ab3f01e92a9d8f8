package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
)

func TestL1MessagingStoreAtMostOnce(t *testing.T) {
	s := NewL1MessagingStore(memdb.New())
	nonce := felt.FromUint64(775628)

	first, err := s.MarkNonceIfUnseen(nonce)
	require.NoError(t, err)
	require.True(t, first)

	second, err := s.MarkNonceIfUnseen(nonce)
	require.NoError(t, err)
	require.False(t, second)
}
