package gpib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/benchgpib/pkg/gpib"
)

func TestParseBlockDefinite(t *testing.T) {
	payload, err := gpib.ParseBlock([]byte("#15HELLO\n"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(payload))
}

func TestParseBlockIndefinite(t *testing.T) {
	payload, err := gpib.ParseBlock([]byte("#0BM\x00\x01\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("BM\x00\x01"), payload)
}

func TestParseBlockPassThrough(t *testing.T) {
	raw := []byte("BM raw bitmap")
	payload, err := gpib.ParseBlock(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, payload)
}

func TestParseBlockErrors(t *testing.T) {
	for _, bad := range []string{"#", "#x12", "#3", "#2ab", "#210short"} {
		_, err := gpib.ParseBlock([]byte(bad))
		assert.ErrorIs(t, err, gpib.ErrInvalidBlock, bad)
	}
}

func TestBlockSize(t *testing.T) {
	size, ok := gpib.BlockSize([]byte("#15HE"))
	require.True(t, ok)
	assert.Equal(t, 8, size)

	size, ok = gpib.BlockSize([]byte("#6204862BM"))
	require.True(t, ok)
	assert.Equal(t, 204870, size)

	for _, partial := range []string{"", "#", "#3", "#320", "#0BM", "BM", "#2x1"} {
		_, ok := gpib.BlockSize([]byte(partial))
		assert.False(t, ok, partial)
	}
}

func TestParseBlockIndefiniteDropsOnlyFinalNewline(t *testing.T) {
	payload, err := gpib.ParseBlock([]byte("#0BM\n\x00\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("BM\n\x00"), payload)

	payload, err = gpib.ParseBlock([]byte("#0BM\x00"))
	require.NoError(t, err)
	assert.Equal(t, []byte("BM\x00"), payload)
}
