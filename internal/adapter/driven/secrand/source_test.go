package secrand_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gitlab-attendant/internal/adapter/driven/secrand"
)

func TestIntn_StaysInRange(t *testing.T) {
	src := secrand.New()

	seen := make(map[int]bool)
	for range 500 {
		v, err := src.Intn(3)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 3)
		seen[v] = true
	}

	assert.Len(t, seen, 3, "500 draws over 3 values should hit every value")
}

func TestIntn_SingleCandidate(t *testing.T) {
	v, err := secrand.New().Intn(1)

	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestIntn_InvalidBound(t *testing.T) {
	_, err := secrand.New().Intn(0)
	require.Error(t, err)
}

func TestIntn_DeterministicReader(t *testing.T) {
	// rand.Int reads one byte for a bound of 4 and masks it to two bits.
	src := secrand.NewWithReader(bytes.NewReader([]byte{0x02}))

	v, err := src.Intn(4)

	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestIntn_ReaderFailure(t *testing.T) {
	_, err := secrand.NewWithReader(failingReader{}).Intn(5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}
