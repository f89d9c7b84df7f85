// Package secrand implements the RandomSource port with crypto/rand.
package secrand

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RandomSource = (*Source)(nil)

// Source draws uniform indices from a cryptographically secure reader.
type Source struct {
	reader io.Reader
}

// New returns a Source reading from crypto/rand.Reader.
func New() *Source {
	return &Source{reader: rand.Reader}
}

// NewWithReader returns a Source reading from r. Intended for tests.
func NewWithReader(r io.Reader) *Source {
	return &Source{reader: r}
}

// Intn returns a uniform integer in [0, n).
func (s *Source) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("secrand: invalid bound %d", n)
	}
	v, err := rand.Int(s.reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("secrand: reading random bytes: %w", err)
	}
	return int(v.Int64()), nil
}
