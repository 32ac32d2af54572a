// Package gameid generates lobby identifiers: 16 characters drawn from
// lowercase letters and digits.
package gameid

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// Length of every lobby ID.
	Length = 16
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// Generator handles lobby ID generation with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator with optional RandSource.
// A nil source uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new lobby ID using crypto/rand
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new lobby ID using the generator's RandSource
func (g *Generator) Generate() string {
	id := make([]byte, Length)
	for i := range id {
		id[i] = alphabet[g.intN(len(alphabet))]
	}
	return string(id)
}

func (g *Generator) intN(n int) int {
	if g.randSource != nil {
		return g.randSource.IntN(n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	return int(v.Int64())
}

// Validate checks if a lobby ID is valid (16 characters of [a-z0-9])
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("lobby ID must be exactly %d characters, got %d", Length, len(id))
	}
	for i, c := range id {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
