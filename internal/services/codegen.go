// Package services – CodeGenerator
//
// This file implements batch code generation: five characters drawn
// independently and uniformly from a 36-symbol alphabet (A-Z, 0-9), giving a
// search space of 36^5 (~60M) combinations. Candidates are checked against
// the store before being returned; after a bounded number of collisions the
// generator falls back to a deterministic timestamp-derived code so that it
// always terminates with a value.
package services

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	// CodeLength is the fixed batch code length.
	CodeLength = 5

	// codeAlphabet is the restricted character set batch codes draw from.
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxGenerateAttempts bounds the random draw/check loop.
	maxGenerateAttempts = 10
)

// CodeExistsFunc reports whether a candidate code is already taken. It is the
// fast-path collision check; the store's unique constraint remains the final
// authority at persistence time.
type CodeExistsFunc func(ctx context.Context, code string) (bool, error)

// CodeGenerator produces unique batch codes. The zero value is not usable;
// construct with NewCodeGenerator.
type CodeGenerator struct {
	// Exists is consulted per candidate to skip known collisions.
	Exists CodeExistsFunc
	// MaxAttempts caps random draws before the deterministic fallback.
	MaxAttempts int

	// Seams for tests.
	now  func() time.Time
	intN func(n int) int
}

// NewCodeGenerator constructs a CodeGenerator backed by the given existence
// check.
func NewCodeGenerator(exists CodeExistsFunc) *CodeGenerator {
	return &CodeGenerator{
		Exists:      exists,
		MaxAttempts: maxGenerateAttempts,
		now:         time.Now,
		intN:        rand.IntN,
	}
}

// Generate returns a batch code that was absent from the store at check time.
// It never fails: after MaxAttempts colliding draws (or when the existence
// check itself errors) it returns a deterministic fallback code. Callers must
// still treat the insert-time unique constraint as the real uniqueness
// guarantee, since this check races with concurrent inserts.
func (g *CodeGenerator) Generate(ctx context.Context) string {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = maxGenerateAttempts
	}

	for i := 0; i < attempts; i++ {
		code := g.randomCode()
		exists, err := g.Exists(ctx, code)
		if err != nil {
			// The fast-path check is unavailable; the unique constraint at
			// save time still guards correctness.
			break
		}
		if !exists {
			return code
		}
	}
	return g.fallbackCode()
}

// randomCode draws CodeLength characters uniformly from the alphabet.
func (g *CodeGenerator) randomCode() string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[g.intN(len(codeAlphabet))])
	}
	return b.String()
}

// fallbackCode combines a base-36 fragment of the current timestamp with a
// short random fragment, right-padded with '0' to the fixed length. It keeps
// generation terminating under extreme contention.
func (g *CodeGenerator) fallbackCode() string {
	ts := strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))
	if len(ts) > 3 {
		ts = ts[len(ts)-3:]
	}
	code := ts + string(codeAlphabet[g.intN(len(codeAlphabet))]) + string(codeAlphabet[g.intN(len(codeAlphabet))])
	if len(code) > CodeLength {
		code = code[:CodeLength]
	}
	for len(code) < CodeLength {
		code += "0"
	}
	return code
}
