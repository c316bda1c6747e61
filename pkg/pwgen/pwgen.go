// Package pwgen generates initial account passwords.
//
// These are usability passwords: they are communicated to the user (on
// screen or by email) with the expectation of being changed, and are not a
// security boundary by themselves, so a non-cryptographic PRNG is
// sufficient. Callers must still treat the delivery channel as sensitive.
package pwgen

import (
	"math/rand/v2"
	"strings"
)

// Alphabet is the character set passwords are drawn from. Letters and
// digits only, so generated passwords survive copy/paste and email clients.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the length of generated account passwords.
const DefaultLength = 12

// New returns a random password of length n drawn from Alphabet.
// n values below 1 fall back to DefaultLength.
func New(n int) string {
	if n < 1 {
		n = DefaultLength
	}

	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(Alphabet[rand.IntN(len(Alphabet))])
	}
	return b.String()
}
