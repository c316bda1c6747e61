package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrAllocationExhausted reports that no free login could be found within
// the suffix budget. It indicates a pathological collision run on one base
// name.
var ErrAllocationExhausted = errors.New("login allocation exhausted")

// maxLoginSuffix bounds how many numbered candidates are probed after the
// base candidate itself.
const maxLoginSuffix = 99

// LoginLookupFunc reports whether a candidate login is already taken on the
// remote server.
type LoginLookupFunc func(ctx context.Context, login string) (bool, error)

// AllocateLogin derives a free login name from the signup's name fields.
//
// The base candidate is the concatenated first and last name with every
// non-alphanumeric rune stripped, case preserved. If the base is taken,
// numbered candidates base+"1" through base+"99" are probed in order.
//
// Probing is read-only; the login is actually reserved only when the caller
// creates the experimenter, so a concurrent signup with the same name can
// still win the race. The remote server's uniqueness constraint is the
// final arbiter.
func AllocateLogin(ctx context.Context, firstName, lastName string, taken LoginLookupFunc) (string, error) {
	base := loginBase(firstName, lastName)

	for suffix := 0; suffix <= maxLoginSuffix; suffix++ {
		candidate := base
		if suffix > 0 {
			candidate += strconv.Itoa(suffix)
		}

		inUse, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !inUse {
			return candidate, nil
		}
	}

	return "", ErrAllocationExhausted
}

// loginBase strips every non-alphanumeric rune from the concatenated name
// fields. "Ada" + "Lovelace" becomes "AdaLovelace"; "O'Brien" loses its
// apostrophe.
func loginBase(firstName, lastName string) string {
	var b strings.Builder
	for _, r := range firstName + lastName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
