package domain

import "time"

// FormNonce is a single-use anti-double-submit token issued alongside the
// signup form. Only the SHA-256 fingerprint of the token is stored; the raw
// value travels to the browser as a hidden form field and back once.
//
// A nonce is bound to the browser session that requested the form and is
// consumed, successfully or not, on the first submission that presents it.
type FormNonce struct {
	Fingerprint string
	SessionID   string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
