package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/microscopium/signup/internal/signup/domain"
	"github.com/microscopium/signup/internal/signup/store"
	"github.com/microscopium/signup/pkg/cryptox"
	"github.com/microscopium/signup/pkg/slogx"
)

// ErrDuplicateSubmission reports a POST whose nonce was already consumed,
// expired, or never issued. Treated as a validation-class error: the form
// is redisplayed, no remote call happens.
var ErrDuplicateSubmission = errors.New("duplicate form submission")

// DefaultNonceTTL is how long an issued form may sit unsubmitted.
const DefaultNonceTTL = 1 * time.Hour

// NonceService issues and consumes the single-use anti-double-submit
// nonces that guard the signup form.
type NonceService struct {
	Store store.Store
	TTL   time.Duration
}

func (s *NonceService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultNonceTTL
}

// Begin starts a new browser session and issues its first nonce.
func (s *NonceService) Begin(ctx context.Context) (sessionID, nonce string, err error) {
	sessionID, err = cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", "", err
	}

	nonce, err = s.Issue(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	return sessionID, nonce, nil
}

// Issue creates a fresh one-time nonce bound to an existing session, used
// both for the initial render and for every form redisplay.
func (s *NonceService) Issue(ctx context.Context, sessionID string) (string, error) {
	log := slogx.FromContext(ctx)

	nonce, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate form nonce", slog.Any("error", err))
		return "", err
	}

	now := time.Now().UTC()
	err = s.Store.Nonces().CreateNonce(ctx, domain.FormNonce{
		Fingerprint: cryptox.FingerprintToken(nonce),
		SessionID:   sessionID,
		ExpiresAt:   now.Add(s.ttl()),
		CreatedAt:   now,
	})
	if err != nil {
		log.Error("failed to store form nonce", slog.Any("error", err))
		return "", err
	}

	return nonce, nil
}

// Consume spends a nonce. It is removed whether or not the guarded
// submission later succeeds, so resubmitting the same form always yields
// ErrDuplicateSubmission.
func (s *NonceService) Consume(ctx context.Context, sessionID, nonce string) error {
	if sessionID == "" || nonce == "" {
		return ErrDuplicateSubmission
	}

	err := s.Store.Nonces().ConsumeNonce(
		ctx,
		cryptox.FingerprintToken(nonce),
		sessionID,
		time.Now().UTC(),
	)
	if errors.Is(err, store.ErrNotFound) {
		return ErrDuplicateSubmission
	}
	return err
}
