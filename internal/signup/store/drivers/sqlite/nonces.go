package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/microscopium/signup/internal/signup/domain"
	"github.com/microscopium/signup/internal/signup/store"
)

type noncesRepo struct {
	db *sql.DB
}

func (r *noncesRepo) CreateNonce(ctx context.Context, n domain.FormNonce) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO form_nonces (fingerprint, session_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		n.Fingerprint, n.SessionID, n.ExpiresAt.UTC(), n.CreatedAt.UTC(),
	)
	return err
}

// ConsumeNonce relies on the DELETE being a single atomic statement: of two
// concurrent submissions carrying the same nonce, exactly one observes an
// affected row.
func (r *noncesRepo) ConsumeNonce(ctx context.Context, fingerprint, sessionID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM form_nonces
		WHERE fingerprint = ? AND session_id = ? AND expires_at > ?`,
		fingerprint, sessionID, now.UTC(),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *noncesRepo) DeleteExpiredNonces(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM form_nonces WHERE expires_at <= ?`,
		now.UTC(),
	)
	return err
}
