package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.RefreshSession) error {
	query := `INSERT INTO refresh_tokens (user_id, token_hash, session_id, ua_hash, fp_hash, created_at)
	          VALUES ($1, $2, $3, $4, $5, now())`
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.UserID,
		session.TokenHash,
		session.SessionID,
		session.UAHash,
		session.FPHash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) IsSessionActive(ctx context.Context, userID int64, tokenHash, sessionID string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM refresh_tokens
	             WHERE user_id = $1 AND token_hash = $2 AND session_id = $3 AND revoked_at IS NULL
	          )`
	var active bool
	if err := r.db.QueryRowContext(ctx, query, userID, tokenHash, sessionID).Scan(&active); err != nil {
		return false, fmt.Errorf("check session active: %w", err)
	}
	return active, nil
}

func (r *SessionRepository) RevokeSessions(ctx context.Context, userID int64, tokenHash string) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked_at = now()
	           WHERE user_id = $1 AND token_hash = $2 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, tokenHash)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke sessions rows affected: %w", err)
	}
	return n, nil
}

// SweepExpiredSessions revokes rows older than the refresh TTL. Courtesy
// cleanup: expiry is already enforced by the token's own exp claim.
func (r *SessionRepository) SweepExpiredSessions(ctx context.Context, maxAge time.Duration) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked_at = now()
	           WHERE revoked_at IS NULL AND created_at < now() - make_interval(secs => $1)`
	res, err := r.db.ExecContext(ctx, query, int64(maxAge.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("sweep expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep rows affected: %w", err)
	}
	return n, nil
}
