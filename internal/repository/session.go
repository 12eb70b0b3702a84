package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wealthplan/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type sessionRepository struct {
	db *sqlx.DB
}

func newSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{
		db: db,
	}
}

const sessionColumns = `bin_to_uuid(id) AS id, bin_to_uuid(user_id) AS user_id, session_token, access_token_jti, device_info, ip, is_active, created_at, last_activity_at, expires_at`

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	const query = `
	INSERT INTO session
	(id, user_id, session_token, access_token_jti, device_info, ip, is_active, created_at, last_activity_at, expires_at)
	VALUES (uuid_to_bin(?), uuid_to_bin(?), ?, ?, ?, ?, ?, ?, ?, ?);
	`

	result, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.SessionToken,
		session.AccessTokenJTI,
		session.DeviceInfo,
		session.IP,
		session.IsActive,
		session.CreatedAt,
		session.LastActivityAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("db insert session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected failed: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, sessionToken string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM session WHERE session_token = ?;`

	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, sessionToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select session by token failed: %w", err)
	}

	return &session, nil
}

func (r *sessionRepository) GetByAccessJTI(ctx context.Context, accessJTI string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM session WHERE access_token_jti = ?;`

	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, accessJTI); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select session by access jti failed: %w", err)
	}

	return &session, nil
}

func (r *sessionRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Session, error) {
	query := `
	SELECT ` + sessionColumns + ` FROM session
	WHERE user_id = uuid_to_bin(?) AND is_active = 1 AND expires_at > now()
	ORDER BY created_at ASC, id ASC;
	`

	var sessions []domain.Session
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("select active sessions by user failed: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) UpdateAccessJTI(ctx context.Context, sessionToken string, accessJTI string) error {
	const query = `UPDATE session SET access_token_jti = ? WHERE session_token = ?;`

	result, err := r.db.ExecContext(ctx, query, accessJTI, sessionToken)
	if err != nil {
		return fmt.Errorf("update session access jti failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected failed: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *sessionRepository) Touch(ctx context.Context, sessionToken string, now time.Time) (int64, error) {
	const query = `
	UPDATE session SET last_activity_at = ?
	WHERE session_token = ? AND is_active = 1 AND expires_at > ?;
	`

	result, err := r.db.ExecContext(ctx, query, now, sessionToken, now)
	if err != nil {
		return 0, fmt.Errorf("touch session failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected failed: %w", err)
	}

	return rowsAffected, nil
}

func (r *sessionRepository) Deactivate(ctx context.Context, sessionToken string) error {
	const query = `UPDATE session SET is_active = 0 WHERE session_token = ?;`

	// No rows-affected check: revocation of an already revoked or unknown
	// session is a no-op, not an error.
	if _, err := r.db.ExecContext(ctx, query, sessionToken); err != nil {
		return fmt.Errorf("deactivate session failed: %w", err)
	}

	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM session WHERE expires_at <= ?;`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected failed: %w", err)
	}

	return rowsAffected, nil
}
