package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

// initSessions initializes the Sessions entity. The token index maps a
// refresh token hash to its session, which is the lookup the refresh
// flow does; rotation moves the index entry atomically inside Update.
func (s *Store) initSessions() {
	s.Sessions = NewEntity[domain.Session](s, "session:").
		WithIndex("token", func(sess *domain.Session) []string {
			return []string{sess.RefreshTokenHash}
		})
}

// CreateSession stores a newly established session.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := s.Sessions.Create(ctx, session.ID, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns a session by ID. Expired sessions surface as
// ErrSessionExpired so callers can distinguish them from unknown IDs.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.Sessions.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// GetSessionByRefreshToken resolves a refresh token hash to its
// session during the refresh flow.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	session, err := s.Sessions.GetByIndex(ctx, "token", tokenHash)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session by token: %w", err)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// UpdateSession persists rotation and last-seen changes. When the
// refresh token hash changed, the token index follows it.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	err := s.Sessions.Update(ctx, session.ID, session)
	if errors.Is(err, ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// DeleteSession removes a session on logout. Deleting an unknown ID is
// not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListUserSessions returns the user's live sessions. Expired records
// are filtered out here; the cleanup job removes them from disk.
func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	var sessions []*domain.Session
	for session, err := range s.Sessions.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list user sessions: %w", err)
		}
		if session.UserID != userID || session.IsExpired() {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// DeleteAllUserSessions forces re-authentication on every device,
// used after a password change.
func (s *Store) DeleteAllUserSessions(ctx context.Context, userID string) error {
	for session, err := range s.Sessions.List(ctx) {
		if err != nil {
			return fmt.Errorf("list sessions for deletion: %w", err)
		}
		if session.UserID != userID {
			continue
		}
		if err := s.DeleteSession(ctx, session.ID); err != nil {
			return fmt.Errorf("delete session %s: %w", session.ID, err)
		}
	}
	return nil
}

// DeleteExpiredSessions prunes sessions past their expiry and reports
// how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	var expiredIDs []string
	for session, err := range s.Sessions.List(ctx) {
		if err != nil {
			return 0, fmt.Errorf("find expired sessions: %w", err)
		}
		if session.IsExpired() {
			expiredIDs = append(expiredIDs, session.ID)
		}
	}

	for _, sessionID := range expiredIDs {
		if err := s.DeleteSession(ctx, sessionID); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to delete expired session", "session_id", sessionID, "error", err)
			}
		}
	}
	return len(expiredIDs), nil
}
