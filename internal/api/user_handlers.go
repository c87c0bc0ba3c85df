package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-current-user",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-my-sessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "List active sessions",
		Description: "All sessions belonging to the authenticated user, refresh token hashes omitted",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMySessions)
}

// === DTOs ===

// UserResponse is the public view of a user. The password hash and the
// stored identifier internals stay server-side.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Identifier  string    `json:"identifier" doc:"Canonical login identifier"`
	Username    string    `json:"username,omitempty" doc:"Event-local username"`
	Email       string    `json:"email,omitempty" doc:"Email address"`
	EventID     string    `json:"event_id,omitempty" doc:"Owning event for event-local accounts"`
	Global      bool      `json:"global" doc:"Whether the account spans all events"`
	Active      bool      `json:"active" doc:"Whether the account may log in"`
	LastLoginAt time.Time `json:"last_login_at,omitzero" doc:"Last successful login"`
}

// UserOutput wraps a user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// SessionInfo is the public view of one session record.
type SessionInfo struct {
	ID         string    `json:"id" doc:"Session ID"`
	CreatedAt  time.Time `json:"created_at" doc:"When the session was established"`
	LastSeenAt time.Time `json:"last_seen_at" doc:"Last activity"`
	ExpiresAt  time.Time `json:"expires_at" doc:"When the refresh token expires"`
	IPAddress  string    `json:"ip_address,omitempty" doc:"Client IP at last refresh"`
	ClientName string    `json:"client_name,omitempty" doc:"Client application name"`
}

// SessionListOutput wraps the session list for Huma.
type SessionListOutput struct {
	Body struct {
		Sessions []SessionInfo `json:"sessions" doc:"Active sessions"`
	}
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: *mapUser(user)}, nil
}

func (s *Server) handleListMySessions(ctx context.Context, _ *struct{}) (*SessionListOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Session.ListUserSessions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	out := &SessionListOutput{}
	out.Body.Sessions = make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out.Body.Sessions = append(out.Body.Sessions, SessionInfo{
			ID:         sess.ID,
			CreatedAt:  sess.CreatedAt,
			LastSeenAt: sess.LastSeenAt,
			ExpiresAt:  sess.ExpiresAt,
			IPAddress:  sess.IPAddress,
			ClientName: sess.ClientName,
		})
	}

	return out, nil
}

// mapUser converts a domain user to its public response form.
func mapUser(user *domain.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Identifier:  user.Identifier,
		Username:    user.Username,
		Email:       user.Email,
		EventID:     user.EventID,
		Global:      user.IsGlobal(),
		Active:      user.Active,
		LastLoginAt: user.LastLoginAt,
	}
}
