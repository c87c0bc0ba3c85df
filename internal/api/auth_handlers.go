package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "refresh-session",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh session tokens",
		Description: "Exchanges a refresh token for a new token pair. The old refresh token is invalidated",
		Tags:        []string{"Auth"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Log out",
		Description: "Deletes the session belonging to the refresh token. Succeeds even if the session is already gone",
		Tags:        []string{"Auth"},
	}, s.handleLogout)
}

// === DTOs ===

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	RefreshToken  string `json:"refresh_token" required:"true" maxLength:"200" doc:"Refresh token from session creation"`
	ClientName    string `json:"client_name,omitempty" maxLength:"100" doc:"Client application name"`
	ClientVersion string `json:"client_version,omitempty" maxLength:"50" doc:"Client application version"`
}

// RefreshInput wraps the refresh request with proxy headers.
type RefreshInput struct {
	Body          RefreshRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// SessionOutput wraps new session tokens for Huma.
type SessionOutput struct {
	Body service.SessionResponse
}

// LogoutInput carries the refresh token identifying the session to end.
type LogoutInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" required:"true" maxLength:"200" doc:"Refresh token of the session to end"`
	}
}

// === Handlers ===

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*SessionOutput, error) {
	session, _, err := s.services.Session.RefreshSession(ctx, input.Body.RefreshToken, auth.ClientInfo{
		ClientName:    input.Body.ClientName,
		ClientVersion: input.Body.ClientVersion,
		IPAddress:     extractIP(input.XForwardedFor, input.XRealIP),
	})
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: *session}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*struct{}, error) {
	if err := s.services.Session.Logout(ctx, input.Body.RefreshToken); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
