package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
)

func (s *Server) registerLoginRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-event-login",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{organizer}/{event}/login",
		Summary:     "Event login page",
		Description: "Render state of the event login page: unbound forms for visitors, a redirect target for authenticated users with access to this event",
		Tags:        []string{"Login"},
	}, s.handleGetLoginPage)

	huma.Register(s.api, huma.Operation{
		OperationID: "submit-event-login",
		Method:      http.MethodPost,
		Path:        "/api/v1/events/{organizer}/{event}/login",
		Summary:     "Submit the event login page",
		Description: "Handles login, event-local registration, and global registration submissions. Returns a redirect with session tokens on success, or the re-rendered page with field errors",
		Tags:        []string{"Login"},
	}, s.handleSubmitLoginPage)
}

// === DTOs ===

// LoginPageInput identifies the event login page to render.
type LoginPageInput struct {
	Organizer string `path:"organizer" maxLength:"100" doc:"Organizer slug"`
	Event     string `path:"event" maxLength:"100" doc:"Event slug"`
	Next      string `query:"next" maxLength:"2000" doc:"Target to redirect to after login"`
}

// LoginPageResponse is either a redirect for an authenticated visitor
// or the page's form state.
type LoginPageResponse struct {
	Redirect string             `json:"redirect,omitempty" doc:"Redirect target for already-authenticated visitors"`
	Page     *service.LoginPage `json:"page,omitempty" doc:"Form render state"`
}

// LoginPageOutput wraps the login page response for Huma.
type LoginPageOutput struct {
	Body LoginPageResponse
}

// LoginSubmitRequest is one submission of the event login page. Form
// selects which of the three forms was submitted; fields belonging to
// the other forms are ignored.
type LoginSubmitRequest struct {
	Form           string `json:"form" required:"true" enum:"login,local_registration,global_registration" doc:"Which form was submitted"`
	Identifier     string `json:"identifier,omitempty" maxLength:"320" doc:"Login identifier (username or email)"`
	Username       string `json:"username,omitempty" maxLength:"150" doc:"Event-local username (registration)"`
	Email          string `json:"email,omitempty" maxLength:"320" doc:"Email address (registration)"`
	Password       string `json:"password,omitempty" maxLength:"128" doc:"Password"`
	PasswordRepeat string `json:"password_repeat,omitempty" maxLength:"128" doc:"Password confirmation (registration)"`
	Next           string `json:"next,omitempty" maxLength:"2000" doc:"Target to redirect to after login"`
	ClientName     string `json:"client_name,omitempty" maxLength:"100" doc:"Client application name"`
	ClientVersion  string `json:"client_version,omitempty" maxLength:"50" doc:"Client application version"`
}

// LoginSubmitInput carries the submission body plus proxy headers for
// session bookkeeping.
type LoginSubmitInput struct {
	Organizer     string `path:"organizer" maxLength:"100" doc:"Organizer slug"`
	Event         string `path:"event" maxLength:"100" doc:"Event slug"`
	Body          LoginSubmitRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LoginSubmitResponse is the submission outcome. Redirect and Session
// are set together on success; Page carries the re-render state on
// validation failure.
type LoginSubmitResponse struct {
	Redirect string                   `json:"redirect,omitempty" doc:"Where the client should navigate next"`
	Session  *service.SessionResponse `json:"session,omitempty" doc:"Established session tokens"`
	User     *UserResponse            `json:"user,omitempty" doc:"The authenticated user"`
	Page     *service.LoginPage       `json:"page,omitempty" doc:"Re-rendered form state with errors"`
}

// LoginSubmitOutput wraps the submission outcome for Huma.
type LoginSubmitOutput struct {
	Body LoginSubmitResponse
}

// === Handlers ===

func (s *Server) handleGetLoginPage(ctx context.Context, input *LoginPageInput) (*LoginPageOutput, error) {
	event, err := s.services.Catalog.GetEvent(ctx, input.Organizer, input.Event)
	if err != nil {
		return nil, err
	}

	user := s.optionalUser(ctx)
	result := s.services.Presale.ViewLoginPage(event, input.Organizer, user, input.Next)

	return &LoginPageOutput{Body: LoginPageResponse{
		Redirect: result.Redirect,
		Page:     result.Page,
	}}, nil
}

func (s *Server) handleSubmitLoginPage(ctx context.Context, input *LoginSubmitInput) (*LoginSubmitOutput, error) {
	event, err := s.services.Catalog.GetEvent(ctx, input.Organizer, input.Event)
	if err != nil {
		return nil, err
	}

	clientName := input.Body.ClientName
	if clientName == "" {
		clientName = "BoxOffice Web"
	}

	result, err := s.services.Presale.SubmitLoginPage(ctx, service.SubmitRequest{
		Event:          event,
		OrganizerSlug:  input.Organizer,
		Form:           input.Body.Form,
		Identifier:     input.Body.Identifier,
		Username:       input.Body.Username,
		Email:          input.Body.Email,
		Password:       input.Body.Password,
		PasswordRepeat: input.Body.PasswordRepeat,
		Next:           input.Body.Next,
		Client: auth.ClientInfo{
			ClientName:    clientName,
			ClientVersion: input.Body.ClientVersion,
			IPAddress:     extractIP(input.XForwardedFor, input.XRealIP),
		},
	})
	if err != nil {
		return nil, err
	}

	resp := LoginSubmitResponse{
		Redirect: result.Redirect,
		Session:  result.Session,
		Page:     result.Page,
	}
	if result.User != nil {
		resp.User = mapUser(result.User)
	}

	return &LoginSubmitOutput{Body: resp}, nil
}

// extractIP picks the client IP from proxy headers. X-Forwarded-For may
// carry a chain; the first entry is the client.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		if idx := strings.Index(xForwardedFor, ","); idx >= 0 {
			return strings.TrimSpace(xForwardedFor[:idx])
		}
		return strings.TrimSpace(xForwardedFor)
	}
	return xRealIP
}
