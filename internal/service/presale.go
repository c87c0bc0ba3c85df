package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/id"
	"github.com/boxofficeapp/boxoffice-server/internal/identity"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
	"github.com/boxofficeapp/boxoffice-server/internal/validation"
)

// Form discriminator values. Exactly one of the three forms is live per
// submission; the other two render unbound.
const (
	FormLogin              = "login"
	FormLocalRegistration  = "local_registration"
	FormGlobalRegistration = "global_registration"
)

// Form error codes, attached to the field they concern. FieldForm holds
// errors that belong to the form as a whole rather than a single field.
const (
	CodeInvalidLogin      = "invalid_login"
	CodeInactive          = "inactive"
	CodePasswordMismatch  = "pw_mismatch"
	CodeInvalidUsername   = "invalid_username"
	CodeDuplicateUsername = "duplicate_username"
	CodeDuplicateEmail    = "duplicate_email"
	CodeRequired          = "required"
	CodeInvalidEmail      = "invalid_email"
)

// FieldForm is the pseudo-field for whole-form errors.
const FieldForm = "form"

// usernamePattern is the allowed character class for event-local
// usernames. The '@' exclusion is what keeps local identifiers disjoint
// from the global email namespace.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9.+\-_]*$`)

// validate is a shared validator instance for field-level checks.
var validate = validator.New()

// submitValidator enforces structural limits on raw submissions.
var submitValidator = validation.New()

// FormView is the render state of one form: bound with the submitted
// values and any errors, or unbound for display. Secrets are never
// echoed back.
type FormView struct {
	Bound  bool              `json:"bound"`
	Values map[string]string `json:"values,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// LoginPage is the full render state of the event login page. All three
// forms coexist; GlobalRegistration is nil when the platform has global
// registration disabled, so the path is not offered at all.
type LoginPage struct {
	Next               string    `json:"next,omitempty"`
	Login              FormView  `json:"login"`
	LocalRegistration  FormView  `json:"local_registration"`
	GlobalRegistration *FormView `json:"global_registration,omitempty"`
}

// GatewayResult is the outcome of a login page interaction. Exactly one
// of Redirect and Page is set: a redirect means the visitor proceeds
// (session established for submissions), a page means re-render with
// the attached form state.
type GatewayResult struct {
	Redirect string           `json:"redirect,omitempty"`
	Session  *SessionResponse `json:"session,omitempty"`
	User     *domain.User     `json:"user,omitempty"`
	Page     *LoginPage       `json:"page,omitempty"`
}

// SubmitRequest is one login page submission. Form selects which fields
// are read; the rest are ignored.
type SubmitRequest struct {
	Event         *domain.Event
	OrganizerSlug string
	Form          string

	// login form
	Identifier string `json:"identifier" validate:"omitempty,max=320"`

	// registration forms
	Username       string `json:"username" validate:"omitempty,max=150"`
	Email          string `json:"email" validate:"omitempty,max=320"`
	Password       string `json:"password" validate:"omitempty,max=128"`
	PasswordRepeat string `json:"password_repeat" validate:"omitempty,max=128"`

	Next   string `json:"next" validate:"omitempty,max=2000"`
	Client auth.ClientInfo
}

// PresaleService is the login page gateway: it decides between
// redirecting an already-authenticated visitor, authenticating a login
// submission, and running the registration validators. User records are
// only ever created here.
type PresaleService struct {
	store              *store.Store
	sessions           *SessionService
	globalRegistration bool
	logger             *logger.Logger
}

// NewPresaleService creates the presale gateway service. The global
// registration flag is threaded in from configuration so the decision
// is explicit at construction time.
func NewPresaleService(
	store *store.Store,
	sessions *SessionService,
	globalRegistration bool,
	log *logger.Logger,
) *PresaleService {
	return &PresaleService{
		store:              store,
		sessions:           sessions,
		globalRegistration: globalRegistration,
		logger:             log,
	}
}

// ViewLoginPage handles a plain view of the login page. A visitor who
// is already authenticated and either has no event affinity (global
// account) or belongs to this event is redirected straight to the shop;
// a user logged into a different event still sees the login page.
func (s *PresaleService) ViewLoginPage(event *domain.Event, organizerSlug string, currentUser *domain.User, next string) *GatewayResult {
	if currentUser != nil && (currentUser.IsGlobal() || currentUser.EventID == event.ID) {
		return &GatewayResult{Redirect: redirectTarget(organizerSlug, event, next)}
	}
	return &GatewayResult{Page: s.emptyPage(next)}
}

// SubmitLoginPage handles a form submission on the login page. An
// unknown discriminator, or a global registration submitted while the
// feature is disabled, falls through to the default re-render with no
// distinct error.
func (s *PresaleService) SubmitLoginPage(ctx context.Context, req SubmitRequest) (*GatewayResult, error) {
	// Structural length limits only. Field-level requirements stay in
	// the form handlers so each form reports its own error codes.
	if err := submitValidator.Validate(&req); err != nil {
		return nil, err
	}

	switch req.Form {
	case FormLogin:
		return s.handleLogin(ctx, req)
	case FormLocalRegistration:
		return s.handleLocalRegistration(ctx, req)
	case FormGlobalRegistration:
		if !s.globalRegistration {
			return &GatewayResult{Page: s.emptyPage(req.Next)}, nil
		}
		return s.handleGlobalRegistration(ctx, req)
	default:
		return &GatewayResult{Page: s.emptyPage(req.Next)}, nil
	}
}

// handleLogin authenticates a login submission. All credential failures
// collapse into invalid_login so the form never leaks which identifiers
// exist; only a valid password on a deactivated account surfaces the
// distinct inactive code.
func (s *PresaleService) handleLogin(ctx context.Context, req SubmitRequest) (*GatewayResult, error) {
	form := FormView{
		Bound:  true,
		Values: map[string]string{"identifier": req.Identifier},
		Errors: map[string]string{},
	}

	user, code, err := s.authenticate(ctx, req.Event, req.Identifier, req.Password)
	if err != nil {
		return nil, err
	}
	if code != "" {
		form.Errors[FieldForm] = code
		return &GatewayResult{Page: s.pageWith(req.Next, FormLogin, form)}, nil
	}

	return s.establish(ctx, req, user)
}

// handleLocalRegistration runs the event-local registration validator
// and, on success, creates the user and re-authenticates through the
// same identity path a login submission would take.
func (s *PresaleService) handleLocalRegistration(ctx context.Context, req SubmitRequest) (*GatewayResult, error) {
	form := FormView{
		Bound:  true,
		Values: map[string]string{"username": req.Username, "email": req.Email},
		Errors: map[string]string{},
	}
	event := req.Event

	if req.Username == "" {
		form.Errors["username"] = CodeRequired
	} else if !usernamePattern.MatchString(req.Username) {
		form.Errors["username"] = CodeInvalidUsername
	}

	if req.Password == "" {
		form.Errors["password"] = CodeRequired
	}
	// Mismatch is checked independently of any other field validity.
	if req.Password != req.PasswordRepeat {
		form.Errors["password_repeat"] = CodePasswordMismatch
	}

	if req.Email == "" {
		if event.Settings.UserMailRequired {
			form.Errors["email"] = CodeRequired
		}
	} else if validate.Var(req.Email, "email") != nil {
		form.Errors["email"] = CodeInvalidEmail
	}

	identifier := identity.Local(req.Username, event.ID)
	if form.Errors["username"] == "" {
		exists, err := s.store.IdentifierExists(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if exists {
			form.Errors["username"] = CodeDuplicateUsername
		}
	}

	if len(form.Errors) > 0 {
		return &GatewayResult{Page: s.pageWith(req.Next, FormLocalRegistration, form)}, nil
	}

	user := &domain.User{
		Identifier: identifier,
		Username:   req.Username,
		Email:      req.Email,
		EventID:    event.ID,
		Active:     true,
	}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		// A concurrent registration can win the identifier between the
		// pre-check and the write; the unique index is the backstop.
		if errors.Is(err, store.ErrIdentifierExists) {
			form.Errors["username"] = CodeDuplicateUsername
			return &GatewayResult{Page: s.pageWith(req.Next, FormLocalRegistration, form)}, nil
		}
		return nil, err
	}

	return s.loginAfterRegistration(ctx, req, req.Username)
}

// handleGlobalRegistration runs the platform-wide registration
// validator. The email namespace is global: uniqueness is checked
// against every identifier regardless of event.
func (s *PresaleService) handleGlobalRegistration(ctx context.Context, req SubmitRequest) (*GatewayResult, error) {
	form := FormView{
		Bound:  true,
		Values: map[string]string{"email": req.Email},
		Errors: map[string]string{},
	}

	if req.Email == "" {
		form.Errors["email"] = CodeRequired
	} else if validate.Var(req.Email, "email") != nil {
		form.Errors["email"] = CodeInvalidEmail
	}

	if req.Password == "" {
		form.Errors["password"] = CodeRequired
	}
	if req.Password != req.PasswordRepeat {
		form.Errors["password_repeat"] = CodePasswordMismatch
	}

	identifier := identity.Global(req.Email)
	if form.Errors["email"] == "" {
		exists, err := s.store.IdentifierExists(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			form.Errors["email"] = CodeDuplicateEmail
		}
	}

	if len(form.Errors) > 0 {
		return &GatewayResult{Page: s.pageWith(req.Next, FormGlobalRegistration, form)}, nil
	}

	user := &domain.User{
		Identifier: identifier,
		Email:      req.Email,
		Active:     true,
	}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		if errors.Is(err, store.ErrIdentifierExists) {
			form.Errors["email"] = CodeDuplicateEmail
			return &GatewayResult{Page: s.pageWith(req.Next, FormGlobalRegistration, form)}, nil
		}
		return nil, err
	}

	return s.loginAfterRegistration(ctx, req, req.Email)
}

// authenticate resolves a raw identifier against the event and verifies
// credentials. Returns the user on success, or a form error code for
// recoverable failures.
func (s *PresaleService) authenticate(ctx context.Context, event *domain.Event, rawIdentifier, password string) (*domain.User, string, error) {
	resolved := identity.Resolve(rawIdentifier, event.ID)

	user, err := s.store.GetUserByIdentifier(ctx, resolved)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, CodeInvalidLogin, nil
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, CodeInvalidLogin, nil
	}
	if !user.Active {
		return nil, CodeInactive, nil
	}

	return user, "", nil
}

// createUser hashes the password and persists a new user record.
func (s *PresaleService) createUser(ctx context.Context, user *domain.User, password string) error {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("usr")
	if err != nil {
		return fmt.Errorf("generate user ID: %w", err)
	}

	user.ID = userID
	user.PasswordHash = passwordHash
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrIdentifierExists) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.WithEvent(user.EventID).WithUser(user.ID).Info("user registered")
	}

	return nil
}

// loginAfterRegistration re-authenticates a freshly created user with
// the credentials they just submitted. The in-memory record is not
// trusted as authenticated; the login path re-derives the identifier
// and verifies the password so both flows stay identical.
func (s *PresaleService) loginAfterRegistration(ctx context.Context, req SubmitRequest, rawIdentifier string) (*GatewayResult, error) {
	user, code, err := s.authenticate(ctx, req.Event, rawIdentifier, req.Password)
	if err != nil {
		return nil, err
	}
	if code != "" {
		return nil, fmt.Errorf("re-authenticate after registration: %s", code)
	}

	return s.establish(ctx, req, user)
}

// establish creates a session for an authenticated user and produces
// the redirect result.
func (s *PresaleService) establish(ctx context.Context, req SubmitRequest, user *domain.User) (*GatewayResult, error) {
	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Log but don't fail login
		if s.logger != nil {
			s.logger.WithUser(user.ID).Warn("failed to update last login time", "error", err)
		}
	}

	session, err := s.sessions.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.WithEvent(req.Event.ID).WithUser(user.ID).Info("user logged in")
	}

	return &GatewayResult{
		Redirect: redirectTarget(req.OrganizerSlug, req.Event, req.Next),
		Session:  session,
		User:     user,
	}, nil
}

// emptyPage returns the login page with all forms unbound.
func (s *PresaleService) emptyPage(next string) *LoginPage {
	page := &LoginPage{Next: next}
	if s.globalRegistration {
		page.GlobalRegistration = &FormView{}
	}
	return page
}

// pageWith returns the login page with one form bound and the other two
// unbound, so the forms never cross-validate each other's fields.
func (s *PresaleService) pageWith(next, formName string, form FormView) *LoginPage {
	page := s.emptyPage(next)
	switch formName {
	case FormLogin:
		page.Login = form
	case FormLocalRegistration:
		page.LocalRegistration = form
	case FormGlobalRegistration:
		if page.GlobalRegistration != nil {
			page.GlobalRegistration = &form
		}
	}
	return page
}

// redirectTarget returns the explicit "next" destination when present,
// the event's shop index otherwise.
func redirectTarget(organizerSlug string, event *domain.Event, next string) string {
	if next != "" {
		return next
	}
	return fmt.Sprintf("/%s/%s/", organizerSlug, event.Slug)
}
