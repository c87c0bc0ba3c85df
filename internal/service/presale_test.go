package service

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	domainerrors "github.com/boxofficeapp/boxoffice-server/internal/errors"
	"github.com/boxofficeapp/boxoffice-server/internal/identity"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
)

// setupPresaleTest creates a presale service over temporary storage.
func setupPresaleTest(t *testing.T, globalRegistration bool) (*PresaleService, *store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "boxoffice-presale-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "badger"), nil)
	require.NoError(t, err)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	sessions := NewSessionService(s, tokenService, nil)
	presale := NewPresaleService(s, sessions, globalRegistration, nil)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return presale, s, cleanup
}

func testEvent(id, slug string) *domain.Event {
	return &domain.Event{
		Meta:        domain.Meta{ID: id},
		OrganizerID: "org-1",
		Slug:        slug,
		Name:        "Test Event",
		Currency:    "EUR",
		Live:        true,
		Settings:    domain.DefaultEventSettings(),
	}
}

// register is a test shortcut that drives a local registration through
// the full gateway.
func register(t *testing.T, presale *PresaleService, event *domain.Event, username, password string) *GatewayResult {
	t.Helper()

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          event,
		OrganizerSlug:  "bigorg",
		Form:           FormLocalRegistration,
		Username:       username,
		Password:       password,
		PasswordRepeat: password,
	})
	require.NoError(t, err)
	return result
}

func TestPresaleService_ViewLoginPage_Anonymous(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	result := presale.ViewLoginPage(testEvent("evt-1", "summer"), "bigorg", nil, "")

	require.NotNil(t, result.Page)
	assert.Empty(t, result.Redirect)
	assert.False(t, result.Page.Login.Bound)
	assert.False(t, result.Page.LocalRegistration.Bound)
	require.NotNil(t, result.Page.GlobalRegistration)
	assert.False(t, result.Page.GlobalRegistration.Bound)
}

func TestPresaleService_ViewLoginPage_GlobalRegistrationDisabled(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, false)
	defer cleanup()

	result := presale.ViewLoginPage(testEvent("evt-1", "summer"), "bigorg", nil, "")

	require.NotNil(t, result.Page)
	assert.Nil(t, result.Page.GlobalRegistration)
}

func TestPresaleService_ViewLoginPage_AuthenticatedRedirects(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")

	// A global user has no event affinity and passes straight through.
	globalUser := &domain.User{
		Meta:       domain.Meta{ID: "usr-1"},
		Identifier: "anna@example.com",
		Active:     true,
	}
	result := presale.ViewLoginPage(event, "bigorg", globalUser, "")
	assert.Equal(t, "/bigorg/summer/", result.Redirect)
	assert.Nil(t, result.Page)

	// A user belonging to this event is redirected too.
	localUser := &domain.User{
		Meta:       domain.Meta{ID: "usr-2"},
		Identifier: identity.Local("bob", event.ID),
		Username:   "bob",
		EventID:    event.ID,
		Active:     true,
	}
	result = presale.ViewLoginPage(event, "bigorg", localUser, "")
	assert.Equal(t, "/bigorg/summer/", result.Redirect)

	// A user logged into a different event still sees the login page.
	otherUser := &domain.User{
		Meta:       domain.Meta{ID: "usr-3"},
		Identifier: identity.Local("carol", "evt-other"),
		Username:   "carol",
		EventID:    "evt-other",
		Active:     true,
	}
	result = presale.ViewLoginPage(event, "bigorg", otherUser, "")
	assert.Empty(t, result.Redirect)
	require.NotNil(t, result.Page)
}

func TestPresaleService_ViewLoginPage_NextTarget(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	user := &domain.User{
		Meta:       domain.Meta{ID: "usr-1"},
		Identifier: "anna@example.com",
		Active:     true,
	}

	result := presale.ViewLoginPage(testEvent("evt-1", "summer"), "bigorg", user, "/bigorg/summer/checkout/")
	assert.Equal(t, "/bigorg/summer/checkout/", result.Redirect)
}

func TestPresaleService_LocalRegistration_Success(t *testing.T) {
	presale, s, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")
	result := register(t, presale, event, "bob", "hunter2secret")

	assert.Equal(t, "/bigorg/summer/", result.Redirect)
	require.NotNil(t, result.Session)
	assert.NotEmpty(t, result.Session.AccessToken)
	assert.NotEmpty(t, result.Session.RefreshToken)
	require.NotNil(t, result.User)
	assert.Equal(t, "bob", result.User.Username)
	assert.Equal(t, "evt-1", result.User.EventID)
	assert.Equal(t, "bob@evt-1.event.boxoffice", result.User.Identifier)

	// The record is persisted under the synthesized identifier.
	stored, err := s.GetUserByIdentifier(context.Background(), "bob@evt-1.event.boxoffice")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, stored.ID)
	assert.True(t, stored.Active)
}

func TestPresaleService_LocalRegistration_PasswordMismatch(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          testEvent("evt-1", "summer"),
		OrganizerSlug:  "bigorg",
		Form:           FormLocalRegistration,
		Username:       "bad name!", // also invalid
		Password:       "one",
		PasswordRepeat: "two",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Page)
	form := result.Page.LocalRegistration
	assert.True(t, form.Bound)
	// Mismatch reported independently of the username being invalid.
	assert.Equal(t, CodePasswordMismatch, form.Errors["password_repeat"])
	assert.Equal(t, CodeInvalidUsername, form.Errors["username"])
	// Passwords are never echoed back.
	assert.NotContains(t, form.Values, "password")
}

func TestPresaleService_LocalRegistration_DuplicateUsername(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	eventA := testEvent("evt-a", "fest-a")
	eventB := testEvent("evt-b", "fest-b")

	first := register(t, presale, eventA, "bob", "hunter2secret")
	require.NotEmpty(t, first.Redirect)

	// Same username in the same event fails.
	second := register(t, presale, eventA, "bob", "otherpassword")
	require.NotNil(t, second.Page)
	assert.Equal(t, CodeDuplicateUsername, second.Page.LocalRegistration.Errors["username"])

	// Same username in a different event is a different namespace.
	third := register(t, presale, eventB, "bob", "thirdpassword")
	assert.NotEmpty(t, third.Redirect)
}

func TestPresaleService_LocalRegistration_EmailRequirement(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")
	event.Settings.UserMailRequired = true

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          event,
		OrganizerSlug:  "bigorg",
		Form:           FormLocalRegistration,
		Username:       "bob",
		Password:       "hunter2secret",
		PasswordRepeat: "hunter2secret",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Page)
	assert.Equal(t, CodeRequired, result.Page.LocalRegistration.Errors["email"])

	// Without the setting, the email stays optional.
	event.Settings.UserMailRequired = false
	result, err = presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          event,
		OrganizerSlug:  "bigorg",
		Form:           FormLocalRegistration,
		Username:       "bob",
		Password:       "hunter2secret",
		PasswordRepeat: "hunter2secret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Redirect)
}

func TestPresaleService_GlobalRegistration_Success(t *testing.T) {
	presale, s, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          testEvent("evt-1", "summer"),
		OrganizerSlug:  "bigorg",
		Form:           FormGlobalRegistration,
		Email:          "Anna@Example.COM",
		Password:       "hunter2secret",
		PasswordRepeat: "hunter2secret",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Redirect)
	require.NotNil(t, result.User)
	// Identifier is the lowercased email; no event affinity.
	assert.Equal(t, "anna@example.com", result.User.Identifier)
	assert.True(t, result.User.IsGlobal())

	_, err = s.GetUserByIdentifier(context.Background(), "anna@example.com")
	require.NoError(t, err)
}

func TestPresaleService_GlobalRegistration_DuplicateEmailAcrossEvents(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	submit := func(event *domain.Event) *GatewayResult {
		result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
			Event:          event,
			OrganizerSlug:  "bigorg",
			Form:           FormGlobalRegistration,
			Email:          "anna@example.com",
			Password:       "hunter2secret",
			PasswordRepeat: "hunter2secret",
		})
		require.NoError(t, err)
		return result
	}

	first := submit(testEvent("evt-a", "fest-a"))
	assert.NotEmpty(t, first.Redirect)

	// The email namespace is global; the initiating event is irrelevant.
	second := submit(testEvent("evt-b", "fest-b"))
	require.NotNil(t, second.Page)
	assert.Equal(t, CodeDuplicateEmail, second.Page.GlobalRegistration.Errors["email"])
}

func TestPresaleService_GlobalRegistration_Disabled(t *testing.T) {
	presale, s, cleanup := setupPresaleTest(t, false)
	defer cleanup()

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          testEvent("evt-1", "summer"),
		OrganizerSlug:  "bigorg",
		Form:           FormGlobalRegistration,
		Email:          "anna@example.com",
		Password:       "hunter2secret",
		PasswordRepeat: "hunter2secret",
	})
	require.NoError(t, err)

	// Falls through to the default re-render, no distinct error and no
	// user record created.
	require.NotNil(t, result.Page)
	assert.Nil(t, result.Page.GlobalRegistration)
	assert.Empty(t, result.Redirect)

	exists, err := s.IdentifierExists(context.Background(), "anna@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPresaleService_GlobalRegistration_InvalidEmail(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          testEvent("evt-1", "summer"),
		OrganizerSlug:  "bigorg",
		Form:           FormGlobalRegistration,
		Email:          "not-an-address",
		Password:       "hunter2secret",
		PasswordRepeat: "hunter2secret",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Page)
	assert.Equal(t, CodeInvalidEmail, result.Page.GlobalRegistration.Errors["email"])
}

func TestPresaleService_Login_Success(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")
	register(t, presale, event, "bob", "hunter2secret")

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:         event,
		OrganizerSlug: "bigorg",
		Form:          FormLogin,
		Identifier:    "bob",
		Password:      "hunter2secret",
		Next:          "/bigorg/summer/checkout/",
	})
	require.NoError(t, err)

	assert.Equal(t, "/bigorg/summer/checkout/", result.Redirect)
	require.NotNil(t, result.Session)
	assert.Equal(t, "Bearer", result.Session.TokenType)
	assert.False(t, result.User.LastLoginAt.IsZero())
}

func TestPresaleService_Login_GlobalUserOnEventPage(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")
	_, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:          event,
		OrganizerSlug:  "bigorg",
		Form:           FormGlobalRegistration,
		Email:          "Anna@Example.com",
		Password:       "hunter2secret",
		PasswordRepeat: "hunter2secret",
	})
	require.NoError(t, err)

	// The '@' routes the identifier to the global namespace, and the
	// lookup is case-insensitive because both sides lowercase.
	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:         testEvent("evt-other", "other"),
		OrganizerSlug: "bigorg",
		Form:          FormLogin,
		Identifier:    "ANNA@example.COM",
		Password:      "hunter2secret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Redirect)
}

func TestPresaleService_Login_InvalidCredentials(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")
	register(t, presale, event, "bob", "hunter2secret")

	// Unknown username and wrong password produce the same error.
	for _, tc := range []struct {
		identifier string
		password   string
	}{
		{"nobody", "hunter2secret"},
		{"bob", "wrongpassword"},
	} {
		result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
			Event:         event,
			OrganizerSlug: "bigorg",
			Form:          FormLogin,
			Identifier:    tc.identifier,
			Password:      tc.password,
		})
		require.NoError(t, err)
		require.NotNil(t, result.Page)
		assert.Equal(t, CodeInvalidLogin, result.Page.Login.Errors[FieldForm])
		assert.Equal(t, tc.identifier, result.Page.Login.Values["identifier"])
	}
}

func TestPresaleService_Login_CaseSensitiveLocalUsername(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")
	register(t, presale, event, "Bob", "hunter2secret")

	// Local usernames are matched case-sensitively; only the global
	// branch lowercases.
	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:         event,
		OrganizerSlug: "bigorg",
		Form:          FormLogin,
		Identifier:    "bob",
		Password:      "hunter2secret",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Page)
	assert.Equal(t, CodeInvalidLogin, result.Page.Login.Errors[FieldForm])
}

func TestPresaleService_Login_InactiveAccount(t *testing.T) {
	presale, s, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	event := testEvent("evt-1", "summer")
	result := register(t, presale, event, "bob", "hunter2secret")
	require.NotNil(t, result.User)

	result.User.Active = false
	require.NoError(t, s.UpdateUser(context.Background(), result.User))

	loginResult, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:         event,
		OrganizerSlug: "bigorg",
		Form:          FormLogin,
		Identifier:    "bob",
		Password:      "hunter2secret",
	})
	require.NoError(t, err)
	require.NotNil(t, loginResult.Page)
	assert.Equal(t, CodeInactive, loginResult.Page.Login.Errors[FieldForm])
}

func TestPresaleService_UnknownFormDiscriminator(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:         testEvent("evt-1", "summer"),
		OrganizerSlug: "bigorg",
		Form:          "something_else",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Page)
	assert.False(t, result.Page.Login.Bound)
	assert.Empty(t, result.Redirect)
}

func TestPresaleService_OversizedSubmissionRejected(t *testing.T) {
	presale, _, cleanup := setupPresaleTest(t, true)
	defer cleanup()

	result, err := presale.SubmitLoginPage(context.Background(), SubmitRequest{
		Event:         testEvent("evt-1", "summer"),
		OrganizerSlug: "bigorg",
		Form:          FormLogin,
		Identifier:    strings.Repeat("a", 400),
		Password:      "whatever",
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}
