package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/search"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
	"github.com/boxofficeapp/boxoffice-server/internal/store/sqlite"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api     humatest.TestAPI
	catalog *sqlite.Store
	users   *store.Store
	cleanup func()
}

// setupTestServer wires a full server over temporary storage with a
// seeded organizer, live event, category, item, and quota.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "boxoffice-api-test-*")
	require.NoError(t, err)

	users, err := store.New(filepath.Join(tmpDir, "badger"), nil)
	require.NoError(t, err)

	catalogStore, err := sqlite.Open(filepath.Join(tmpDir, "catalog.db"), nil)
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{DataPath: filepath.Join(tmpDir, "search")})
	require.NoError(t, err)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "Test Server"},
		Presale: config.PresaleConfig{
			GlobalRegistration: true,
			LoginRatePerMinute: 600,
			LoginBurst:         100,
		},
	}

	sessions := service.NewSessionService(users, tokenService, nil)
	presale := service.NewPresaleService(users, sessions, cfg.Presale.GlobalRegistration, nil)
	catalogSvc := service.NewCatalogService(catalogStore, users, nil)
	searchSvc := service.NewSearchService(index, catalogStore, nil)

	s := NewServer(cfg, users, &Services{
		Catalog: catalogSvc,
		Presale: presale,
		Session: sessions,
		Search:  searchSvc,
	}, nil)

	ts := &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.api),
		catalog: catalogStore,
		users:   users,
		cleanup: func() {
			_ = index.Close()
			_ = catalogStore.Close()
			_ = users.Close()
			_ = os.RemoveAll(tmpDir)
		},
	}

	ts.seedEvent(t)

	require.NoError(t, searchSvc.ReindexEvent(context.Background(), ts.event(t), &domain.Organizer{
		Meta: testMeta("org-1"), Slug: "bigorg", Name: "Big Organizer",
	}))

	return ts
}

func testMeta(id string) domain.Meta {
	now := time.Now()
	return domain.Meta{ID: id, CreatedAt: now, UpdatedAt: now}
}

// seedEvent creates bigorg/summer-fest with one ticket item limited by
// a five-unit quota.
func (ts *testServer) seedEvent(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	org := &domain.Organizer{Meta: testMeta("org-1"), Slug: "bigorg", Name: "Big Organizer"}
	require.NoError(t, ts.catalog.CreateOrganizer(ctx, org))

	event := &domain.Event{
		Meta:        testMeta("evt-1"),
		OrganizerID: "org-1",
		Slug:        "summer-fest",
		Name:        "Summer Fest",
		Currency:    "EUR",
		Live:        true,
		Settings:    domain.DefaultEventSettings(),
	}
	require.NoError(t, ts.catalog.CreateEvent(ctx, event))

	cat := &domain.Category{Meta: testMeta("cat-1"), EventID: "evt-1", Name: "Tickets", Position: 1}
	require.NoError(t, ts.catalog.CreateCategory(ctx, cat))

	item := &domain.Item{
		Meta:           testMeta("itm-1"),
		EventID:        "evt-1",
		CategoryID:     "cat-1",
		Name:           "Day Pass",
		BasePriceCents: 2500,
		Active:         true,
	}
	require.NoError(t, ts.catalog.CreateItem(ctx, item))

	size := int64(5)
	quota := &domain.Quota{
		Meta:    testMeta("quo-1"),
		EventID: "evt-1",
		Name:    "Main",
		Size:    &size,
		ItemIDs: []string{"itm-1"},
	}
	require.NoError(t, ts.catalog.CreateQuota(ctx, quota))
}

func (ts *testServer) event(t *testing.T) *domain.Event {
	t.Helper()
	event, err := ts.catalog.GetEventBySlug(context.Background(), "bigorg", "summer-fest")
	require.NoError(t, err)
	return event
}

// registerUser drives a local registration through the login endpoint
// and returns the submission response.
func (ts *testServer) registerUser(t *testing.T, username, password string) LoginSubmitResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/events/bigorg/summer-fest/login", map[string]any{
		"form":            "local_registration",
		"username":        username,
		"password":        password,
		"password_repeat": password,
	})
	require.Equal(t, http.StatusOK, resp.Code, "registration failed: %s", resp.Body.String())

	var body LoginSubmitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}

func TestGetShop_Anonymous(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/events/bigorg/summer-fest/shop")
	require.Equal(t, http.StatusOK, resp.Code)

	var body service.ShopView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.Equal(t, "evt-1", body.Event.ID)
	require.Len(t, body.Groups, 1)
	require.Len(t, body.Groups[0].Items, 1)
	assert.Equal(t, "Day Pass", body.Groups[0].Items[0].Item.Name)
	assert.Nil(t, body.Cart)
}

func TestGetShop_UnknownEvent(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/events/bigorg/no-such-event/shop")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetLoginPage_Anonymous(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/events/bigorg/summer-fest/login?next=/somewhere")
	require.Equal(t, http.StatusOK, resp.Code)

	var body LoginPageResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.Empty(t, body.Redirect)
	require.NotNil(t, body.Page)
	assert.Equal(t, "/somewhere", body.Page.Next)
	assert.False(t, body.Page.Login.Bound)
	require.NotNil(t, body.Page.GlobalRegistration)
}

func TestSubmitLogin_RegistrationAndLoginFlow(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	reg := ts.registerUser(t, "bob", "hunter2hunter2")
	assert.Equal(t, "/bigorg/summer-fest/", reg.Redirect)
	require.NotNil(t, reg.Session)
	require.NotNil(t, reg.User)
	assert.Equal(t, "bob@evt-1.event.boxoffice", reg.User.Identifier)

	// The access token authenticates follow-up requests.
	me := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+reg.Session.AccessToken)
	require.Equal(t, http.StatusOK, me.Code)

	var user UserResponse
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &user))
	assert.Equal(t, "bob", user.Username)
	assert.False(t, user.Global)

	// Revisiting the login page while authenticated redirects away.
	page := ts.api.Get("/api/v1/events/bigorg/summer-fest/login",
		"Authorization: Bearer "+reg.Session.AccessToken)
	require.Equal(t, http.StatusOK, page.Code)

	var pageBody LoginPageResponse
	require.NoError(t, json.Unmarshal(page.Body.Bytes(), &pageBody))
	assert.Equal(t, "/bigorg/summer-fest/", pageBody.Redirect)
	assert.Nil(t, pageBody.Page)

	// And plain login works with the registered credentials.
	login := ts.api.Post("/api/v1/events/bigorg/summer-fest/login", map[string]any{
		"form":       "login",
		"identifier": "bob",
		"password":   "hunter2hunter2",
		"next":       "/bigorg/summer-fest/checkout",
	})
	require.Equal(t, http.StatusOK, login.Code)

	var loginBody LoginSubmitResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginBody))
	assert.Equal(t, "/bigorg/summer-fest/checkout", loginBody.Redirect)
	require.NotNil(t, loginBody.Session)
}

func TestSubmitLogin_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/events/bigorg/summer-fest/login", map[string]any{
		"form":            "local_registration",
		"username":        "bad@name",
		"password":        "one",
		"password_repeat": "two",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body LoginSubmitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.Empty(t, body.Redirect)
	assert.Nil(t, body.Session)
	require.NotNil(t, body.Page)
	assert.True(t, body.Page.LocalRegistration.Bound)
	assert.Equal(t, "invalid_username", body.Page.LocalRegistration.Errors["username"])
	assert.Equal(t, "pw_mismatch", body.Page.LocalRegistration.Errors["password_repeat"])
}

func TestSubmitLogin_BadCredentials(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/events/bigorg/summer-fest/login", map[string]any{
		"form":       "login",
		"identifier": "nobody",
		"password":   "whatever",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body LoginSubmitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotNil(t, body.Page)
	assert.Equal(t, "invalid_login", body.Page.Login.Errors["form"])
}

func TestSearchShop(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/events/bigorg/summer-fest/search?q=day")
	require.Equal(t, http.StatusOK, resp.Code)

	var body ShopSearchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	require.Len(t, body.Hits, 1)
	assert.Equal(t, "itm-1", body.Hits[0].ID)
	assert.Equal(t, "Tickets", body.Hits[0].Category)
}

func TestRefreshAndLogout(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	reg := ts.registerUser(t, "carol", "hunter2hunter2")
	require.NotNil(t, reg.Session)

	refresh := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": reg.Session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refresh.Code)

	var rotated service.SessionResponse
	require.NoError(t, json.Unmarshal(refresh.Body.Bytes(), &rotated))
	assert.NotEqual(t, reg.Session.RefreshToken, rotated.RefreshToken)

	logout := ts.api.Post("/api/v1/auth/logout", map[string]any{
		"refresh_token": rotated.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, logout.Code)

	// The rotated token is gone after logout.
	again := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": rotated.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, again.Code)
}

func TestListMySessions(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	reg := ts.registerUser(t, "dave", "hunter2hunter2")

	resp := ts.api.Get("/api/v1/users/me/sessions",
		"Authorization: Bearer "+reg.Session.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Sessions []SessionInfo `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Sessions, 1)
	assert.Equal(t, reg.Session.SessionID, body.Sessions[0].ID)
}

func TestUsersMe_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
