package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/cryptox"
	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/auth"
	"github.com/dmitrijs2005/rxauth/internal/server/metrics"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rxauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "rxauth.session-token"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	server   *Server
	manager  *repomanager.MemoryRepositoryManager
	sessions *auth.TokenIssuer
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.NewNopLogger()
	m := repomanager.NewMemoryRepositoryManager()
	h, err := cryptox.NewHasher(cryptox.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	authn, err := services.NewAuthenticator(m, h, logger, nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	sessions := auth.NewTokenIssuer(testSecret, 24*time.Hour)

	srv := NewServer(":0", CookieOptions{Name: cookieName, Secure: true}, Deps{
		Authenticator: authn,
		Provisioner:   services.NewProvisioner(m, h, logger, nil),
		Profiles:      services.NewProfileService(m, logger),
		Sessions:      sessions,
		Metrics:       metrics.New(reg),
		Gatherer:      reg,
		Ping:          m.Ping,
		Logger:        logger,
	})
	return &testEnv{server: srv, manager: m, sessions: sessions, registry: reg}
}

func (e *testEnv) do(t *testing.T, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, f := range mutate {
		f(req)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", cookieName)
	return nil
}

const aminaBody = `{"name":"Dr. Amina","email":"amina@example.com","password":"correct horse"}`

func TestRegister_Created(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/doctor/register", aminaBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	account := body["account"].(map[string]any)
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "amina@example.com", account["email"])
	assert.Equal(t, "DOCTOR", account["role"])
	assert.Equal(t, "Dr. Amina", profile["name"])
	assert.Equal(t, "TRIALING", profile["subscriptionStatus"])
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.NotContains(t, rec.Body.String(), "correct horse")

	created, err := time.Parse(time.RFC3339Nano, account["createdAt"].(string))
	require.NoError(t, err)
	ends, err := time.Parse(time.RFC3339Nano, profile["trialEndsAt"].(string))
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, ends.Sub(created))
}

func TestRegister_DuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/doctor/register", aminaBody).Code)

	rec := env.do(t, http.MethodPost, "/doctor/register", aminaBody)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, map[string]any{"message": "Doctor already exists"}, decode(t, rec))
}

func TestRegister_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing name", `{"email":"a@example.com","password":"pw"}`, "All fields are required"},
		{"blank email", `{"name":"A","email":"  ","password":"pw"}`, "All fields are required"},
		{"missing password", `{"name":"A","email":"a@example.com"}`, "All fields are required"},
		{"malformed json", `{"name":`, "All fields are required"},
		{"empty body", ``, "All fields are required"},
		{"too long", `{"name":"A","email":"a@example.com","password":"` + strings.Repeat("x", 73) + `"}`, "Password is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/doctor/register", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"message": tt.msg}, decode(t, rec))
		})
	}
}

func TestLogin_SetsCookieAndSession(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/doctor/register", aminaBody).Code)

	rec := env.do(t, http.MethodPost, "/auth/login", `{"email":"Amina@Example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "amina@example.com", user["email"])
	assert.Equal(t, "DOCTOR", user["role"])
	assert.NotContains(t, rec.Body.String(), "$2a$")

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)

	sess := env.do(t, http.MethodGet, "/auth/session", "", func(r *http.Request) { r.AddCookie(cookie) })
	require.Equal(t, http.StatusOK, sess.Code)
	sbody := decode(t, sess)
	assert.Equal(t, user["id"], sbody["user"].(map[string]any)["id"])
	assert.Equal(t, "DOCTOR", sbody["user"].(map[string]any)["role"])
	assert.NotEmpty(t, sbody["expires"])
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/doctor/register", aminaBody).Code)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"missing password", `{"email":"amina@example.com"}`, http.StatusBadRequest, "Please enter your email and password"},
		{"missing email", `{"password":"pw"}`, http.StatusBadRequest, "Please enter your email and password"},
		{"malformed", `not json`, http.StatusBadRequest, "Please enter your email and password"},
		{"wrong password", `{"email":"amina@example.com","password":"nope"}`, http.StatusUnauthorized, "Invalid email or password"},
		{"unknown email", `{"email":"ghost@example.com","password":"nope"}`, http.StatusUnauthorized, "Invalid email or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/login", tt.body)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, map[string]any{"message": tt.msg}, decode(t, rec))
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestSession_AnonymousAndBearer(t *testing.T) {
	env := newTestEnv(t)

	anon := env.do(t, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, anon.Code)
	assert.Equal(t, map[string]any{}, decode(t, anon))

	bad := env.do(t, http.MethodGet, "/auth/session", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookieName, Value: "garbage"})
	})
	require.Equal(t, http.StatusOK, bad.Code)
	assert.Equal(t, map[string]any{}, decode(t, bad))

	token, _, err := env.sessions.Issue(models.Identity{ID: "acc-9", Role: models.RoleAdmin})
	require.NoError(t, err)
	rec := env.do(t, http.MethodGet, "/auth/session", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADMIN", decode(t, rec)["user"].(map[string]any)["role"])
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	c := sessionCookie(t, rec)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)

	unauth := env.do(t, http.MethodGet, "/doctor/profile", "")
	require.Equal(t, http.StatusUnauthorized, unauth.Code)
	assert.Equal(t, map[string]any{"message": "Unauthorized"}, decode(t, unauth))

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/doctor/register", aminaBody).Code)
	login := env.do(t, http.MethodPost, "/auth/login", `{"email":"amina@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login)

	rec := env.do(t, http.MethodGet, "/doctor/profile", "", func(r *http.Request) { r.AddCookie(cookie) })
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dr. Amina", decode(t, rec)["name"])

	token, _, err := env.sessions.Issue(models.Identity{ID: "no-profile", Role: models.RoleAdmin})
	require.NoError(t, err)
	missing := env.do(t, http.MethodGet, "/doctor/profile", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, map[string]any{"message": "Profile not found"}, decode(t, missing))
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, decode(t, rec))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	env.do(t, http.MethodPost, "/auth/login", `{}`)
	m := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `rxauth_http_requests_total{method="POST",route="/auth/login",status="400"} 1`)
}

// --- failure injection ---

type stubAuthenticator struct{ err error }

func (s stubAuthenticator) Authenticate(context.Context, string, string) (*models.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Identity{ID: "acc-1", Email: "a@example.com", Role: models.RoleDoctor}, nil
}

type stubProvisioner struct{ err error }

func (s stubProvisioner) Register(context.Context, services.RegisterInput) (*models.Registration, error) {
	return nil, s.err
}

type stubProfiles struct{}

func (stubProfiles) GetByAccount(context.Context, string) (*models.PractitionerProfile, error) {
	return nil, errors.New("db down: password=hunter2")
}

type failingIssuer struct{ *auth.TokenIssuer }

func (failingIssuer) Issue(models.Identity) (string, time.Time, error) {
	return "", time.Time{}, errors.New("sign failed")
}

func newStubServer(deps Deps) *Server {
	deps.Logger = logging.NewNopLogger()
	if deps.Sessions == nil {
		deps.Sessions = auth.NewTokenIssuer(testSecret, time.Hour)
	}
	return NewServer(":0", CookieOptions{Name: cookieName}, deps)
}

func serve(s *Server, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, f := range mutate {
		f(req)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestInternalErrorsDoNotLeakDetail(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	token, _, err := issuer.Issue(models.Identity{ID: "acc-1", Role: models.RoleDoctor})
	require.NoError(t, err)

	tests := []struct {
		name   string
		srv    *Server
		method string
		path   string
		body   string
		auth   bool
	}{
		{"login storage", newStubServer(Deps{Authenticator: stubAuthenticator{err: common.ErrorInternal}}), http.MethodPost, "/auth/login", `{"email":"a","password":"b"}`, false},
		{"login issue", newStubServer(Deps{Authenticator: stubAuthenticator{}, Sessions: failingIssuer{issuer}}), http.MethodPost, "/auth/login", `{"email":"a","password":"b"}`, false},
		{"register", newStubServer(Deps{Provisioner: stubProvisioner{err: errors.New("pq: password=hunter2")}}), http.MethodPost, "/doctor/register", `{"name":"a","email":"b","password":"c"}`, false},
		{"profile", newStubServer(Deps{Profiles: stubProfiles{}, Sessions: issuer}), http.MethodGet, "/doctor/profile", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.srv, tt.method, tt.path, tt.body, func(r *http.Request) {
				r.Header.Set("Content-Type", "application/json")
				if tt.auth {
					r.Header.Set("Authorization", "Bearer "+token)
				}
			})
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
		})
	}
}

func TestHealth_StorageDown(t *testing.T) {
	s := newStubServer(Deps{Ping: func(context.Context) error { return errors.New("unreachable") }})
	rec := serve(s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecovery(t *testing.T) {
	s := newStubServer(Deps{})
	s.engine.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := serve(s, http.MethodGet, "/panic", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
}

func TestServe_StopsOnCancel(t *testing.T) {
	s := newStubServer(Deps{})
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer "))
	assert.Equal(t, "", bearerToken(""))
}
