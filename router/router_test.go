package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authRepo "notevault/internal/auth/repository"
	authService "notevault/internal/auth/service"
	"notevault/internal/document/model"
	docRepo "notevault/internal/document/repository"
	docService "notevault/internal/document/service"
	"notevault/internal/session"
	"notevault/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type api struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T, scope model.SearchScope, db Pinger) *api {
	issuer := session.NewIssuer("router-secret", "notevault", time.Hour)
	hasher := &password.Argon2{Time: 1, Memory: 1024, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	return &api{t: t, handler: Setup(Deps{
		Auth:           authService.NewAuthService(authRepo.NewMemoryUserRepository(), hasher, issuer),
		Documents:      docService.NewDocumentService(docRepo.NewMemoryDocumentRepository(), nil, scope),
		Tokens:         issuer,
		DB:             db,
		Location:       time.UTC,
		AllowedOrigins: []string{"*"},
	})}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) login(email, pw string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/register", "", map[string]string{"email": email, "password": pw})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": pw})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(a.t, "Bearer", resp.TokenType)
	return resp.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDocumentLifecycle(t *testing.T) {
	a := newAPI(t, model.ScopeTitleContent, nil)
	tok := a.login("a@x.com", "pw1")

	rec := a.do(http.MethodPost, "/document", tok, map[string]any{"title": "Note", "content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.DocumentResponse](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.IsPublic)
	_, err := time.Parse(model.TimeLayout, created.CreatedAt)
	assert.NoError(t, err)

	rec = a.do(http.MethodGet, "/search?q=HELL", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.DocumentResponse](t, rec), 1)

	rec = a.do(http.MethodPut, "/document/1", tok, map[string]any{"content": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.DocumentResponse](t, rec)
	assert.Equal(t, "hi", updated.Content)
	assert.Equal(t, "Note", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	rec = a.do(http.MethodDelete, "/document/1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Document deleted"}`, rec.Body.String())

	rec = a.do(http.MethodDelete, "/document/1", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTitleOnlySearchPolicy(t *testing.T) {
	a := newAPI(t, model.ScopeTitle, nil)
	tok := a.login("a@x.com", "pw1")

	rec := a.do(http.MethodPost, "/document", tok, map[string]any{"title": "Note", "content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodGet, "/search?q=HELL", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	a := newAPI(t, model.ScopeTitleContent, nil)
	alice := a.login("a@x.com", "pw1")
	bob := a.login("b@x.com", "pw2")

	rec := a.do(http.MethodPost, "/document", alice, map[string]any{"title": "Secret", "content": "plans", "is_public": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decode[model.DocumentResponse](t, rec)

	rec = a.do(http.MethodGet, "/documents", bob, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = a.do(http.MethodGet, "/search?q=", bob, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	foreign := a.do(http.MethodPut, "/document/1", bob, map[string]any{"title": "mine"})
	missing := a.do(http.MethodPut, "/document/99", bob, map[string]any{"title": "mine"})
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, missing.Code, foreign.Code)
	assert.Equal(t, missing.Body.String(), foreign.Body.String())

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/document/1", bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/document/1", bob, nil).Code)

	rec = a.do(http.MethodGet, "/document/1", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doc, decode[model.DocumentResponse](t, rec))
}

func TestAuthErrors(t *testing.T) {
	a := newAPI(t, model.ScopeTitleContent, nil)
	a.login("a@x.com", "pw1")

	rec := a.do(http.MethodPost, "/register", "", map[string]string{"email": "a@x.com", "password": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/register", "", map[string]string{"email": "c@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	wrong := a.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	unknown := a.do(http.MethodPost, "/login", "", map[string]string{"email": "z@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	for _, path := range []string{"/documents", "/search?q=x", "/document/1"} {
		assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, path, "", nil).Code, path)
		assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, path, "forged.token.value", nil).Code, path)
	}
}

func TestBadRequests(t *testing.T) {
	a := newAPI(t, model.ScopeTitleContent, nil)
	tok := a.login("a@x.com", "pw1")

	rec := a.do(http.MethodPost, "/document", tok, map[string]any{"title": "only title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"msg":"Title and content are required"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/document", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/document/abc", tok, map[string]any{"title": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/document/-1", tok, nil).Code)
}

func TestHealth(t *testing.T) {
	ok := newAPI(t, model.ScopeTitleContent, pinger{})
	rec := ok.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newAPI(t, model.ScopeTitleContent, pinger{err: errors.New("no route to host")})
	rec = down.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	a := newAPI(t, model.ScopeTitleContent, nil)

	req := httptest.NewRequest(http.MethodOptions, "/documents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}
