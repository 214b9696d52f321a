// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstrategy-service/internal/auth"
	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/logger"
	"adstrategy-service/internal/gateway"
	"adstrategy-service/internal/models"
	"adstrategy-service/internal/pipeline"
	"adstrategy-service/internal/store"
)

// ---- in-memory auth backends ----

type fakeUserStore struct {
	byEmail map[string]*models.User
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return auth.ErrEmailTaken
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

type fakeSessionStore struct {
	sessions map[string]*models.Session
}

func (f *fakeSessionStore) Save(ctx context.Context, s *models.Session, ttl time.Duration) error {
	cp := *s
	f.sessions[s.Token] = &cp
	return nil
}

func (f *fakeSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

// ---- stub gateway ----

type stubInvoker struct {
	responses map[string]json.RawMessage
	errs      map[string]error
	calls     int
}

func (s *stubInvoker) Invoke(ctx context.Context, function string, payload interface{}) (json.RawMessage, error) {
	s.calls++
	if err, ok := s.errs[function]; ok {
		return nil, err
	}
	if resp, ok := s.responses[function]; ok {
		return resp, nil
	}
	return nil, apperrors.NewAnalysisFailedError(function, fmt.Errorf("no stub response"))
}

// ---- harness ----

type testEnv struct {
	ts    *httptest.Server
	inv   *stubInvoker
	st    *store.MemoryStore
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	log := logger.NewTestLogger(t)
	authSvc := auth.NewService(
		&fakeUserStore{byEmail: map[string]*models.User{}},
		&fakeSessionStore{sessions: map[string]*models.Session{}},
		time.Hour,
		4, // bcrypt.MinCost
		log,
	)

	st := store.NewMemoryStore()
	inv := &stubInvoker{
		responses: map[string]json.RawMessage{},
		errs:      map[string]error{},
	}
	pipe := pipeline.NewService(st, inv, log)

	srv := New(authSvc, st, pipe, log, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	env := &testEnv{ts: ts, inv: inv, st: st}
	env.token = env.signUp(t, "founder@example.com", "correct-horse-9")
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) signUp(t *testing.T, email, password string) string {
	resp := e.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func (e *testEnv) createProject(t *testing.T, name string) models.Project {
	resp := e.do(t, http.MethodPost, "/api/projects", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Project
	decodeBody(t, resp, &p)
	return p
}

// ---- tests ----

func TestAPI_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	resp := env.do(t, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var out struct {
		Redirect string `json:"redirect"`
	}
	decodeBody(t, resp, &out)
	assert.Equal(t, "/login", out.Redirect)
}

func TestAPI_Me(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	decodeBody(t, resp, &out)
	assert.Equal(t, "founder@example.com", out["email"])
	assert.NotEmpty(t, out["userId"])
}

func TestAPI_SignOutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/signout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CreateProject(t *testing.T) {
	env := newTestEnv(t)

	p := env.createProject(t, "Acme Launch")
	assert.Equal(t, "Acme Launch", p.Name)
	assert.Equal(t, 1, p.CurrentStage)
	require.NotNil(t, p.Stage1)

	resp := env.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Projects []models.Project `json:"projects"`
	}
	decodeBody(t, resp, &out)
	assert.Len(t, out.Projects, 1)
}

func TestAPI_CreateProjectRequiresName(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/projects", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAPI_RenameProject(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Old Name")

	resp := env.do(t, http.MethodPatch, "/api/projects/"+p.ID, map[string]string{"name": "New Name"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Project
	decodeBody(t, resp, &updated)
	assert.Equal(t, "New Name", updated.Name)
}

func TestAPI_DeleteProjectNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Doomed")

	resp := env.do(t, http.MethodDelete, "/api/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/projects/"+p.ID+"?confirm=true", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_StageViewGating(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Acme Launch")

	// Stage 1 is open.
	resp := env.do(t, http.MethodGet, "/api/projects/"+p.ID+"/stages/stage1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Stage 2 is locked and redirects to the current stage.
	resp = env.do(t, http.MethodGet, "/api/projects/"+p.ID+"/stages/stage2", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/api/projects/"+p.ID+"/stages/stage1", resp.Header.Get("Location"))

	resp = env.do(t, http.MethodGet, "/api/projects/"+p.ID+"/stages/stage9", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAPI_Stage1ItemCRUD(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Acme Launch")
	base := "/api/projects/" + p.ID + "/stage1/items"

	resp := env.do(t, http.MethodPost, base, map[string]string{
		"category": "productInfo", "title": "Starter Kit", "content": "9800 yen",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Item   models.Stage1Item `json:"item"`
		Stage1 models.Stage1Data `json:"stage1"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.Item.ID)
	assert.Len(t, created.Stage1.ProductInfo, 1)

	resp = env.do(t, http.MethodPut, base+"/"+created.Item.ID, map[string]string{
		"category": "productInfo", "title": "Starter Kit v2", "content": "still 9800 yen",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Stage1 models.Stage1Data `json:"stage1"`
	}
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Starter Kit v2", updated.Stage1.ProductInfo[0].Title)
	assert.Equal(t, created.Item.ID, updated.Stage1.ProductInfo[0].ID)

	resp = env.do(t, http.MethodDelete, base+"/"+created.Item.ID+"?category=productInfo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted struct {
		Stage1 models.Stage1Data `json:"stage1"`
	}
	decodeBody(t, resp, &deleted)
	assert.Empty(t, deleted.Stage1.ProductInfo)
}

func TestAPI_Stage1ItemValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Acme Launch")
	base := "/api/projects/" + p.ID + "/stage1/items"

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "unknown category", body: map[string]string{"category": "financials", "title": "t", "content": "c"}},
		{name: "blank title", body: map[string]string{"category": "productInfo", "title": " ", "content": "c"}},
		{name: "missing content", body: map[string]string{"category": "productInfo", "title": "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, base, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestAPI_AdvanceStage1(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Acme Launch")

	env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stage1/items", map[string]string{
		"category": "productInfo", "title": "Starter Kit", "content": "9800 yen",
	})

	env.inv.responses[gateway.FunctionAnalyzeProduct] = json.RawMessage(`{
		"success": true,
		"keywords": "starter kit",
		"productElements": {"features": "f", "benefits": "b", "results": "r", "authority": "a", "offer": "o"},
		"customerPersonas": "founders"
	}`)

	resp := env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stages/stage1/advance",
		map[string]bool{"useDeepResearch": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Project
	decodeBody(t, resp, &updated)
	assert.Equal(t, 2, updated.CurrentStage)
	require.NotNil(t, updated.Stage2)
	assert.Equal(t, "starter kit", updated.Stage2.Keywords)

	// Stage 2 is now reachable.
	resp = env.do(t, http.MethodGet, "/api/projects/"+p.ID+"/stages/stage2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_AdvanceValidationSkipsGateway(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Acme Launch")

	resp := env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stages/stage1/advance", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, env.inv.calls)
}

func TestAPI_AdvanceGatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Acme Launch")

	env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stage1/items", map[string]string{
		"category": "productInfo", "title": "Starter Kit", "content": "9800 yen",
	})
	env.inv.errs[gateway.FunctionAnalyzeProduct] = apperrors.NewAnalysisFailedError(
		gateway.FunctionAnalyzeProduct, fmt.Errorf("model unavailable"),
	)

	resp := env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stages/stage1/advance", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// Project state is untouched.
	resp = env.do(t, http.MethodGet, "/api/projects/"+p.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var project models.Project
	decodeBody(t, resp, &project)
	assert.Equal(t, 1, project.CurrentStage)
	assert.Nil(t, project.Stage2)
}

func TestAPI_OwnerIsolation(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Private Project")

	// A second account cannot see or touch the first account's project.
	env.token = env.signUp(t, "rival@example.com", "another-pass-9")

	resp := env.do(t, http.MethodGet, "/api/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Projects []models.Project `json:"projects"`
	}
	decodeBody(t, resp, &out)
	assert.Empty(t, out.Projects)
}
