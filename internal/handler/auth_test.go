package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Romanticus/TRexpress/internal/config"
	"github.com/Romanticus/TRexpress/internal/model"
	"github.com/Romanticus/TRexpress/internal/repository"
	"github.com/Romanticus/TRexpress/internal/utils"
)

// fakeStore is an in-memory UserStore. It enforces the unique email
// constraint the same way the database does: at insert time, never as a
// pre-check.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]model.User
	now   time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]model.User{}, now: time.Unix(1700000000, 0).UTC()}
}

func (s *fakeStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if ex.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.now = s.now.Add(time.Second) // deterministic, strictly increasing
	u.CreatedAt = s.now
	u.UpdatedAt = s.now
	s.users[u.ID] = *u
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *fakeStore) List(_ context.Context, page, limit int) ([]model.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	offset := (page - 1) * limit
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *fakeStore) UpdateActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.IsActive = active
	u.UpdatedAt = s.now
	s.users[id] = u
	return nil
}

func (s *fakeStore) UpdateRefreshHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.RefreshTokenHash = hash
	u.UpdatedAt = s.now
	s.users[id] = u
	return nil
}

func testCfg() config.Config {
	return config.Config{
		AccessSecret:   "test-access-secret",
		RefreshSecret:  "test-refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // bcrypt.MinCost, keeps tests fast
	}
}

// doJSON runs a handler against a synthetic request and returns the
// recorded response.
func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func registerBody(email string) string {
	return fmt.Sprintf(`{"fullName":"Test User","birthDate":"1990-05-01","email":%q,"password":"secret1"}`, email)
}

func register(t *testing.T, h *AuthHandler, email string) authResp {
	t.Helper()
	rec := doJSON(t, h.Register, http.MethodPost, "/auth/register", registerBody(email), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("register: decode response: %v", err)
	}
	return resp
}

func TestRegisterTokenClaimsMatchStoredAccount(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}

	resp := register(t, h, "alice@example.com")

	ident, err := utils.VerifyAccessToken(testCfg().AccessSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	stored, err := store.GetByID(context.Background(), resp.User.ID)
	if err != nil {
		t.Fatalf("stored account missing: %v", err)
	}
	if ident.UserID != stored.ID || ident.Email != stored.Email || ident.Role != stored.Role {
		t.Fatalf("claims %+v do not match stored account %+v", ident, stored)
	}
	if stored.Role != model.RoleUser {
		t.Fatalf("new accounts must default to USER, got %s", stored.Role)
	}
	if stored.RefreshTokenHash != utils.HashRefreshRaw(resp.RefreshToken) {
		t.Fatal("stored refresh hash does not match the issued refresh token")
	}
}

func TestRegisterResponseOmitsSecrets(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}

	rec := doJSON(t, h.Register, http.MethodPost, "/auth/register", registerBody("bob@example.com"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "passwordHash") || strings.Contains(body, "refreshTokenHash") {
		t.Fatalf("response leaks credential fields: %s", body)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}

	register(t, h, "carol@example.com")
	rec := doJSON(t, h.Register, http.MethodPost, "/auth/register", registerBody("carol@example.com"), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	h := &AuthHandler{Cfg: testCfg(), Users: newFakeStore()}

	rec := doJSON(t, h.Register, http.MethodPost, "/auth/register",
		`{"fullName":"","birthDate":"01/05/1990","email":"not-an-email","password":"abc"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Errors) != 4 {
		t.Fatalf("expected all 4 validation errors reported, got %v", resp.Errors)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	h := &AuthHandler{Cfg: testCfg(), Users: newFakeStore()}
	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login",
		`{"email":"ghost@example.com","password":"secret1"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}
	register(t, h, "dave@example.com")

	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login",
		`{"email":"dave@example.com","password":"wrong-password"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}
	resp := register(t, h, "erin@example.com")
	if err := store.UpdateActive(context.Background(), resp.User.ID, false); err != nil {
		t.Fatalf("block: %v", err)
	}

	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login",
		`{"email":"erin@example.com","password":"secret1"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for blocked account, got %d", rec.Code)
	}
}

func TestLoginRotatesRefreshHash(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}
	resp := register(t, h, "frank@example.com")

	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login",
		`{"email":"frank@example.com","password":"secret1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var loginResp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	stored, _ := store.GetByID(context.Background(), resp.User.ID)
	if stored.RefreshTokenHash != utils.HashRefreshRaw(loginResp.RefreshToken) {
		t.Fatal("login must persist the hash of the newly issued refresh token")
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}
	resp := register(t, h, "grace@example.com")

	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh",
		fmt.Sprintf(`{"refreshToken":%q}`, resp.RefreshToken), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var refreshResp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &refreshResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, err := utils.VerifyAccessToken(testCfg().AccessSecret, refreshResp.AccessToken); err != nil {
		t.Fatalf("new access token does not verify: %v", err)
	}
	stored, _ := store.GetByID(context.Background(), resp.User.ID)
	if stored.RefreshTokenHash != utils.HashRefreshRaw(refreshResp.RefreshToken) {
		t.Fatal("refresh must persist the hash of the newly issued refresh token")
	}
}

func TestRefreshSupersededToken(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}
	resp := register(t, h, "heidi@example.com")

	// Simulate a login on another device overwriting the stored hash.
	if err := store.UpdateRefreshHash(context.Background(), resp.User.ID, "some-other-digest"); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh",
		fmt.Sprintf(`{"refreshToken":%q}`, resp.RefreshToken), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for superseded refresh token, got %d", rec.Code)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}
	resp := register(t, h, "ivan@example.com")

	// An access token must never pass as a refresh token.
	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh",
		fmt.Sprintf(`{"refreshToken":%q}`, resp.AccessToken), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshBlockedAccount(t *testing.T) {
	store := newFakeStore()
	h := &AuthHandler{Cfg: testCfg(), Users: store}
	resp := register(t, h, "judy@example.com")
	if err := store.UpdateActive(context.Background(), resp.User.ID, false); err != nil {
		t.Fatalf("block: %v", err)
	}

	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh",
		fmt.Sprintf(`{"refreshToken":%q}`, resp.RefreshToken), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for blocked account, got %d", rec.Code)
	}
}
