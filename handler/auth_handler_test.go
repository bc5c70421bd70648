package handler

import (
	"context"
	"errors"
	"jwt-auth-api/config"
	"jwt-auth-api/model"
	"jwt-auth-api/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*service.LoginResult)
	return result, args.Error(1)
}
func (m *mockTokenService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	pair, _ := args.Get(0).(*service.TokenPair)
	return pair, args.Error(1)
}
func (m *mockTokenService) Logout(ctx context.Context, refreshToken string) {
	m.Called(ctx, refreshToken)
}

var testCookieConfig = config.CookieConfig{RefreshName: "refresh_token", Secure: true, SameSite: "Strict", Path: "/api/auth"}

func newTestAuthHandler() (*AuthHandler, *mockTokenService, time.Time) {
	tokens := new(mockTokenService)
	h := NewAuthHandler(tokens, testCookieConfig)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	return h, tokens, now
}

func findCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, tokens, now := newTestAuthHandler()
		tokens.On("Login", mock.Anything, "user@example.com", "pw").Return(&service.LoginResult{
			Tokens: service.TokenPair{AccessToken: "acc", RefreshToken: "ref", RefreshExpiresAt: now.Add(time.Hour)},
			User:   model.UserSummary{UserID: 1, Email: "user@example.com", Role: "USER"},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"user@example.com","password":"pw"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Login).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Bearer acc", rr.Header().Get("Authorization"))
		assert.JSONEq(t, `{"message":"login_ok","data":{"userId":1,"email":"user@example.com","role":"USER"}}`, rr.Body.String())

		c := findCookie(t, rr, "refresh_token")
		assert.Equal(t, "ref", c.Value)
		assert.Equal(t, 3600, c.MaxAge)
		assert.Equal(t, "/api/auth", c.Path)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		tokens.AssertExpectations(t)
	})

	t.Run("bad credentials", func(t *testing.T) {
		h, tokens, _ := newTestAuthHandler()
		tokens.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"user@example.com","password":"bad"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Login).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"message":"invalid_credentials","data":null}`, rr.Body.String())
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("invalid body", func(t *testing.T) {
		h, tokens, _ := newTestAuthHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Login).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "validation_error")
		tokens.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("internal failure is hidden", func(t *testing.T) {
		h, tokens, _ := newTestAuthHandler()
		tokens.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused")).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"user@example.com","password":"pw"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Login).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"message":"internal_error","data":null}`, rr.Body.String())
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("reads the cookie and rotates", func(t *testing.T) {
		h, tokens, now := newTestAuthHandler()
		tokens.On("Refresh", mock.Anything, "old").
			Return(&service.TokenPair{AccessToken: "acc2", RefreshToken: "new", RefreshExpiresAt: now.Add(2 * time.Hour)}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old"})
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Refresh).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Bearer acc2", rr.Header().Get("Authorization"))
		assert.JSONEq(t, `{"message":"refresh_ok","data":null}`, rr.Body.String())
		c := findCookie(t, rr, "refresh_token")
		assert.Equal(t, "new", c.Value)
		assert.Equal(t, 7200, c.MaxAge)
	})

	t.Run("missing cookie", func(t *testing.T) {
		h, tokens, _ := newTestAuthHandler()
		tokens.On("Refresh", mock.Anything, "").Return(nil, service.ErrMissingToken).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Refresh).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"message":"missing_refresh_cookie","data":null}`, rr.Body.String())
	})

	t.Run("reused token", func(t *testing.T) {
		h, tokens, _ := newTestAuthHandler()
		tokens.On("Refresh", mock.Anything, "spent").Return(nil, service.ErrRefreshRevoked).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "spent"})
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.Refresh).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "refresh_revoked")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	for name, cookie := range map[string]*http.Cookie{
		"with cookie":    {Name: "refresh_token", Value: "ref"},
		"without cookie": nil,
	} {
		t.Run(name, func(t *testing.T) {
			h, tokens, _ := newTestAuthHandler()
			want := ""
			if cookie != nil {
				want = cookie.Value
			}
			tokens.On("Logout", mock.Anything, want).Return().Once()

			req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
			if cookie != nil {
				req.AddCookie(cookie)
			}
			rr := httptest.NewRecorder()
			ErrorHandlingMiddleware(h.Logout).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, `{"message":"logout_ok","data":null}`, rr.Body.String())
			setCookie := rr.Header().Get("Set-Cookie")
			assert.Contains(t, setCookie, "refresh_token=;")
			assert.Contains(t, setCookie, "Max-Age=0")
			tokens.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_MeAndAdmin(t *testing.T) {
	h, _, _ := newTestAuthHandler()
	identity := model.Identity{UserID: 3, Email: "admin@example.com", Role: model.RoleAdmin}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(WithIdentity(req.Context(), identity))
	rr := httptest.NewRecorder()
	ErrorHandlingMiddleware(h.Me).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"me_ok","data":{"userId":3,"email":"admin@example.com","role":"ADMIN"}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	ErrorHandlingMiddleware(h.Me).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	ErrorHandlingMiddleware(h.AdminPing).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil))
	assert.JSONEq(t, `{"message":"admin_ok","data":"pong"}`, rr.Body.String())
}

func TestMapAuthError(t *testing.T) {
	appErr := mapAuthError(service.ErrRefreshExpired)
	assert.Equal(t, http.StatusUnauthorized, appErr.Code)
	assert.Equal(t, "refresh_expired", appErr.Message)

	appErr = mapAuthError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, "internal_error", appErr.Message)
}
