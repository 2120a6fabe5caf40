package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkarpenko/livetrack/internal/models"
	"github.com/mkarpenko/livetrack/internal/repository/memory"
	"github.com/mkarpenko/livetrack/internal/service/auth"
	"github.com/mkarpenko/livetrack/internal/service/auth/tokenmanager"
)

func Test_AuthHandler(t *testing.T) {
	t.Parallel()

	// Run http server with production AuthService over in-memory storage
	withServer := func(t *testing.T, fn func(url string, auth *auth.AuthService)) {
		t.Helper()

		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "token manager should be created without errors")

		s, err := auth.NewService(auth.Config{}, tokenManager, memory.NewStorage())
		require.NoError(t, err, "auth service starting error")

		h := NewAuth(s)
		srv := httptest.NewServer(h.Handler())
		t.Cleanup(srv.Close)

		fn(srv.URL, s)
	}

	post := func(t *testing.T, url string, body string, cookies ...*http.Cookie) (*http.Response, string) {
		t.Helper()

		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, url, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		return resp, string(respBody)
	}

	refreshCookie := func(t *testing.T, resp *http.Response) *http.Cookie {
		t.Helper()

		for _, cookie := range resp.Cookies() {
			if cookie.Name == "refreshToken" {
				return cookie
			}
		}
		t.Fatal("refreshToken cookie not found")
		return nil
	}

	t.Run("signup ok", func(t *testing.T) {
		withServer(t, func(url string, _ *auth.AuthService) {
			data := `{"name": "mkarpenko", "email": "m@example.com", "password": "StrongEnoughPassword"}`

			resp, body := post(t, url+"/signup", data)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"id": 1,
					"email": "m@example.com",
					"role": "customer"
				}`, body)
			require.Empty(t, resp.Cookies(), "signup must not log the user in")
		})
	})

	t.Run("signup duplicate email", func(t *testing.T) {
		withServer(t, func(url string, _ *auth.AuthService) {
			data := `{"name": "mkarpenko", "email": "m@example.com", "password": "StrongEnoughPassword"}`

			resp, _ := post(t, url+"/signup", data)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp, body := post(t, url+"/signup", data)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "User with this email already exists"
				}`, body)
		})
	})

	t.Run("signup validation failed", func(t *testing.T) {
		tests := []struct {
			name string
			data string
		}{
			{name: "missing fields", data: `{"name": "mkarpenko"}`},
			{name: "bad email", data: `{"name": "mkarpenko", "email": "not-an-email", "password": "StrongEnoughPassword"}`},
			{name: "short password", data: `{"name": "mkarpenko", "email": "m@example.com", "password": "short"}`},
			{name: "not json", data: `also definitely not json`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withServer(t, func(url string, _ *auth.AuthService) {
					resp, body := post(t, url+"/signup", tt.data)

					require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
				})
			})
		}
	})

	t.Run("login ok", func(t *testing.T) {
		withServer(t, func(url string, authService *auth.AuthService) {
			_, err := authService.Register(t.Context(), "mkarpenko", "m@example.com", "StrongEnoughPassword")
			require.NoError(t, err)

			data := `{"email": "m@example.com", "password": "StrongEnoughPassword"}`
			resp, body := post(t, url+"/login", data)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "accessToken")

			cookie := refreshCookie(t, resp)
			require.NotEmpty(t, cookie.Value, "refresh cookie should not be empty")
			require.True(t, cookie.HttpOnly, "refresh cookie should be HttpOnly")
			require.Equal(t, "/", cookie.Path, "refresh cookie should be available on / path")
			require.Equal(t, http.SameSiteStrictMode, cookie.SameSite, "refresh cookie should be SameSite Strict")
			require.InDelta(t, (7 * 24 * time.Hour).Seconds(), cookie.MaxAge, 1, "max age should be refresh TTL with 1 second delta")
		})
	})

	t.Run("login failed", func(t *testing.T) {
		withServer(t, func(url string, authService *auth.AuthService) {
			_, err := authService.Register(t.Context(), "mkarpenko", "m@example.com", "StrongEnoughPassword")
			require.NoError(t, err)

			tests := []struct {
				name string
				data string
			}{
				{name: "wrong password", data: `{"email": "m@example.com", "password": "WrongPassword"}`},
				{name: "unknown email", data: `{"email": "nobody@example.com", "password": "StrongEnoughPassword"}`},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					resp, body := post(t, url+"/login", tt.data)

					require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
					require.JSONEq(t, `
						{
							"error": "Invalid email or password"
						}`, body)
					require.Empty(t, resp.Cookies(), "no cookies should be set on login error")
				})
			}
		})
	})

	t.Run("refresh rotates the token", func(t *testing.T) {
		withServer(t, func(url string, authService *auth.AuthService) {
			_, err := authService.Register(t.Context(), "mkarpenko", "m@example.com", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, _ := post(t, url+"/login", `{"email": "m@example.com", "password": "StrongEnoughPassword"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			oldCookie := refreshCookie(t, resp)

			resp, body := post(t, url+"/refresh", "", oldCookie)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "accessToken")

			newCookie := refreshCookie(t, resp)
			require.NotEqual(t, oldCookie.Value, newCookie.Value, "refresh must set a new cookie")

			// The consumed cookie must be dead now
			resp, body = post(t, url+"/refresh", "", oldCookie)

			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "Invalid or expired refresh token"
				}`, body)

			// While the rotated one still works
			resp, _ = post(t, url+"/refresh", "", newCookie)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	})

	t.Run("refresh without cookie", func(t *testing.T) {
		withServer(t, func(url string, _ *auth.AuthService) {
			resp, body := post(t, url+"/refresh", "")

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "No refresh token provided"
				}`, body)
		})
	})

	t.Run("refresh with garbage cookie", func(t *testing.T) {
		withServer(t, func(url string, _ *auth.AuthService) {
			resp, body := post(t, url+"/refresh", "", &http.Cookie{Name: "refreshToken", Value: "garbage"})

			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "Invalid or expired refresh token"
				}`, body)
		})
	})

	t.Run("logout", func(t *testing.T) {
		withServer(t, func(url string, authService *auth.AuthService) {
			_, err := authService.Register(t.Context(), "mkarpenko", "m@example.com", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, _ := post(t, url+"/login", `{"email": "m@example.com", "password": "StrongEnoughPassword"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			cookie := refreshCookie(t, resp)

			resp, body := post(t, url+"/logout", "", cookie)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"message": "Logged out successfully"
				}`, body)
			require.Negative(t, refreshCookie(t, resp).MaxAge, "logout must clear the refresh cookie")

			// The revoked token must not refresh anymore
			resp, _ = post(t, url+"/refresh", "", cookie)
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	})

	t.Run("logout without cookie still ok", func(t *testing.T) {
		withServer(t, func(url string, _ *auth.AuthService) {
			resp, body := post(t, url+"/logout", "")

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"message": "Logged out successfully"
				}`, body)
		})
	})
}

func Test_ProtectedRoutes(t *testing.T) {
	t.Parallel()

	get := func(t *testing.T, url string) (*http.Response, string) {
		t.Helper()

		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		return resp, string(body)
	}

	// Inject the identity the way the auth middleware does
	newServer := func(t *testing.T, handler http.Handler, identity tokenmanager.Identity) *httptest.Server {
		t.Helper()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler.ServeHTTP(w, r.WithContext(NewContextWithIdentity(r.Context(), identity)))
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("protected returns the identity", func(t *testing.T) {
		srv := newServer(t, handleProtected(), tokenmanager.Identity{UserID: 7, Role: models.RoleCourier})

		resp, body := get(t, srv.URL)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"message": "You accessed a protected route!",
				"userId": 7,
				"role": "courier"
			}`, body)
	})

	t.Run("dashboard greets the user", func(t *testing.T) {
		srv := newServer(t, handleDashboard(), tokenmanager.Identity{UserID: 9, Role: models.RoleCustomer})

		resp, body := get(t, srv.URL)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"message": "Welcome to your dashboard, user 9!",
				"role": "customer"
			}`, body)
	})
}
