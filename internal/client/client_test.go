package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/RektefeMaster/mechanic-client/internal/creds"
)

// Пакет unit-тестов ядра клиента: конвейер запросов, нормализация ошибок,
// координатор обновления токена (см. также refresh_test.go).

// testJWT выпускает HS256-токен с заданным exp (подпись тестовая,
// инспектор её всё равно не проверяет).
func testJWT(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC().Add(-time.Minute)),
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return tok
}

// newStore — файловое хранилище во временной директории.
func newStore(t *testing.T) creds.Store {
	t.Helper()

	s, err := creds.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, err)

	return s
}

// seedSession засеивает хранилище валидной на вид сессией.
func seedSession(t *testing.T, store creds.Store, access, refresh string) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, creds.KeyAuthToken, access))
	if refresh != "" {
		require.NoError(t, store.Set(ctx, creds.KeyRefreshToken, refresh))
	}
	require.NoError(t, store.Set(ctx, creds.KeyUserID, "user-1"))
}

func newTestClient(t *testing.T, baseURL string, store creds.Store, notify func()) *Client {
	t.Helper()

	c, err := New(context.Background(), Config{
		BaseURL:          baseURL,
		Store:            store,
		OnSessionExpired: notify,
		Timeout:          2 * time.Second,
	})
	require.NoError(t, err)

	return c
}

// writeEnvelope — ответ в конверте бэкенда.
func writeEnvelope(w http.ResponseWriter, status int, success bool, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": msg,
		"data":    data,
	})
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Store: nil, BaseURL: "http://x"})
	require.Error(t, err)

	_, err = New(context.Background(), Config{Store: newStore(t)})
	require.Error(t, err)
}

func TestNew_WarmsTokenCacheFromStore(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	seedSession(t, store, "T1", "")

	c := newTestClient(t, "http://127.0.0.1:0", store, nil)
	require.Equal(t, "T1", c.cachedToken())
}

func TestDo_AttachesBearerAndRequestID(t *testing.T) {
	t.Parallel()

	var gotAuth, gotRid, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRid = r.Header.Get("X-Request-Id")
		gotUA = r.Header.Get("User-Agent")
		writeEnvelope(w, http.StatusOK, true, "", nil)
	}))
	defer srv.Close()

	store := newStore(t)
	seedSession(t, store, "T1", "")

	c := newTestClient(t, srv.URL, store, nil)
	require.NoError(t, c.JSON(context.Background(), http.MethodGet, "/data", nil, nil))

	require.Equal(t, "Bearer T1", gotAuth)
	require.NotEmpty(t, gotRid)
	require.Equal(t, "mechanic-client", gotUA)
}

// Публичные эндпойнты: без токена запрос уходит неавторизованным,
// заголовок Authorization не выставляется вовсе.
func TestDo_NoTokenSendsUnauthenticated(t *testing.T) {
	t.Parallel()

	var sawAuthHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuthHeader = r.Header["Authorization"]
		writeEnvelope(w, http.StatusOK, true, "", nil)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, newStore(t), nil)
	require.NoError(t, c.JSON(context.Background(), http.MethodGet, "/public", nil, nil))
	require.False(t, sawAuthHeader)
}

// Сетевая ошибка возвращается как есть: refresh не запускается,
// сессия не завершается.
func TestDo_NetworkErrorIsNotNormalized(t *testing.T) {
	t.Parallel()

	notified := 0
	store := newStore(t)
	seedSession(t, store, "T1", testJWT(t, time.Now().Add(time.Hour)))

	// Адрес без слушателя: connection refused.
	c := newTestClient(t, "http://127.0.0.1:1", store, func() { notified++ })

	err := c.JSON(context.Background(), http.MethodGet, "/data", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
	require.Zero(t, notified)
}

// Таймаут — тоже сетевая ошибка, а не повод для refresh.
func TestDo_TimeoutIsNetworkFailure(t *testing.T) {
	t.Parallel()

	refreshCalled := false
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalled = true
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newStore(t)
	seedSession(t, store, "T1", testJWT(t, time.Now().Add(time.Hour)))

	c, err := New(context.Background(), Config{
		BaseURL: srv.URL,
		Store:   store,
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	err = c.JSON(context.Background(), http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
	require.False(t, refreshCalled)
}

// Прочие HTTP-ошибки нормализуются и не трогают координатор.
func TestDo_OtherHTTPErrorsPassThrough(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		status   int
		wantCode string
	}{
		{http.StatusBadRequest, "invalid_argument"},
		{http.StatusForbidden, "permission_denied"},
		{http.StatusNotFound, "not_found"},
		{http.StatusInternalServerError, "internal"},
		{http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.wantCode, func(t *testing.T) {
			t.Parallel()

			refreshCalled := false
			mux := http.NewServeMux()
			mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
				refreshCalled = true
			})
			mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tc.status, false, "boom", nil)
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			store := newStore(t)
			seedSession(t, store, "T1", testJWT(t, time.Now().Add(time.Hour)))

			c := newTestClient(t, srv.URL, store, nil)

			err := c.JSON(context.Background(), http.MethodGet, "/data", nil, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tc.status, apiErr.Status)
			require.Equal(t, tc.wantCode, apiErr.Code)
			require.Equal(t, "boom", apiErr.Message)
			require.False(t, refreshCalled)
		})
	}
}

// Конверт success=false при HTTP 200 — тоже ошибка для фичевого кода.
func TestJSON_EnvelopeFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, false, "nope", nil)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, newStore(t), nil)

	err := c.JSON(context.Background(), http.MethodGet, "/data", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "rejected", apiErr.Code)
	require.Equal(t, "nope", apiErr.Message)
}

func TestCodeFromStatus_Mapping(t *testing.T) {
	t.Parallel()

	require.Equal(t, "unauthenticated", codeFromStatus(http.StatusUnauthorized))
	require.Equal(t, "already_exists", codeFromStatus(http.StatusConflict))
	require.Equal(t, "failed_precondition", codeFromStatus(http.StatusPreconditionFailed))
	require.Equal(t, "resource_exhausted", codeFromStatus(http.StatusTooManyRequests))
	require.Equal(t, "deadline_exceeded", codeFromStatus(http.StatusGatewayTimeout))
	require.Equal(t, "internal", codeFromStatus(http.StatusTeapot))
}

func TestSetCredentials_PersistsAndCaches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	c := newTestClient(t, "http://127.0.0.1:0", store, nil)

	require.NoError(t, c.SetCredentials(ctx, "A1", "R1", "user-9"))
	require.Equal(t, "A1", c.cachedToken())
	require.Equal(t, "user-9", c.UserID(ctx))

	got, err := store.Get(ctx, creds.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "R1", got)
}
