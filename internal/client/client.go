// client реализует авторизованный HTTP-клиент бэкенда маркетплейса.
//
// Клиент — явно сконструированный объект (никаких глобальных синглтонов):
// он владеет http.Client с фиксированным таймаутом, кэшем access-токена
// в памяти и состоянием координатора обновления токена (см. refresh.go).
// Фичевые обёртки (internal/api) строятся поверх Do/JSON и прозрачно
// наследуют поведение refresh+retry.
//
// Дисциплина единственного писателя: кэш access-токена и хранилище
// мутируют только координатор, SetCredentials и завершение сессии;
// обычные запросы токен лишь читают.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RektefeMaster/mechanic-client/internal/creds"
	"github.com/RektefeMaster/mechanic-client/internal/metrics"
	"github.com/RektefeMaster/mechanic-client/internal/pkg/log"
	"github.com/RektefeMaster/mechanic-client/internal/session"
)

// Config — параметры конструирования клиента.
type Config struct {
	// BaseURL — корень REST API, например "https://api.example.com/api".
	BaseURL string
	// RefreshPath — путь эндпойнта обновления токена.
	RefreshPath string
	// Timeout — фиксированный таймаут каждого сетевого вызова.
	Timeout time.Duration
	// UserAgent — значение заголовка User-Agent.
	UserAgent string
	// Store — персистентное хранилище учётных данных.
	Store creds.Store
	// OnSessionExpired — внешний наблюдатель состояния авторизации;
	// вызывается при завершении сессии (level-triggered, см. session).
	OnSessionExpired session.Notifier
	// Metrics — счётчики ядра; может быть nil.
	Metrics *metrics.Metrics
}

// Client — авторизованный клиент бэкенда.
// Безопасен для конкурентного использования из разных горутин.
type Client struct {
	baseURL     string
	refreshPath string
	userAgent   string
	httpc       *http.Client
	store       creds.Store
	sess        *session.Manager
	met         *metrics.Metrics

	// mu защищает кэш access-токена и состояние координатора (refresh.go).
	mu         sync.Mutex
	access     string
	refreshing bool
	waiters    []chan refreshResult
}

// New создаёт клиент и прогревает кэш access-токена из хранилища.
func New(ctx context.Context, cfg Config) (*Client, error) {
	const op = "client.New"

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}

	if cfg.Store == nil {
		return nil, fmt.Errorf("%s: nil credential store", op)
	}

	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/auth/refresh-token"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = "mechanic-client"
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		refreshPath: cfg.RefreshPath,
		userAgent:   cfg.UserAgent,
		httpc:       &http.Client{Timeout: cfg.Timeout},
		store:       cfg.Store,
		sess:        session.NewManager(cfg.Store, cfg.OnSessionExpired),
		met:         cfg.Metrics,
	}

	// Токен из прошлого запуска; недоступное хранилище — просто нет токена.
	c.access = c.stored(ctx, creds.KeyAuthToken)

	return c, nil
}

// Do выполняет запрос к path (относительно BaseURL), сериализуя in в JSON.
//
// Контракт:
//   - сетевые ошибки (включая таймаут) возвращаются как есть и НЕ запускают
//     обновление токена;
//   - единственный триггер координатора — HTTP 401; запрос повторяется не
//     более одного раза, с токеном из завершившейся refresh-операции;
//   - прочие статусы ≥ 400 нормализуются в *APIError без повторов;
//   - при невозможности продлить сессию вызывающий получает исходную
//     ошибку 401, а сессия завершается.
func (c *Client) Do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	const op = "client.Do"

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
	}

	tok := c.cachedToken()

	resp, err := c.send(ctx, method, path, body, tok)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 400 {
		return resp, nil
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return nil, errFromResponse(resp)
	}

	// 401: исходная ошибка сохраняется — именно её увидит вызывающий,
	// если сессию продлить не удастся.
	authErr := errFromResponse(resp)

	newTok, rerr := c.refreshAndWait(ctx, tok)
	if rerr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, authErr
	}

	c.met.IncRetriedRequests()

	resp, err = c.send(ctx, method, path, body, newTok)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Повторный 401 после успешного refresh — жёсткий отказ
		// авторизации, третьей попытки не будет.
		log.From(ctx).Warn("auth_retry_rejected",
			slog.String("op", op),
			slog.String("path", path),
		)
		c.teardown(ctx)

		return nil, errFromResponse(resp)
	}

	if resp.StatusCode >= 400 {
		return nil, errFromResponse(resp)
	}

	return resp, nil
}

// JSON выполняет запрос и разбирает конверт ответа {success, message, data}.
// Поле data декодируется в out (если out != nil).
func (c *Client) JSON(ctx context.Context, method, path string, in, out any) error {
	const op = "client.JSON"

	resp, err := c.Do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}

		return &APIError{Status: resp.StatusCode, Code: "rejected", Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", op, err)
		}
	}

	return nil
}

// SetCredentials атомарно устанавливает учётные данные новой сессии
// (после логина) и возвращает менеджер сессии в активное состояние.
func (c *Client) SetCredentials(ctx context.Context, access, refresh, userID string) error {
	const op = "client.SetCredentials"

	pairs := map[string]string{
		creds.KeyAuthToken:    access,
		creds.KeyRefreshToken: refresh,
		creds.KeyUserID:       userID,
	}

	for k, v := range pairs {
		if err := c.store.Set(ctx, k, v); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	c.mu.Lock()
	c.access = access
	c.mu.Unlock()

	c.sess.Reset()

	return nil
}

// EndSession принудительно завершает сессию (logout).
func (c *Client) EndSession(ctx context.Context) {
	c.teardown(ctx)
}

// UserID возвращает идентификатор пользователя текущей сессии
// (пустая строка, если сессии нет).
func (c *Client) UserID(ctx context.Context) string {
	return c.stored(ctx, creds.KeyUserID)
}

// CacheProfile сохраняет сериализованный профиль в хранилище.
// Кэш — best effort: отказ записи логируется и не мешает вызывающему.
func (c *Client) CacheProfile(ctx context.Context, blob string) {
	if err := c.store.Set(ctx, creds.KeyProfileCache, blob); err != nil {
		log.From(ctx).Warn("profile_cache_persist_failed",
			slog.String("err", err.Error()),
		)
	}
}

// ProfileCache возвращает закэшированный профиль
// (пустая строка — кэша нет).
func (c *Client) ProfileCache(ctx context.Context) string {
	return c.stored(ctx, creds.KeyProfileCache)
}

// envelope — единый конверт ответов бэкенда.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// send — единственная точка отправки запросов конвейера: подставляет
// bearer-токен (если он есть) и X-Request-Id. Никакого сетевого или
// дискового I/O сверх самого вызова здесь нет — токен берётся из памяти.
func (c *Client) send(ctx context.Context, method, path string, body []byte, tok string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())

	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	return c.httpc.Do(req)
}

// cachedToken возвращает access-токен из памяти.
func (c *Client) cachedToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.access
}

// stored читает ключ из хранилища; ошибка чтения трактуется как
// «учётных данных нет» и приводит к переавторизации, а не к жёсткому
// отказу вызывающему коду.
func (c *Client) stored(ctx context.Context, key string) string {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		log.From(ctx).Warn("creds_read_failed",
			slog.String("key", key),
			slog.String("err", err.Error()),
		)

		return ""
	}

	return v
}

// teardown завершает сессию: сбрасывает кэш токена и делегирует
// очистку/уведомление менеджеру сессии. Идемпотентен.
func (c *Client) teardown(ctx context.Context) {
	c.mu.Lock()
	c.access = ""
	c.mu.Unlock()

	c.met.IncSessionTeardowns()

	_ = c.sess.Teardown(ctx)
}
