// Координатор обновления access-токена.
//
// Состояния: IDLE и REFRESHING; переход охраняется мьютексом клиента
// (рантайм многопоточный, проверка-и-установка флага обязана быть
// атомарной). В REFRESHING входит ровно одна горутина-лидер; все
// остальные 401-е вызовы на время полёта становятся в FIFO-очередь
// ожидающих и получают результат той же самой refresh-операции.
// Запросы, пришедшие после завершения refresh, в очередь не попадают —
// они запускают новую операцию.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/RektefeMaster/mechanic-client/internal/creds"
	"github.com/RektefeMaster/mechanic-client/internal/models"
	"github.com/RektefeMaster/mechanic-client/internal/pkg/log"
	"github.com/RektefeMaster/mechanic-client/internal/token"
)

// refreshResult — исход refresh-операции, доставляемый ожидающим.
type refreshResult struct {
	token string
	err   error
}

// refreshAndWait возвращает свежий access-токен, гарантируя не более
// одной одновременной refresh-операции на процесс.
//
// stale — токен, с которым запрос получил 401. Если кэш уже содержит
// другой токен, значит параллельный refresh успел завершиться — его
// результат переиспользуется без новой операции. Так N одновременных
// 401-х порождают ровно один сетевой вызов refresh, сколько бы их
// ни было.
//
// Лидер выполняет операцию и рассылает исход всем ожидающим в порядке
// их постановки в очередь; очередь опустошается атомарно под мьютексом
// в момент завершения операции. Контекст ожидающего может отменить
// только его собственное ожидание — саму операцию он не отменяет.
func (c *Client) refreshAndWait(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()
	if c.access != "" && c.access != stale {
		tok := c.access
		c.mu.Unlock()

		return tok, nil
	}

	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case r := <-ch:
			return r.token, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	c.refreshing = true
	c.mu.Unlock()

	c.met.IncRefreshAttempts()

	tok, err := c.doRefresh(ctx)

	c.mu.Lock()
	c.refreshing = false
	ws := c.waiters
	c.waiters = nil
	if err == nil {
		c.access = tok
	}
	c.mu.Unlock()

	// Каналы буферизованы — рассылка не блокируется даже при отменённых
	// ожидающих.
	for _, ch := range ws {
		ch <- refreshResult{token: tok, err: err}
	}

	if err != nil {
		c.met.IncRefreshFailures()
		c.teardown(ctx)
	}

	return tok, err
}

// doRefresh выполняет саму refresh-операцию.
//
// Порядок:
//  1. refresh-токен из хранилища; отсутствует или просрочен — отказ без
//     сетевого вызова (обречённый круг до бэкенда не делаем);
//  2. POST на эндпойнт обновления с токеном в теле, минуя конвейер
//     (никакого bearer-заголовка и повторного перехвата 401);
//  3. успешный конверт с непустым data.token — персист и возврат токена;
//  4. любой иной исход — очистка всех трёх ключей и ошибка.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	const op = "client.doRefresh"

	lg := log.From(ctx)

	// Операция обслуживает всех ожидающих, поэтому не наследует отмену
	// контекста лидера; таймаут ограничен http-клиентом.
	rctx := context.WithoutCancel(ctx)

	rt := c.stored(rctx, creds.KeyRefreshToken)
	if rt == "" {
		lg.Warn("refresh_token_missing", slog.String("op", op))
		return "", fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	if token.Expired(rt) {
		lg.Warn("refresh_token_expired", slog.String("op", op))
		return "", fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	body, err := json.Marshal(models.RefreshRequest{RefreshToken: rt})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.send(rctx, http.MethodPost, c.refreshPath, body, "")
	if err != nil {
		lg.Error("refresh_request_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		c.clearCredentials(rctx)

		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		Data    models.RefreshData `json:"data"`
	}

	if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&env) != nil ||
		!env.Success || env.Data.Token == "" {
		lg.Warn("refresh_rejected",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		c.clearCredentials(rctx)

		return "", fmt.Errorf("%s: %w", op, ErrRefreshRejected)
	}

	if err := c.store.Set(rctx, creds.KeyAuthToken, env.Data.Token); err != nil {
		// Токен уже получен и останется в памяти; потеря персиста —
		// деградация до переавторизации после рестарта, не отказ.
		lg.Warn("access_token_persist_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	if env.Data.RefreshToken != "" {
		if err := c.store.Set(rctx, creds.KeyRefreshToken, env.Data.RefreshToken); err != nil {
			lg.Warn("refresh_token_persist_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	lg.Info("access_token_refreshed", slog.String("op", op))

	return env.Data.Token, nil
}

// clearCredentials удаляет ключи сессии из хранилища.
func (c *Client) clearCredentials(ctx context.Context) {
	if err := c.store.RemoveAll(ctx, creds.SessionKeys...); err != nil {
		log.From(ctx).Warn("creds_clear_failed", slog.String("err", err.Error()))
	}
}
