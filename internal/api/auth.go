package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/RektefeMaster/mechanic-client/internal/models"
	"github.com/RektefeMaster/mechanic-client/internal/pkg/log"
	"github.com/RektefeMaster/mechanic-client/internal/pkg/redact"
)

// Login выполняет вход и сохраняет учётные данные сессии в хранилище.
func (a *API) Login(ctx context.Context, email, password string) (*models.LoginData, error) {
	const op = "api.Login"

	lg := log.From(ctx)

	var data models.LoginData
	in := models.LoginRequest{Email: email, Password: password}

	if err := a.c.JSON(ctx, http.MethodPost, "/auth/login", in, &data); err != nil {
		lg.Warn("login_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(email)),
		)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.c.SetCredentials(ctx, data.Token, data.RefreshToken, data.UserID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_ok",
		slog.String("op", op),
		slog.String("email", redact.Email(email)),
		slog.String("user_id", data.UserID),
	)

	return &data, nil
}

// Logout завершает сессию. Уведомление бэкенда — best effort:
// локальная сессия завершается в любом случае.
func (a *API) Logout(ctx context.Context) {
	const op = "api.Logout"

	if err := a.c.JSON(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		log.From(ctx).Warn("logout_request_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	a.c.EndSession(ctx)
}
