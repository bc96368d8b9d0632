package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RektefeMaster/mechanic-client/internal/models"
)

// Profile возвращает профиль текущего механика.
// Успешный ответ кэшируется в хранилище (best effort), чтобы
// интерфейс мог показать последние известные данные без сети.
func (a *API) Profile(ctx context.Context) (*models.MechanicProfile, error) {
	const op = "api.Profile"

	var out models.MechanicProfile
	if err := a.c.JSON(ctx, http.MethodGet, "/mechanic/me", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if blob, err := json.Marshal(out); err == nil {
		a.c.CacheProfile(ctx, string(blob))
	}

	return &out, nil
}

// CachedProfile возвращает последний закэшированный профиль.
// ok=false, если кэша нет или он нечитаем.
func (a *API) CachedProfile(ctx context.Context) (*models.MechanicProfile, bool) {
	blob := a.c.ProfileCache(ctx)
	if blob == "" {
		return nil, false
	}

	var p models.MechanicProfile
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return nil, false
	}

	return &p, true
}

// UpdateProfile изменяет поля профиля текущего механика.
func (a *API) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.MechanicProfile, error) {
	const op = "api.UpdateProfile"

	var out models.MechanicProfile
	if err := a.c.JSON(ctx, http.MethodPut, "/mechanic/me", upd, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// Ratings возвращает оценки текущего механика.
func (a *API) Ratings(ctx context.Context) ([]models.Rating, error) {
	const op = "api.Ratings"

	var out []models.Rating
	if err := a.c.JSON(ctx, http.MethodGet, "/mechanic/ratings", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
