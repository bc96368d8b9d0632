package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RektefeMaster/mechanic-client/internal/models"
)

// WashJobs возвращает ленту заявок на мойку.
func (a *API) WashJobs(ctx context.Context) ([]models.Job, error) {
	return a.jobs(ctx, models.JobWash)
}

// TireJobs возвращает ленту заявок на шиномонтаж.
func (a *API) TireJobs(ctx context.Context) ([]models.Job, error) {
	return a.jobs(ctx, models.JobTire)
}

// TowingJobs возвращает ленту заявок на эвакуацию.
func (a *API) TowingJobs(ctx context.Context) ([]models.Job, error) {
	return a.jobs(ctx, models.JobTowing)
}

func (a *API) jobs(ctx context.Context, kind string) ([]models.Job, error) {
	const op = "api.jobs"

	var out []models.Job
	if err := a.c.JSON(ctx, http.MethodGet, "/jobs/"+kind, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, kind, err)
	}

	return out, nil
}
