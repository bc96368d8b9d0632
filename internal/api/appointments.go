package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RektefeMaster/mechanic-client/internal/models"
)

// Appointments возвращает записи, назначенные текущему механику.
func (a *API) Appointments(ctx context.Context) ([]models.Appointment, error) {
	const op = "api.Appointments"

	var out []models.Appointment
	if err := a.c.JSON(ctx, http.MethodGet, "/appointments/mechanic", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// AppointmentByID возвращает запись по идентификатору.
func (a *API) AppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	const op = "api.AppointmentByID"

	var out models.Appointment
	if err := a.c.JSON(ctx, http.MethodGet, "/appointments/"+id, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// ConfirmAppointment подтверждает запись.
func (a *API) ConfirmAppointment(ctx context.Context, id string) error {
	return a.setStatus(ctx, id, models.AppointmentStatusUpdate{Status: models.AppointmentConfirmed})
}

// RejectAppointment отклоняет запись с указанием причины.
func (a *API) RejectAppointment(ctx context.Context, id, reason string) error {
	return a.setStatus(ctx, id, models.AppointmentStatusUpdate{
		Status: models.AppointmentRejected,
		Reason: reason,
	})
}

// CompleteAppointment закрывает запись с итоговой стоимостью.
func (a *API) CompleteAppointment(ctx context.Context, id string, price float64) error {
	return a.setStatus(ctx, id, models.AppointmentStatusUpdate{
		Status: models.AppointmentCompleted,
		Price:  price,
	})
}

func (a *API) setStatus(ctx context.Context, id string, upd models.AppointmentStatusUpdate) error {
	const op = "api.setStatus"

	if err := a.c.JSON(ctx, http.MethodPut, "/appointments/"+id+"/status", upd, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
