package models

import "time"

// Статусы записи на обслуживание.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentRejected  = "rejected"
	AppointmentCompleted = "completed"
)

// Appointment — запись клиента на обслуживание у механика.
type Appointment struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	VehicleBrand string    `json:"vehicleBrand"`
	VehicleModel string    `json:"vehicleModel"`
	VehiclePlate string    `json:"vehiclePlate"`
	ServiceType  string    `json:"serviceType"`
	Status       string    `json:"status"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	Price        float64   `json:"price,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// AppointmentStatusUpdate — смена статуса записи механиком.
type AppointmentStatusUpdate struct {
	Status string  `json:"status"`
	Reason string  `json:"reason,omitempty"`
	Price  float64 `json:"price,omitempty"`
}
