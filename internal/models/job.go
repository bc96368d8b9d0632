package models

import "time"

// Виды заявок в лентах работ.
const (
	JobWash   = "wash"
	JobTire   = "tire"
	JobTowing = "towing"
)

// Job — заявка из ленты работ (мойка, шиномонтаж, эвакуация).
type Job struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	CustomerName string    `json:"customerName"`
	Location     string    `json:"location"`
	Status       string    `json:"status"`
	Price        float64   `json:"price,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Rating — оценка механика клиентом.
type Rating struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	Score         int       `json:"score"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
