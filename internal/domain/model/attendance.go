package model

import "time"

// AttendanceRecord is append-only proof of a successful redemption.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
}
