package model

import "time"

// CheckinEvent is announced to downstream consumers after a ticket is redeemed.
type CheckinEvent struct {
	TicketID        string    `json:"ticketId"`
	Code            string    `json:"code"`
	ParticipantName string    `json:"participantName"`
	Email           string    `json:"email"`
	AttendanceID    string    `json:"attendanceId"`
	Channel         string    `json:"channel"`
	RedeemedAt      time.Time `json:"redeemedAt"`
}
