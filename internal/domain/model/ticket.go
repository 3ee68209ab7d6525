package model

import (
	"strings"
	"time"

	"conference-checkin/internal/domain"

	"github.com/google/uuid"
)

// Ticket is a single-use code tied to one participant.
// Used only ever moves from false to true.
type Ticket struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	ParticipantName string    `json:"participant_name"`
	Email           string    `json:"email"`
	Used            bool      `json:"used"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewTicket(id, code, participantName, email string) (*Ticket, error) {
	if id == "" {
		id = uuid.NewString()
	}
	participantName = strings.TrimSpace(participantName)
	if code == "" || participantName == "" {
		return nil, domain.ErrInvalidArgument
	}
	if email == "" {
		email = DefaultEmail(participantName)
	}
	return &Ticket{
		ID:              id,
		Code:            code,
		ParticipantName: participantName,
		Email:           email,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// DefaultEmail derives a placeholder address from a participant name:
// "Juan Pérez" -> "juan.pérez@example.com".
func DefaultEmail(name string) string {
	local := strings.Join(strings.Fields(strings.ToLower(name)), ".")
	return local + "@example.com"
}
