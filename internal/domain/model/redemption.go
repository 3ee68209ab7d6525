package model

import "time"

// RedemptionReason explains why a redemption did not succeed.
type RedemptionReason string

const (
	ReasonNone          RedemptionReason = ""
	ReasonInvalidCode   RedemptionReason = "INVALID_CODE"
	ReasonAlreadyUsed   RedemptionReason = "ALREADY_USED"
	ReasonInternalError RedemptionReason = "INTERNAL_ERROR"
)

// RedemptionResult is what every redeem call produces. Failures are values, not errors.
type RedemptionResult struct {
	Success          bool             `json:"success"`
	Reason           RedemptionReason `json:"reason,omitempty"`
	Message          string           `json:"message"`
	ParticipantName  string           `json:"participantName,omitempty"`
	ParticipantEmail string           `json:"participantEmail,omitempty"`
	TicketID         string           `json:"ticketId,omitempty"`
	AttendanceID     string           `json:"attendanceId,omitempty"`
	RedeemedAt       *time.Time       `json:"redeemedAt,omitempty"`
}

// WithParticipant copies the participant identity of t onto the result.
func (r *RedemptionResult) WithParticipant(t *Ticket) *RedemptionResult {
	if t == nil {
		return r
	}
	r.ParticipantName = t.ParticipantName
	r.ParticipantEmail = t.Email
	r.TicketID = t.ID
	return r
}
