package repository

import (
	"context"

	"conference-checkin/internal/domain/model"
)

// AttendanceRepository is append-only: records are never updated or deleted.
type AttendanceRepository interface {
	Append(ctx context.Context, tx Tx, rec *model.AttendanceRecord) error
	CountByTicket(ctx context.Context, tx Tx, ticketID string) (int, error)
	List(ctx context.Context, tx Tx) ([]*model.AttendanceRecord, error)
}
