package repository

import (
	"context"

	"conference-checkin/internal/domain/model"
)

// TicketRepository is the port for ticket storage.
type TicketRepository interface {
	// Create inserts a new ticket. Returns domain.ErrAlreadyExists when the code or id is taken.
	Create(ctx context.Context, tx Tx, t *model.Ticket) error
	// FindByCode looks a ticket up by exact code. Returns domain.ErrNotFound when absent.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Ticket, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Ticket, error)
	// MarkUsed flips used from false to true. It reports false when the ticket was
	// already used (or vanished) so callers never redeem twice.
	MarkUsed(ctx context.Context, tx Tx, id string) (bool, error)
	// Delete removes a ticket. Returns false when nothing was deleted.
	Delete(ctx context.Context, tx Tx, id string) (bool, error)
	List(ctx context.Context, tx Tx) ([]*model.Ticket, error)
}
