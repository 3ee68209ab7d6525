package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/repository"
)

const uniqueViolation = "23505"

// Ensure implementation satisfies the interface.
var _ repository.TicketRepository = (*ticketRepo)(nil)

type ticketRepo struct {
	pool *pgxpool.Pool
}

func NewTicketRepo(pool *pgxpool.Pool) repository.TicketRepository {
	return &ticketRepo{pool: pool}
}

const ticketColumns = `id, code, participant_name, email, used, created_at`

func (r *ticketRepo) Create(ctx context.Context, tx repository.Tx, t *model.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `
INSERT INTO tickets (id, code, participant_name, email, used, created_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.Code, t.ParticipantName, t.Email, t.Used, t.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyExists
	}
	return err
}

// FindByCode locks the row when called inside a transaction so the
// check-then-act of a redemption cannot interleave with another one.
func (r *ticketRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE code = $1`
	if inTx(tx) {
		q += ` FOR UPDATE`
	}
	return r.scanOne(ctx, tx, q, code)
}

func (r *ticketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return r.scanOne(ctx, tx, q, id)
}

// MarkUsed only matches unused rows, so two racing callers cannot both win.
func (r *ticketRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE tickets SET used = TRUE WHERE id = $1 AND used = FALSE;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ticketRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `DELETE FROM tickets WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ticketRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at, code`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.ParticipantName, &t.Email, &t.Used, &t.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *ticketRepo) scanOne(ctx context.Context, tx repository.Tx, q string, arg string) (*model.Ticket, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	var t model.Ticket
	if err := row.Scan(&t.ID, &t.Code, &t.ParticipantName, &t.Email, &t.Used, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
