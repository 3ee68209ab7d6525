package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/repository"
)

var _ repository.AttendanceRepository = (*attendanceRepo)(nil)

type attendanceRepo struct {
	pool *pgxpool.Pool
}

func NewAttendanceRepo(pool *pgxpool.Pool) repository.AttendanceRepository {
	return &attendanceRepo{pool: pool}
}

func (r *attendanceRepo) Append(ctx context.Context, tx repository.Tx, rec *model.AttendanceRecord) error {
	if rec.ID == "" || rec.TicketID == "" {
		return domain.ErrInvalidArgument
	}
	const q = `INSERT INTO attendance (id, ticket_id, checked_at) VALUES ($1, $2, $3);`
	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.TicketID, rec.Timestamp)
	return err
}

func (r *attendanceRepo) CountByTicket(ctx context.Context, tx repository.Tx, ticketID string) (int, error) {
	const q = `SELECT COUNT(*) FROM attendance WHERE ticket_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, ticketID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *attendanceRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AttendanceRecord, error) {
	const q = `SELECT id, ticket_id, checked_at FROM attendance ORDER BY checked_at, id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AttendanceRecord
	for rows.Next() {
		var a model.AttendanceRecord
		if err := rows.Scan(&a.ID, &a.TicketID, &a.Timestamp); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
