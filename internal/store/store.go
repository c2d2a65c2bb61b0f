// Package store persists the booking queue in Postgres. Pending and
// processed requests live in one table, disjoint by status; a run loads
// pending once at the start and writes every terminal outcome at the end in
// a single transaction.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/db"
)

type Store struct{ db *db.DB }

func New(d *db.DB) *Store { return &Store{db: d} }

const requestColumns = `id, created_at, play_date, window_start, window_end, status, processed_at, booked_time, confirmation_id, failure_reason`

func (s *Store) Add(ctx context.Context, req booking.Request) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
INSERT INTO requests(play_date, window_start, window_end, status)
VALUES ($1, $2, $3, 'pending')
RETURNING id`,
		req.PlayDate, req.Window.Start, req.Window.End,
	).Scan(&id)
	return id, db.WrapNotFound(err)
}

func (s *Store) Pending(ctx context.Context) ([]booking.Request, error) {
	return s.query(ctx, `
SELECT `+requestColumns+`
FROM requests
WHERE status = 'pending'
ORDER BY created_at ASC`)
}

func (s *Store) List(ctx context.Context) ([]booking.Request, error) {
	return s.query(ctx, `
SELECT `+requestColumns+`
FROM requests
ORDER BY play_date ASC, created_at ASC`)
}

// RecordOutcomes writes terminal statuses for the run's processed requests.
// All updates commit together; a half-persisted run would violate the
// pending/processed disjointness.
func (s *Store) RecordOutcomes(ctx context.Context, reqs []booking.Request) error {
	return s.db.InTx(ctx, func(tx pgx.Tx) error {
		for _, r := range reqs {
			if r.Status == booking.StatusPending {
				continue
			}
			_, err := tx.Exec(ctx, `
UPDATE requests
SET status=$2, processed_at=$3, booked_time=$4, confirmation_id=$5, failure_reason=$6
WHERE id=$1`,
				r.ID, string(r.Status), r.ProcessedAt,
				nullable(r.BookedTime), nullable(r.ConfirmationID), nullable(r.FailureReason))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SaveCredentials(ctx context.Context, name, sealed string) error {
	return s.db.Exec(ctx, `
INSERT INTO credentials(name, sealed, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET sealed = EXCLUDED.sealed, updated_at = now()`,
		name, sealed)
}

func (s *Store) SealedCredentials(ctx context.Context, name string) (string, error) {
	var sealed string
	err := s.db.QueryRow(ctx, `SELECT sealed FROM credentials WHERE name=$1`, name).Scan(&sealed)
	if err != nil {
		return "", db.WrapNotFound(err)
	}
	return sealed, nil
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]booking.Request, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(row db.Row) (booking.Request, error) {
	var r booking.Request
	var status string
	var playDate time.Time
	var bookedTime, confirmationID, failureReason *string
	err := row.Scan(
		&r.ID, &r.CreatedAt, &playDate, &r.Window.Start, &r.Window.End,
		&status, &r.ProcessedAt, &bookedTime, &confirmationID, &failureReason,
	)
	if err != nil {
		return booking.Request{}, err
	}
	r.PlayDate = booking.DateOf(playDate)
	r.Status = booking.Status(status)
	r.BookedTime = deref(bookedTime)
	r.ConfirmationID = deref(confirmationID)
	r.FailureReason = deref(failureReason)
	return r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
