package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Repository archives finalized bookings
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertBooking stores a finalized booking. The record ID is assigned here.
func (r *Repository) InsertBooking(ctx context.Context, rec *BookingRecord) error {
	rec.ID = uuid.New()
	query := `
		INSERT INTO bookings (id, booking_id, transaction_id, pnr, origin, destination,
		                      depart_date, passengers, net_amount, total_amount, status,
		                      contact_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.BookingID, rec.TransactionID, rec.PNR, rec.Origin, rec.Destination,
		rec.DepartDate, rec.Passengers, rec.NetAmount, rec.TotalAmount, rec.Status,
		rec.ContactEmail,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// UpdateStatus changes an archived booking's status.
func (r *Repository) UpdateStatus(ctx context.Context, bookingID string, status RecordStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE booking_id = $2`
	tag, err := r.pool.Exec(ctx, query, status, bookingID)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByBookingID returns one archived booking.
func (r *Repository) GetByBookingID(ctx context.Context, bookingID string) (*BookingRecord, error) {
	query := `
		SELECT id, booking_id, transaction_id, pnr, origin, destination, depart_date,
		       passengers, net_amount, total_amount, status, contact_email,
		       created_at, updated_at
		FROM bookings
		WHERE booking_id = $1
	`
	var rec BookingRecord
	err := r.pool.QueryRow(ctx, query, bookingID).Scan(
		&rec.ID, &rec.BookingID, &rec.TransactionID, &rec.PNR, &rec.Origin,
		&rec.Destination, &rec.DepartDate, &rec.Passengers, &rec.NetAmount,
		&rec.TotalAmount, &rec.Status, &rec.ContactEmail, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &rec, nil
}

// ListRecent returns the most recently finalized bookings.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]BookingRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, booking_id, transaction_id, pnr, origin, destination, depart_date,
		       passengers, net_amount, total_amount, status, contact_email,
		       created_at, updated_at
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var records []BookingRecord
	for rows.Next() {
		var rec BookingRecord
		err := rows.Scan(
			&rec.ID, &rec.BookingID, &rec.TransactionID, &rec.PNR, &rec.Origin,
			&rec.Destination, &rec.DepartDate, &rec.Passengers, &rec.NetAmount,
			&rec.TotalAmount, &rec.Status, &rec.ContactEmail, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
