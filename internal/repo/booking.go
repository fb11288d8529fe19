package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// BookingRepo is the durable booking ledger. A booking row is written once
// and afterwards only its cancellation fields change.
type BookingRepo interface {
	// Create persists a booking with its seats and passengers atomically.
	Create(ctx context.Context, b domain.Booking) error

	// GetByID returns domain.ErrBookingNotFound if no such booking exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// ListByUser returns one page of a user's bookings, newest first, plus the
	// user's total booking count.
	ListByUser(ctx context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error)

	// ListConfirmed returns every Confirmed booking. Used at startup to
	// restore Booked seats in the inventory.
	ListConfirmed(ctx context.Context) ([]domain.Booking, error)

	// MarkCancelled moves a Confirmed booking to Cancelled and records the
	// refund split. It fails with domain.ErrAlreadyCancelled if the booking
	// is already Cancelled; the check and the write are one statement.
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, refund, fee domain.Money) (domain.Booking, error)

	// RevertCancellation undoes MarkCancelled. It is a compensating action
	// for a cancellation whose seat release failed.
	RevertCancellation(ctx context.Context, id uuid.UUID) error
}

type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a Postgres-backed BookingRepo.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `id, user_id, trip_id, operator_name, category, origin, destination,
		service_date, departure_time, arrival_time, unit_fare, total_price, payment_method,
		status, created_at, cancelled_at, refund_amount, cancellation_fee`

func (r *pgBookingRepo) Create(ctx context.Context, b domain.Booking) error {
	const insertBooking = `
		INSERT INTO bookings (id, user_id, trip_id, operator_name, category, origin, destination,
		                      service_date, departure_time, arrival_time, unit_fare, total_price,
		                      payment_method, status, created_at)
		VALUES (@id, @user_id, @trip_id, @operator_name, @category, @origin, @destination,
		        @service_date, @departure_time, @arrival_time, @unit_fare, @total_price,
		        @payment_method, @status, @created_at)`
	const insertSeat = `
		INSERT INTO booking_seats (booking_id, seat_number) VALUES (@booking_id, @seat_number)`
	const insertPassenger = `
		INSERT INTO booking_passengers (booking_id, position, name, age, gender, seat_number)
		VALUES (@booking_id, @position, @name, @age, @gender, @seat_number)`

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertBooking, pgx.NamedArgs{
			"id":             b.ID,
			"user_id":        b.UserID,
			"trip_id":        b.TripID,
			"operator_name":  b.Trip.OperatorName,
			"category":       string(b.Trip.Category),
			"origin":         b.Trip.Origin,
			"destination":    b.Trip.Destination,
			"service_date":   pgtype.Date{Time: b.Trip.ServiceDate, Valid: true},
			"departure_time": b.Trip.DepartureTime,
			"arrival_time":   b.Trip.ArrivalTime,
			"unit_fare":      int64(b.UnitFare),
			"total_price":    int64(b.TotalPrice),
			"payment_method": string(b.PaymentMethod),
			"status":         string(b.Status),
			"created_at":     b.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		batch := &pgx.Batch{}
		for _, seat := range b.Seats {
			batch.Queue(insertSeat, pgx.NamedArgs{"booking_id": b.ID, "seat_number": seat})
		}
		for i, p := range b.Passengers {
			batch.Queue(insertPassenger, pgx.NamedArgs{
				"booking_id":  b.ID,
				"position":    i,
				"name":        p.Name,
				"age":         p.Age,
				"gender":      string(p.Gender),
				"seat_number": p.SeatNumber,
			})
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert seats and passengers: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.Create: %w", err)
	}
	return nil
}

func (r *pgBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = @id`

	b, err := scanBooking(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", err)
	}
	bookings := []domain.Booking{b}
	if err := r.loadDetails(ctx, bookings); err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", err)
	}
	return bookings[0], nil
}

func (r *pgBookingRepo) ListByUser(ctx context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error) {
	args := pgx.NamedArgs{"user_id": userID, "limit": p.Limit, "offset": p.Offset()}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE user_id = @user_id`, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.ListByUser: count: %w", err)
	}

	q := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = @user_id
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	bookings, err := r.queryBookings(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.ListByUser: %w", err)
	}
	return bookings, total, nil
}

func (r *pgBookingRepo) ListConfirmed(ctx context.Context) ([]domain.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'confirmed' ORDER BY created_at, id`

	bookings, err := r.queryBookings(ctx, q, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListConfirmed: %w", err)
	}
	return bookings, nil
}

func (r *pgBookingRepo) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, refund, fee domain.Money) (domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET status           = 'cancelled',
		    cancelled_at     = @cancelled_at,
		    refund_amount    = @refund_amount,
		    cancellation_fee = @cancellation_fee
		WHERE id = @id AND status = 'confirmed'
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":               id,
		"cancelled_at":     at,
		"refund_amount":    int64(refund),
		"cancellation_fee": int64(fee),
	}))
	if errors.Is(err, domain.ErrBookingNotFound) {
		// Either the booking does not exist or it is no longer confirmed.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = @id)`,
			pgx.NamedArgs{"id": id}).Scan(&exists); err != nil {
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.MarkCancelled: %w", err)
		}
		if exists {
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.MarkCancelled: %w", domain.ErrAlreadyCancelled)
		}
	}
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.MarkCancelled: %w", err)
	}

	bookings := []domain.Booking{b}
	if err := r.loadDetails(ctx, bookings); err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.MarkCancelled: %w", err)
	}
	return bookings[0], nil
}

func (r *pgBookingRepo) RevertCancellation(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE bookings
		SET status = 'confirmed', cancelled_at = NULL, refund_amount = 0, cancellation_fee = 0
		WHERE id = @id AND status = 'cancelled'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.RevertCancellation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BookingRepo.RevertCancellation: %w", domain.ErrBookingNotFound)
	}
	return nil
}

func (r *pgBookingRepo) queryBookings(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if err := r.loadDetails(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// loadDetails fills Seats and Passengers for bookings with two queries.
func (r *pgBookingRepo) loadDetails(ctx context.Context, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(bookings))
	index := make(map[uuid.UUID]int, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		index[b.ID] = i
		bookings[i].Seats = []int{}
		bookings[i].Passengers = []domain.PassengerDetail{}
	}

	seatRows, err := r.db.Query(ctx, `
		SELECT booking_id, seat_number FROM booking_seats
		WHERE booking_id = ANY(@ids)
		ORDER BY booking_id, seat_number`, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return fmt.Errorf("load seats: %w", err)
	}
	defer seatRows.Close()
	for seatRows.Next() {
		var (
			id   pgtype.UUID
			seat int
		)
		if err := seatRows.Scan(&id, &seat); err != nil {
			return fmt.Errorf("load seats: scan: %w", err)
		}
		i := index[uuid.UUID(id.Bytes)]
		bookings[i].Seats = append(bookings[i].Seats, seat)
	}
	if err := seatRows.Err(); err != nil {
		return fmt.Errorf("load seats: rows: %w", err)
	}

	paxRows, err := r.db.Query(ctx, `
		SELECT booking_id, name, age, gender, seat_number FROM booking_passengers
		WHERE booking_id = ANY(@ids)
		ORDER BY booking_id, position`, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return fmt.Errorf("load passengers: %w", err)
	}
	defer paxRows.Close()
	for paxRows.Next() {
		var (
			id     pgtype.UUID
			p      domain.PassengerDetail
			gender string
		)
		if err := paxRows.Scan(&id, &p.Name, &p.Age, &gender, &p.SeatNumber); err != nil {
			return fmt.Errorf("load passengers: scan: %w", err)
		}
		p.Gender = domain.Gender(gender)
		i := index[uuid.UUID(id.Bytes)]
		bookings[i].Passengers = append(bookings[i].Passengers, p)
	}
	if err := paxRows.Err(); err != nil {
		return fmt.Errorf("load passengers: rows: %w", err)
	}
	return nil
}

func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b                            domain.Booking
		id, tripID                   pgtype.UUID
		category, payment, status    string
		serviceDate                  pgtype.Date
		unitFare, total, refund, fee int64
		cancelledAt                  pgtype.Timestamptz
	)

	err := s.Scan(&id, &b.UserID, &tripID, &b.Trip.OperatorName, &category, &b.Trip.Origin,
		&b.Trip.Destination, &serviceDate, &b.Trip.DepartureTime, &b.Trip.ArrivalTime,
		&unitFare, &total, &payment, &status, &b.CreatedAt, &cancelledAt, &refund, &fee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, err
	}

	b.ID = uuid.UUID(id.Bytes)
	b.TripID = uuid.UUID(tripID.Bytes)
	b.Trip.Category = domain.Category(category)
	b.Trip.ServiceDate = serviceDate.Time
	b.UnitFare = domain.Money(unitFare)
	b.TotalPrice = domain.Money(total)
	b.PaymentMethod = domain.PaymentMethod(payment)
	b.Status = domain.BookingStatus(status)
	b.RefundAmount = domain.Money(refund)
	b.CancellationFee = domain.Money(fee)
	if cancelledAt.Valid {
		at := cancelledAt.Time
		b.CancelledAt = &at
	}
	return b, nil
}
