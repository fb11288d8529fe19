// Package repo contains the persistence layer for the trip catalog and the
// booking ledger. Each resource has an interface, a Postgres implementation,
// and an in-memory implementation used by tests and database-less runs.
// No business rules live here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and
// pgx.Tx. Integration tests pass a transaction that is rolled back after each
// test. Begin lets multi-row writes run in their own (nested) transaction.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TripRepo is the trip catalog. Trips are immutable once created.
type TripRepo interface {
	// Create inserts a trip and returns it with id and created_at populated.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID returns domain.ErrTripNotFound if no such trip exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// Search returns one page of trips matching f ordered by service date and
	// departure time, plus the total number of matches.
	Search(ctx context.Context, f domain.TripFilter, p domain.PageRequest) ([]domain.Trip, int64, error)

	// ListAll returns every trip in the catalog. Used at startup to
	// initialize seat inventory.
	ListAll(ctx context.Context) ([]domain.Trip, error)
}

type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a Postgres-backed TripRepo.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, operator_name, category, origin, destination, service_date,
		departure_time, arrival_time, capacity, base_fare, created_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (operator_name, category, origin, destination, service_date,
		                   departure_time, arrival_time, capacity, base_fare)
		VALUES (@operator_name, @category, @origin, @destination, @service_date,
		        @departure_time, @arrival_time, @capacity, @base_fare)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"operator_name":  trip.OperatorName,
		"category":       string(trip.Category),
		"origin":         trip.Origin,
		"destination":    trip.Destination,
		"service_date":   pgtype.Date{Time: trip.ServiceDate, Valid: true},
		"departure_time": trip.DepartureTime,
		"arrival_time":   trip.ArrivalTime,
		"capacity":       trip.Capacity,
		"base_fare":      int64(trip.BaseFare),
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// Search matches origin and destination with ILIKE and the service date with
// LIKE against its YYYY-MM-DD text form.
func (r *pgTripRepo) Search(ctx context.Context, f domain.TripFilter, p domain.PageRequest) ([]domain.Trip, int64, error) {
	const where = `
		WHERE origin ILIKE '%' || @origin || '%' ESCAPE '\'
		  AND destination ILIKE '%' || @destination || '%' ESCAPE '\'
		  AND to_char(service_date, 'YYYY-MM-DD') LIKE '%' || @date || '%' ESCAPE '\'`

	args := pgx.NamedArgs{
		"origin":      escapeLike(strings.TrimSpace(f.Origin)),
		"destination": escapeLike(strings.TrimSpace(f.Destination)),
		"date":        escapeLike(strings.TrimSpace(f.Date)),
		"limit":       p.Limit,
		"offset":      p.Offset(),
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`+where, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.Search: count: %w", err)
	}

	q := `SELECT ` + tripColumns + ` FROM trips` + where + `
		ORDER BY service_date, departure_time, id
		LIMIT @limit OFFSET @offset`

	trips, err := r.queryTrips(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.Search: %w", err)
	}
	return trips, total, nil
}

func (r *pgTripRepo) ListAll(ctx context.Context) ([]domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips ORDER BY service_date, departure_time, id`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListAll: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) queryTrips(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t           domain.Trip
		id          pgtype.UUID
		category    string
		serviceDate pgtype.Date
		baseFare    int64
	)

	err := s.Scan(&id, &t.OperatorName, &category, &t.Origin, &t.Destination, &serviceDate,
		&t.DepartureTime, &t.ArrivalTime, &t.Capacity, &baseFare, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrTripNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Category = domain.Category(category)
	t.ServiceDate = serviceDate.Time
	t.BaseFare = domain.Money(baseFare)
	return t, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
