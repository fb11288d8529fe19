package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// UserRepo stores registered accounts. Emails are stored normalized.
type UserRepo interface {
	// Create inserts u. Returns domain.ErrEmailTaken if the email is
	// already registered.
	Create(ctx context.Context, u domain.User) error

	// GetByEmail returns domain.ErrUserNotFound if no account has email.
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a Postgres-backed UserRepo.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) Create(ctx context.Context, u domain.User) error {
	const q = `
		INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES (@id, @username, @email, @password_hash, @role, @created_at)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"role":          string(u.Role),
		"created_at":    u.CreatedAt,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("repo.UserRepo.Create: %w", domain.ErrEmailTaken)
		}
		return fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `
		SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE email = @email`

	var (
		u    domain.User
		id   pgtype.UUID
		role string
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}).
		Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", domain.ErrUserNotFound)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	u.ID = uuid.UUID(id.Bytes)
	u.Role = domain.Role(role)
	return u, nil
}
