package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/samuelmuhia/booking-website/internal/clock"
	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/repo"
)

// TokenIssuer signs a bearer token for userID with role.
type TokenIssuer func(userID string, role domain.Role) (string, error)

// AuthOptions configures an AuthService.
type AuthOptions struct {
	// Issue signs tokens for registered and logged-in users. Required.
	Issue TokenIssuer
	// AdminEmails are registered with RoleAdmin instead of RoleUser.
	AdminEmails []string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Clock      clock.Clock
	Logger     *slog.Logger
}

// AuthResult is a signed token together with the account it identifies.
type AuthResult struct {
	Token string
	User  domain.User
}

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	users  repo.UserRepo
	issue  TokenIssuer
	admins []string
	cost   int
	clock  clock.Clock
	log    *slog.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repo.UserRepo, opts AuthOptions) *AuthService {
	s := &AuthService{
		users: users,
		issue: opts.Issue,
		cost:  opts.BcryptCost,
		clock: opts.Clock,
		log:   opts.Logger,
	}
	for _, e := range opts.AdminEmails {
		s.admins = append(s.admins, domain.NormalizeEmail(e))
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Register creates an account and returns a token for it. Returns
// domain.ErrEmailTaken if the email is already registered.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (AuthResult, error) {
	ctx, span := startSpan(ctx, "AuthService.Register")
	defer span.End()

	if err := reg.Validate(); err != nil {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Register: %w", err))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Register: hash password: %w", err))
	}

	u := domain.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(reg.Username),
		Email:        domain.NormalizeEmail(reg.Email),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    s.clock.Now(),
	}
	if slices.Contains(s.admins, u.Email) {
		u.Role = domain.RoleAdmin
	}
	if err := s.users.Create(ctx, u); err != nil {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Register: %w", err))
	}

	res, err := s.result(u)
	if err != nil {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Register: %w", err))
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return res, nil
}

// Login checks email and password and returns a fresh token. An unknown
// email and a wrong password both fail with domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	ctx, span := startSpan(ctx, "AuthService.Login")
	defer span.End()

	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Login: %w", domain.ErrInvalidCredentials))
	}
	if err != nil {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Login: %w", err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Login: %w", domain.ErrInvalidCredentials))
	}

	res, err := s.result(u)
	if err != nil {
		return AuthResult{}, recordErr(span, fmt.Errorf("service.AuthService.Login: %w", err))
	}
	s.log.DebugContext(ctx, "user logged in", "user_id", u.ID)
	return res, nil
}

func (s *AuthService) result(u domain.User) (AuthResult, error) {
	token, err := s.issue(u.ID.String(), u.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, User: u}, nil
}
