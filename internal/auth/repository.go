package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharefolio/tracker/internal/domain"
)

var (
	// ErrNotFound is returned when a user, token, or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a username or email is already taken.
	ErrDuplicate = errors.New("already exists")
)

// TokenPurpose distinguishes single-use tokens stored in verification_tokens.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// OTPToken is a pending one-time passcode for a login attempt.
type OTPToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Code      string
	ExpiresAt time.Time
	Used      bool
}

// Session is an issued bearer session.
type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// UserRepo defines persistent storage for users.
type UserRepo interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (domain.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// TokenRepo stores single-use verification and password-reset tokens.
type TokenRepo interface {
	Create(ctx context.Context, token string, userID uuid.UUID, purpose TokenPurpose, expiresAt time.Time) error
	// Consume deletes the token and returns its user. Expired or unknown
	// tokens report ErrNotFound.
	Consume(ctx context.Context, token string, purpose TokenPurpose) (uuid.UUID, error)
}

// OTPRepo stores pending one-time passcodes.
type OTPRepo interface {
	Create(ctx context.Context, otp *OTPToken) error
	// ConsumeValid marks the matching unused, unexpired code as used.
	// Anything else reports ErrNotFound.
	ConsumeValid(ctx context.Context, userID uuid.UUID, code string) error
	InvalidatePending(ctx context.Context, userID uuid.UUID) error
}

// SessionRepo stores issued bearer sessions.
type SessionRepo interface {
	Create(ctx context.Context, session *Session) error
	// GetValid returns the session only while it is unexpired.
	GetValid(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// PgUserRepo implements UserRepo with PostgreSQL.
type PgUserRepo struct {
	pool *pgxpool.Pool
}

func NewPgUserRepo(pool *pgxpool.Pool) *PgUserRepo {
	return &PgUserRepo{pool: pool}
}

func (r *PgUserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_verified)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsVerified).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (r *PgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return r.getOne(ctx,
		`SELECT id, username, email, password_hash, is_verified, created_at
		 FROM users WHERE id = $1`, id)
}

func (r *PgUserRepo) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (domain.User, error) {
	return r.getOne(ctx,
		`SELECT id, username, email, password_hash, is_verified, created_at
		 FROM users WHERE username = $1 OR email = $1`, usernameOrEmail)
}

func (r *PgUserRepo) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

func (r *PgUserRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE users SET is_verified = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("marking user verified: %w", err)
	}
	return nil
}

func (r *PgUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash); err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	return nil
}

// PgTokenRepo implements TokenRepo with PostgreSQL.
type PgTokenRepo struct {
	pool *pgxpool.Pool
}

func NewPgTokenRepo(pool *pgxpool.Pool) *PgTokenRepo {
	return &PgTokenRepo{pool: pool}
}

func (r *PgTokenRepo) Create(ctx context.Context, token string, userID uuid.UUID, purpose TokenPurpose, expiresAt time.Time) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO verification_tokens (token, user_id, purpose, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		token, userID, purpose, expiresAt); err != nil {
		return fmt.Errorf("creating %s token: %w", purpose, err)
	}
	return nil
}

func (r *PgTokenRepo) Consume(ctx context.Context, token string, purpose TokenPurpose) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM verification_tokens
		 WHERE token = $1 AND purpose = $2 AND expires_at > NOW()
		 RETURNING user_id`, token, purpose).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("consuming %s token: %w", purpose, err)
	}
	return userID, nil
}

// PgOTPRepo implements OTPRepo with PostgreSQL.
type PgOTPRepo struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepo(pool *pgxpool.Pool) *PgOTPRepo {
	return &PgOTPRepo{pool: pool}
}

func (r *PgOTPRepo) Create(ctx context.Context, otp *OTPToken) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO otp_tokens (id, user_id, code, expires_at, used)
		 VALUES ($1, $2, $3, $4, FALSE)`,
		otp.ID, otp.UserID, otp.Code, otp.ExpiresAt); err != nil {
		return fmt.Errorf("creating otp: %w", err)
	}
	return nil
}

func (r *PgOTPRepo) ConsumeValid(ctx context.Context, userID uuid.UUID, code string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE otp_tokens SET used = TRUE
		 WHERE user_id = $1 AND code = $2 AND used = FALSE AND expires_at > NOW()`,
		userID, code)
	if err != nil {
		return fmt.Errorf("consuming otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgOTPRepo) InvalidatePending(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE otp_tokens SET used = TRUE WHERE user_id = $1 AND used = FALSE`,
		userID); err != nil {
		return fmt.Errorf("invalidating pending otps: %w", err)
	}
	return nil
}

// PgSessionRepo implements SessionRepo with PostgreSQL.
type PgSessionRepo struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepo(pool *pgxpool.Pool) *PgSessionRepo {
	return &PgSessionRepo{pool: pool}
}

func (r *PgSessionRepo) Create(ctx context.Context, s *Session) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		s.Token, s.UserID, s.ExpiresAt); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (r *PgSessionRepo) GetValid(ctx context.Context, token string) (Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx,
		`SELECT token, user_id, expires_at
		 FROM sessions
		 WHERE token = $1 AND expires_at > NOW()`, token).
		Scan(&s.Token, &s.UserID, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("getting session: %w", err)
	}
	return s, nil
}

func (r *PgSessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
