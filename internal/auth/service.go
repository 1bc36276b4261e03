// Package auth implements registration, email verification, and the
// passcode second factor for login.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sharefolio/tracker/internal/domain"
	"github.com/sharefolio/tracker/internal/mail"
)

var (
	// ErrInvalidCredentials covers a wrong password and an unknown user
	// alike, so login failures do not reveal which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers expired, reused, and unknown tokens and codes.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNotVerified rejects logins before the email is confirmed.
	ErrNotVerified = errors.New("email not verified")
	// ErrInvalidInput reports a malformed registration or reset request.
	ErrInvalidInput = errors.New("invalid input")
)

const minPasswordLen = 8

// TTLs controls how long each issued credential stays valid.
type TTLs struct {
	Session     time.Duration
	OTP         time.Duration
	VerifyToken time.Duration
	ResetToken  time.Duration
}

// Service implements the account lifecycle.
type Service struct {
	users    UserRepo
	tokens   TokenRepo
	otps     OTPRepo
	sessions SessionRepo
	mailer   mail.Mailer
	ttls     TTLs
	baseURL  string
}

func NewService(users UserRepo, tokens TokenRepo, otps OTPRepo, sessions SessionRepo, mailer mail.Mailer, ttls TTLs, baseURL string) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		otps:     otps,
		sessions: sessions,
		mailer:   mailer,
		ttls:     ttls,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Register creates an unverified user and emails a verification link.
func (s *Service) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return domain.User{}, err
	}

	token, err := randomToken()
	if err != nil {
		return domain.User{}, err
	}
	expiry := time.Now().Add(s.ttls.VerifyToken)
	if err := s.tokens.Create(ctx, token, user.ID, PurposeVerifyEmail, expiry); err != nil {
		return domain.User{}, err
	}

	s.sendMail(user.Email, "Verify your email",
		fmt.Sprintf("Welcome %s! Confirm your address by opening:\n\n%s/verify-email?token=%s\n\nThe link expires in %s.",
			user.Username, s.baseURL, token, s.ttls.VerifyToken))

	return user, nil
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokens.Consume(ctx, token, PurposeVerifyEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return s.users.MarkVerified(ctx, userID)
}

// Login checks the password and, on success, emails a fresh passcode.
// The session is only issued later by VerifyOTP.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (uuid.UUID, error) {
	user, err := s.users.GetByUsernameOrEmail(ctx, strings.TrimSpace(usernameOrEmail))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return uuid.Nil, ErrInvalidCredentials
		}
		return uuid.Nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return uuid.Nil, ErrNotVerified
	}

	if err := s.issueOTP(ctx, user); err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// ResendOTP invalidates pending passcodes and emails a new one.
func (s *Service) ResendOTP(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	return s.issueOTP(ctx, user)
}

func (s *Service) issueOTP(ctx context.Context, user domain.User) error {
	if err := s.otps.InvalidatePending(ctx, user.ID); err != nil {
		return err
	}

	code, err := randomOTP()
	if err != nil {
		return err
	}
	otp := OTPToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.ttls.OTP),
	}
	if err := s.otps.Create(ctx, &otp); err != nil {
		return err
	}

	s.sendMail(user.Email, "Your login code",
		fmt.Sprintf("Your one-time login code is %s. It expires in %s.", code, s.ttls.OTP))
	return nil
}

// VerifyOTP consumes the passcode and issues a bearer session token.
func (s *Service) VerifyOTP(ctx context.Context, userID uuid.UUID, code string) (Session, error) {
	if err := s.otps.ConsumeValid(ctx, userID, strings.TrimSpace(code)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}

	token, err := randomToken()
	if err != nil {
		return Session{}, err
	}
	session := Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttls.Session),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// RequestPasswordReset emails a reset link. Unknown addresses are
// acknowledged without error so the endpoint cannot enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByUsernameOrEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Info("password reset requested for unknown address", "email", email)
			return nil
		}
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(s.ttls.ResetToken)
	if err := s.tokens.Create(ctx, token, user.ID, PurposePasswordReset, expiry); err != nil {
		return err
	}

	s.sendMail(user.Email, "Reset your password",
		fmt.Sprintf("Reset your password by opening:\n\n%s/reset-password?token=%s\n\nThe link expires in %s.",
			s.baseURL, token, s.ttls.ResetToken))
	return nil
}

// ResetPassword consumes a reset token and stores a new password hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	userID, err := s.tokens.Consume(ctx, token, PurposePasswordReset)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, userID, string(hash))
}

// Logout discards the session. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	return s.sessions.Delete(ctx, sessionToken)
}

// UserFromSession resolves a bearer token to its user.
func (s *Service) UserFromSession(ctx context.Context, sessionToken string) (domain.User, error) {
	session, err := s.sessions.GetValid(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, err
	}
	return s.users.GetByID(ctx, session.UserID)
}

// sendMail delivers asynchronously; delivery failures are logged, not
// surfaced, so a flaky relay cannot fail registration or login.
func (s *Service) sendMail(to, subject, body string) {
	go func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			slog.Error("failed to send mail", "to", to, "subject", subject, "error", err)
		}
	}()
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
