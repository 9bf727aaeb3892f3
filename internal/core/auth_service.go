package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/core/throttle"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

const (
	minLoginPasswordLen    = 4
	minRegisterPasswordLen = 6
	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordLen = 72
)

// CaptchaVerifier checks a captcha response token with its provider.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type LoginInput struct {
	Email    string
	Password string
	Captcha  string
	RemoteIP string
}

type LoginResult struct {
	Token string
	User  model.User
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService handles login with attempt throttling and self-registration.
type AuthService struct {
	users   repository.UserRepository
	guard   *throttle.Guard
	captcha CaptchaVerifier
	tokens  *TokenIssuer
	hasher  PasswordHasher
	// dummyHash is compared on unknown e-mails so both failure paths cost one bcrypt check.
	dummyHash string
}

func NewAuthService(users repository.UserRepository, guard *throttle.Guard, captcha CaptchaVerifier, tokens *TokenIssuer, hasher PasswordHasher) *AuthService {
	dummy, err := hasher.Hash("yuraqwasi-no-such-user")
	if err != nil {
		log.Warn().Err(err).Msg("Could not prepare dummy password hash")
	}
	return &AuthService{
		users:     users,
		guard:     guard,
		captcha:   captcha,
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummy,
	}
}

// Login verifies the captcha, refuses locked identifiers, and checks the
// password. Unknown e-mails and wrong passwords count against the same budget.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" || in.Captcha == "" {
		return LoginResult{}, &ValidationError{Field: "login", Message: "missing required fields"}
	}
	if !validEmail(email) {
		return LoginResult{}, &ValidationError{Field: "email", Message: "invalid e-mail"}
	}
	if len(in.Password) < minLoginPasswordLen {
		return LoginResult{}, &ValidationError{Field: "password", Message: "invalid password"}
	}

	ok, err := s.captcha.Verify(ctx, in.Captcha, in.RemoteIP)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verifying captcha: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidCaptcha
	}

	status, err := s.guard.Status(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if status.Locked {
		return LoginResult{}, &LockedError{RetryAfter: status.RetryAfter}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Matches(s.dummyHash, in.Password)
		return LoginResult{}, s.fail(ctx, email)
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("finding user: %w", err)
	}
	if !s.hasher.Matches(user.PasswordHash, in.Password) {
		return LoginResult{}, s.fail(ctx, email)
	}

	if err := s.guard.Reset(ctx, email); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to reset login attempts")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}

	log.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("User authenticated")
	return LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) fail(ctx context.Context, email string) error {
	status, err := s.guard.RecordFailure(ctx, email)
	if err != nil {
		return err
	}
	if status.Locked {
		log.Ctx(ctx).Warn().Str("email", email).Dur("lockout", status.RetryAfter).Msg("Login locked after repeated failures")
		return &LockedError{RetryAfter: status.RetryAfter, JustLocked: true}
	}
	remaining, err := s.guard.Remaining(ctx, email)
	if err != nil {
		return err
	}
	return &CredentialsError{Remaining: remaining}
}

// Lockout is the configured lock window, used in the "account locked" message.
func (s *AuthService) Lockout() time.Duration {
	return s.guard.Lockout()
}

// Register creates an employee account. Roles other than employee are
// only assigned through the admin user endpoints.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	switch {
	case name == "" || email == "" || in.Password == "":
		return model.User{}, &ValidationError{Field: "register", Message: "all fields are required"}
	case !validEmail(email):
		return model.User{}, &ValidationError{Field: "email", Message: "invalid e-mail"}
	case len(in.Password) < minRegisterPasswordLen:
		return model.User{}, &ValidationError{Field: "password", Message: "password too short"}
	case len(in.Password) > maxPasswordLen:
		return model.User{}, &ValidationError{Field: "password", Message: "password too long"}
	}

	return s.createUser(ctx, name, email, in.Password, model.RoleEmployee)
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// An existing account with that e-mail is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("looking up admin: %w", err)
	}

	u, err := s.createUser(ctx, name, email, password, model.RoleAdmin)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Int64("user_id", u.ID).Str("email", email).Msg("Bootstrap admin created")
	return nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role model.Role) (model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.users.Create(ctx, model.User{Name: name, Email: email, PasswordHash: hash, Role: role})
	if errors.Is(err, repository.ErrConflict) {
		return model.User{}, ErrEmailTaken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
