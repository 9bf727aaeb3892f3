package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

type UpdateUserInput struct {
	Name  string
	Email string
	Role  model.Role
}

// UserService backs the admin user panel.
type UserService struct {
	users  repository.UserRepository
	events repository.AttendanceRepository
	tx     Transactor
	hasher PasswordHasher
}

func NewUserService(users repository.UserRepository, events repository.AttendanceRepository, tx Transactor, hasher PasswordHasher) *UserService {
	return &UserService{users: users, events: events, tx: tx, hasher: hasher}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("finding user: %w", err)
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return model.User{}, &ValidationError{Field: "usuario", Message: "all fields are required"}
	}
	if err := validateUserFields(email, in.Role); err != nil {
		return model.User{}, err
	}
	if len(in.Password) < minRegisterPasswordLen {
		return model.User{}, &ValidationError{Field: "password", Message: "password too short"}
	}
	if len(in.Password) > maxPasswordLen {
		return model.User{}, &ValidationError{Field: "password", Message: "password too long"}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.users.Create(ctx, model.User{Name: name, Email: email, PasswordHash: hash, Role: in.Role})
	if errors.Is(err, repository.ErrConflict) {
		return model.User{}, ErrEmailTaken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	log.Ctx(ctx).Info().Int64("user_id", u.ID).Str("rol", string(u.Role)).Msg("User created")
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Role == "" {
		return model.User{}, &ValidationError{Field: "usuario", Message: "all fields are required"}
	}
	if err := validateUserFields(email, in.Role); err != nil {
		return model.User{}, err
	}

	u, err := s.users.Update(ctx, model.User{ID: id, Name: name, Email: email, Role: in.Role})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.User{}, ErrUserNotFound
	case errors.Is(err, repository.ErrConflict):
		return model.User{}, ErrEmailTaken
	case err != nil:
		return model.User{}, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

// Delete removes the user's events and then the user, atomically.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	var removed int64
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.events.DeleteByUser(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}
		if err := s.users.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Int64("user_id", id).Int64("events_removed", removed).Msg("User deleted")
	return nil
}

func validateUserFields(email string, role model.Role) error {
	if !validEmail(email) {
		return &ValidationError{Field: "email", Message: "invalid e-mail"}
	}
	if !role.Valid() {
		return &ValidationError{Field: "rol", Message: "must be admin or empleado"}
	}
	return nil
}
