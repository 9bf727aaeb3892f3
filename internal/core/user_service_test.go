package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_CRUD(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	events := &fakeAttendanceRepo{}
	tx := &serialTx{}
	svc := NewUserService(users, events, tx, NewPasswordHasher(bcrypt.MinCost))
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserInput{Name: "Rosa", Email: "rosa@yuraqwasi.pe", Password: "secreto", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if u.Role != model.RoleAdmin {
		t.Fatalf("unexpected role %q", u.Role)
	}

	if _, err := svc.Create(ctx, CreateUserInput{Name: "X", Email: "x@yuraqwasi.pe", Password: "secreto", Role: "jefe"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateUserInput{Name: "X", Email: "x@yuraqwasi.pe", Password: strings.Repeat("a", 80), Role: model.RoleEmployee}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a password over 72 bytes, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateUserInput{Name: "X", Email: "rosa@yuraqwasi.pe", Password: "secreto", Role: model.RoleEmployee}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	updated, err := svc.Update(ctx, u.ID, UpdateUserInput{Name: "Rosa M.", Email: "rosa@yuraqwasi.pe", Role: model.RoleEmployee})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "Rosa M." || updated.Role != model.RoleEmployee {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := svc.Update(ctx, 404, UpdateUserInput{Name: "N", Email: "n@yuraqwasi.pe", Role: model.RoleEmployee}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	at := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	for _, k := range []model.EventKind{model.CheckIn, model.CheckOut} {
		if _, err := events.Create(ctx, model.AttendanceEvent{UserID: u.ID, Kind: k, Timestamp: at}); err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(events.events) != 0 {
		t.Fatalf("expected events to be removed, %d left", len(events.events))
	}
	if tx.calls != 1 {
		t.Fatalf("expected delete to run in one transaction, got %d", tx.calls)
	}
	if _, err := svc.Get(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}
