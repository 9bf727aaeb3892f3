package summary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type memEvents struct {
	events   []model.AttendanceEvent
	notified []int64
	listErr  error
}

func (m *memEvents) ListByUser(_ context.Context, userID int64) ([]model.AttendanceEvent, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.AttendanceEvent
	for _, e := range m.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) MarkNotified(_ context.Context, id int64) error {
	m.notified = append(m.notified, id)
	for i := range m.events {
		if m.events[i].ID == id {
			m.events[i].Notified = true
		}
	}
	return nil
}

type memUsers map[int64]model.User

func (m memUsers) FindByID(_ context.Context, id int64) (model.User, error) {
	u, ok := m[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeMailer struct {
	sent []model.ShiftInterval
	err  error
}

func (f *fakeMailer) SendShiftSummary(_ context.Context, _ model.User, iv model.ShiftInterval) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, iv)
	return nil
}

var base = time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC)

func seeded() *memEvents {
	return &memEvents{events: []model.AttendanceEvent{
		{ID: 1, UserID: 7, Kind: model.CheckIn, Timestamp: base},
		{ID: 2, UserID: 7, Kind: model.CheckOut, Timestamp: base.Add(8 * time.Hour)},
	}}
}

func msgFor(t *testing.T, eventID int64, kind model.EventKind) types.Message {
	t.Helper()
	b, err := json.Marshal(messaging.AttendanceRecordedEvent{MessageID: "m", EventID: eventID, EmployeeID: 7, Kind: kind})
	if err != nil {
		t.Fatal(err)
	}
	return types.Message{Body: aws.String(string(b)), Attributes: map[string]string{"ApproximateReceiveCount": "2"}}
}

func TestProcess_SendsOnceAndMarks(t *testing.T) {
	t.Parallel()

	events, mailer := seeded(), &fakeMailer{}
	p := NewProcessor(events, memUsers{7: {ID: 7, Email: "rosa@yuraqwasi.pe"}}, mailer)

	retry, _, err := p.Process(context.Background(), msgFor(t, 2, model.CheckOut))
	if err != nil || retry {
		t.Fatalf("unexpected result retry=%v err=%v", retry, err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].CheckInID != 1 {
		t.Fatalf("expected one summary for shift 1, got %+v", mailer.sent)
	}
	if len(events.notified) != 1 || events.notified[0] != 2 {
		t.Fatalf("expected event 2 marked notified, got %v", events.notified)
	}

	// Redelivery is a no-op.
	if _, _, err := p.Process(context.Background(), msgFor(t, 2, model.CheckOut)); err != nil {
		t.Fatalf("redelivery returned error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("summary sent twice")
	}
}

func TestProcess_SkipsCheckInsAndOrphans(t *testing.T) {
	t.Parallel()

	events, mailer := seeded(), &fakeMailer{}
	events.events = append(events.events, model.AttendanceEvent{ID: 3, UserID: 7, Kind: model.CheckOut, Timestamp: base.Add(9 * time.Hour)})
	p := NewProcessor(events, memUsers{7: {ID: 7}}, mailer)

	for _, m := range []types.Message{msgFor(t, 1, model.CheckIn), msgFor(t, 3, model.CheckOut)} {
		retry, _, err := p.Process(context.Background(), m)
		if err != nil || retry {
			t.Fatalf("unexpected result retry=%v err=%v", retry, err)
		}
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no summaries, got %d", len(mailer.sent))
	}
}

func TestProcess_RetriesWithBackoff(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{err: errors.New("throttled")}
	p := NewProcessor(seeded(), memUsers{7: {ID: 7}}, mailer)

	retry, delay, err := p.Process(context.Background(), msgFor(t, 2, model.CheckOut))
	if err == nil || !retry {
		t.Fatalf("expected retryable error, got retry=%v err=%v", retry, err)
	}
	if delay != 40 {
		t.Fatalf("expected 40s backoff on second receive, got %d", delay)
	}
}

func TestProcess_MalformedIsNotRetried(t *testing.T) {
	t.Parallel()

	p := NewProcessor(seeded(), memUsers{}, &fakeMailer{})
	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String("{not json")})
	if err == nil || retry {
		t.Fatalf("expected permanent error, got retry=%v err=%v", retry, err)
	}
}
