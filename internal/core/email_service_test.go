package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSendShiftSummary(t *testing.T) {
	t.Parallel()

	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	client := &fakeSES{}
	svc := NewSESEmailService(client, "asistencias@yuraqwasi.pe", lima)

	in := time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC)
	out := in.Add(8*time.Hour + 30*time.Minute)
	err = svc.SendShiftSummary(context.Background(),
		model.User{Name: "Rosa", Email: "rosa@yuraqwasi.pe"},
		model.ShiftInterval{CheckIn: in, CheckOut: &out})
	if err != nil {
		t.Fatalf("SendShiftSummary returned error: %v", err)
	}

	if got := client.input.Destination.ToAddresses; len(got) != 1 || got[0] != "rosa@yuraqwasi.pe" {
		t.Fatalf("unexpected recipients %v", got)
	}
	body := aws.ToString(client.input.Message.Body.Text.Data)
	for _, want := range []string{"Hola Rosa", "03/03/2025 08:00", "03/03/2025 16:30", "8h 30m"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestSendShiftSummary_WrapsClientError(t *testing.T) {
	t.Parallel()

	svc := NewSESEmailService(&fakeSES{err: errBoom}, "a@b.pe", nil)
	err := svc.SendShiftSummary(context.Background(), model.User{Email: "x@b.pe"}, model.ShiftInterval{CheckIn: time.Now()})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}
