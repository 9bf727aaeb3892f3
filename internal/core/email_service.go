package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/core/shift"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const summaryTimeLayout = "02/01/2006 15:04"

type EmailService interface {
	SendShiftSummary(ctx context.Context, to model.User, iv model.ShiftInterval) error
}

// SESClient is the part of *ses.Client the e-mail service uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
	loc    *time.Location
}

func NewSESEmailService(client SESClient, sender string, loc *time.Location) *SESEmailService {
	if loc == nil {
		loc = time.UTC
	}
	return &SESEmailService{client: client, sender: sender, loc: loc}
}

// SendShiftSummary mails the employee the times and duration of a closed shift.
func (s *SESEmailService) SendShiftSummary(ctx context.Context, to model.User, iv model.ShiftInterval) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != 0 {
		span.SetAttributes(attribute.Int64("app.employeeId", empID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String("Resumen de turno - YURAQ WASI"),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(s.summaryBody(to, iv)),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		span.RecordError(err)
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

func (s *SESEmailService) summaryBody(to model.User, iv model.ShiftInterval) string {
	out := "—"
	if iv.CheckOut != nil {
		out = iv.CheckOut.In(s.loc).Format(summaryTimeLayout)
	}
	return fmt.Sprintf("Hola %s,\n\nRegistramos tu salida.\n\nEntrada: %s\nSalida: %s\nDuración: %s\n\nYURAQ WASI",
		to.Name,
		iv.CheckIn.In(s.loc).Format(summaryTimeLayout),
		out,
		shift.DurationOf(iv),
	)
}
