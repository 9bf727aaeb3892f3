package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender   MessageSender
	queueURL string
	newID    func() string
}

func NewProducer(sender MessageSender, queueURL string) *Producer {
	return &Producer{
		sender:   sender,
		queueURL: queueURL,
		newID:    uuid.NewString,
	}
}

func NewSQSProducer(client SQSClient, queueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, queueURL)
}

// PublishAttendance queues an AttendanceRecordedEvent for e.
func (p *Producer) PublishAttendance(ctx context.Context, e model.AttendanceEvent) error {
	event := AttendanceRecordedEvent{
		MessageID:  p.newID(),
		EventID:    e.ID,
		EmployeeID: e.UserID,
		Kind:       e.Kind,
		OccurredAt: e.Timestamp,
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Int64("app.employeeId", e.UserID),
			attribute.String("messaging.message_id", event.MessageID),
		)
	}

	return p.publish(ctx, EventTypeAttendanceRecorded, event)
}

func (p *Producer) publish(ctx context.Context, eventType string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}
	if err := p.sender.SendMessage(ctx, p.queueURL, eventType, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
