package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("sqs-1")}, nil
}

func TestPublishAttendance(t *testing.T) {
	t.Parallel()

	client := &fakeSQSClient{}
	p := NewSQSProducer(client, "http://localstack:4566/000000000000/attendance-queue")
	p.newID = func() string { return "msg-1" }

	at := time.Date(2025, 3, 3, 21, 0, 0, 0, time.UTC)
	err := p.PublishAttendance(context.Background(), model.AttendanceEvent{ID: 12, UserID: 7, Kind: model.CheckOut, Timestamp: at})
	if err != nil {
		t.Fatalf("PublishAttendance returned error: %v", err)
	}

	if aws.ToString(client.input.QueueUrl) != "http://localstack:4566/000000000000/attendance-queue" {
		t.Fatalf("unexpected queue %q", aws.ToString(client.input.QueueUrl))
	}
	if got := aws.ToString(client.input.MessageAttributes["EventType"].StringValue); got != EventTypeAttendanceRecorded {
		t.Fatalf("unexpected EventType %q", got)
	}

	var event AttendanceRecordedEvent
	if err := json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &event); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if event.MessageID != "msg-1" || event.EventID != 12 || event.EmployeeID != 7 || event.Kind != model.CheckOut {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("unexpected occurredAt %v", event.OccurredAt)
	}
}

func TestPublishAttendance_SendError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := NewSQSProducer(&fakeSQSClient{err: boom}, "q")
	if err := p.PublishAttendance(context.Background(), model.AttendanceEvent{ID: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
