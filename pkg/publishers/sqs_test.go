package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/xenolab/xenolab-relay/internal/domain"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func testEvent() Event {
	return NewEvent("tank-wind", "Tank wind", domain.Reading{ID: "r1", SensorID: "tank-wind", Kind: "wind"})
}

func TestSQSPublisherSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "q",
		typ:      TypeSQS,
		queueURL: "https://example.com/queue",
		client:   client,
		log:      noopLogger{},
	}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["sensor_id"]
	if !ok || aws.ToString(attr.StringValue) != "tank-wind" {
		t.Fatalf("sensor_id attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if kind := client.input.MessageAttributes["kind"]; aws.ToString(kind.StringValue) != "wind" {
		t.Fatalf("kind attribute missing: %#v", kind)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"sensor_id":"tank-wind"`) {
		t.Fatalf("MessageBody missing sensor_id: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSPublisherSendError(t *testing.T) {
	boom := errors.New("boom")
	pub := &sqsPublisher{
		queueURL: "https://example.com/queue",
		client:   &fakeSQSClient{err: boom},
		log:      noopLogger{},
	}

	if err := pub.Publish(context.Background(), testEvent()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestNewSQSPublisherWithStaticCredentials(t *testing.T) {
	pub, err := newSQSPublisher(context.Background(), PublisherConfig{
		ID:   "q",
		Type: TypeSQS,
		SQS: &SQSPublisherConfig{
			QueueURL: "http://localhost:4566/000000000000/readings",
			AWSAuth: AWSAuth{
				Region:          "us-east-1",
				Endpoint:        "http://localhost:4566",
				AccessKeyID:     "test",
				SecretAccessKey: "test",
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newSQSPublisher: %v", err)
	}
	if pub.ID() != "q" || pub.Type() != TypeSQS {
		t.Fatalf("unexpected publisher identity %s/%s", pub.ID(), pub.Type())
	}
}

type recordingLogger struct {
	debug []string
	errs  []string
}

func (l *recordingLogger) DebugObj(_, key string, _ interface{}) { l.debug = append(l.debug, key) }
func (l *recordingLogger) ErrorObj(_, key string, _ interface{}) { l.errs = append(l.errs, key) }

func TestSQSPublisherLogsDeliveryOutcome(t *testing.T) {
	log := &recordingLogger{}
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "q", queueURL: "https://example.com/queue", client: client, log: ensureLogger(log)}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	client.err = errors.New("boom")
	_ = pub.Publish(context.Background(), testEvent())

	if len(log.debug) != 1 || log.debug[0] != "publisher_sqs_delivery" {
		t.Fatalf("unexpected debug entries %v", log.debug)
	}
	if len(log.errs) != 1 || log.errs[0] != "publisher_sqs_error" {
		t.Fatalf("unexpected error entries %v", log.errs)
	}
	if _, ok := ensureLogger(nil).(noopLogger); !ok {
		t.Fatalf("nil logger should fall back to the no-op logger")
	}
}
