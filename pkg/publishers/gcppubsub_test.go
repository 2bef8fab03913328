package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestGCPPubSubPublisherPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "readings"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newGCPPubSubPublisher(ctx, PublisherConfig{
		ID:   "ps",
		Type: TypeGCPPubSub,
		GCPPubSub: &GCPPubSubConfig{
			ProjectID: "test-project",
			Topic:     "readings",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newGCPPubSubPublisher: %v", err)
	}
	defer pub.(*gcpPubSubPublisher).Close()

	if err := pub.Publish(ctx, testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["sensor_id"] != "tank-wind" {
		t.Fatalf("sensor_id attribute missing: %#v", msgs[0].Attributes)
	}
	var got Event
	if err := json.Unmarshal(msgs[0].Data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.Reading.ID != "r1" || got.SensorName != "Tank wind" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestGCPPubSubPublisherMissingTopic(t *testing.T) {
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	pub, err := newGCPPubSubPublisher(ctx, PublisherConfig{
		ID:        "ps",
		Type:      TypeGCPPubSub,
		GCPPubSub: &GCPPubSubConfig{ProjectID: "test-project", Topic: "absent"},
	}, nil)
	if err != nil {
		t.Fatalf("newGCPPubSubPublisher: %v", err)
	}
	defer pub.(*gcpPubSubPublisher).Close()

	if err := pub.Publish(ctx, testEvent()); err == nil {
		t.Fatalf("expected error publishing to a missing topic")
	}
}
