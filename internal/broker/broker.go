package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"campusrent/server/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "CHAT"
	subjectPrefix = "chat.listing"
)

// Broker fans chat messages out between the send handler and the
// websocket hub through NATS JetStream. One subject per listing
// conversation.
type Broker struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect connects to NATS and ensures the chat stream exists
func Connect() (*Broker, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := js.Stream(ctx, StreamName); err != nil {
		log.Printf("Stream '%s' not found, creating...", StreamName)
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        StreamName,
			Description: "Listing conversation messages",
			Subjects:    []string{subjectPrefix + ".*"},
			MaxAge:      24 * time.Hour,
			Storage:     jetstream.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream '%s': %w", StreamName, err)
		}
	}

	return &Broker{nc: nc, js: js}, nil
}

// Close closes the NATS connection
func (b *Broker) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

// PublishMessage publishes a durable message to its conversation subject
func (b *Broker) PublishMessage(ctx context.Context, msg *models.Message) error {
	subject := subjectFor(msg.ListingID)
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := b.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", subject, err)
	}
	return nil
}

// Subscribe starts an ephemeral consumer for one conversation. Only
// messages published after the subscription starts are delivered;
// history is served over REST. The returned stop function must be
// called when the last subscriber leaves.
func (b *Broker) Subscribe(ctx context.Context, listingID int64, handler func(*models.Message)) (func(), error) {
	subject := subjectFor(listingID)

	cons, err := b.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckNonePolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer for '%s': %w", subject, err)
	}

	consumeCtx, err := cons.Consume(func(jsMsg jetstream.Msg) {
		var msg models.Message
		if err := json.Unmarshal(jsMsg.Data(), &msg); err != nil {
			log.Printf("Dropping malformed message on '%s': %v", jsMsg.Subject(), err)
			return
		}
		handler(&msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume from '%s': %w", subject, err)
	}

	return consumeCtx.Stop, nil
}

func subjectFor(listingID int64) string {
	return fmt.Sprintf("%s.%d", subjectPrefix, listingID)
}
