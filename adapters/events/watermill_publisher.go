package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/ports"
)

const (
	// LoginTopic carries successful authentications.
	LoginTopic = "chaintalk.logins"
	// ChainEventTopic carries rebroadcast chain events.
	ChainEventTopic = "chaintalk.chain_events"
)

// LoginEvent represents a successful authentication.
type LoginEvent struct {
	Address   string    `json:"address"`
	Timestamp time.Time `json:"timestamp"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string) error {
	payload, err := json.Marshal(LoginEvent{Address: address, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal login event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(LoginTopic, msg); err != nil {
		return fmt.Errorf("failed to publish login event: %w", err)
	}
	return nil
}

// PublishChainEvent publishes a chain event.
func (p *WatermillPublisher) PublishChainEvent(ctx context.Context, event core.ChainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal chain event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	if err := p.publisher.Publish(ChainEventTopic, msg); err != nil {
		return fmt.Errorf("failed to publish chain event: %w", err)
	}
	return nil
}
