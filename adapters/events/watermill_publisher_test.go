package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/chaintalk/chaintalk/core"
)

type capturingPublisher struct {
	topics   []string
	messages []*message.Message
	err      error
}

func (p *capturingPublisher) Publish(topic string, messages ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	for _, msg := range messages {
		p.topics = append(p.topics, topic)
		p.messages = append(p.messages, msg)
	}
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func TestPublishLogin(t *testing.T) {
	cp := &capturingPublisher{}
	pub := NewWatermillPublisher(cp)

	require.NoError(t, pub.PublishLogin(context.Background(), "0xabc"))
	require.Equal(t, []string{LoginTopic}, cp.topics)

	var event LoginEvent
	require.NoError(t, json.Unmarshal(cp.messages[0].Payload, &event))
	require.Equal(t, "0xabc", event.Address)
	require.False(t, event.Timestamp.IsZero())
}

func TestPublishChainEvent(t *testing.T) {
	cp := &capturingPublisher{}
	pub := NewWatermillPublisher(cp)

	event := core.NewChainEvent("UniswapV3Swap", "0xbeef", 19_000_000, nil)
	require.NoError(t, pub.PublishChainEvent(context.Background(), event))
	require.Equal(t, []string{ChainEventTopic}, cp.topics)
	require.Equal(t, event.ID, cp.messages[0].UUID)

	var decoded core.ChainEvent
	require.NoError(t, json.Unmarshal(cp.messages[0].Payload, &decoded))
	require.Equal(t, event.TransactionHash, decoded.TransactionHash)
}

func TestPublishErrorsPropagate(t *testing.T) {
	cp := &capturingPublisher{err: errors.New("broker down")}
	pub := NewWatermillPublisher(cp)

	require.Error(t, pub.PublishLogin(context.Background(), "0xabc"))
	require.Error(t, pub.PublishChainEvent(context.Background(), core.ChainEvent{ID: "1"}))
}
