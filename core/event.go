package core

import (
	"time"

	"github.com/google/uuid"
)

// ChainEvent is an on-chain observation republished through the broadcast
// fabric. Details is an opaque, JSON-marshalable payload owned by whichever
// decoder produced the event.
type ChainEvent struct {
	ID              string    `json:"id"`
	EventType       string    `json:"event_type"`
	TransactionHash string    `json:"transaction_hash"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp"`
	Details         any       `json:"details"`
}

// NewChainEvent builds a ChainEvent with a fresh id and current timestamp.
func NewChainEvent(eventType, txHash string, blockNumber uint64, details any) ChainEvent {
	return ChainEvent{
		ID:              uuid.New().String(),
		EventType:       eventType,
		TransactionHash: txHash,
		BlockNumber:     blockNumber,
		Timestamp:       time.Now().UTC(),
		Details:         details,
	}
}
