package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a server-to-client frame. Messages are immutable once built and
// may be shared by many subscribers; they serialize with the same
// tag/payload envelope as commands.
type Message interface {
	messageType() string
}

// NewText is a chat message delivered to a room.
type NewText struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Text      string    `json:"text"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

// UserJoined announces a room join.
type UserJoined struct {
	User      string    `json:"user"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
	ENSName   *string   `json:"ens_name"`
}

// UserLeft announces a room departure.
type UserLeft struct {
	User      string    `json:"user"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
	ENSName   *string   `json:"ens_name"`
}

// RoomUsers is the member-address snapshot sent to a joining user.
type RoomUsers struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// OnlineUsers is the roster broadcast to a room after membership changes.
type OnlineUsers struct {
	Users []OnlineUser `json:"users"`
	Room  string       `json:"room"`
}

// ChainEventMessage wraps an observed on-chain event for broadcast.
type ChainEventMessage struct {
	ChainEvent
}

// AuthSuccess reports a completed authentication.
type AuthSuccess struct {
	UserAddress string  `json:"user_address"`
	ENSName     *string `json:"ens_name"`
}

// AuthFailed reports a failed authentication attempt.
type AuthFailed struct {
	Error string `json:"error"`
}

// ErrorMessage reports a command failure without closing the connection.
type ErrorMessage struct {
	Message string `json:"message"`
}

// Pong answers a Ping.
type Pong struct{}

func (NewText) messageType() string           { return "NewText" }
func (UserJoined) messageType() string        { return "UserJoined" }
func (UserLeft) messageType() string          { return "UserLeft" }
func (RoomUsers) messageType() string         { return "RoomUsers" }
func (OnlineUsers) messageType() string       { return "OnlineUsers" }
func (ChainEventMessage) messageType() string { return "ChainEvent" }
func (AuthSuccess) messageType() string       { return "AuthSuccess" }
func (AuthFailed) messageType() string        { return "AuthFailed" }
func (ErrorMessage) messageType() string      { return "Error" }
func (Pong) messageType() string              { return "Pong" }

// EncodeMessage renders a Message into its wire envelope.
func EncodeMessage(m Message) ([]byte, error) {
	env := struct {
		Type    string  `json:"type"`
		Payload Message `json:"payload"`
	}{Type: m.messageType(), Payload: m}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// NewTextMessage builds a NewText with a fresh id and current timestamp.
func NewTextMessage(from, text, room string) NewText {
	return NewText{
		ID:        uuid.New().String(),
		From:      from,
		Text:      text,
		Room:      room,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserJoined builds a UserJoined stamped with the current time.
func NewUserJoined(user, room string, ensName *string) UserJoined {
	return UserJoined{User: user, Room: room, Timestamp: time.Now().UTC(), ENSName: ensName}
}

// NewUserLeft builds a UserLeft stamped with the current time.
func NewUserLeft(user, room string, ensName *string) UserLeft {
	return UserLeft{User: user, Room: room, Timestamp: time.Now().UTC(), ENSName: ensName}
}
