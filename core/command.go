package core

import (
	"encoding/json"
	"fmt"
)

// Command is a client-to-server frame. Frames are tagged unions on the wire:
//
//	{"type": "SendText", "payload": {"room": "general", "text": "hi"}}
//
// New variants must be added to DecodeCommand, which is the single dispatch
// point.
type Command interface {
	commandType() string
}

// Authenticate carries a signed sign-in statement (structured scheme).
type Authenticate struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// SimpleAuth carries a bare message signature plus an out-of-band nonce
// (simple scheme).
type SimpleAuth struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

// SendText posts a text message to a joined room.
type SendText struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// JoinRoom joins a named room, creating it on first reference.
type JoinRoom struct {
	Room string `json:"room"`
}

// LeaveRoom leaves a named room.
type LeaveRoom struct {
	Room string `json:"room"`
}

// Ping requests an immediate Pong on the sender's mailbox.
type Ping struct{}

func (Authenticate) commandType() string { return "Authenticate" }
func (SimpleAuth) commandType() string   { return "SimpleAuth" }
func (SendText) commandType() string     { return "SendText" }
func (JoinRoom) commandType() string     { return "JoinRoom" }
func (LeaveRoom) commandType() string    { return "LeaveRoom" }
func (Ping) commandType() string         { return "Ping" }

// DecodeCommand parses a raw client frame into its Command variant.
// Unknown tags and malformed payloads fail with ErrSerialization.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	var cmd Command
	switch env.Type {
	case "Authenticate":
		cmd = &Authenticate{}
	case "SimpleAuth":
		cmd = &SimpleAuth{}
	case "SendText":
		cmd = &SendText{}
	case "JoinRoom":
		cmd = &JoinRoom{}
	case "LeaveRoom":
		cmd = &LeaveRoom{}
	case "Ping":
		return Ping{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown command type %q", ErrSerialization, env.Type)
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, cmd); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
	}
	return deref(cmd), nil
}

// deref returns the value form so callers can type-switch on concrete
// variants rather than pointers.
func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *Authenticate:
		return *c
	case *SimpleAuth:
		return *c
	case *SendText:
		return *c
	case *JoinRoom:
		return *c
	case *LeaveRoom:
		return *c
	default:
		return cmd
	}
}
