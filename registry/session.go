package registry

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/chaintalk/chaintalk/core"
)

// MailboxCapacity bounds each session's private delivery queue.
const MailboxCapacity = 128

// Session is a live authenticated connection. The rooms set is owned by the
// Registry and only touched under its session lock; the mailbox is safe for
// concurrent delivery.
type Session struct {
	ID      string
	Address string
	ENSName *string

	rooms   map[string]struct{}
	mailbox chan core.Message
	dropped atomic.Uint64
}

func newSession(address string, ensName *string) *Session {
	return &Session{
		ID:      uuid.New().String(),
		Address: address,
		ENSName: ensName,
		rooms:   make(map[string]struct{}),
		mailbox: make(chan core.Message, MailboxCapacity),
	}
}

// Mailbox returns the session's private delivery channel.
func (s *Session) Mailbox() <-chan core.Message {
	return s.mailbox
}

// Deliver enqueues a message, evicting the oldest unread entry when the
// mailbox is full. The publisher never blocks; a lagging session loses its
// own oldest messages only.
func (s *Session) Deliver(msg core.Message) {
	if evicted := offer(s.mailbox, msg); evicted {
		s.dropped.Add(1)
	}
}

// TakeDropped returns and resets the count of messages lost to mailbox
// overflow since the last call.
func (s *Session) TakeDropped() uint64 {
	return s.dropped.Swap(0)
}

// DisplayName returns the ENS name when known, otherwise the shortened
// address.
func (s *Session) DisplayName() string {
	if s.ENSName != nil && *s.ENSName != "" {
		return *s.ENSName
	}
	return core.ShortAddress(s.Address)
}

// offer performs a non-blocking send with drop-oldest overflow. It reports
// whether an older entry was evicted to make room.
func offer(ch chan core.Message, msg core.Message) bool {
	select {
	case ch <- msg:
		return false
	default:
	}

	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
	return true
}
