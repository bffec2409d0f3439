package registry

import (
	"sync"
	"sync/atomic"

	"github.com/chaintalk/chaintalk/core"
)

// GlobalCapacity bounds each global-feed subscription.
const GlobalCapacity = 1000

// Stats receives broadcast counters. Implemented by the metrics collector;
// a nil Stats disables counting.
type Stats interface {
	MessageBroadcast()
	MessageDropped()
}

// GlobalSub is one subscription to the global feed. A lagging subscriber
// loses its own oldest entries; it never blocks the publisher or other
// subscribers.
type GlobalSub struct {
	id      uint64
	ch      chan core.Message
	dropped atomic.Uint64
}

// C returns the subscription's receive channel.
func (s *GlobalSub) C() <-chan core.Message {
	return s.ch
}

// TakeDropped returns and resets the count of messages lost to overflow
// since the last call.
func (s *GlobalSub) TakeDropped() uint64 {
	return s.dropped.Swap(0)
}

// Router fans messages out to global subscribers, room members, and
// individual session mailboxes. Membership snapshots are taken under the
// registry locks; delivery happens outside them.
type Router struct {
	reg   *Registry
	stats Stats

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*GlobalSub
}

// NewRouter creates a Router over a Registry. stats may be nil.
func NewRouter(reg *Registry, stats Stats) *Router {
	return &Router{reg: reg, stats: stats, subs: make(map[uint64]*GlobalSub)}
}

// SubscribeGlobal registers a new subscription to the global feed.
func (rt *Router) SubscribeGlobal() *GlobalSub {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.nextID++
	sub := &GlobalSub{id: rt.nextID, ch: make(chan core.Message, GlobalCapacity)}
	rt.subs[sub.id] = sub
	return sub
}

// UnsubscribeGlobal removes a subscription from the global feed.
func (rt *Router) UnsubscribeGlobal(sub *GlobalSub) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	delete(rt.subs, sub.id)
}

// PublishGlobal delivers a message to every current global subscriber.
func (rt *Router) PublishGlobal(msg core.Message) {
	rt.mu.Lock()
	subs := make([]*GlobalSub, 0, len(rt.subs))
	for _, sub := range rt.subs {
		subs = append(subs, sub)
	}
	rt.mu.Unlock()

	for _, sub := range subs {
		if evicted := offer(sub.ch, msg); evicted {
			sub.dropped.Add(1)
			rt.countDropped()
		}
	}
	rt.countBroadcast()
}

// PublishToRoom appends the message to the room's history and delivers it to
// each current member's mailbox. Unknown rooms are a no-op.
func (rt *Router) PublishToRoom(name string, msg core.Message) {
	members, ok := rt.reg.appendHistory(name, msg)
	if !ok {
		return
	}

	for _, addr := range members {
		if sess, ok := rt.reg.Session(addr); ok {
			sess.Deliver(msg)
		}
	}
	rt.countBroadcast()
}

// DeliverToSession sends a message to one session's mailbox. No-op when the
// session has disconnected.
func (rt *Router) DeliverToSession(address string, msg core.Message) {
	if sess, ok := rt.reg.Session(address); ok {
		sess.Deliver(msg)
	}
}

// DisconnectSession removes the session and broadcasts exactly one leave
// event, plus a refreshed roster, to every room it had joined.
func (rt *Router) DisconnectSession(address string) {
	sess, joined := rt.reg.RemoveSession(address)
	if sess == nil {
		return
	}

	for _, name := range joined {
		rt.PublishToRoom(name, core.NewUserLeft(sess.Address, name, sess.ENSName))
		rt.PublishToRoom(name, core.OnlineUsers{Users: rt.reg.OnlineUsers(name), Room: name})
	}
}

func (rt *Router) countBroadcast() {
	if rt.stats != nil {
		rt.stats.MessageBroadcast()
	}
}

func (rt *Router) countDropped() {
	if rt.stats != nil {
		rt.stats.MessageDropped()
	}
}
