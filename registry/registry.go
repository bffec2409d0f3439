// Package registry holds the shared session and room state and the
// broadcast fabric connecting them. Sessions and rooms are guarded
// independently; operations touching both acquire the session lock before
// the room lock and never recurse while holding either.
package registry

import (
	"sort"
	"sync"

	"github.com/chaintalk/chaintalk/core"
)

const (
	// HistoryCapacity bounds each room's retained message history.
	HistoryCapacity = 100
	// DefaultRoom is the room seeded at startup when no other name is
	// configured. It exists from process start and is never deleted.
	DefaultRoom = "general"
)

type room struct {
	name    string
	members map[string]struct{}
	history []core.Message
}

// RoomInfo is a room listing entry.
type RoomInfo struct {
	Name    string   `json:"name"`
	Members []string `json:"users"`
}

// Registry tracks live sessions by address and rooms by name.
type Registry struct {
	defaultRoom string

	sessMu   sync.RWMutex
	sessions map[string]*Session

	roomMu sync.RWMutex
	rooms  map[string]*room
}

// NewRegistry creates a Registry seeded with the named default room. An
// empty name falls back to DefaultRoom.
func NewRegistry(defaultRoom string) *Registry {
	if defaultRoom == "" {
		defaultRoom = DefaultRoom
	}
	return &Registry{
		defaultRoom: defaultRoom,
		sessions:    make(map[string]*Session),
		rooms: map[string]*room{
			defaultRoom: {name: defaultRoom, members: make(map[string]struct{})},
		},
	}
}

// DefaultRoom returns the room every session auto-joins on authentication.
func (r *Registry) DefaultRoom() string {
	return r.defaultRoom
}

// AddSession creates a session for an address, overwriting any prior session
// for the same address (last-writer-wins).
func (r *Registry) AddSession(address string, ensName *string) *Session {
	sess := newSession(address, ensName)

	r.sessMu.Lock()
	r.sessions[address] = sess
	r.sessMu.Unlock()

	return sess
}

// Session looks up the live session for an address.
func (r *Registry) Session(address string) (*Session, bool) {
	r.sessMu.RLock()
	defer r.sessMu.RUnlock()

	sess, ok := r.sessions[address]
	return sess, ok
}

// RemoveSession detaches the session and removes its membership from every
// joined room exactly once. It returns the removed session and the rooms it
// had joined; the session lock is released before the per-room leave
// mutations run.
func (r *Registry) RemoveSession(address string) (*Session, []string) {
	r.sessMu.Lock()
	sess, ok := r.sessions[address]
	if !ok {
		r.sessMu.Unlock()
		return nil, nil
	}
	delete(r.sessions, address)
	joined := make([]string, 0, len(sess.rooms))
	for name := range sess.rooms {
		joined = append(joined, name)
	}
	r.sessMu.Unlock()

	sort.Strings(joined)
	for _, name := range joined {
		r.LeaveRoom(address, name)
	}
	return sess, joined
}

// JoinRoom adds the address to the room, creating the room on first
// reference, and records the room in the session's joined set. It reports
// whether a session existed for the address.
func (r *Registry) JoinRoom(address, name string) bool {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	r.roomMu.Lock()
	defer r.roomMu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{name: name, members: make(map[string]struct{})}
		r.rooms[name] = rm
	}
	rm.members[address] = struct{}{}

	sess, ok := r.sessions[address]
	if !ok {
		return false
	}
	sess.rooms[name] = struct{}{}
	return true
}

// LeaveRoom removes the address from the room's member set and from the
// session's joined set. Idempotent when already absent.
func (r *Registry) LeaveRoom(address, name string) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	r.roomMu.Lock()
	defer r.roomMu.Unlock()

	if rm, ok := r.rooms[name]; ok {
		delete(rm.members, address)
	}
	if sess, ok := r.sessions[address]; ok {
		delete(sess.rooms, name)
	}
}

// InRoom reports whether the session for address currently belongs to the
// room.
func (r *Registry) InRoom(address, name string) bool {
	r.sessMu.RLock()
	defer r.sessMu.RUnlock()

	sess, ok := r.sessions[address]
	if !ok {
		return false
	}
	_, joined := sess.rooms[name]
	return joined
}

// RoomMembers returns the sorted member addresses of a room.
func (r *Registry) RoomMembers(name string) []string {
	r.roomMu.RLock()
	defer r.roomMu.RUnlock()

	rm, ok := r.rooms[name]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(rm.members))
	for addr := range rm.members {
		members = append(members, addr)
	}
	sort.Strings(members)
	return members
}

// OnlineUsers returns the roster of a room with display names attached.
// Members without a live session are skipped.
func (r *Registry) OnlineUsers(name string) []core.OnlineUser {
	r.sessMu.RLock()
	defer r.sessMu.RUnlock()
	r.roomMu.RLock()
	defer r.roomMu.RUnlock()

	rm, ok := r.rooms[name]
	if !ok {
		return nil
	}
	users := make([]core.OnlineUser, 0, len(rm.members))
	for addr := range rm.members {
		sess, ok := r.sessions[addr]
		if !ok {
			continue
		}
		users = append(users, core.OnlineUser{Address: addr, ENSName: sess.ENSName})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Address < users[j].Address })
	return users
}

// ListRooms returns every room with its member addresses.
func (r *Registry) ListRooms() []RoomInfo {
	r.roomMu.RLock()
	defer r.roomMu.RUnlock()

	infos := make([]RoomInfo, 0, len(r.rooms))
	for name, rm := range r.rooms {
		members := make([]string, 0, len(rm.members))
		for addr := range rm.members {
			members = append(members, addr)
		}
		sort.Strings(members)
		infos = append(infos, RoomInfo{Name: name, Members: members})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// RoomHistory returns a copy of the room's retained history in publish
// order.
func (r *Registry) RoomHistory(name string) []core.Message {
	r.roomMu.RLock()
	defer r.roomMu.RUnlock()

	rm, ok := r.rooms[name]
	if !ok {
		return nil
	}
	history := make([]core.Message, len(rm.history))
	copy(history, rm.history)
	return history
}

// appendHistory records a message in the room's bounded history and returns
// the current member snapshot. Publishing to an unknown room is a no-op.
func (r *Registry) appendHistory(name string, msg core.Message) ([]string, bool) {
	r.roomMu.Lock()
	defer r.roomMu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		return nil, false
	}
	rm.history = append(rm.history, msg)
	if len(rm.history) > HistoryCapacity {
		rm.history = rm.history[len(rm.history)-HistoryCapacity:]
	}

	members := make([]string, 0, len(rm.members))
	for addr := range rm.members {
		members = append(members, addr)
	}
	return members, true
}
