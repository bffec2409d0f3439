// Package ws runs one connection actor per live websocket. The actor owns
// all writes to its socket; a reader goroutine feeds inbound frames into the
// multiplexed select loop.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/registry"
	"github.com/chaintalk/chaintalk/service"
)

// WelcomeText greets every new connection before authentication.
const WelcomeText = "Welcome to ChainTalk! Please authenticate to start chatting."

// Conn is the websocket surface the actor needs. Satisfied by
// *websocket.Conn.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type frame struct {
	data []byte
	err  error
}

// Actor drives one connection through its lifecycle: unauthenticated until a
// verify succeeds, then authenticated until the transport ends.
type Actor struct {
	conn   Conn
	auth   *service.AuthService
	reg    *registry.Registry
	router *registry.Router
	logger *slog.Logger

	session *registry.Session
}

// NewActor creates an actor for one connection.
func NewActor(conn Conn, auth *service.AuthService, reg *registry.Registry, router *registry.Router, logger *slog.Logger) *Actor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actor{conn: conn, auth: auth, reg: reg, router: router, logger: logger}
}

// Run processes the connection until transport failure, close frame, or
// context cancellation. On return the session, if attached, has been
// removed exactly once with its room departures broadcast.
func (a *Actor) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.cleanup()

	welcome := core.NewTextMessage("System", WelcomeText, "system")
	if err := a.write(welcome); err != nil {
		return
	}

	sub := a.router.SubscribeGlobal()
	defer a.router.UnsubscribeGlobal(sub)

	frames := make(chan frame)
	go a.readFrames(ctx, frames)

	for {
		// The mailbox arm is nil, and therefore never ready, until
		// authentication attaches a session.
		var mailbox <-chan core.Message
		if a.session != nil {
			mailbox = a.session.Mailbox()
		}

		select {
		case <-ctx.Done():
			return

		case fr, ok := <-frames:
			if !ok {
				return
			}
			if fr.err != nil {
				a.logReadEnd(fr.err)
				return
			}
			if err := a.handleFrame(ctx, fr.data); err != nil {
				return
			}

		case msg := <-sub.C():
			if n := sub.TakeDropped(); n > 0 {
				if err := a.writeLagNotice(n); err != nil {
					return
				}
			}
			if err := a.write(msg); err != nil {
				return
			}

		case msg := <-mailbox:
			if n := a.session.TakeDropped(); n > 0 {
				if err := a.writeLagNotice(n); err != nil {
					return
				}
			}
			if err := a.write(msg); err != nil {
				return
			}
		}
	}
}

// readFrames pumps inbound frames until the transport errors or the actor
// stops.
func (a *Actor) readFrames(ctx context.Context, frames chan<- frame) {
	defer close(frames)
	for {
		_, data, err := a.conn.ReadMessage()
		select {
		case frames <- frame{data: data, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// handleFrame dispatches one inbound frame. Command failures are reported
// back on the connection and keep it open; a non-nil return means the
// transport failed and the loop must terminate.
func (a *Actor) handleFrame(ctx context.Context, data []byte) error {
	cmd, err := core.DecodeCommand(data)
	if err != nil {
		return a.write(core.ErrorMessage{Message: err.Error()})
	}

	switch c := cmd.(type) {
	case core.Authenticate:
		return a.authenticate(ctx, func(ctx context.Context) (core.Identity, error) {
			return a.auth.VerifySIWE(ctx, c.Message, c.Signature)
		})
	case core.SimpleAuth:
		return a.authenticate(ctx, func(ctx context.Context) (core.Identity, error) {
			return a.auth.VerifySimple(ctx, c.Address, c.Message, c.Signature, c.Nonce)
		})
	}

	if a.session == nil {
		return a.write(core.ErrorMessage{
			Message: fmt.Sprintf("%v: not authenticated", core.ErrAuthenticationFailed),
		})
	}

	switch c := cmd.(type) {
	case core.SendText:
		err = a.sendText(c)
	case core.JoinRoom:
		err = a.joinRoom(c)
	case core.LeaveRoom:
		err = a.leaveRoom(c)
	case core.Ping:
		a.router.DeliverToSession(a.session.Address, core.Pong{})
	}
	if err != nil {
		return a.write(core.ErrorMessage{Message: err.Error()})
	}
	return nil
}

// authenticate runs one of the two verification schemes and, on success,
// attaches the session, auto-joins the default room, and broadcasts the
// join plus a refreshed roster.
func (a *Actor) authenticate(ctx context.Context, verify func(context.Context) (core.Identity, error)) error {
	if a.session != nil {
		return a.write(core.AuthFailed{
			Error: fmt.Sprintf("%v: already authenticated", core.ErrAuthenticationFailed),
		})
	}

	identity, err := verify(ctx)
	if err != nil {
		a.logger.Warn("authentication failed", "err", err)
		return a.write(core.AuthFailed{Error: err.Error()})
	}

	a.session = a.reg.AddSession(identity.Address, identity.ENSName)

	if err := a.write(core.AuthSuccess{UserAddress: identity.Address, ENSName: identity.ENSName}); err != nil {
		return err
	}

	home := a.reg.DefaultRoom()
	a.reg.JoinRoom(identity.Address, home)
	a.router.PublishToRoom(home, core.NewUserJoined(identity.Address, home, identity.ENSName))
	a.router.PublishToRoom(home, core.OnlineUsers{
		Users: a.reg.OnlineUsers(home),
		Room:  home,
	})

	a.logger.Info("user authenticated", "addr", identity.Address)
	return nil
}

func (a *Actor) sendText(cmd core.SendText) error {
	if strings.TrimSpace(cmd.Text) == "" {
		return fmt.Errorf("%w: message cannot be empty", core.ErrInvalidRequest)
	}
	if len(cmd.Text) > 1000 {
		return fmt.Errorf("%w: message too long (max 1000 characters)", core.ErrInvalidRequest)
	}
	if !a.reg.InRoom(a.session.Address, cmd.Room) {
		return fmt.Errorf("%w: not in room %q", core.ErrAuthorizationFailed, cmd.Room)
	}

	msg := core.NewTextMessage(a.session.DisplayName(), cmd.Text, cmd.Room)
	// Room fan-out runs off the command path so a slow room cannot stall
	// this connection's loop.
	go a.router.PublishToRoom(cmd.Room, msg)
	return nil
}

func (a *Actor) joinRoom(cmd core.JoinRoom) error {
	if ok := a.reg.JoinRoom(a.session.Address, cmd.Room); !ok {
		return fmt.Errorf("%w: session not found", core.ErrAuthenticationFailed)
	}

	a.router.PublishToRoom(cmd.Room, core.NewUserJoined(a.session.DisplayName(), cmd.Room, a.session.ENSName))
	a.router.PublishToRoom(cmd.Room, core.OnlineUsers{Users: a.reg.OnlineUsers(cmd.Room), Room: cmd.Room})
	a.router.DeliverToSession(a.session.Address, core.RoomUsers{
		Room:  cmd.Room,
		Users: a.reg.RoomMembers(cmd.Room),
	})
	return nil
}

func (a *Actor) leaveRoom(cmd core.LeaveRoom) error {
	a.reg.LeaveRoom(a.session.Address, cmd.Room)

	a.router.PublishToRoom(cmd.Room, core.NewUserLeft(a.session.DisplayName(), cmd.Room, a.session.ENSName))
	a.router.PublishToRoom(cmd.Room, core.OnlineUsers{Users: a.reg.OnlineUsers(cmd.Room), Room: cmd.Room})
	return nil
}

func (a *Actor) write(msg core.Message) error {
	data, err := core.EncodeMessage(msg)
	if err != nil {
		a.logger.Error("failed to encode message", "err", err)
		return nil
	}
	return a.conn.WriteMessage(websocket.TextMessage, data)
}

func (a *Actor) writeLagNotice(n uint64) error {
	return a.write(core.ErrorMessage{
		Message: fmt.Sprintf("connection lagged: %d messages dropped", n),
	})
}

func (a *Actor) logReadEnd(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		a.logger.Info("client closed connection")
		return
	}
	a.logger.Info("connection read ended", "err", err)
}

func (a *Actor) cleanup() {
	if a.session != nil {
		a.router.DisconnectSession(a.session.Address)
		a.logger.Info("session removed", "addr", a.session.Address)
	}
	_ = a.conn.Close()
}
