package ports

import (
	"context"

	"github.com/chaintalk/chaintalk/core"
)

// EventPublisher notifies other instances about noteworthy events.
// Publishing is best-effort; callers log failures and continue.
type EventPublisher interface {
	PublishLogin(ctx context.Context, address string) error
	PublishChainEvent(ctx context.Context, event core.ChainEvent) error
}
