package bus

import (
	"context"

	"github.com/aisleron/aisleron-server/internal/realtime"
)

// Bus fans change events out to shopping-list watchers. The in-process hub
// covers a single instance; the Redis implementation covers multi-instance
// deployments behind the same interface.
type Bus interface {
	Publish(ctx context.Context, ev realtime.ChangeEvent) error
	Subscribe(ctx context.Context) (<-chan realtime.ChangeEvent, func(), error)
	Close() error
}
