package notify

import (
	"context"
)

type Transport interface {
	Emit(ctx context.Context, n Notification) error

	Close() error
}
