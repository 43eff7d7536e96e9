// Package trigger decides when the provider syncs run.
package trigger

import (
	"context"
)

// Trigger fires a sync of every signed-in provider when its condition is
// met. Run blocks, firing repeatedly, until ctx is done.
type Trigger interface {
	Run(ctx context.Context) error
	Listen(ctx context.Context)
	Fire(ctx context.Context) error
	ID() string
}
