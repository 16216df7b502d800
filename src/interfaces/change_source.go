package interfaces

import (
	"context"

	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// IChangeSource is the store's insert-notification stream.
// -----------------------------------------------------------------------------

type IChangeSource interface {
	// -----------------------------------------------------------------------------
	// Subscribe opens a stream of inserted records. The returned channel is
	// closed when the stream drops or ctx is cancelled; callers resubscribe
	// to recover.
	Subscribe(ctx context.Context) (<-chan models.MTransaction, error)
}
