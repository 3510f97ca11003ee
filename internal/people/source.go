package people

import (
	"context"
	"errors"
)

// DefaultBatchSize is used when a caller asks for a non-positive count.
const DefaultBatchSize = 5

// ErrProviderFailure wraps any failure of the people provider.
var ErrProviderFailure = errors.New("people provider failure")

// Source returns batches of users from an external provider. Implementations
// do not retry.
type Source interface {
	FetchBatch(ctx context.Context, count int) ([]User, error)
}
