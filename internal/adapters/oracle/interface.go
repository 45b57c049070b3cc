package oracle

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/pkg/models"
)

// Source serves point-in-time oracle price readings. A maxAge of zero
// means the caller accepts the latest known reading regardless of
// staleness; otherwise readings older than maxAge are rejected.
type Source interface {
	// GetPrice returns the latest reading for a feed
	GetPrice(ctx context.Context, feedID common.Hash, maxAge time.Duration) (*models.PriceReading, error)

	// GetName returns provider name
	GetName() string
}
