package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PriceReading is a raw oracle observation for one feed, as published:
// price = Mantissa * 10^Expo, with a confidence interval in the same
// units. PublishedAt is authoritative for freshness decisions.
type PriceReading struct {
	FeedID      common.Hash `json:"feed_id"`
	Mantissa    int64       `json:"mantissa"`
	Expo        int32       `json:"expo"`
	Conf        uint64      `json:"conf"`
	PublishedAt time.Time   `json:"published_at"`
}

// Age returns how stale the reading is relative to now
func (r *PriceReading) Age(now time.Time) time.Duration {
	return now.Sub(r.PublishedAt)
}
