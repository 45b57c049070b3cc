package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/internal/adapters/config"
	redisAdapter "github.com/selivandex/agent-registry/internal/adapters/redis"
	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// HermesClient reads prices from a Hermes-compatible oracle HTTP API.
// Readings are cached in memory and, when a Redis client is supplied,
// shared across pods so the websocket stream of one pod feeds the rest.
type HermesClient struct {
	endpoint string
	client   *http.Client
	redis    *redisAdapter.Client

	mu     sync.RWMutex
	latest map[common.Hash]*models.PriceReading
}

var _ Source = (*HermesClient)(nil)

// NewHermesClient creates a Hermes oracle client. redis may be nil.
func NewHermesClient(cfg *config.OracleConfig, redis *redisAdapter.Client) *HermesClient {
	return &HermesClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		redis:    redis,
		latest:   make(map[common.Hash]*models.PriceReading),
	}
}

func (h *HermesClient) GetName() string {
	return "hermes"
}

// GetPrice returns the freshest known reading for the feed, trying the
// in-memory cache, then the shared Redis cache, then the HTTP API.
func (h *HermesClient) GetPrice(ctx context.Context, feedID common.Hash, maxAge time.Duration) (*models.PriceReading, error) {
	now := time.Now().UTC()

	if r := h.cached(feedID); r != nil && freshEnough(r, maxAge, now) {
		return r, nil
	}

	if r := h.fromRedis(ctx, feedID); r != nil && freshEnough(r, maxAge, now) {
		h.SetReading(r)
		return r, nil
	}

	r, err := h.fetch(ctx, feedID)
	if err != nil {
		return nil, err
	}
	h.SetReading(r)
	h.toRedis(ctx, r)

	if !freshEnough(r, maxAge, now) {
		return nil, fmt.Errorf("reading for feed %s is stale: published %s, max age %s",
			feedID.Hex(), r.PublishedAt.Format(time.RFC3339), maxAge)
	}
	return r, nil
}

// SetReading installs a reading in the in-memory cache. Newer readings
// never get replaced by older ones, so the websocket stream and HTTP
// fetches can race safely.
func (h *HermesClient) SetReading(r *models.PriceReading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.latest[r.FeedID]; ok && cur.PublishedAt.After(r.PublishedAt) {
		return
	}
	h.latest[r.FeedID] = r
}

func (h *HermesClient) cached(feedID common.Hash) *models.PriceReading {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest[feedID]
}

func freshEnough(r *models.PriceReading, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return true
	}
	return r.Age(now) <= maxAge
}

func redisPriceKey(feedID common.Hash) string {
	return "oracle:price:" + feedID.Hex()
}

func (h *HermesClient) fromRedis(ctx context.Context, feedID common.Hash) *models.PriceReading {
	if h.redis == nil {
		return nil
	}

	raw, err := h.redis.Get(ctx, redisPriceKey(feedID)).Bytes()
	if err != nil {
		return nil
	}

	var r models.PriceReading
	if err := json.Unmarshal(raw, &r); err != nil {
		logger.Warn("failed to decode cached oracle reading",
			zap.String("feed_id", feedID.Hex()),
			zap.Error(err),
		)
		return nil
	}
	return &r
}

func (h *HermesClient) toRedis(ctx context.Context, r *models.PriceReading) {
	if h.redis == nil {
		return
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, redisPriceKey(r.FeedID), raw, 10*time.Minute).Err(); err != nil {
		logger.Warn("failed to cache oracle reading",
			zap.String("feed_id", r.FeedID.Hex()),
			zap.Error(err),
		)
	}
}

// hermesPriceUpdate mirrors the Hermes v2 latest price response
type hermesPriceUpdate struct {
	Parsed []struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Conf        string `json:"conf"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"parsed"`
}

func (h *HermesClient) fetch(ctx context.Context, feedID common.Hash) (*models.PriceReading, error) {
	url := fmt.Sprintf("%s/v2/updates/price/latest?ids[]=%s", h.endpoint, feedID.Hex())

	req, err := http.NewRequestWithContext(ctx, "GET", url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("oracle API error %d: %s", resp.StatusCode, string(body))
	}

	var update hermesPriceUpdate
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		return nil, fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if len(update.Parsed) == 0 {
		return nil, fmt.Errorf("no price published for feed %s", feedID.Hex())
	}

	return parseReading(update.Parsed[0].ID, update.Parsed[0].Price.Price, update.Parsed[0].Price.Conf,
		update.Parsed[0].Price.Expo, update.Parsed[0].Price.PublishTime)
}

func parseReading(id, price, conf string, expo int32, publishTime int64) (*models.PriceReading, error) {
	mantissa, err := strconv.ParseInt(price, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price mantissa %q: %w", price, err)
	}

	confidence, err := strconv.ParseUint(conf, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid confidence %q: %w", conf, err)
	}

	return &models.PriceReading{
		FeedID:      common.HexToHash(id),
		Mantissa:    mantissa,
		Expo:        expo,
		Conf:        confidence,
		PublishedAt: time.Unix(publishTime, 0).UTC(),
	}, nil
}
