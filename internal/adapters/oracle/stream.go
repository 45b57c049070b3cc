package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/pkg/logger"
)

// Stream maintains a websocket subscription to the oracle's streaming
// endpoint and pushes every update into the HermesClient cache, so
// execution attempts read near-real-time prices without an HTTP round
// trip per evaluation.
type Stream struct {
	url            string
	client         *HermesClient
	conn           *websocket.Conn
	mu             sync.Mutex
	feeds          map[common.Hash]struct{}
	reconnectDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
}

// streamMessage mirrors the Hermes websocket price update frame
type streamMessage struct {
	Type      string `json:"type"`
	PriceFeed struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Conf        string `json:"conf"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"price_feed"`
}

// NewStream creates a price stream feeding the given client's cache
func NewStream(url string, client *HermesClient) *Stream {
	ctx, cancel := context.WithCancel(context.Background())
	return &Stream{
		url:            url,
		client:         client,
		feeds:          make(map[common.Hash]struct{}),
		reconnectDelay: 5 * time.Second,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Subscribe adds feeds to the subscription set and (re)sends the
// subscription when connected
func (s *Stream) Subscribe(feedIDs ...common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := false
	for _, id := range feedIDs {
		if _, ok := s.feeds[id]; !ok {
			s.feeds[id] = struct{}{}
			added = true
		}
	}
	if !added || s.conn == nil {
		return nil
	}
	return s.sendSubscribe()
}

// Connect dials the endpoint and starts the reader. The reader owns
// reconnection, so a failed initial dial is retried the same way a
// mid-life disconnect is; the returned error reports only the first
// attempt.
func (s *Stream) Connect() error {
	err := s.dial()
	go s.readMessages()
	return err
}

// dial (re)establishes the connection and resends subscriptions
func (s *Stream) dial() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to oracle stream: %w", err)
	}
	s.conn = conn

	if len(s.feeds) > 0 {
		if err := s.sendSubscribe(); err != nil {
			conn.Close()
			s.conn = nil
			return fmt.Errorf("failed to subscribe: %w", err)
		}
	}

	logger.Info("oracle stream connected",
		zap.String("url", s.url),
		zap.Int("feeds", len(s.feeds)),
	)
	return nil
}

// Close stops the stream
func (s *Stream) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// sendSubscribe sends the subscribe frame for all tracked feeds.
// Caller must hold s.mu.
func (s *Stream) sendSubscribe() error {
	ids := make([]string, 0, len(s.feeds))
	for id := range s.feeds {
		ids = append(ids, id.Hex())
	}

	return s.conn.WriteJSON(map[string]interface{}{
		"type": "subscribe",
		"ids":  ids,
	})
}

// readMessages consumes the stream, reconnecting on failure
func (s *Stream) readMessages() {
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			s.reconnect()
			continue
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("oracle stream read failed", zap.Error(err))
			s.reconnect()
			continue
		}

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Debug("skipping malformed stream frame", zap.Error(err))
			continue
		}
		if msg.Type != "price_update" {
			continue
		}

		reading, err := parseReading(msg.PriceFeed.ID, msg.PriceFeed.Price.Price,
			msg.PriceFeed.Price.Conf, msg.PriceFeed.Price.Expo, msg.PriceFeed.Price.PublishTime)
		if err != nil {
			logger.Debug("skipping unparsable price update", zap.Error(err))
			continue
		}

		s.client.SetReading(reading)
	}
}

func (s *Stream) reconnect() {
	select {
	case <-s.ctx.Done():
		return
	case <-time.After(s.reconnectDelay):
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	if err := s.dial(); err != nil {
		logger.Warn("oracle stream reconnect failed", zap.Error(err))
	}
}
