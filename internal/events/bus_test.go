package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", ""); err != nil {
		panic(err)
	}
	m.Run()
}

type recordingSink struct {
	name   string
	events []*models.Event
	err    error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(ctx context.Context, event *models.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func testEvent() *models.Event {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	return models.NewEvent(models.EventAgentCreated, "agent-1", owner, time.Now().UTC())
}

func TestBus_FanOut(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	bus := NewBus(a)
	bus.AddSink(b)

	event := testEvent()
	bus.Publish(context.Background(), event)

	for _, sink := range []*recordingSink{a, b} {
		if len(sink.events) != 1 {
			t.Fatalf("sink %s received %d events, want 1", sink.name, len(sink.events))
		}
		if sink.events[0].AgentID != "agent-1" {
			t.Errorf("sink %s got wrong event: %+v", sink.name, sink.events[0])
		}
	}
}

func TestBus_FailingSinkDoesNotBlockOthers(t *testing.T) {
	failing := &recordingSink{name: "failing", err: fmt.Errorf("sink down")}
	healthy := &recordingSink{name: "healthy"}
	bus := NewBus(failing, healthy)

	bus.Publish(context.Background(), testEvent())

	if len(healthy.events) != 1 {
		t.Errorf("healthy sink should still receive the event, got %d", len(healthy.events))
	}
}

// stallingSink blocks until its delivery context expires
type stallingSink struct {
	released bool
}

func (s *stallingSink) Name() string { return "stalling" }

func (s *stallingSink) Publish(ctx context.Context, event *models.Event) error {
	<-ctx.Done()
	s.released = true
	return ctx.Err()
}

func TestBus_SlowSinkIsCutOff(t *testing.T) {
	slow := &stallingSink{}
	healthy := &recordingSink{name: "healthy"}
	bus := NewBus(slow, healthy)
	bus.timeout = 50 * time.Millisecond

	start := time.Now()
	bus.Publish(context.Background(), testEvent())
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Fatalf("publish blocked for %s, sink deadline did not fire", elapsed)
	}
	if !slow.released {
		t.Error("stalling sink should have been released by its deadline")
	}
	if len(healthy.events) != 1 {
		t.Errorf("healthy sink should still receive the event, got %d", len(healthy.events))
	}
}

func TestBus_NoSinks(t *testing.T) {
	bus := NewBus()
	// Publishing into an empty bus must not panic
	bus.Publish(context.Background(), testEvent())
}
