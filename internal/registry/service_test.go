package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/pkg/models"
)

// fakeRegistrar records registrations and can be forced to fail
type fakeRegistrar struct {
	labels []string
	err    error
}

func (f *fakeRegistrar) RegisterSubname(ctx context.Context, label string, owner common.Address) (common.Hash, error) {
	if f.err != nil {
		return common.Hash{}, f.err
	}
	f.labels = append(f.labels, label)
	return common.HexToHash("0xabcdef"), nil
}

// capturePublisher collects published events
type capturePublisher struct {
	events []*models.Event
}

func (c *capturePublisher) Publish(ctx context.Context, event *models.Event) {
	c.events = append(c.events, event)
}

func (c *capturePublisher) lastType() models.EventType {
	if len(c.events) == 0 {
		return ""
	}
	return c.events[len(c.events)-1].Type
}

func newTestService(store Store, prices PriceSource) (*Service, *fakeRegistrar, *capturePublisher) {
	registrar := &fakeRegistrar{}
	publisher := &capturePublisher{}
	engine := NewEngine(store, prices, 0)
	svc := NewService(store, engine, registrar, publisher)
	return svc, registrar, publisher
}

func TestService_CreateAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, registrar, publisher := newTestService(NewMemStore(), &fakePriceSource{})

		agent, err := svc.CreateAgent(ctx, testOwner, "agent-1", "alice", newTestStrategy())
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if agent.Owner != testOwner {
			t.Errorf("owner: got %s", agent.Owner.Hex())
		}
		if !agent.IsActive {
			t.Error("new agent must be active")
		}
		if agent.NameBinding == (common.Hash{}) {
			t.Error("name binding must be set")
		}
		if len(registrar.labels) != 1 || registrar.labels[0] != "alice" {
			t.Errorf("label not registered: %v", registrar.labels)
		}
		if publisher.lastType() != models.EventAgentCreated {
			t.Errorf("expected AgentCreated event, got %q", publisher.lastType())
		}
	})

	t.Run("invalid strategy rejected before naming", func(t *testing.T) {
		svc, registrar, publisher := newTestService(NewMemStore(), &fakePriceSource{})

		bad := newTestStrategy()
		bad.TriggerPrice = models.NewBigInt(big.NewInt(0))

		_, err := svc.CreateAgent(ctx, testOwner, "agent-1", "alice", bad)
		if !errors.Is(err, ErrInvalidStrategy) {
			t.Errorf("expected ErrInvalidStrategy, got %v", err)
		}
		if len(registrar.labels) != 0 {
			t.Error("invalid strategy must not reach the registrar")
		}
		if len(publisher.events) != 0 {
			t.Error("invalid strategy must not emit events")
		}
	})

	t.Run("empty id rejected", func(t *testing.T) {
		svc, _, _ := newTestService(NewMemStore(), &fakePriceSource{})

		_, err := svc.CreateAgent(ctx, testOwner, "", "alice", newTestStrategy())
		if !errors.Is(err, ErrInvalidStrategy) {
			t.Errorf("expected ErrInvalidStrategy, got %v", err)
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		svc, _, _ := newTestService(NewMemStore(), &fakePriceSource{})

		if _, err := svc.CreateAgent(ctx, testOwner, "agent-1", "alice", newTestStrategy()); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		_, err := svc.CreateAgent(ctx, testOwner, "agent-1", "bob", newTestStrategy())
		if !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("registrar failure aborts creation", func(t *testing.T) {
		store := NewMemStore()
		svc, registrar, _ := newTestService(store, &fakePriceSource{})
		registrar.err = fmt.Errorf("rpc down")

		_, err := svc.CreateAgent(ctx, testOwner, "agent-1", "alice", newTestStrategy())
		if err == nil {
			t.Fatal("expected error from registrar failure")
		}
		if _, err := store.Get(ctx, "agent-1"); !errors.Is(err, ErrNotFound) {
			t.Error("failed creation must not leave a record")
		}
	})
}

func TestService_UpdateStrategy(t *testing.T) {
	ctx := context.Background()
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	setup := func(t *testing.T) (*Service, Store, *capturePublisher) {
		t.Helper()
		store := NewMemStore()
		svc, _, publisher := newTestService(store, &fakePriceSource{})
		if _, err := svc.CreateAgent(ctx, testOwner, "agent-1", "alice", newTestStrategy()); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		return svc, store, publisher
	}

	t.Run("owner replaces strategy", func(t *testing.T) {
		svc, store, publisher := setup(t)

		replacement := newTestStrategy()
		replacement.TriggerPrice = models.NewBigInt(big.NewInt(500000000000))

		if err := svc.UpdateStrategy(ctx, testOwner, "agent-1", replacement); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := store.Get(ctx, "agent-1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Strategy.TriggerPrice.Cmp(big.NewInt(500000000000)) != 0 {
			t.Errorf("strategy not replaced: got %s", got.Strategy.TriggerPrice)
		}
		if publisher.lastType() != models.EventStrategyUpdated {
			t.Errorf("expected StrategyUpdated event, got %q", publisher.lastType())
		}
	})

	t.Run("non-owner rejected, record unchanged", func(t *testing.T) {
		svc, store, _ := setup(t)

		replacement := newTestStrategy()
		replacement.TriggerPrice = models.NewBigInt(big.NewInt(1))

		err := svc.UpdateStrategy(ctx, other, "agent-1", replacement)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}

		got, err := store.Get(ctx, "agent-1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Strategy.TriggerPrice.Cmp(big.NewInt(300000000000)) != 0 {
			t.Errorf("unauthorized update modified the record: got %s", got.Strategy.TriggerPrice)
		}
	})

	t.Run("invalid replacement rejected whole", func(t *testing.T) {
		svc, store, _ := setup(t)

		bad := newTestStrategy()
		bad.TokenIn = common.Address{}

		err := svc.UpdateStrategy(ctx, testOwner, "agent-1", bad)
		if !errors.Is(err, ErrInvalidStrategy) {
			t.Errorf("expected ErrInvalidStrategy, got %v", err)
		}

		got, err := store.Get(ctx, "agent-1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Strategy.TokenIn == (common.Address{}) {
			t.Error("invalid strategy partially applied")
		}
	})

	t.Run("unknown agent", func(t *testing.T) {
		svc, _, _ := setup(t)
		err := svc.UpdateStrategy(ctx, testOwner, "missing", newTestStrategy())
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestService_DeactivateAgent(t *testing.T) {
	ctx := context.Background()
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	store := NewMemStore()
	svc, _, publisher := newTestService(store, &fakePriceSource{reading: freshReading(300000000001)})
	if _, err := svc.CreateAgent(ctx, testOwner, "agent-1", "alice", newTestStrategy()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	t.Run("non-owner rejected", func(t *testing.T) {
		err := svc.DeactivateAgent(ctx, other, "agent-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("owner deactivates", func(t *testing.T) {
		if err := svc.DeactivateAgent(ctx, testOwner, "agent-1"); err != nil {
			t.Fatalf("deactivate failed: %v", err)
		}
		if publisher.lastType() != models.EventAgentDeactivated {
			t.Errorf("expected AgentDeactivated event, got %q", publisher.lastType())
		}
	})

	t.Run("deactivated agent cannot execute", func(t *testing.T) {
		_, err := svc.EvaluateAndExecute(ctx, "agent-1")
		if !errors.Is(err, ErrAgentInactive) {
			t.Errorf("expected ErrAgentInactive, got %v", err)
		}
	})

	t.Run("deactivated agent remains readable", func(t *testing.T) {
		agent, err := svc.GetAgent(ctx, "agent-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if agent.IsActive {
			t.Error("agent should be inactive")
		}
	})
}

func TestService_EvaluateAndExecute_EmitsEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemStore()
	registrar := &fakeRegistrar{}
	publisher := &capturePublisher{}
	engine := NewEngine(store, &fakePriceSource{reading: freshReading(300000000001)}, 0).
		WithClock(func() time.Time { return now })
	svc := NewService(store, engine, registrar, publisher)

	if _, err := svc.CreateAgent(ctx, testOwner, "agent-1", "alice", newTestStrategy()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	record, err := svc.EvaluateAndExecute(ctx, "agent-1")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}

	if publisher.lastType() != models.EventTriggerExecuted {
		t.Fatalf("expected TriggerExecuted event, got %q", publisher.lastType())
	}
	last := publisher.events[len(publisher.events)-1]
	if last.Execution == nil {
		t.Fatal("execution event must carry the record")
	}
	if last.Execution.AgentID != record.AgentID {
		t.Errorf("event record mismatch: %s vs %s", last.Execution.AgentID, record.AgentID)
	}

	// A failed follow-up attempt emits nothing
	before := len(publisher.events)
	if _, err := svc.EvaluateAndExecute(ctx, "agent-1"); !errors.Is(err, ErrCooldownNotExpired) {
		t.Fatalf("expected ErrCooldownNotExpired, got %v", err)
	}
	if len(publisher.events) != before {
		t.Error("failed attempt emitted an event")
	}
}

func TestService_ListAgentsByOwner(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(NewMemStore(), &fakePriceSource{})

	for i, id := range []string{"x", "y", "z"} {
		if _, err := svc.CreateAgent(ctx, testOwner, id, fmt.Sprintf("label%d", i), newTestStrategy()); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}

	ids, err := svc.ListAgentsByOwner(ctx, testOwner)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "x" || ids[2] != "z" {
		t.Errorf("unexpected listing: %v", ids)
	}
}
