package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/internal/adapters/database"
	"github.com/selivandex/agent-registry/pkg/models"
)

// PGStore is the Postgres-backed Store. Atomicity comes from single
// SQL statements: MarkExecuted folds the activity and cooldown checks
// into the UPDATE's WHERE clause, so the cooldown compare-and-set is
// one atomic row update rather than a read-then-write.
type PGStore struct {
	db *database.DB
}

// NewPGStore creates a Postgres store
func NewPGStore(db *database.DB) *PGStore {
	return &PGStore{db: db}
}

const agentColumns = `agent_id, owner, name_binding, price_feed_id, trigger_price, trigger_above,
	token_in, token_out, amount_in, cooldown_seconds, is_active, last_executed, created_at, updated_at`

// Create inserts the agent, failing on id collision without touching
// the existing row
func (p *PGStore) Create(ctx context.Context, agent *models.Agent) error {
	query := `
		INSERT INTO agents (agent_id, owner, name_binding, price_feed_id, trigger_price, trigger_above,
			token_in, token_out, amount_in, cooldown_seconds, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (agent_id) DO NOTHING
	`

	res, err := p.db.DB().ExecContext(ctx, query,
		agent.ID,
		agent.Owner.Bytes(),
		agent.NameBinding.Bytes(),
		agent.Strategy.PriceFeedID.Bytes(),
		agent.Strategy.TriggerPrice,
		agent.Strategy.TriggerAbove,
		agent.Strategy.TokenIn.Bytes(),
		agent.Strategy.TokenOut.Bytes(),
		agent.Strategy.AmountIn,
		int64(agent.Strategy.CooldownPeriod/time.Second),
		agent.IsActive,
		agent.CreatedAt,
		agent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, agent.ID)
	}
	return nil
}

// Get returns the agent or ErrNotFound
func (p *PGStore) Get(ctx context.Context, agentID string) (*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE agent_id = $1`

	row := p.db.DB().QueryRowContext(ctx, query, agentID)
	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, agentID)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

// ReplaceStrategy swaps the whole strategy value in one UPDATE
func (p *PGStore) ReplaceStrategy(ctx context.Context, agentID string, s models.Strategy) error {
	query := `
		UPDATE agents
		SET price_feed_id = $2, trigger_price = $3, trigger_above = $4,
			token_in = $5, token_out = $6, amount_in = $7, cooldown_seconds = $8,
			updated_at = now()
		WHERE agent_id = $1
	`

	res, err := p.db.DB().ExecContext(ctx, query,
		agentID,
		s.PriceFeedID.Bytes(),
		s.TriggerPrice,
		s.TriggerAbove,
		s.TokenIn.Bytes(),
		s.TokenOut.Bytes(),
		s.AmountIn,
		int64(s.CooldownPeriod/time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to replace strategy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	return nil
}

// MarkExecuted stamps the execution time. The WHERE clause carries the
// activity, monotonicity and cooldown conditions, so concurrent
// attempts race on a single row update and at most one wins per window.
func (p *PGStore) MarkExecuted(ctx context.Context, agentID string, now time.Time) error {
	query := `
		UPDATE agents
		SET last_executed = $2, updated_at = $2
		WHERE agent_id = $1
		  AND is_active
		  AND (last_executed IS NULL
		       OR (last_executed <= $2 AND last_executed + cooldown_seconds * interval '1 second' <= $2))
	`

	res, err := p.db.DB().ExecContext(ctx, query, agentID, now)
	if err != nil {
		return fmt.Errorf("failed to mark executed: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// The CAS failed; find out why for the error taxonomy
	var isActive bool
	err = p.db.DB().QueryRowContext(ctx, `SELECT is_active FROM agents WHERE agent_id = $1`, agentID).Scan(&isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	if err != nil {
		return fmt.Errorf("failed to classify execution failure: %w", err)
	}
	if !isActive {
		return fmt.Errorf("%w: %s", ErrAgentInactive, agentID)
	}
	return fmt.Errorf("%w: %s", ErrCooldownNotExpired, agentID)
}

// Deactivate flips is_active off
func (p *PGStore) Deactivate(ctx context.Context, agentID string) error {
	res, err := p.db.DB().ExecContext(ctx,
		`UPDATE agents SET is_active = false, updated_at = now() WHERE agent_id = $1`, agentID)
	if err != nil {
		return fmt.Errorf("failed to deactivate agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	return nil
}

// ListByOwner returns the owner's agent ids in insertion order
func (p *PGStore) ListByOwner(ctx context.Context, owner common.Address) ([]string, error) {
	rows, err := p.db.DB().QueryContext(ctx,
		`SELECT agent_id FROM agents WHERE owner = $1 ORDER BY seq`, owner.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to list agents by owner: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan agent id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActive returns all active agents
func (p *PGStore) ListActive(ctx context.Context) ([]*models.Agent, error) {
	rows, err := p.db.DB().QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE is_active ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// Count returns the number of live agents
func (p *PGStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.DB().QueryRowContext(ctx, `SELECT count(*) FROM agents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var (
		agent        models.Agent
		owner        []byte
		nameBinding  []byte
		feedID       []byte
		triggerPrice models.BigInt
		tokenIn      []byte
		tokenOut     []byte
		amountIn     models.TradeAmount
		cooldownSecs int64
		lastExecuted sql.NullTime
	)

	err := row.Scan(
		&agent.ID,
		&owner,
		&nameBinding,
		&feedID,
		&triggerPrice,
		&agent.Strategy.TriggerAbove,
		&tokenIn,
		&tokenOut,
		&amountIn,
		&cooldownSecs,
		&agent.IsActive,
		&lastExecuted,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	agent.Owner = common.BytesToAddress(owner)
	agent.NameBinding = common.BytesToHash(nameBinding)
	agent.Strategy.PriceFeedID = common.BytesToHash(feedID)
	agent.Strategy.TriggerPrice = triggerPrice.Copy()
	agent.Strategy.TokenIn = common.BytesToAddress(tokenIn)
	agent.Strategy.TokenOut = common.BytesToAddress(tokenOut)
	agent.Strategy.AmountIn = amountIn
	agent.Strategy.CooldownPeriod = time.Duration(cooldownSecs) * time.Second
	if lastExecuted.Valid {
		agent.LastExecuted = lastExecuted.Time
	}
	return &agent, nil
}
