package clickhouse

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// Repository stores execution history in ClickHouse for dashboards and
// long-horizon analysis
type Repository struct {
	db *sqlx.DB
}

// NewRepository connects to ClickHouse
func NewRepository(dsn string) (*Repository, error) {
	db, err := sqlx.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("clickhouse connection established")
	return &Repository{db: db}, nil
}

// Close closes the connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveExecutions writes a batch of execution records
func (r *Repository) SaveExecutions(ctx context.Context, records []*models.ExecutionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO agent_executions
		(executed_at, agent_id, owner, feed_id, observed_price, trigger_price, trigger_above, token_in, token_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err = stmt.ExecContext(ctx,
			rec.ExecutedAt,
			rec.AgentID,
			rec.Owner.Hex(),
			rec.PriceFeedID.Hex(),
			rec.ObservedPrice.String(),
			rec.TriggerPrice.String(),
			rec.TriggerAbove,
			rec.TokenIn.Hex(),
			rec.TokenOut.Hex(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert execution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit executions: %w", err)
	}

	logger.Debug("executions saved to clickhouse",
		zap.Int("count", len(records)),
	)
	return nil
}

// ExecutionCount returns executions for an agent in a time range
func (r *Repository) ExecutionCount(ctx context.Context, agentID string, from, to time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT count() FROM agent_executions WHERE agent_id = ? AND executed_at BETWEEN ? AND ?`,
		agentID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}
	return count, nil
}
