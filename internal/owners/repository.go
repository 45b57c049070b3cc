package owners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/internal/adapters/database"
)

// ErrNotLinked means no owner address is linked for the identity
var ErrNotLinked = errors.New("no owner address linked")

// Repository maps external identities (Telegram users) to the owner
// addresses the registry authorizes against
type Repository struct {
	db *database.DB
}

// NewRepository creates an owners repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Link binds a Telegram user to an owner address, replacing any
// previous binding for that user
func (r *Repository) Link(ctx context.Context, telegramID int64, address common.Address) error {
	query := `
		INSERT INTO owners (telegram_id, address)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET address = EXCLUDED.address, updated_at = now()
	`

	if _, err := r.db.DB().ExecContext(ctx, query, telegramID, address.Bytes()); err != nil {
		return fmt.Errorf("failed to link owner: %w", err)
	}
	return nil
}

// GetAddressByTelegramID resolves the owner address for a Telegram user
func (r *Repository) GetAddressByTelegramID(ctx context.Context, telegramID int64) (common.Address, error) {
	var raw []byte
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT address FROM owners WHERE telegram_id = $1`, telegramID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return common.Address{}, ErrNotLinked
	}
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get owner address: %w", err)
	}
	return common.BytesToAddress(raw), nil
}

// GetTelegramIDByOwner resolves the Telegram user for an owner address,
// used to route notifications
func (r *Repository) GetTelegramIDByOwner(ctx context.Context, address common.Address) (int64, error) {
	var id int64
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT telegram_id FROM owners WHERE address = $1`, address.Bytes()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotLinked
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get telegram id: %w", err)
	}
	return id, nil
}
