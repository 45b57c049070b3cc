package telegram

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/internal/adapters/config"
	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// OwnerResolver maps owner addresses to Telegram chat ids
type OwnerResolver interface {
	GetTelegramIDByOwner(ctx context.Context, address common.Address) (int64, error)
}

// Notifier sends registry notifications to agent owners via Telegram
type Notifier struct {
	api    *tgbotapi.BotAPI
	owners OwnerResolver
	cfg    *config.TelegramConfig
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig, owners OwnerResolver) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{
		api:    bot,
		owners: owners,
		cfg:    cfg,
	}, nil
}

// API exposes the underlying bot API so the command bot can share it
func (n *Notifier) API() *tgbotapi.BotAPI {
	return n.api
}

// Name implements the event sink interface
func (n *Notifier) Name() string {
	return "telegram"
}

// Publish routes domain events to the owning user's chat
func (n *Notifier) Publish(ctx context.Context, event *models.Event) error {
	var text string

	switch event.Type {
	case models.EventTriggerExecuted:
		if !n.cfg.AlertOnExecutions || event.Execution == nil {
			return nil
		}
		text = executionMessage(event.Execution)
	case models.EventAgentCreated:
		if !n.cfg.AlertOnLifecycle {
			return nil
		}
		text = fmt.Sprintf("🤖 Agent <b>%s</b> created and active", event.AgentID)
	case models.EventAgentDeactivated:
		if !n.cfg.AlertOnLifecycle {
			return nil
		}
		text = fmt.Sprintf("🛑 Agent <b>%s</b> deactivated", event.AgentID)
	case models.EventStrategyUpdated:
		if !n.cfg.AlertOnLifecycle {
			return nil
		}
		text = fmt.Sprintf("✏️ Agent <b>%s</b> strategy updated", event.AgentID)
	default:
		return nil
	}

	chatID, err := n.owners.GetTelegramIDByOwner(ctx, event.Owner)
	if err != nil {
		// Owner without a linked chat is normal, not a delivery failure
		logger.Debug("no telegram chat for owner",
			zap.String("owner", event.Owner.Hex()),
		)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// executionMessage renders a trigger execution alert
func executionMessage(rec *models.ExecutionRecord) string {
	direction := "≥"
	if !rec.TriggerAbove {
		direction = "≤"
	}

	return fmt.Sprintf(
		"⚡ Agent <b>%s</b> triggered\n"+
			"Price: <b>$%s</b> %s $%s\n"+
			"Swap: %s → %s",
		rec.AgentID,
		formatPrice(rec.ObservedPrice),
		direction,
		formatPrice(rec.TriggerPrice),
		shortAddr(rec.TokenIn),
		shortAddr(rec.TokenOut),
	)
}

// formatPrice renders a 1e8 fixed-point price as a decimal string
func formatPrice(p *models.BigInt) string {
	if p == nil {
		return "?"
	}
	return decimal.NewFromBigInt(&p.Int, -models.PriceScaleDecimals).String()
}

func shortAddr(a common.Address) string {
	hex := a.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}
