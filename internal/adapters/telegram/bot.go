package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/internal/owners"
	"github.com/selivandex/agent-registry/internal/registry"
	"github.com/selivandex/agent-registry/pkg/logger"
)

// Bot lets agent owners inspect and manage their agents from Telegram.
// Creation stays on the API/things that can sign; the bot covers the
// read side plus deactivation.
type Bot struct {
	api    *tgbotapi.BotAPI
	svc    *registry.Service
	owners *owners.Repository
}

// NewBot creates the owner command bot sharing the notifier's API
func NewBot(api *tgbotapi.BotAPI, svc *registry.Service, ownerRepo *owners.Repository) *Bot {
	return &Bot{
		api:    api,
		svc:    svc,
		owners: ownerRepo,
	}
}

// Start consumes updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	logger.Info("telegram bot started",
		zap.String("bot_username", b.api.Self.UserName),
	)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()

		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var reply string

	switch msg.Command() {
	case "start", "help":
		reply = "Commands:\n" +
			"/link <address> <signature> — link your owner address (run /link for the message to sign)\n" +
			"/agents — list your agents\n" +
			"/agent <id> — show agent details\n" +
			"/check <id> — check trigger condition\n" +
			"/deactivate <id> — permanently deactivate an agent"
	case "link":
		reply = b.handleLink(ctx, msg)
	case "agents":
		reply = b.handleAgents(ctx, msg)
	case "agent":
		reply = b.handleAgent(ctx, msg)
	case "check":
		reply = b.handleCheck(ctx, msg)
	case "deactivate":
		reply = b.handleDeactivate(ctx, msg)
	default:
		reply = "Unknown command, try /help"
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(out); err != nil {
		logger.Error("failed to send bot reply", zap.Error(err))
	}
}

// handleLink binds the Telegram account to an owner address. The
// caller must prove control of the address with a personal_sign
// signature over the per-account challenge; a bare self-claimed
// address would let anyone act as that owner.
func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) string {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 || !common.IsHexAddress(args[0]) {
		return "Usage: /link 0x<owner address> 0x<signature>\n" +
			"Sign this message with the owner key (personal_sign):\n" +
			"<code>" + LinkChallenge(msg.From.ID) + "</code>"
	}

	addr := common.HexToAddress(args[0])
	if err := verifyLinkSignature(msg.From.ID, addr, args[1]); err != nil {
		logger.Warn("rejected owner link attempt",
			zap.Int64("telegram_id", msg.From.ID),
			zap.String("address", addr.Hex()),
			zap.Error(err),
		)
		return "Signature does not prove control of that address"
	}

	if err := b.owners.Link(ctx, msg.From.ID, addr); err != nil {
		logger.Error("failed to link owner", zap.Error(err))
		return "Failed to link address, try again later"
	}
	return fmt.Sprintf("Linked to <code>%s</code>", addr.Hex())
}

func (b *Bot) handleAgents(ctx context.Context, msg *tgbotapi.Message) string {
	owner, err := b.owners.GetAddressByTelegramID(ctx, msg.From.ID)
	if err != nil {
		return "No owner address linked yet, use /link first"
	}

	ids, err := b.svc.ListAgentsByOwner(ctx, owner)
	if err != nil {
		logger.Error("failed to list agents", zap.Error(err))
		return "Failed to list agents"
	}
	if len(ids) == 0 {
		return "You have no agents registered"
	}

	var sb strings.Builder
	sb.WriteString("Your agents:\n")
	for _, id := range ids {
		sb.WriteString("• <code>" + id + "</code>\n")
	}
	return sb.String()
}

func (b *Bot) handleAgent(ctx context.Context, msg *tgbotapi.Message) string {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return "Usage: /agent <id>"
	}

	agent, err := b.svc.GetAgent(ctx, id)
	if err != nil {
		return "Agent not found"
	}

	status := "active"
	if !agent.IsActive {
		status = "deactivated"
	}

	direction := "≥"
	if !agent.Strategy.TriggerAbove {
		direction = "≤"
	}

	lastExecuted := "never"
	if !agent.LastExecuted.IsZero() {
		lastExecuted = agent.LastExecuted.Format("2006-01-02 15:04:05 UTC")
	}

	return fmt.Sprintf(
		"Agent <b>%s</b> (%s)\n"+
			"Trigger: price %s $%s\n"+
			"Swap: %s → %s\n"+
			"Cooldown: %s\n"+
			"Last executed: %s",
		agent.ID, status,
		direction, formatPrice(agent.Strategy.TriggerPrice),
		shortAddr(agent.Strategy.TokenIn), shortAddr(agent.Strategy.TokenOut),
		agent.Strategy.CooldownPeriod,
		lastExecuted,
	)
}

func (b *Bot) handleCheck(ctx context.Context, msg *tgbotapi.Message) string {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return "Usage: /check <id>"
	}

	status, err := b.svc.CheckTrigger(ctx, id)
	if err != nil {
		return fmt.Sprintf("Check failed: %v", err)
	}

	verdict := "❌ not met"
	if status.Met {
		verdict = "✅ met"
	}
	return fmt.Sprintf(
		"Trigger %s\nObserved: $%s\nThreshold: $%s",
		verdict,
		formatPrice(status.ObservedPrice),
		formatPrice(status.TriggerPrice),
	)
}

func (b *Bot) handleDeactivate(ctx context.Context, msg *tgbotapi.Message) string {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return "Usage: /deactivate <id>"
	}

	owner, err := b.owners.GetAddressByTelegramID(ctx, msg.From.ID)
	if err != nil {
		return "No owner address linked yet, use /link first"
	}

	if err := b.svc.DeactivateAgent(ctx, owner, id); err != nil {
		return fmt.Sprintf("Deactivation failed: %v", err)
	}
	return fmt.Sprintf("Agent <b>%s</b> deactivated. This cannot be undone.", id)
}
