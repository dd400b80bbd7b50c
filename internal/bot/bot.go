package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/xaenox/assistant-relay/internal/assistant"
	"github.com/xaenox/assistant-relay/internal/models"
	"github.com/xaenox/assistant-relay/internal/quota"
	"github.com/xaenox/assistant-relay/internal/storage"
	"go.uber.org/zap"
)

// The only failure texts a user can ever see.
const (
	replyQuotaExceeded = "Sorry, I've reached my daily message limit. Please try again tomorrow."
	replyRunFailed     = "Sorry, there was an issue processing your request. Please try again later."
	replyTimeout       = "Sorry, the request is taking too long. Please try again later."
	replyUnexpected    = "Sorry, I encountered an issue while processing your request."
	replyEmptyPrompt   = "Please send a question after the command, e.g. /chat What is the weather?"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	engine *assistant.Engine
	quota  *quota.Keeper
	store  storage.UsageStore
	logger *zap.Logger
}

func New(token string, engine *assistant.Engine, keeper *quota.Keeper, store storage.UsageStore, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:    api,
		engine: engine,
		quota:  keeper,
		store:  store,
		logger: logger,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	if message.From == nil || message.Text == "" {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if isGroup(message) {
		question, mentioned := questionFromMention(message.Text, b.api.Self.UserName)
		if !mentioned {
			b.logger.Info("Ignored group message without mention",
				zap.Int64("chat_id", message.Chat.ID))
			return
		}
		if question == "" {
			b.sendMessage(message.Chat.ID, "Hello! How can I assist you?")
			return
		}
		b.answer(ctx, message, question)
		return
	}

	b.answer(ctx, message, message.Text)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "chat":
		question := strings.TrimSpace(message.CommandArguments())
		if question == "" {
			b.sendMessage(message.Chat.ID, replyEmptyPrompt)
			return
		}
		b.answer(ctx, message, question)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := fmt.Sprintf(
		"Hello! I'm here to help. Ask me anything in a private chat, or mention me in a group using @%s.",
		b.api.Self.UserName)
	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	b.sendMessage(message.Chat.ID, "Just send me a question and I'll try to answer it. In groups, use /chat <question> or mention me.")
}

// answer runs the full pipeline for one question: quota check, assistant
// call, reply, then best-effort accounting. A failed persist never blocks
// delivering the answer.
func (b *Bot) answer(ctx context.Context, message *tgbotapi.Message, question string) {
	logger := b.logger.With(
		zap.String("request_id", uuid.New().String()),
		zap.Int64("chat_id", message.Chat.ID),
		zap.Int64("user_id", message.From.ID))

	allowed, count := b.quota.Allow()
	if !allowed {
		logger.Info("Daily quota exhausted", zap.Int("count", count))
		b.sendMessage(message.Chat.ID, replyQuotaExceeded)
		return
	}

	answer, err := b.engine.GetAnswer(ctx, message.Chat.ID, question)
	if err != nil {
		logger.Error("Failed to get answer", zap.Error(err))
		b.sendMessage(message.Chat.ID, replyForError(err))
		return
	}

	b.sendMessage(message.Chat.ID, answer)

	if err := b.quota.Record(); err != nil {
		logger.Error("Failed to record usage", zap.Error(err), zap.Int("count", count))
	}

	record := models.NewQARecord(message.From.ID, message.From.UserName, question, answer, time.Now())
	if err := b.store.AppendQA(record); err != nil {
		logger.Error("Failed to append QA record", zap.Error(err))
	}
}

func replyForError(err error) string {
	switch {
	case errors.Is(err, assistant.ErrRunFailed):
		return replyRunFailed
	case errors.Is(err, assistant.ErrRunTimeout):
		return replyTimeout
	default:
		return replyUnexpected
	}
}

func isGroup(message *tgbotapi.Message) bool {
	return message.Chat.IsGroup() || message.Chat.IsSuperGroup()
}

// questionFromMention reports whether the bot is mentioned and returns the
// message text with every mention removed.
func questionFromMention(text, botUsername string) (string, bool) {
	mention := "@" + botUsername
	if !strings.Contains(text, mention) {
		return "", false
	}
	return strings.TrimSpace(strings.ReplaceAll(text, mention, "")), true
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
