// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/cashpilot-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/config"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	"gitlab.com/yelinaung/cashpilot-bot/internal/ratelimit"
	"gitlab.com/yelinaung/cashpilot-bot/internal/repository"
)

const tracerName = "gitlab.com/yelinaung/cashpilot-bot/internal/bot"

// TelegramAPI is the send surface handlers reply through. It lives in mocks
// so the test double can implement it without an import cycle.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*bot.Bot)(nil)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot           *bot.Bot
	cfg           *config.Config
	users         repository.UserStore
	api           cashpilot.API
	limiter       ratelimit.Limiter
	messageSender TelegramAPI
	tracer        trace.Tracer
	now           func() time.Time
}

// New creates a new Bot instance. The limiter may be nil, which disables
// rate limiting.
func New(cfg *config.Config, users repository.UserStore, api cashpilot.API, limiter ratelimit.Limiter) (*Bot, error) {
	b := &Bot{
		cfg:     cfg,
		users:   users,
		api:     api,
		limiter: limiter,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}

	opts := []bot.Option{
		bot.WithMiddlewares(
			b.recoverMiddleware,
			b.tracingMiddleware,
			b.rateLimitMiddleware,
			b.whitelistMiddleware,
			b.profileMiddleware,
			b.metricsMiddleware,
		),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithErrorsHandler(func(err error) {
			logger.Log.Error().Err(err).Msg("Telegram polling error")
		}),
	}

	telegramBot, err := bot.New(cfg.TelegramToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start begins polling for updates and blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
	logger.Log.Info().Msg("Bot stopped polling")
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mi_farmacia", bot.MatchTypePrefix, b.handleMyBusiness)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/configurar_sucursal", bot.MatchTypePrefix, b.handleConfigureBusiness)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/abrir_caja", bot.MatchTypePrefix, b.handleOpenSession)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cerrar_caja", bot.MatchTypePrefix, b.handleCloseSession)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/estado", bot.MatchTypePrefix, b.handleStatus)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/historial", bot.MatchTypePrefix, b.handleHistory)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/grafico", bot.MatchTypePrefix, b.handleChart)
}

// defaultHandler handles unrecognized messages.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

// defaultHandlerCore is the testable implementation of defaultHandler.
func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	logger.Log.Debug().
		Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
		Str("text", logger.SanitizeText(update.Message.Text)).
		Msg("Default handler triggered")

	text := unknownTextMessage
	if commandName(update.Message.Text) != "" {
		text = unknownCommandMessage
	}
	b.reply(ctx, tg, update.Message.Chat.ID, text)
}
