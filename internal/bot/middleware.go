package bot

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	"gitlab.com/yelinaung/cashpilot-bot/internal/metrics"
	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
	"gitlab.com/yelinaung/cashpilot-bot/internal/ratelimit"
)

// knownCommands bounds the label set of the command counter.
var knownCommands = map[string]bool{
	"/start":               true,
	"/help":                true,
	"/mi_farmacia":         true,
	"/configurar_sucursal": true,
	"/abrir_caja":          true,
	"/cerrar_caja":         true,
	"/estado":              true,
	"/historial":           true,
	"/grafico":             true,
}

// recoverMiddleware turns handler panics into the generic error reply.
func (b *Bot) recoverMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Log.Error().
				Interface("panic", r).
				Int64("update_id", update.ID).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from handler panic")
			if msg := updateMessage(update); msg != nil {
				b.reply(ctx, b.messageSender, msg.Chat.ID, errorMessage)
			}
		}()
		next(ctx, tgBot, update)
	}
}

// tracingMiddleware wraps each update in a span.
func (b *Bot) tracingMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		ctx, span := b.tracer.Start(ctx, "telegram.update",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.Int64("telegram.update_id", update.ID),
				attribute.String("telegram.command", commandLabel(update)),
			),
		)
		defer span.End()

		next(ctx, tgBot, update)
	}
}

// rateLimitMiddleware drops updates from users over their per-minute budget.
// Limiter failures let the update through.
func (b *Bot) rateLimitMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if b.limiter == nil || userID == 0 {
			next(ctx, tgBot, update)
			return
		}

		allowed, err := b.limiter.Allow(ctx, ratelimit.UserKey(userID))
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Rate limiter unavailable")
			next(ctx, tgBot, update)
			return
		}

		if !allowed {
			metrics.IncRateLimited()
			logger.Log.Warn().Str("user_hash", logger.HashUserID(userID)).Msg("Rate limited user")
			if msg := updateMessage(update); msg != nil {
				b.reply(ctx, b.messageSender, msg.Chat.ID, rateLimitedMessage)
			}
			return
		}

		next(ctx, tgBot, update)
	}
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		username := extractUsername(update)
		logUserAction(userID, update)

		if !b.cfg.IsUserWhitelisted(userID, username) {
			metrics.IncUnauthorized()
			logger.Log.Warn().
				Str("user_hash", logger.HashUserID(userID)).
				Msg("Blocked non-whitelisted user")
			if update.Message != nil {
				b.reply(ctx, b.messageSender, update.Message.Chat.ID, unauthorizedMessage)
			}
			return
		}

		next(ctx, tgBot, update)
	}
}

// profileMiddleware keeps the stored Telegram profile up to date.
func (b *Bot) profileMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if err := b.ensureUserRegistered(ctx, update); err != nil {
			logger.Log.Error().
				Str("user_hash", logger.HashUserID(extractUserID(update))).
				Err(err).
				Msg("Failed to register user")
		}
		next(ctx, tgBot, update)
	}
}

// metricsMiddleware counts handled updates by command.
func (b *Bot) metricsMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		metrics.IncCommand(commandLabel(update))
		next(ctx, tgBot, update)
	}
}

// ensureUserRegistered creates or updates the user's profile.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	msg := updateMessage(update)
	if msg == nil || msg.From == nil {
		return nil
	}
	return b.users.UpsertProfile(ctx, profileFrom(msg.From))
}

// logUserAction logs the kind of input received without its content.
func logUserAction(userID int64, update *tgmodels.Update) {
	msg := updateMessage(update)
	if msg == nil {
		return
	}

	event := logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Str("chat_hash", logger.HashChatID(msg.Chat.ID))
	if update.EditedMessage != nil {
		event = event.Bool("edited", true)
	}
	if cmd := commandName(msg.Text); cmd != "" {
		event = event.Str("command", cmd)
	}
	event.Msg("User input")
}

// updateMessage returns the message carried by the update, if any.
func updateMessage(update *tgmodels.Update) *tgmodels.Message {
	if update.Message != nil {
		return update.Message
	}
	return update.EditedMessage
}

// extractUserID gets the user ID from the update.
func extractUserID(update *tgmodels.Update) int64 {
	if msg := updateMessage(update); msg != nil && msg.From != nil {
		return msg.From.ID
	}
	return 0
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if msg := updateMessage(update); msg != nil && msg.From != nil {
		return msg.From.Username
	}
	return ""
}

func profileFrom(from *tgmodels.User) *models.User {
	return &models.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
}

// commandName returns the leading /command of text without any @botname
// suffix, or "" when text is not a command.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}

// commandLabel maps an update to a bounded metric label.
func commandLabel(update *tgmodels.Update) string {
	msg := updateMessage(update)
	if msg == nil {
		return ""
	}
	cmd := commandName(msg.Text)
	if cmd == "" || knownCommands[cmd] {
		return cmd
	}
	return "unknown"
}
