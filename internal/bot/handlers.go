package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/cashpilot-bot/internal/models"
	"gitlab.com/yelinaung/cashpilot-bot/internal/repository"
)

const defaultCashierName = "Unknown"

// extractCommandArgs extracts arguments from a command, handling @botname suffix.
// e.g., "/abrir_caja@mybot 500000" -> "500000".
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.IndexAny(args, " \n\t"); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// commandFields splits the arguments of a command into words.
func commandFields(text, command string) []string {
	return strings.Fields(extractCommandArgs(text, command))
}

// escapeHTML escapes HTML special characters for safe interpolation in Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// cashierName is the name recorded on sessions the user opens.
func cashierName(from *models.User) string {
	if from == nil || strings.TrimSpace(from.FirstName) == "" {
		return defaultCashierName
	}
	return strings.TrimSpace(from.FirstName)
}

// reply sends an HTML message and logs delivery failures.
func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// replyAPIError reports a CashPilot failure. API errors show their message;
// anything else gets the fallback text.
func (b *Bot) replyAPIError(ctx context.Context, tg TelegramAPI, chatID int64, err error, fallback string) {
	if apiErr, ok := cashpilot.AsAPIError(err); ok {
		b.reply(ctx, tg, chatID, formatAPIError(apiErr))
		return
	}
	b.reply(ctx, tg, chatID, fallback)
}

func formatAPIError(apiErr *cashpilot.APIError) string {
	return fmt.Sprintf(apiErrorMessage, escapeHTML(apiErr.Message))
}

// currentUser loads the sender's stored state, creating the profile when
// the update skipped the registration middleware.
func (b *Bot) currentUser(ctx context.Context, from *models.User) (*appmodels.User, error) {
	user, err := b.users.GetUser(ctx, from.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if err := b.users.UpsertProfile(ctx, profileFrom(from)); err != nil {
		return nil, err
	}
	return b.users.GetUser(ctx, from.ID)
}

// clearOpenSession forgets the user's tracked session, logging failures.
func (b *Bot) clearOpenSession(ctx context.Context, userID int64) {
	if err := b.users.ClearOpenSession(ctx, userID); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to clear open session")
	}
}

// outcomeLabel returns the emoji and Spanish label for a reconciliation outcome.
func outcomeLabel(outcome appmodels.Outcome) (string, string) {
	switch outcome {
	case appmodels.OutcomeShortage:
		return "⚠️", "Faltante"
	case appmodels.OutcomeOverage:
		return "📦", "Sobrante"
	default:
		return "✅", "Cuadre perfecto"
	}
}
