package bot

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

const (
	defaultHistoryLimit = 5
	maxHistoryLimit     = 20

	// recentSessionsPage is the page fetched before sorting locally. The
	// backend does not guarantee an order, so asking it for only n rows could
	// return the oldest ones.
	recentSessionsPage = 100
)

// handleHistory handles the /historial command.
func (b *Bot) handleHistory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHistoryCore(ctx, tgBot, update)
}

// handleHistoryCore is the testable implementation of handleHistory.
func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	limit, ok := parseHistoryLimit(commandFields(update.Message.Text, "/historial"))
	if !ok {
		b.reply(ctx, tg, chatID, historyUsageMessage)
		return
	}

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, historyFailedMessage)
		return
	}
	if !user.HasBusiness() {
		b.reply(ctx, tg, chatID, noBusinessMessage)
		return
	}

	sessions, err := b.recentSessions(ctx, user.BusinessID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to list sessions")
		b.replyAPIError(ctx, tg, chatID, err, historyFailedMessage)
		return
	}
	if len(sessions) == 0 {
		b.reply(ctx, tg, chatID, historyEmptyMessage)
		return
	}

	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	b.reply(ctx, tg, chatID, formatHistory(sessions, businessLabel(user)))
}

// parseHistoryLimit reads the optional count argument.
func parseHistoryLimit(args []string) (int, bool) {
	if len(args) == 0 {
		return defaultHistoryLimit, true
	}
	if len(args) > 1 {
		return 0, false
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, false
	}
	return min(n, maxHistoryLimit), true
}

// recentSessions returns a page of the branch's sessions, newest first.
func (b *Bot) recentSessions(ctx context.Context, businessID string) ([]appmodels.CashSession, error) {
	sessions, err := b.api.ListSessions(ctx, cashpilot.ListSessionsParams{
		BusinessID: businessID,
		Limit:      recentSessionsPage,
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

func sortNewestFirst(sessions []appmodels.CashSession) {
	slices.SortStableFunc(sessions, func(a, b appmodels.CashSession) int {
		return b.OpenedAt.Compare(a.OpenedAt.Time)
	})
}

func businessLabel(user *appmodels.User) string {
	if user.BusinessName != "" {
		return user.BusinessName
	}
	return user.BusinessID
}

func formatHistory(sessions []appmodels.CashSession, business string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, historyHeader, len(sessions), escapeHTML(business))

	for _, s := range sessions {
		sb.WriteString(formatHistoryLine(s))
		sb.WriteByte('\n')
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatHistoryLine(s appmodels.CashSession) string {
	if s.IsOpen() {
		return fmt.Sprintf("• <b>%s</b> %s 🟢 ABIERTA · inicial %s",
			s.OpenedAt.Date(), s.OpenedAt.Clock(), FormatGuarani(s.InitialCash))
	}

	difference := s.DifferenceOrZero()
	emoji, label := outcomeLabel(appmodels.ClassifyDifference(difference))
	line := fmt.Sprintf("• <b>%s</b> %s-%s %s CERRADA · %s",
		s.OpenedAt.Date(), s.OpenedAt.Clock(), s.ClosedAt.Clock(), emoji, label)
	if !difference.IsZero() {
		line += " " + FormatGuarani(difference.Abs())
	}
	return line
}
