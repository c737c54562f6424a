package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	"gitlab.com/yelinaung/cashpilot-bot/internal/metrics"
	appmodels "gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

// handleOpenSession handles the /abrir_caja command.
func (b *Bot) handleOpenSession(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleOpenSessionCore(ctx, tgBot, update)
}

// handleOpenSessionCore is the testable implementation of handleOpenSession.
// Usage: /abrir_caja <monto_inicial> [horario].
func (b *Bot) handleOpenSessionCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	args := commandFields(update.Message.Text, "/abrir_caja")
	if len(args) < 1 {
		b.reply(ctx, tg, chatID, openUsageMessage)
		return
	}

	initialCash, err := parseAmount(args[0])
	if err != nil {
		b.reply(ctx, tg, chatID, openInvalidAmountMessage)
		return
	}
	if !initialCash.IsPositive() {
		b.reply(ctx, tg, chatID, openNonPositiveMessage)
		return
	}

	shiftHours := ""
	if len(args) > 1 {
		shiftHours = strings.Join(args[1:], " ")
	}

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, openFailedMessage)
		return
	}
	if !user.HasBusiness() {
		b.reply(ctx, tg, chatID, openNeedsBusinessMessage)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(from.ID)).
		Str("initial_cash", initialCash.String()).
		Msg("Opening cash session")

	session, err := b.api.OpenCashSession(ctx, cashpilot.OpenSessionRequest{
		BusinessID:  user.BusinessID,
		CashierName: cashierName(from),
		InitialCash: initialCash,
		ShiftHours:  shiftHours,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to open cash session")
		if cashpilot.IsCode(err, cashpilot.CodeConflict) {
			if open := b.adoptOpenSession(ctx, user, from); open != nil {
				b.reply(ctx, tg, chatID, fmt.Sprintf(openConflictAdoptedMessage,
					escapeHTML(open.ID),
					FormatGuarani(open.InitialCash),
					open.OpenedAt.Clock(),
				))
				return
			}
			b.reply(ctx, tg, chatID, openConflictMessage)
			return
		}
		b.replyAPIError(ctx, tg, chatID, err, openFailedMessage)
		return
	}

	if err := b.users.SetOpenSession(ctx, from.ID, session.ID); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to store open session")
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf(sessionOpenedMessage,
		escapeHTML(session.ID),
		FormatGuarani(session.InitialCash),
		session.OpenedAt.Clock(),
	))
}

// adoptOpenSession links the branch's OPEN session to the user after the
// backend reports a conflict, so it can still be closed when local state was
// lost. A session opened under the user's cashier name wins; otherwise a lone
// OPEN session is taken. Returns nil when nothing was adopted.
func (b *Bot) adoptOpenSession(ctx context.Context, user *appmodels.User, from *models.User) *appmodels.CashSession {
	sessions, err := b.recentSessions(ctx, user.BusinessID)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to look up open session")
		return nil
	}

	var open []appmodels.CashSession
	for _, s := range sessions {
		if s.IsOpen() {
			open = append(open, s)
		}
	}

	var adopted *appmodels.CashSession
	name := cashierName(from)
	for i := range open {
		if open[i].CashierName == name {
			adopted = &open[i]
			break
		}
	}
	if adopted == nil && len(open) == 1 {
		adopted = &open[0]
	}
	if adopted == nil {
		return nil
	}

	if err := b.users.SetOpenSession(ctx, from.ID, adopted.ID); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to store adopted session")
		return nil
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(from.ID)).Msg("Adopted open cash session after conflict")
	return adopted
}

// handleCloseSession handles the /cerrar_caja command.
func (b *Bot) handleCloseSession(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCloseSessionCore(ctx, tgBot, update)
}

// handleCloseSessionCore is the testable implementation of handleCloseSession.
// Usage: /cerrar_caja <final> <sobre> [credito] [debito] [transferencias].
func (b *Bot) handleCloseSessionCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	args := commandFields(update.Message.Text, "/cerrar_caja")
	if len(args) < 2 || len(args) > 5 {
		b.reply(ctx, tg, chatID, closeUsageMessage)
		return
	}

	amounts := make([]decimal.Decimal, 5)
	for i, arg := range args {
		amount, err := parseAmount(arg)
		if err != nil {
			b.reply(ctx, tg, chatID, closeInvalidAmountMessage)
			return
		}
		amounts[i] = amount
	}

	if !amounts[0].IsPositive() {
		b.reply(ctx, tg, chatID, closeOutOfRangeMessage)
		return
	}
	for _, amount := range amounts[1:] {
		if amount.IsNegative() {
			b.reply(ctx, tg, chatID, closeOutOfRangeMessage)
			return
		}
	}

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, closeFailedMessage)
		return
	}
	if !user.HasOpenSession() {
		b.reply(ctx, tg, chatID, closeNoSessionMessage)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(from.ID)).
		Str("session_id", user.OpenSessionID).
		Msg("Closing cash session")

	session, err := b.api.CloseCashSession(ctx, user.OpenSessionID, cashpilot.CloseSessionRequest{
		FinalCash:         amounts[0],
		EnvelopeAmount:    amounts[1],
		CreditCardTotal:   amounts[2],
		DebitCardTotal:    amounts[3],
		BankTransferTotal: amounts[4],
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to close cash session")
		switch {
		case cashpilot.IsCode(err, cashpilot.CodeNotFound):
			b.clearOpenSession(ctx, from.ID)
			b.reply(ctx, tg, chatID, sessionNotFoundMessage)
		case cashpilot.IsCode(err, cashpilot.CodeInvalidState):
			b.clearOpenSession(ctx, from.ID)
			b.reply(ctx, tg, chatID, sessionInvalidMessage)
		default:
			b.replyAPIError(ctx, tg, chatID, err, closeFailedMessage)
		}
		return
	}

	difference := session.DifferenceOrZero()
	outcome := appmodels.ClassifyDifference(difference)
	metrics.IncReconciliation(outcome.String())
	emoji, label := outcomeLabel(outcome)

	b.reply(ctx, tg, chatID, fmt.Sprintf(sessionClosedMessage,
		emoji, label, FormatGuarani(difference.Abs()),
		FormatGuarani(session.FinalCashOrZero()),
		FormatGuarani(session.TotalSales),
		session.ClosedAt.Clock(),
	))

	b.clearOpenSession(ctx, from.ID)

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(from.ID)).
		Str("outcome", outcome.String()).
		Msg("Cash session closed")
}

// handleStatus handles the /estado command.
func (b *Bot) handleStatus(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStatusCore(ctx, tgBot, update)
}

// handleStatusCore is the testable implementation of handleStatus.
func (b *Bot) handleStatusCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, statusFailedMessage)
		return
	}
	if !user.HasOpenSession() {
		b.reply(ctx, tg, chatID, statusNoSessionMessage)
		return
	}

	session, err := b.api.GetSession(ctx, user.OpenSessionID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to get session status")
		if cashpilot.IsCode(err, cashpilot.CodeNotFound) {
			b.clearOpenSession(ctx, from.ID)
			b.reply(ctx, tg, chatID, sessionNotFoundMessage)
			return
		}
		b.replyAPIError(ctx, tg, chatID, err, statusFailedMessage)
		return
	}

	if session.IsOpen() {
		b.reply(ctx, tg, chatID, fmt.Sprintf(statusOpenMessage,
			escapeHTML(user.OpenSessionID),
			FormatGuarani(session.InitialCash),
			session.OpenedAt.Clock(),
		))
		return
	}

	b.clearOpenSession(ctx, from.ID)
	b.reply(ctx, tg, chatID, fmt.Sprintf(statusClosedMessage,
		escapeHTML(user.OpenSessionID),
		FormatGuarani(session.FinalCashOrZero()),
		session.ClosedAt.Clock(),
	))
}
