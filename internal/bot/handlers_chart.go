package bot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

// chartSessionLimit is how many recent closed sessions the payment chart covers.
const chartSessionLimit = 30

// handleChart handles the /grafico command.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, chartFailedMessage)
		return
	}
	if !user.HasBusiness() {
		b.reply(ctx, tg, chatID, noBusinessMessage)
		return
	}

	sessions, err := b.recentSessions(ctx, user.BusinessID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch sessions for chart")
		b.replyAPIError(ctx, tg, chatID, err, chartFailedMessage)
		return
	}

	closed := make([]appmodels.CashSession, 0, chartSessionLimit)
	for _, s := range sessions {
		if len(closed) == chartSessionLimit {
			break
		}
		if !s.IsOpen() {
			closed = append(closed, s)
		}
	}

	totals := aggregatePaymentMethods(closed)
	if len(totals) == 0 {
		b.reply(ctx, tg, chatID, chartEmptyMessage)
		return
	}

	business := businessLabel(user)
	chartData, err := GeneratePaymentChart(totals, business)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		b.reply(ctx, tg, chatID, chartFailedMessage)
		return
	}

	caption := fmt.Sprintf(chartCaptionMessage,
		escapeHTML(business), len(closed), FormatGuarani(sumPayments(totals)))

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: chartFilename(b.now()), Data: bytes.NewReader(chartData)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart document")
		b.reply(ctx, tg, chatID, chartSendFailed)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(from.ID)).
		Int("session_count", len(closed)).
		Msg("Chart generated successfully")
}
