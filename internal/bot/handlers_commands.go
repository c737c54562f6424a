package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
)

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, errorMessage)
		return
	}

	if !user.HasBusiness() && b.cfg.DefaultBusinessID != "" {
		name := ""
		business, err := b.api.GetBusiness(ctx, b.cfg.DefaultBusinessID)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to fetch default business")
		} else {
			name = business.Name
		}

		if err := b.users.SetBusiness(ctx, from.ID, b.cfg.DefaultBusinessID, name); err != nil {
			logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to bind default business")
		} else {
			user.BusinessID = b.cfg.DefaultBusinessID
			user.BusinessName = name
		}
	}

	businessLine := startNoBusinessLine
	if user.HasBusiness() {
		name := user.BusinessName
		if name == "" {
			name = user.BusinessID
		}
		businessLine = fmt.Sprintf(startBusinessLine, escapeHTML(name))
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf(startMessage, formatGreeting(from.FirstName), businessLine))
	logger.Log.Info().
		Str("user_hash", logger.HashUserID(from.ID)).
		Bool("has_business", user.HasBusiness()).
		Msg("User started the bot")
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, tg, update.Message.Chat.ID, helpMessage)
}

// handleMyBusiness handles the /mi_farmacia command.
func (b *Bot) handleMyBusiness(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleMyBusinessCore(ctx, tgBot, update)
}

// handleMyBusinessCore is the testable implementation of handleMyBusiness.
func (b *Bot) handleMyBusinessCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, errorMessage)
		return
	}
	if !user.HasBusiness() {
		b.reply(ctx, tg, chatID, noBusinessMessage)
		return
	}

	business, err := b.api.GetBusiness(ctx, user.BusinessID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to fetch business")
		if cashpilot.IsCode(err, cashpilot.CodeNotFound) {
			b.reply(ctx, tg, chatID, businessNotFoundMessage)
			return
		}
		b.reply(ctx, tg, chatID, businessFetchFailedMessage)
		return
	}

	if business.Name != user.BusinessName {
		if err := b.users.SetBusiness(ctx, from.ID, user.BusinessID, business.Name); err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to refresh business name")
		}
	}

	status := "Activa"
	if !business.IsActive {
		status = "Inactiva"
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf(businessInfoMessage,
		escapeHTML(business.Name),
		escapeHTML(orNA(business.Address)),
		escapeHTML(orNA(business.Phone)),
		status,
	))
}

// handleConfigureBusiness handles the /configurar_sucursal command.
func (b *Bot) handleConfigureBusiness(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleConfigureBusinessCore(ctx, tgBot, update)
}

// handleConfigureBusinessCore is the testable implementation of handleConfigureBusiness.
func (b *Bot) handleConfigureBusinessCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From

	args := commandFields(update.Message.Text, "/configurar_sucursal")
	if len(args) != 1 {
		b.reply(ctx, tg, chatID, configureUsageMessage)
		return
	}

	businessID, err := uuid.Parse(args[0])
	if err != nil {
		b.reply(ctx, tg, chatID, configureInvalidIDMessage)
		return
	}

	user, err := b.currentUser(ctx, from)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to load user")
		b.reply(ctx, tg, chatID, errorMessage)
		return
	}
	if user.HasOpenSession() && user.BusinessID != businessID.String() {
		b.reply(ctx, tg, chatID, configureOpenSessionMessage)
		return
	}

	// The active flag decides whether the branch is accepted, so skip the cache.
	if inv, ok := b.api.(businessInvalidator); ok {
		inv.Invalidate(businessID.String())
	}

	business, err := b.api.GetBusiness(ctx, businessID.String())
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to fetch business to configure")
		if cashpilot.IsCode(err, cashpilot.CodeNotFound) {
			b.reply(ctx, tg, chatID, businessNotFoundMessage)
			return
		}
		b.replyAPIError(ctx, tg, chatID, err, businessFetchFailedMessage)
		return
	}

	if !business.IsActive {
		b.reply(ctx, tg, chatID, fmt.Sprintf(businessInactiveMessage, escapeHTML(business.Name)))
		return
	}

	if err := b.users.SetBusiness(ctx, from.ID, businessID.String(), business.Name); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(from.ID)).Msg("Failed to store business")
		b.reply(ctx, tg, chatID, errorMessage)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(from.ID)).
		Str("business_id", businessID.String()).
		Msg("Business configured")
	b.reply(ctx, tg, chatID, fmt.Sprintf(businessConfiguredMessage, escapeHTML(business.Name)))
}

// businessInvalidator is implemented by API wrappers that cache businesses.
type businessInvalidator interface {
	Invalidate(businessID string)
}

var _ businessInvalidator = (*cashpilot.CachedClient)(nil)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
