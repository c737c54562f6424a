package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
)

const (
	// ReminderJobName identifies the open session reminder in the scheduler.
	ReminderJobName = "open-session-reminder"
	// ReminderTimeout is the maximum time a single reminder run can take.
	ReminderTimeout = 2 * time.Minute
)

// StartReminders schedules the open session reminder on the configured cron
// and returns a function that stops the scheduler. It does nothing when
// reminders are disabled.
func (b *Bot) StartReminders(ctx context.Context) (func() error, error) {
	noop := func() error { return nil }
	if !b.cfg.ReminderEnabled {
		logger.Log.Info().Msg("Open session reminder is disabled")
		return noop, nil
	}

	loc, err := time.LoadLocation(b.cfg.ReminderTimezone)
	if err != nil {
		return noop, fmt.Errorf("failed to load reminder timezone %q: %w", b.cfg.ReminderTimezone, err)
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithLogger(logger.NewGocronLogger()),
	)
	if err != nil {
		return noop, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.CronJob(b.cfg.ReminderCron, false),
		gocron.NewTask(func() { b.sendOpenSessionReminders(ctx) }),
		gocron.WithName(ReminderJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return noop, fmt.Errorf("failed to schedule %s job: %w", ReminderJobName, err)
	}

	s.Start()
	logger.Log.Info().
		Str("cron", b.cfg.ReminderCron).
		Str("timezone", b.cfg.ReminderTimezone).
		Msg("Open session reminder scheduled")

	return func() error {
		if err := s.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown scheduler: %w", err)
		}
		return nil
	}, nil
}

// sendOpenSessionReminders messages every user whose tracked session is still
// open and drops tracked sessions the backend no longer reports as open.
// It returns how many reminders were sent.
func (b *Bot) sendOpenSessionReminders(ctx context.Context) int {
	runCtx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	users, err := b.users.ListWithOpenSession(runCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch users for open session reminder")
		return 0
	}

	sent := 0
	for _, user := range users {
		userHash := logger.HashUserID(user.ID)

		session, err := b.api.GetSession(runCtx, user.OpenSessionID)
		if err != nil {
			if cashpilot.IsCode(err, cashpilot.CodeNotFound) {
				b.clearOpenSession(runCtx, user.ID)
				continue
			}
			logger.Log.Warn().Err(err).Str("user_hash", userHash).Msg("Failed to check session for reminder")
			continue
		}

		if !session.IsOpen() {
			b.clearOpenSession(runCtx, user.ID)
			logger.Log.Debug().Str("user_hash", userHash).Msg("Cleared stale open session")
			continue
		}

		_, err = b.messageSender.SendMessage(runCtx, &tgbot.SendMessageParams{
			ChatID: user.ID,
			Text: fmt.Sprintf(reminderMessage,
				escapeHTML(user.OpenSessionID),
				FormatGuarani(session.InitialCash),
				session.OpenedAt.Clock(),
			),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", userHash).Msg("Failed to send open session reminder")
			continue
		}

		sent++
		logger.Log.Debug().Str("user_hash", userHash).Msg("Sent open session reminder")
	}

	logger.Log.Info().Int("users", len(users)).Int("sent", sent).Msg("Open session reminder run finished")
	return sent
}
