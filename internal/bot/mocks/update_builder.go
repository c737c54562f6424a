package mocks

import (
	"github.com/go-telegram/bot/models"
)

// UpdateBuilder helps construct test Update objects.
type UpdateBuilder struct {
	update *models.Update
}

// NewUpdateBuilder creates a new UpdateBuilder.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{
		update: &models.Update{},
	}
}

// WithMessage sets a message on the update.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	b.update.Message = &models.Message{
		ID: 1,
		Chat: models.Chat{
			ID:   chatID,
			Type: "private",
		},
		From: &models.User{
			ID:        userID,
			FirstName: "Test",
			LastName:  "User",
			Username:  "testuser",
		},
		Text: text,
	}
	return b
}

// WithMessageID sets a custom message ID.
func (b *UpdateBuilder) WithMessageID(messageID int) *UpdateBuilder {
	if b.update.Message != nil {
		b.update.Message.ID = messageID
	}
	return b
}

// WithFrom sets custom user details on the message.
// A zero userID with empty names removes the sender.
func (b *UpdateBuilder) WithFrom(userID int64, username, firstName, lastName string) *UpdateBuilder {
	var user *models.User
	if userID != 0 || username != "" || firstName != "" || lastName != "" {
		user = &models.User{
			ID:        userID,
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		}
	}
	if b.update.Message != nil {
		b.update.Message.From = user
	}
	if b.update.EditedMessage != nil {
		b.update.EditedMessage.From = user
	}
	return b
}

// WithEditedMessage sets an edited message on the update.
func (b *UpdateBuilder) WithEditedMessage(chatID, userID int64, text string) *UpdateBuilder {
	b.update.EditedMessage = &models.Message{
		ID: 1,
		Chat: models.Chat{
			ID:   chatID,
			Type: "private",
		},
		From: &models.User{
			ID:        userID,
			FirstName: "Test",
			LastName:  "User",
			Username:  "testuser",
		},
		Text: text,
	}
	return b
}

// Build returns the constructed Update.
func (b *UpdateBuilder) Build() *models.Update {
	return b.update
}

// MessageUpdate creates a simple message update.
func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return NewUpdateBuilder().
		WithMessage(chatID, userID, text).
		Build()
}

// CommandUpdate creates a command message update.
func CommandUpdate(chatID, userID int64, command string) *models.Update {
	return MessageUpdate(chatID, userID, command)
}
