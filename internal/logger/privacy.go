package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"
)

// MinHashSaltLength is the minimum accepted length of the log hash salt.
const MinHashSaltLength = 32

var hashSalt string

// SetHashSalt sets the salt used for hashing identifiers in logs.
func SetHashSalt(salt string) error {
	if salt == "" {
		return errors.New("hash salt must be set")
	}
	if len(salt) < MinHashSaltLength {
		return fmt.Errorf("hash salt must be at least %d characters", MinHashSaltLength)
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets the salt directly.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashUserID creates a privacy-preserving hash of a user ID.
func HashUserID(userID int64) string {
	return hashID(userID)
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hashID(chatID)
}

func hashID(id int64) string {
	data := fmt.Sprintf("%d:%s", id, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// First 8 hex chars are enough to correlate log lines.
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeText reduces user-provided text to a short prefix and its length
// in runes.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	n := utf8.RuneCountInString(text)
	if n <= 10 {
		return fmt.Sprintf("<%d chars>", n)
	}

	return fmt.Sprintf("%s...<%d chars>", string([]rune(text)[:3]), n)
}
