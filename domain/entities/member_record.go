package entities

import (
	"errors"
	"time"
)

const (
	MinGameUsernameLength = 3
	MaxGameUsernameLength = 16
)

var (
	ErrUsernameTooShort    = errors.New("username must be at least 3 characters")
	ErrUsernameTooLong     = errors.New("username must be at most 16 characters")
	ErrUsernameInvalidChar = errors.New("username may only contain letters, numbers and underscores")
)

// MemberRecord links a Discord member to their game account in the identity store
type MemberRecord struct {
	RecordID     int64     `db:"id"`
	DiscordID    string    `db:"discord_id"`
	DiscordTag   string    `db:"discord_username"` // audit only
	GameUsername string    `db:"minecraft_username"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// HasGameUsername reports whether the record carries a usable game username
func (r *MemberRecord) HasGameUsername() bool {
	return r != nil && r.GameUsername != ""
}

// ValidateGameUsername checks a candidate game username against the account naming rules.
// Accepts 3-16 ASCII letters, digits or underscores.
func ValidateGameUsername(candidate string) error {
	if len(candidate) < MinGameUsernameLength {
		return ErrUsernameTooShort
	}
	if len(candidate) > MaxGameUsernameLength {
		return ErrUsernameTooLong
	}
	for i := 0; i < len(candidate); i++ {
		c := candidate[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return ErrUsernameInvalidChar
		}
	}
	return nil
}

// IsValidGameUsername is the boolean form of ValidateGameUsername
func IsValidGameUsername(candidate string) bool {
	return ValidateGameUsername(candidate) == nil
}
