package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a person that signed in through at least one identity provider.
// A user owns one or more linked Accounts and any number of Sessions.
type User struct {
	// ID is the persisted identifier copied onto session.user.id.
	ID string `gorm:"primaryKey;size:36"`
	// Name is the display name reported by the provider.
	Name string `gorm:"size:255"`
	// Email is unique when set. Providers may not disclose one.
	Email *string `gorm:"size:255;uniqueIndex"`
	// EmailVerified is the time the address was verified, nil for OAuth sign-ups.
	EmailVerified *time.Time
	// Image is the avatar URL.
	Image string `gorm:"size:2048"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// BeforeCreate assigns a random uuid when the caller left the ID empty.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	return nil
}

// EmailAddress returns the email or an empty string.
func (u *User) EmailAddress() string {
	if u == nil || u.Email == nil {
		return ""
	}

	return *u.Email
}
