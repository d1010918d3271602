package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a database backed sign-in session. The SessionToken is the value of the
// session cookie.
type Session struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SessionToken string    `gorm:"size:255;not null;uniqueIndex"`
	UserID       string    `gorm:"size:36;not null;index"`
	User         *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
	Expires      time.Time `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Session) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	return nil
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expires.After(now)
}
