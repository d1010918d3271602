package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountType distinguishes plain OAuth 2 providers from OpenID Connect providers.
type AccountType string

const (
	// AccountTypeOAuth is used by providers that only speak OAuth 2 (GitHub).
	AccountTypeOAuth AccountType = "oauth"
	// AccountTypeOIDC is used by OpenID Connect providers (Google).
	AccountTypeOIDC AccountType = "oidc"
)

// Account links a provider identity to a User and keeps the provider tokens.
type Account struct {
	ID     string      `gorm:"primaryKey;size:36"`
	UserID string      `gorm:"size:36;not null;index"`
	User   *User       `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
	Type   AccountType `gorm:"type:varchar(20);not null"`
	// Provider and ProviderAccountID identify the account at the identity provider.
	Provider          string `gorm:"size:50;not null;uniqueIndex:idx_provider_account"`
	ProviderAccountID string `gorm:"size:255;not null;uniqueIndex:idx_provider_account"`
	RefreshToken      string `gorm:"type:text"`
	AccessToken       string `gorm:"type:text"`
	// ExpiresAt is the access token expiry in unix seconds, 0 when unknown.
	ExpiresAt    int64
	TokenType    string `gorm:"size:50"`
	Scope        string `gorm:"size:512"`
	IDToken      string `gorm:"type:text"`
	SessionState string `gorm:"size:255"`
}

func (a *Account) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	return nil
}
