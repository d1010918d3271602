// Package adapter persists users, accounts and sessions for the auth package through gorm.
package adapter

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/db/models"
)

const (
	tokenQueryPattern   = "session_token = ?"
	accountQueryPattern = "provider = ? AND provider_account_id = ?"
	userIDQueryPattern  = "user_id = ?"
)

var (
	// ErrNotFound is returned when a mutation targets a row that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Gorm is the database adapter. Lookups of missing rows return nil without an error.
type Gorm struct {
	db *gorm.DB
}

// New returns an adapter over db.
func New(db *gorm.DB) (*Gorm, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Gorm{db: db}, nil
}

func (g *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	return g.db.WithContext(ctx).Create(user).Error
}

func (g *Gorm) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	return first(g.db.WithContext(ctx).Where("id = ?", id), &user)
}

func (g *Gorm) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, nil
	}

	var user models.User

	return first(g.db.WithContext(ctx).Where("email = ?", email), &user)
}

// GetUserByAccount returns the user owning the provider account.
func (g *Gorm) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error) {
	var account models.Account

	result := g.db.WithContext(ctx).
		Preload("User").
		Where(accountQueryPattern, provider, providerAccountID).
		First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, result.Error
	}

	return account.User, nil
}

// UpdateUser writes the profile columns of user.
func (g *Gorm) UpdateUser(ctx context.Context, user *models.User) error {
	result := g.db.WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Select("name", "email", "email_verified", "image").
		Updates(user)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteUser removes the user together with its sessions and accounts.
func (g *Gorm) DeleteUser(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(userIDQueryPattern, id).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		if err := tx.Where(userIDQueryPattern, id).Delete(&models.Account{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}

func (g *Gorm) LinkAccount(ctx context.Context, account *models.Account) error {
	return g.db.WithContext(ctx).Omit("User").Create(account).Error
}

func (g *Gorm) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	result := g.db.WithContext(ctx).
		Where(accountQueryPattern, provider, providerAccountID).
		Delete(&models.Account{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListAccounts returns the accounts linked to a user ordered by provider.
func (g *Gorm) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	var accounts []models.Account

	err := g.db.WithContext(ctx).
		Where(userIDQueryPattern, userID).
		Order("provider").
		Find(&accounts).Error

	return accounts, err
}

// CreateSession stores session. Expiry times are kept in UTC so that sqlite, which
// compares them as text, orders them correctly.
func (g *Gorm) CreateSession(ctx context.Context, session *models.Session) error {
	session.Expires = session.Expires.UTC()

	return g.db.WithContext(ctx).Omit("User").Create(session).Error
}

// GetSessionAndUser returns the session with its user preloaded. Expired sessions
// are returned as well, the caller decides what to do with them.
func (g *Gorm) GetSessionAndUser(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session

	s, err := first(g.db.WithContext(ctx).Preload("User").Where(tokenQueryPattern, token), &session)
	if err != nil || s == nil {
		return nil, err
	}

	if s.User == nil {
		// orphaned session, the foreign key should prevent this
		return nil, nil
	}

	return s, nil
}

// UpdateSession moves the expiry of the session and returns the updated row.
func (g *Gorm) UpdateSession(ctx context.Context, token string, expires time.Time) (*models.Session, error) {
	result := g.db.WithContext(ctx).
		Model(&models.Session{}).
		Where(tokenQueryPattern, token).
		Update("expires", expires.UTC())
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var session models.Session

	return first(g.db.WithContext(ctx).Where(tokenQueryPattern, token), &session)
}

// DeleteSession removes the session and returns the deleted row, nil when unknown.
func (g *Gorm) DeleteSession(ctx context.Context, token string) (*models.Session, error) {
	var deleted *models.Session

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session

		s, err := first(tx.Where(tokenQueryPattern, token), &session)
		if err != nil || s == nil {
			return err
		}

		if err = tx.Delete(s).Error; err != nil {
			return err
		}

		deleted = s

		return nil
	})

	return deleted, err
}

// DeleteExpiredSessions removes every session that expired at or before now.
func (g *Gorm) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := g.db.WithContext(ctx).Where("expires <= ?", now.UTC()).Delete(&models.Session{})

	return result.RowsAffected, result.Error
}

// first loads the first row of q into dst, mapping a missing row to nil.
func first[T any](q *gorm.DB, dst *T) (*T, error) {
	if err := q.First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return dst, nil
}
