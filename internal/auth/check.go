package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	// CheckMaxAge is the lifetime of the oauth check cookie.
	CheckMaxAge = 15 * time.Minute

	checkKeyInfo = "authgate oauth check"
	checkIssuer  = "authgate"
)

// checkClaims is the payload of the oauth check cookie. It binds the callback
// to the browser that started the sign-in.
type checkClaims struct {
	Provider    string `json:"provider"`
	State       string `json:"state"`
	Verifier    string `json:"verifier"`
	CallbackURL string `json:"callbackUrl"`
	jwt.RegisteredClaims
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}

func (a *Auth) signCheck(claims checkClaims) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(CheckMaxAge)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    checkIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.checkKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expires, nil
}

// verifyCheck parses the check cookie and matches it against the callback.
func (a *Auth) verifyCheck(value, providerID, state string) (*checkClaims, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: missing", ErrInvalidCheck)
	}

	claims := &checkClaims{}

	_, err := jwt.ParseWithClaims(value, claims,
		func(*jwt.Token) (any, error) { return a.checkKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(checkIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheck, err)
	}

	if claims.Provider != providerID {
		return nil, fmt.Errorf("%w: issued for provider %s", ErrInvalidCheck, claims.Provider)
	}

	if subtle.ConstantTimeCompare([]byte(claims.State), []byte(state)) != 1 {
		return nil, ErrStateMismatch
	}

	return claims, nil
}
