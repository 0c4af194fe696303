// Package session issues and verifies signed shopper session tokens.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "seatlease"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
)

// Identity is the caller decoded from a session token.
type Identity struct {
	SessionID  string
	UserID     string
	CustomerID string
	Staff      bool
}

// Owner returns the hold owner for this identity.
func (i Identity) Owner() domain.Owner {
	return domain.Owner{SessionID: i.SessionID, UserID: i.UserID, CustomerID: i.CustomerID}
}

type claims struct {
	UserID     string `json:"uid,omitempty"`
	CustomerID string `json:"cid,omitempty"`
	Staff      bool   `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(secret string, ttl time.Duration, clk clock.Clock) *Issuer {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: clk}
}

// Issue signs a token for id. An empty SessionID gets a fresh one.
func (i *Issuer) Issue(id Identity) (string, Identity, time.Time, error) {
	if id.SessionID == "" {
		id.SessionID = uuid.NewString()
	}
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:     id.UserID,
		CustomerID: id.CustomerID,
		Staff:      id.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", Identity{}, time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, id, expiresAt, nil
}

// Parse verifies raw and returns the identity it carries.
func (i *Issuer) Parse(raw string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrExpiredToken
	case err != nil:
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{SessionID: c.Subject, UserID: c.UserID, CustomerID: c.CustomerID, Staff: c.Staff}, nil
}
