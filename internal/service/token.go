package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/util"
)

var (
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)

// Claims is shared by both token types; refresh tokens carry no email.
// The ua/fp hashes bind the token to the client context it was issued to.
type Claims struct {
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sid"`
	UAHash    string `json:"ua"`
	FPHash    string `json:"fp"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrTokenInvalid, c.Subject)
	}
	return id, nil
}

// TokenService signs and verifies the access/refresh pair with distinct
// secrets per type.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

func (ts *TokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

func (ts *TokenService) SignAccess(user models.User, sessionID string, b models.ClientBinding) (string, error) {
	return ts.sign(user.ID, user.Email, sessionID, b, ts.accessSecret, ts.accessTTL)
}

func (ts *TokenService) SignRefresh(userID int64, sessionID string, b models.ClientBinding) (string, error) {
	return ts.sign(userID, "", sessionID, b, ts.refreshSecret, ts.refreshTTL)
}

func (ts *TokenService) sign(userID int64, email, sessionID string, b models.ClientBinding, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:     email,
		SessionID: sessionID,
		UAHash:    b.UAHash,
		FPHash:    b.FPHash,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}
	return signedToken, nil
}

func (ts *TokenService) VerifyAccess(token string) (*Claims, error) {
	return ts.verify(token, ts.accessSecret)
}

func (ts *TokenService) VerifyRefresh(token string) (*Claims, error) {
	return ts.verify(token, ts.refreshSecret)
}

// verify reports signature/expiry failures; a binding mismatch is a separate
// condition decided by the caller against the current request.
func (ts *TokenService) verify(token string, secret []byte) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if parsedToken == nil || !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// DecodeUnverified recovers claims without checking the signature. Used only
// for best-effort revocation bookkeeping when a refresh token already failed
// verification; never authoritative.
func (ts *TokenService) DecodeUnverified(token string) (*Claims, error) {
	parsedToken, _, err := new(jwt.Parser).ParseUnverified(token, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	claims, ok := parsedToken.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
