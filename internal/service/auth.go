package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
	"github.com/asverdlov/edushop/internal/util"
)

// Error strings double as the client-facing messages, so they keep the
// exact wording the frontend matches on.
var (
	ErrNoAccessToken          = errors.New("No token")
	ErrAccessTokenInvalid     = errors.New("Invalid or expired access token")
	ErrMissingFingerprint     = errors.New("Missing device fingerprint")
	ErrTokenContextMismatch   = errors.New("Token context mismatch")
	ErrNoRefreshToken         = errors.New("No refresh token")
	ErrRefreshTokenInvalid    = errors.New("Expired/invalid refresh token")
	ErrRefreshContextMismatch = errors.New("Refresh context mismatch")
	ErrRefreshNotFound        = errors.New("Refresh not found")
	ErrInvalidCredentials     = errors.New("Invalid credentials")
	ErrEmailTaken             = errors.New("Email already registered")
	ErrPasswordTooShort       = errors.New("Password too short")
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

type AuthService struct {
	tokens   *TokenService
	sessions storage.SessionRepository
	users    storage.UserRepository
	log      *zap.SugaredLogger
}

func NewAuthService(tokens *TokenService, sessions storage.SessionRepository, users storage.UserRepository, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		log:      log,
	}
}

func (s *AuthService) Tokens() *TokenService { return s.tokens }

func (s *AuthService) Signup(ctx context.Context, email, password, fullname string, b models.ClientBinding) (*models.User, *models.TokenPair, error) {
	if len(password) < minPasswordLength {
		return nil, nil, ErrPasswordTooShort
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.CreateUser(ctx, email, string(hash), fullname, false)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.IssueTokens(ctx, *user, b)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, b models.ClientBinding) (*models.User, *models.TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, *user, b)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// IssueTokens mints an access/refresh pair sharing one session id and writes
// the session row keyed by the refresh token's hash. Device binding is
// mandatory: no fingerprint, no tokens.
func (s *AuthService) IssueTokens(ctx context.Context, user models.User, b models.ClientBinding) (*models.TokenPair, error) {
	if b.FPHash == "" {
		return nil, ErrMissingFingerprint
	}

	sessionID := uuid.NewString()

	access, err := s.tokens.SignAccess(user, sessionID, b)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.SignRefresh(user.ID, sessionID, b)
	if err != nil {
		return nil, err
	}

	err = s.sessions.CreateSession(ctx, models.RefreshSession{
		UserID:    user.ID,
		TokenHash: util.SHA256Hex(refresh),
		SessionID: sessionID,
		UAHash:    b.UAHash,
		FPHash:    b.FPHash,
	})
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sessionID,
	}, nil
}

// CheckAccessContext compares verified access-token claims against the
// current request. A mismatch on a correctly signed token is a stronger
// theft signal than a bad signature and is logged as such.
func (s *AuthService) CheckAccessContext(claims *Claims, sidCookie string, b models.ClientBinding) error {
	if sidCookie == "" || b.FPHash == "" {
		return ErrMissingFingerprint
	}
	if sidCookie != claims.SessionID || b.UAHash != claims.UAHash || b.FPHash != claims.FPHash {
		s.log.Warnw("access token context mismatch",
			"sub", claims.Subject, "sid_match", sidCookie == claims.SessionID,
			"ua_match", b.UAHash == claims.UAHash, "fp_match", b.FPHash == claims.FPHash)
		return ErrTokenContextMismatch
	}
	return nil
}

// Refresh exchanges a still-valid refresh token for a new access token. The
// refresh token itself is not rotated; the session row must still be active.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh, sidCookie string, b models.ClientBinding) (string, error) {
	claims, err := s.tokens.VerifyRefresh(rawRefresh)
	if err != nil {
		s.revokeUnverified(ctx, rawRefresh)
		return "", ErrRefreshTokenInvalid
	}

	if b.FPHash == "" {
		return "", ErrMissingFingerprint
	}
	if claims.SessionID != sidCookie || claims.UAHash != b.UAHash || claims.FPHash != b.FPHash {
		s.log.Warnw("refresh token context mismatch", "sub", claims.Subject)
		return "", ErrRefreshContextMismatch
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", ErrRefreshTokenInvalid
	}

	active, err := s.sessions.IsSessionActive(ctx, userID, util.SHA256Hex(rawRefresh), claims.SessionID)
	if err != nil {
		return "", err
	}
	if !active {
		return "", ErrRefreshNotFound
	}

	return s.tokens.SignAccess(models.User{ID: userID}, claims.SessionID, b)
}

// revokeUnverified marks any session row matching an invalid refresh token
// as revoked, using the unverified subject. Defense in depth against replay
// of expired or tampered tokens; errors are swallowed.
func (s *AuthService) revokeUnverified(ctx context.Context, rawRefresh string) {
	claims, err := s.tokens.DecodeUnverified(rawRefresh)
	if err != nil {
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		return
	}
	if _, err := s.sessions.RevokeSessions(ctx, userID, util.SHA256Hex(rawRefresh)); err != nil {
		s.log.Warnw("best-effort revocation failed", "error", err)
	}
}

// Logout revokes the presented refresh token's session row server-side.
// Best effort: a failure still clears the client's cookies, and other
// devices' sessions stay untouched.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) {
	if rawRefresh == "" {
		return
	}
	claims, err := s.tokens.DecodeUnverified(rawRefresh)
	if err != nil {
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		return
	}
	if _, err := s.sessions.RevokeSessions(ctx, userID, util.SHA256Hex(rawRefresh)); err != nil {
		s.log.Warnw("logout revocation failed", "error", err)
	}
}

func (s *AuthService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}
