package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
)

// Claims are carried by every issued bearer token.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenConfig controls bearer token signing.
type TokenConfig struct {
	Secret string
	Issuer string
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   TokenConfig
	logger   *zap.Logger
	now      func() time.Time
}

func New(users repository.UserRepository, sessions repository.SessionRepository, tokens TokenConfig, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSession logs userID in. A user seen for the first time is registered
// with their id as display name; the profile can be edited afterwards.
func (uc *UseCase) CreateSession(ctx context.Context, userID, userAgent string, ttl time.Duration) (*domain.IssuedSession, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.Invalid("user_id", "must not be empty")
	}
	if err := uc.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		uc.log(ctx).Error("failed to save session", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	issued, err := uc.issue(session)
	if err != nil {
		return nil, err
	}
	uc.log(ctx).Info("session created", zap.String("user_id", userID), zap.String("session_id", session.ID))
	return issued, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession pushes the session expiry forward and issues a fresh token.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.IssuedSession, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, ttl); err != nil {
		return nil, err
	}
	session.ExpiresAt = uc.now().UTC().Add(ttl)
	return uc.issue(session)
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	uc.log(ctx).Info("session revoked", zap.String("session_id", sessionID))
	return nil
}

// Authenticate verifies a bearer token and returns the caller and session ids.
// Tokens whose session was revoked or expired, or whose user was deleted, are
// rejected.
func (uc *UseCase) Authenticate(ctx context.Context, token string) (string, string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(uc.tokens.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", "", domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return "", "", domain.ErrUnauthorized
	}

	session, err := uc.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", "", domain.WrapError(domain.ErrCodeUnauthorized, "session revoked", err)
		}
		return "", "", err
	}
	if session.UserID != claims.Subject {
		return "", "", domain.ErrUnauthorized
	}
	if _, err := uc.users.GetByID(ctx, session.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", "", domain.WrapError(domain.ErrCodeUnauthorized, "user removed", err)
		}
		return "", "", err
	}
	return session.UserID, session.ID, nil
}

func (uc *UseCase) ensureUser(ctx context.Context, userID string) error {
	_, err := uc.users.GetByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	user := &domain.User{ID: userID, Name: userID, Status: "active"}
	if err := uc.users.Upsert(ctx, user); err != nil {
		uc.log(ctx).Error("failed to register user", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	uc.log(ctx).Info("user registered", zap.String("user_id", userID))
	return nil
}

func (uc *UseCase) issue(session *domain.Session) (*domain.IssuedSession, error) {
	claims := Claims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			Issuer:    uc.tokens.Issuer,
			IssuedAt:  jwt.NewNumericDate(uc.now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.tokens.Secret))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return &domain.IssuedSession{Session: *session, Token: signed}, nil
}

func (uc *UseCase) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, uc.logger)
}
