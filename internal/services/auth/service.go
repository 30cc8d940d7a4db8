package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

const (
	MinRefreshTTL = 30 * 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	defaultMagicLinkTTL = 30 * time.Minute
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type MagicLinkStore interface {
	Store(ctx context.Context, token string, userID int64, ttl time.Duration) error
	Consume(ctx context.Context, token string) (int64, error)
}

type UserStore interface {
	GetOrCreateByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// LinkSender delivers the magic link to the user. Email transport is an
// external collaborator; the service only hands it the login URL.
type LinkSender interface {
	SendMagicLink(ctx context.Context, email, loginURL string) error
}

type Config struct {
	RefreshTTL   time.Duration
	MagicLinkTTL time.Duration
	FrontendURL  string
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	magicLinks MagicLinkStore
	users      UserStore
	sender     LinkSender
	cfg        Config
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, sessions SessionStore, magicLinks MagicLinkStore, users UserStore, sender LinkSender, cfg Config) *Service {
	if cfg.RefreshTTL < MinRefreshTTL {
		cfg.RefreshTTL = MinRefreshTTL
	}
	if cfg.RefreshTTL > MaxRefreshTTL {
		cfg.RefreshTTL = MaxRefreshTTL
	}
	if cfg.MagicLinkTTL <= 0 {
		cfg.MagicLinkTTL = defaultMagicLinkTTL
	}

	return &Service{
		jwt:        jwtManager,
		sessions:   sessions,
		magicLinks: magicLinks,
		users:      users,
		sender:     sender,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RequestLink creates the user on first contact, stores a single-use token
// and hands the login URL to the sender. The token is never returned to the
// HTTP caller.
func (s *Service) RequestLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidInput
	}
	if s.users == nil || s.magicLinks == nil {
		return fmt.Errorf("auth dependencies are not configured")
	}

	user, err := s.users.GetOrCreateByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}

	token, err := NewMagicLinkToken()
	if err != nil {
		return fmt.Errorf("generate magic link token: %w", err)
	}

	if err := s.magicLinks.Store(ctx, token, user.ID, s.cfg.MagicLinkTTL); err != nil {
		return fmt.Errorf("store magic link token: %w", err)
	}

	loginURL := strings.TrimRight(s.cfg.FrontendURL, "/") + "/auth/verify?token=" + token
	if s.sender != nil {
		if err := s.sender.SendMagicLink(ctx, email, loginURL); err != nil {
			return fmt.Errorf("send magic link: %w", err)
		}
	}

	return nil
}

// VerifyLink consumes the single-use token and issues a session.
func (s *Service) VerifyLink(ctx context.Context, token string) (AuthResult, error) {
	if strings.TrimSpace(token) == "" {
		return AuthResult{}, ErrInvalidInput
	}
	if s.magicLinks == nil || s.users == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	userID, err := s.magicLinks.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrMagicLinkNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("consume magic link: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("load user for magic link: %w", err)
	}
	if !user.IsActive {
		return AuthResult{}, ErrUnauthorized
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return AuthResult{}, fmt.Errorf("stamp last login: %w", err)
	}

	return s.issueForUser(ctx, user.ID, user.Role)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.cfg.RefreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID, session.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		UserID:        session.UserID,
		Role:          session.Role,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID || session.Role != claims.Role {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(ctx context.Context, userID int64, role string) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionExpiresAt := s.now().Add(s.cfg.RefreshTTL)
	session := SessionRecord{
		SID:       sessionID,
		UserID:    userID,
		Role:      role,
		ExpiresAt: sessionExpiresAt,
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID, sessionID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		UserID:        userID,
		Role:          role,
	}, nil
}
