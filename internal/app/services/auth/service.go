package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"staylane/internal/app/apperr"
	domainauth "staylane/internal/domain/auth"
	domainuser "staylane/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service registers users and manages bearer-token sessions.
type Service struct {
	Users      domainuser.Repository
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

type RegisterParams struct {
	Email      string
	Name       string
	Password   string
	WantToHost bool
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

type ResolveResult struct {
	User    *domainuser.User
	Session *domainauth.Session
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	const op = "auth.register"
	if err := s.ensureDependencies(); err != nil {
		return nil, apperr.Internal(op, err)
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, apperr.Validation(op, "email is required", domainuser.ErrEmailRequired)
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, apperr.Validation(op, "name is required", domainuser.ErrNameRequired)
	}
	if utf8.RuneCountInString(params.Password) < 8 {
		return nil, apperr.Validation(op, "password must be at least 8 characters", ErrPasswordTooShort)
	}
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(op, "email already used", domainuser.ErrEmailAlreadyUsed)
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return nil, apperr.Internal(op, err)
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	roles := []domainuser.Role{domainuser.RoleGuest}
	if params.WantToHost {
		roles = append(roles, domainuser.RoleHost)
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		Name:         params.Name,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, apperr.Validation(op, err.Error(), err)
	}
	if err := s.Users.Save(ctx, user); err != nil {
		if errors.Is(err, domainuser.ErrEmailAlreadyUsed) {
			return nil, apperr.Conflict(op, "email already used", err)
		}
		return nil, apperr.Internal(op, err)
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", user.ID, "roles", user.Roles)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	const op = "auth.login"
	if err := s.ensureDependencies(); err != nil {
		return nil, apperr.Internal(op, err)
	}
	invalid := apperr.New(apperr.KindUnauthorized, op, "invalid credentials", ErrInvalidCredentials)
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, invalid
	}
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperr.Internal(op, err)
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, invalid
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return apperr.Internal("auth.logout", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.Token(token)); err != nil {
		return apperr.Internal("auth.logout", err)
	}
	return nil
}

// ResolveToken maps a bearer token to its user. Expired sessions are removed.
func (s *Service) ResolveToken(ctx context.Context, token string) (*ResolveResult, error) {
	const op = "auth.resolve"
	if err := s.ensureDependencies(); err != nil {
		return nil, apperr.Internal(op, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.New(apperr.KindUnauthorized, op, "token is required", domainauth.ErrTokenRequired)
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil, apperr.New(apperr.KindUnauthorized, op, "session not found", err)
		}
		return nil, apperr.Internal(op, err)
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, apperr.New(apperr.KindUnauthorized, op, "session expired", domainauth.ErrSessionNotFound)
	}
	user, err := s.Users.ByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			_ = s.Sessions.Delete(ctx, session.Token)
			return nil, apperr.New(apperr.KindUnauthorized, op, "session not found", domainauth.ErrSessionNotFound)
		}
		return nil, apperr.Internal(op, err)
	}
	return &ResolveResult{User: user, Session: session}, nil
}

func (s *Service) issueSession(ctx context.Context, user *domainuser.User) (string, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return "", err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: user.ID,
		Roles:  append([]domainuser.Role(nil), user.Roles...),
		TTL:    s.sessionTTL(),
		Now:    s.now(),
	})
	if err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("auth: user repository required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
