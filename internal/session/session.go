package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"pmdesk/internal/domain"
	"pmdesk/internal/logging"
	"pmdesk/internal/query"
	"pmdesk/pkg/jwt"
	"pmdesk/pkg/response"
)

// LoginRoute is where unauthenticated callers are sent.
const LoginRoute = "/login"

// UserResolver loads the signed-in user.
type UserResolver interface {
	FindOne(ctx context.Context, req domain.FindOneRequest) query.Result[domain.AppUser]
}

type Authenticator interface {
	Login(ctx context.Context, req domain.LoginRequest) (*response.Envelope[domain.LoginResult], error)
}

// TokenHolder is the transport side of the cookie, normally a
// *transport.Client.
type TokenHolder interface {
	Token() string
	SetToken(token string)
}

type Option func(*Session)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = logging.Component(l, "session") }
}

// WithTokenHolder keeps holder in step with the stored cookie.
func WithTokenHolder(h TokenHolder) Option {
	return func(s *Session) { s.tokens = h }
}

// Session is the identity resolved at startup. It is created once by Init
// and passed down to whoever needs it.
type Session struct {
	cookies CookieStore
	users   UserResolver
	tokens  TokenHolder
	log     *logrus.Entry

	mu     sync.RWMutex
	token  string
	userID string
	user   *domain.AppUser
}

// Init reads the cookie, decodes the user id from the token without
// verifying it and fetches that user. A missing or undecodable token
// leaves the session unauthenticated; only store failures are errors.
func Init(ctx context.Context, cookies CookieStore, users UserResolver, opts ...Option) (*Session, error) {
	s := &Session{
		cookies: cookies,
		users:   users,
		log:     logging.Component(nil, "session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := cookies.Token(ctx)
	if err != nil && !errors.Is(err, ErrNoToken) {
		return nil, err
	}
	if token == "" && s.tokens != nil {
		token = s.tokens.Token()
	}
	s.resolve(ctx, token)
	return s, nil
}

func (s *Session) resolve(ctx context.Context, token string) {
	if s.tokens != nil && token != "" {
		s.tokens.SetToken(token)
	}

	var (
		userID string
		user   *domain.AppUser
	)
	if token != "" {
		id, err := jwt.DecodeUnverified(token)
		if err != nil {
			s.log.WithError(err).Warn("failed to decode session token")
		} else {
			userID = id
		}
	}
	if userID != "" {
		res := s.users.FindOne(ctx, domain.ByID(userID))
		switch {
		case res.Err != nil:
			s.log.WithError(res.Err).WithField("user_id", userID).Warn("failed to load session user")
		case res.Data.ID != "":
			u := res.Data
			user = &u
		}
	}

	s.mu.Lock()
	s.token = token
	s.userID = userID
	s.user = user
	s.mu.Unlock()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *domain.AppUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login posts the credentials, stores the token the server hands back and
// resolves the user again. A rejected login returns the server envelope.
func (s *Session) Login(ctx context.Context, auth Authenticator, req domain.LoginRequest) (*response.Envelope[domain.LoginResult], error) {
	env, err := auth.Login(ctx, req)
	if err != nil {
		return env, err
	}
	if env == nil || !env.IsSuccess {
		return env, nil
	}

	var token string
	if env.Data != nil {
		token = env.Data.Token
	}
	if token == "" && s.tokens != nil {
		token = s.tokens.Token()
	}
	if token == "" {
		return env, fmt.Errorf("login succeeded without a token: %w", ErrNoToken)
	}

	if err := s.cookies.SetToken(ctx, token); err != nil {
		return env, err
	}
	s.resolve(ctx, token)
	s.log.WithField("user_id", s.UserID()).Info("logged in")
	return env, nil
}

// Logout drops the cookie and every cached query, then returns the route
// to send the caller to.
func (s *Session) Logout(ctx context.Context, cache *query.Cache) (string, error) {
	if err := s.cookies.Clear(ctx); err != nil {
		return "", err
	}
	if s.tokens != nil {
		s.tokens.SetToken("")
	}
	if cache != nil {
		cache.Clear()
	}

	s.mu.Lock()
	s.token = ""
	s.userID = ""
	s.user = nil
	s.mu.Unlock()
	return LoginRoute, nil
}

// Gate decides whether location may be shown. When it may not, redirect
// is the login route, keeping a status=logging marker.
func (s *Session) Gate(location string) (allowed bool, redirect string) {
	if s.IsAuthenticated() {
		return true, ""
	}
	if u, err := url.Parse(location); err == nil && u.Query().Get("status") == "logging" {
		return false, LoginRoute + "?status=logging"
	}
	return false, LoginRoute
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
