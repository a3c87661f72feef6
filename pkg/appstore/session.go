package appstore

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Session is a Client that remembers the last token it obtained, for callers
// that do not want to carry tokens themselves. Tokens live in memory only.
//
// Params with an explicit token are sent as given; empty tokens are filled from
// the cache, logging in first if nothing is cached yet.
//
// Each cache write is atomic, but writes are not ordered: when two calls
// re-authenticate concurrently, the one finishing last wins even if its token
// was issued first. Both tokens are valid, so this only costs an extra retry.
type Session struct {
	client *Client

	mu   sync.RWMutex
	auth Authorization
}

// NewSession wraps c. The session starts without a token.
func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// Client returns the underlying stateless client.
func (s *Session) Client() *Client { return s.client }

// Login authenticates and replaces the cached authorization.
func (s *Session) Login(ctx context.Context) (Authorization, error) {
	auth, err := s.client.Authenticate(ctx)
	if err != nil {
		return Authorization{}, err
	}
	s.store(auth)
	return auth, nil
}

// Authorization returns the cached authorization, if any.
func (s *Session) Authorization() (Authorization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth, s.auth.Token != ""
}

// Token returns the cached token, or "" when none is cached.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth.Token
}

// Reset drops the cached authorization.
func (s *Session) Reset() {
	s.store(Authorization{})
}

func (s *Session) store(auth Authorization) {
	s.mu.Lock()
	s.auth = auth
	s.mu.Unlock()
}

// GetUserData is Client.GetUserData with the token taken from the session when empty.
func (s *Session) GetUserData(ctx context.Context, p GetParams) (Response, error) {
	return sessionCall[GetParams](ctx, s, p, s.client.GetUserData)
}

// SetUserData is Client.SetUserData with the token taken from the session when empty.
func (s *Session) SetUserData(ctx context.Context, p SetParams) (Response, error) {
	return sessionCall[SetParams](ctx, s, p, s.client.SetUserData)
}

// Submit is Client.Submit with the token taken from the session when empty.
func (s *Session) Submit(ctx context.Context, p SubmitParams) (Response, error) {
	return sessionCall[SubmitParams](ctx, s, p, s.client.Submit)
}

func sessionCall[P TokenParams[P]](ctx context.Context, s *Session, p P, op Op[P]) (Response, error) {
	if p.BearerToken() == "" {
		token := s.Token()
		if token == "" {
			auth, err := s.Login(ctx)
			if err != nil {
				return nil, err
			}
			token = auth.Token
		}
		p = p.WithToken(token)
	}

	resp, err := op(ctx, p)
	if err != nil {
		return nil, err
	}
	if auth, ok := resp.Authorization(); ok {
		s.store(auth)
		s.client.logger.Debug("appstore.session_token_refreshed",
			zap.String("app", s.client.cfg.AppSlug))
	}
	return resp, nil
}
