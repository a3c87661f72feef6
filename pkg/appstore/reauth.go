package appstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/Checker-Finance/appstore/internal/metrics"
	"github.com/Checker-Finance/appstore/pkg/utils"
)

// Op is a token-scoped operation.
type Op[P any] func(ctx context.Context, params P) (Response, error)

// WithReauth wraps op so that a rejected first attempt triggers exactly one
// Authenticate call and exactly one retry with the fresh token.
//
//   - success on the first attempt returns the response unmodified
//   - transport failures are returned immediately, without authenticating
//   - a failed re-authentication returns *ReauthError
//   - the retry's failure, of any kind, is returned as is
//   - a successful retry returns the response plus an "authorization" field
func WithReauth[P TokenParams[P]](c *Client, op Op[P]) Op[P] {
	return func(ctx context.Context, params P) (Response, error) {
		resp, err := op(ctx, params)
		if err == nil {
			return resp, nil
		}
		if !IsRemoteRejection(err) {
			return nil, err
		}

		c.logger.Info("appstore.reauth_started",
			zap.String("app", c.cfg.AppSlug),
			zap.String("token", utils.MaskToken(params.BearerToken())),
			zap.Error(err))

		auth, authErr := c.Authenticate(ctx)
		if authErr != nil {
			metrics.IncReauth("auth_failed")
			c.logger.Warn("appstore.reauth_failed",
				zap.String("app", c.cfg.AppSlug),
				zap.Error(authErr))
			return nil, &ReauthError{Original: err, Err: authErr}
		}

		resp, err = op(ctx, params.WithToken(auth.Token))
		if err != nil {
			metrics.IncReauth("retry_failed")
			c.logger.Warn("appstore.retry_failed",
				zap.String("app", c.cfg.AppSlug),
				zap.Error(err))
			return nil, err
		}

		metrics.IncReauth("recovered")
		return resp.withAuthorization(auth), nil
	}
}

// withAuthorization returns a copy of r carrying auth under AuthorizationField.
func (r Response) withAuthorization(auth Authorization) Response {
	out := make(Response, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[AuthorizationField] = map[string]any{
		"token": auth.Token,
		"user":  auth.User,
	}
	return out
}

// Authorization returns the refreshed credentials merged into a retried response.
func (r Response) Authorization() (Authorization, bool) {
	m, ok := r[AuthorizationField].(map[string]any)
	if !ok {
		return Authorization{}, false
	}
	token, _ := m["token"].(string)
	if token == "" {
		return Authorization{}, false
	}
	return Authorization{Token: token, User: m["user"]}, true
}
