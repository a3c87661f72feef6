package appstore

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = map[string]any{"first_name": "Test", "last_name": "User"}

const authBody = `{"token":"t2","user":{"first_name":"Test","last_name":"User"}}`

// ─── NewClient ────────────────────────────────────────────────────────────────

func TestNewClient_RejectsIncompleteConfig(t *testing.T) {
	cfg := testConfig()
	cfg.UserID = ""

	_, err := NewClient(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "missing user id")
}

func TestNewClient_DefaultsToProduction(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = ""

	c, err := NewClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://angel.co/appstore/api/", c.baseURL)
}

// ─── Authenticate ─────────────────────────────────────────────────────────────

func TestAuthenticate_ReturnsTokenAndUser(t *testing.T) {
	c, tr := newScriptedClient(t, ok(authBody))

	auth, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Authorization{Token: "t2", User: testUser}, auth)

	require.Equal(t, []string{"auth"}, tr.endpoints())
	assert.Equal(t, map[string]any{
		"api_key":  "123xyz",
		"app_slug": "my-app",
		"user_id":  "test-user-id",
	}, tr.call(0).body)
}

func TestAuthenticate_Rejected(t *testing.T) {
	c, _ := newScriptedClient(t, status(http.StatusUnauthorized))

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsRemoteRejection(err))
	assert.Contains(t, err.Error(), "bad response from server")
}

func TestAuthenticate_MissingToken(t *testing.T) {
	c, _ := newScriptedClient(t, ok(`{"user":{}}`))

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingToken))
}

// ─── Raw operations: body shapes ──────────────────────────────────────────────

func TestRaw_BodyShapes(t *testing.T) {
	c, tr := newScriptedClient(t, ok(`{}`), ok(`{}`), ok(`{}`), ok(`{}`))
	ctx := context.Background()

	_, err := c.Raw().GetUserData(ctx, GetParams{Key: "k", Token: "t"})
	require.NoError(t, err)
	_, err = c.Raw().SetUserData(ctx, SetParams{Key: "k", Token: "t", Value: "v"})
	require.NoError(t, err)
	_, err = c.Raw().Submit(ctx, SubmitParams{Token: "t"})
	require.NoError(t, err)
	_, err = c.Raw().Submit(ctx, SubmitParams{Token: "t", Results: map[string]int{"score": 3}})
	require.NoError(t, err)

	assert.Equal(t, []string{"get", "set", "submit", "submit"}, tr.endpoints())
	assert.Equal(t, map[string]any{"key": "k", "token": "t"}, tr.call(0).body)
	assert.Equal(t, map[string]any{"key": "k", "token": "t", "value": "v"}, tr.call(1).body)
	assert.Equal(t, map[string]any{"token": "t"}, tr.call(2).body, "results omitted when nil")
	assert.Equal(t, map[string]any{"token": "t", "results": map[string]any{"score": float64(3)}}, tr.call(3).body)
}

func TestRaw_RejectionIsNotRetried(t *testing.T) {
	c, tr := newScriptedClient(t, status(http.StatusUnauthorized))

	_, err := c.Raw().GetUserData(context.Background(), GetParams{Key: "k", Token: "bad"})
	require.Error(t, err)
	assert.True(t, IsRemoteRejection(err))
	assert.Equal(t, []string{"get"}, tr.endpoints())
}

func TestRaw_EmptyBodyYieldsEmptyResponse(t *testing.T) {
	c, _ := newScriptedClient(t, ok(``))

	resp, err := c.Raw().Submit(context.Background(), SubmitParams{Token: "t"})
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Empty(t, resp)
}

// ─── Happy path: no auth call, body passed through ────────────────────────────

func TestGetUserData_HappyPath(t *testing.T) {
	c, tr := newScriptedClient(t, ok(`{"key":"k","value":"v"}`))

	resp, err := c.GetUserData(context.Background(), GetParams{Key: "k", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, Response{"key": "k", "value": "v"}, resp)
	assert.Equal(t, []string{"get"}, tr.endpoints(), "no auth call on success")

	_, has := resp.Authorization()
	assert.False(t, has, "authorization is only added on the retried path")
}

func TestSetUserData_HappyPath(t *testing.T) {
	c, tr := newScriptedClient(t, ok(`{"key":"k","value":"v"}`))

	resp, err := c.SetUserData(context.Background(), SetParams{Key: "k", Token: "t", Value: "v"})
	require.NoError(t, err)
	assert.Equal(t, Response{"key": "k", "value": "v"}, resp)
	assert.Equal(t, []string{"set"}, tr.endpoints())
}

func TestSubmit_HappyPath(t *testing.T) {
	c, tr := newScriptedClient(t, ok(`{"value":"test-value"}`))

	resp, err := c.Submit(context.Background(), SubmitParams{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, Response{"value": "test-value"}, resp)
	assert.Equal(t, []string{"submit"}, tr.endpoints())
}

// ─── Opaque user profile and non-object bodies ────────────────────────────────

func TestAuthenticate_UserProfileIsOpaque(t *testing.T) {
	cases := map[string]struct {
		body string
		want any
	}{
		"string": {body: `{"token":"t2","user":"alice"}`, want: "alice"},
		"array":  {body: `{"token":"t2","user":[1,2]}`, want: []any{float64(1), float64(2)}},
		"number": {body: `{"token":"t2","user":42}`, want: float64(42)},
		"absent": {body: `{"token":"t2"}`, want: nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newScriptedClient(t, ok(tc.body))

			auth, err := c.Authenticate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "t2", auth.Token)
			assert.Equal(t, tc.want, auth.User)
		})
	}
}

func TestSubmit_NonObjectBody(t *testing.T) {
	c, tr := newScriptedClient(t, ok(`[1,2,3]`))

	resp, err := c.Submit(context.Background(), SubmitParams{Token: "t"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNonObjectBody)
	assert.False(t, IsRemoteRejection(err))
	assert.False(t, IsTransport(err))

	var be *BodyError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "submit", be.Endpoint)
	assert.JSONEq(t, `[1,2,3]`, string(be.Body), "the body is kept exactly as received")
	assert.Equal(t, []string{"submit"}, tr.endpoints(), "not retried")
}

func TestRaw_ScalarBody(t *testing.T) {
	c, _ := newScriptedClient(t, ok(` "accepted" `))

	_, err := c.Raw().Submit(context.Background(), SubmitParams{Token: "t"})
	assert.ErrorIs(t, err, ErrNonObjectBody)
}

func TestRaw_NullBodyYieldsEmptyResponse(t *testing.T) {
	c, _ := newScriptedClient(t, ok(`null`))

	resp, err := c.Raw().GetUserData(context.Background(), GetParams{Key: "k", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, Response{}, resp)
}
