package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newExec(client *http.Client) *Executor {
	return New(zap.NewNop(), client, "test")
}

// ─── Basic success ────────────────────────────────────────────────────────────

func TestPostJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "k", "value": "v"})
	}))
	defer srv.Close()

	var out map[string]any
	err := newExec(srv.Client()).PostJSON(context.Background(), "get", srv.URL, map[string]string{"key": "k"}, &out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key": "k", "value": "v"}, out)
}

// ─── Request body is the marshaled payload ───────────────────────────────────

func TestPostJSON_SendsBody(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		received = string(b)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	err := newExec(srv.Client()).PostJSON(context.Background(), "set", srv.URL,
		map[string]string{"key": "k", "token": "t", "value": "v"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"k","token":"t","value":"v"}`, received)
}

// ─── 3xx is still success ─────────────────────────────────────────────────────

func TestPostJSON_NotModifiedIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, newExec(srv.Client()).PostJSON(context.Background(), "get", srv.URL, nil, &out))
	assert.Nil(t, out)
}

// ─── 4xx/5xx: single attempt, StatusError ─────────────────────────────────────

func TestPostJSON_RejectionNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		var count atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			count.Add(1)
			w.WriteHeader(status)
			_, _ = w.Write([]byte("nope"))
		}))

		err := newExec(srv.Client()).PostJSON(context.Background(), "get", srv.URL, nil, nil)
		srv.Close()

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRemoteRejection), "status %d must be a rejection", status)
		assert.False(t, errors.Is(err, ErrTransport))

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, status, se.Status)
		assert.Equal(t, "nope", string(se.Body))
		assert.EqualValues(t, 1, count.Load(), "status %d must not be retried", status)
	}
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{Endpoint: "auth", Status: 401}
	assert.Equal(t, "auth: bad response from server (status 401)", err.Error())
}

// ─── Transport failures ───────────────────────────────────────────────────────

func TestPostJSON_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newExec(&http.Client{}).PostJSON(context.Background(), "set", url, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrRemoteRejection))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "set", te.Endpoint)
	assert.Equal(t, url, te.URL)
}

func TestPostJSON_CanceledContextIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newExec(srv.Client()).PostJSON(ctx, "get", srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.Canceled), "cause must stay reachable")
}

func TestPostJSON_ClientTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond

	err := newExec(client).PostJSON(context.Background(), "submit", srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

// ─── Decode failures are neither kind ────────────────────────────────────────

func TestPostJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	var out map[string]any
	err := newExec(srv.Client()).PostJSON(context.Background(), "get", srv.URL, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode failed")
	assert.False(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrRemoteRejection))
}

func TestPostJSON_MarshalError(t *testing.T) {
	err := newExec(&http.Client{}).PostJSON(context.Background(), "set", "http://example.invalid",
		map[string]any{"c": make(chan int)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode request")
}
