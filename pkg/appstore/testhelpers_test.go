package appstore

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBaseURL = "https://appstore.test/api/"

// step is one scripted transport outcome: either a status/body pair or a network error.
type step struct {
	status int
	body   string
	err    error
}

func ok(body string) step    { return step{status: http.StatusOK, body: body} }
func status(code int) step   { return step{status: code, body: `{}`} }
func netErr(msg string) step { return step{err: errors.New(msg)} }

// recordedCall captures the endpoint and decoded JSON body of a request.
type recordedCall struct {
	endpoint string
	body     map[string]any
}

// scriptedTransport is an http.RoundTripper replaying steps in order.
type scriptedTransport struct {
	t     *testing.T
	mu    sync.Mutex
	steps []step
	calls []recordedCall
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	var body map[string]any
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recordedCall{
		endpoint: strings.TrimPrefix(req.URL.Path, "/api/"),
		body:     body,
	})
	if len(s.steps) == 0 {
		s.t.Errorf("unexpected request to %s", req.URL.Path)
		return nil, errors.New("no scripted response")
	}
	next := s.steps[0]
	s.steps = s.steps[1:]

	if next.err != nil {
		return nil, next.err
	}
	return &http.Response{
		StatusCode: next.status,
		Body:       io.NopCloser(strings.NewReader(next.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Request:    req,
	}, nil
}

func (s *scriptedTransport) endpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.endpoint)
	}
	return out
}

func (s *scriptedTransport) call(i int) recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

func testConfig() Config {
	return Config{
		APIKey:  "123xyz",
		AppSlug: "my-app",
		UserID:  "test-user-id",
		BaseURL: testBaseURL,
	}
}

// newScriptedClient builds a Client whose transport replays steps.
func newScriptedClient(t *testing.T, steps ...step) (*Client, *scriptedTransport) {
	t.Helper()
	tr := &scriptedTransport{t: t, steps: steps}
	c, err := NewClient(testConfig(),
		WithLogger(zap.NewNop()),
		WithHTTPClient(&http.Client{Transport: tr}))
	require.NoError(t, err)
	return c, tr
}
