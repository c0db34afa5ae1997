package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func okTransport(status int, body string) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})
}

// logLines decodes zerolog JSON output into one map per line
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"none": LevelNone, "basic": LevelBasic, "VERBOSE": LevelVerbose, "": LevelBasic} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("loud")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.True(t, LevelNone < LevelBasic && LevelBasic < LevelVerbose)
	assert.Equal(t, "verbose", LevelVerbose.String())
}

func TestTransport_Events(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
		body   BodyEvent
		reqEv  RequestEvent
	)
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}

	tr := NewTransport(okTransport(http.StatusCreated, `{"id":7}`), LevelVerbose, 0, Hooks{
		OnRequest:      func(_ context.Context, e RequestEvent) { record("request"); reqEv = e },
		OnResponse:     func(_ context.Context, e ResponseEvent) { record(fmt.Sprintf("response %d", e.StatusCode)) },
		OnResponseBody: func(_ context.Context, e BodyEvent) { record("body"); body = e },
	})
	tr.NewID = func() string { return "req-1" }

	req, err := http.NewRequest(http.MethodPost, "https://api.example.org/repos", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, `{"id":7}`, string(data), "caller still sees the full body")
	assert.Equal(t, []string{"request", "response 201", "body"}, events)
	assert.Equal(t, "req-1", reqEv.ID)
	assert.Equal(t, `{"name":"x"}`, string(reqEv.Body))
	assert.Equal(t, `{"id":7}`, string(body.Body))

	// The request body on the wire was not consumed by the peek
	sent, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"x"}`, string(sent))
}

func TestTransport_BasicSkipsBodies(t *testing.T) {
	var gotBody bool
	var reqBody []byte
	tr := NewTransport(okTransport(http.StatusOK, `{}`), LevelBasic, 0, Hooks{
		OnRequest:      func(_ context.Context, e RequestEvent) { reqBody = e.Body },
		OnResponseBody: func(context.Context, BodyEvent) { gotBody = true },
	})

	req, _ := http.NewRequest(http.MethodPost, "https://api.example.org/", strings.NewReader(`{"a":1}`))
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Nil(t, reqBody)
	assert.False(t, gotBody)
}

func TestTransport_TruncatesBody(t *testing.T) {
	var body BodyEvent
	tr := NewTransport(okTransport(http.StatusOK, `0123456789`), LevelVerbose, 4, Hooks{
		OnResponseBody: func(_ context.Context, e BodyEvent) { body = e },
	})

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.org/", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, "0123456789", string(data))
	assert.Equal(t, "0123", string(body.Body))
	assert.True(t, body.Truncated)
}

func TestTransport_HookFailuresAreIgnored(t *testing.T) {
	tr := NewTransport(okTransport(http.StatusOK, `{"ok":true}`), LevelVerbose, 0, Hooks{
		OnRequest:      func(context.Context, RequestEvent) { panic("cannot stringify body") },
		OnResponse:     func(context.Context, ResponseEvent) { panic("logger closed") },
		OnResponseBody: func(context.Context, BodyEvent) { panic("logger closed") },
	})

	// A body without GetBody cannot be replayed for logging
	req, _ := http.NewRequest(http.MethodPost, "https://api.example.org/", nil)
	req.Body = io.NopCloser(strings.NewReader(`{"a":1}`))

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NoError(t, resp.Body.Close())
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestTransport_Error(t *testing.T) {
	boom := fmt.Errorf("connection refused")
	var got ErrorEvent
	tr := NewTransport(roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom }), LevelBasic, 0, Hooks{
		OnError: func(_ context.Context, e ErrorEvent) { got = e },
	})

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.org/", nil)
	_, err := tr.RoundTrip(req)

	assert.Same(t, boom, err, "transport errors pass through unchanged")
	assert.Same(t, boom, got.Err)
	assert.Equal(t, http.MethodGet, got.Method)
}

func TestLogHooks(t *testing.T) {
	run := func(level Level, redactor *Redactor) []map[string]any {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		tr := NewTransport(okTransport(http.StatusOK, `{"access_token":"s3cret","login":"jk"}`), level, 0, LogHooks(logger, level, redactor))

		req, _ := http.NewRequest(http.MethodPost, "https://api.example.org/login", strings.NewReader(`{"password":"hunter2","user":"jk"}`))
		resp, err := tr.RoundTrip(req)
		require.NoError(t, err)
		io.ReadAll(resp.Body)
		resp.Body.Close()
		return logLines(t, &buf)
	}

	t.Run("None", func(t *testing.T) {
		assert.Empty(t, run(LevelNone, nil))
	})

	t.Run("Basic", func(t *testing.T) {
		lines := run(LevelBasic, nil)
		require.Len(t, lines, 1)
		assert.Equal(t, "http response", lines[0]["message"])
		assert.Equal(t, float64(200), lines[0]["status"])
		assert.NotContains(t, lines[0], "url")
		assert.NotContains(t, lines[0], "body")
	})

	t.Run("VerboseRedacted", func(t *testing.T) {
		lines := run(LevelVerbose, NewRedactor([]string{"password", "access_token"}))
		require.Len(t, lines, 3)

		assert.Equal(t, "http request", lines[0]["message"])
		assert.Equal(t, "POST", lines[0]["method"])
		assert.Equal(t, "https://api.example.org/login", lines[0]["url"])
		assert.NotContains(t, lines[0]["body"], "hunter2")
		assert.Contains(t, lines[0]["body"], `"user":"jk"`)

		assert.Equal(t, "http response", lines[1]["message"])
		assert.Equal(t, "https://api.example.org/login", lines[1]["url"])

		assert.Equal(t, "http response body", lines[2]["message"])
		assert.NotContains(t, lines[2]["body"], "s3cret")
		assert.Contains(t, lines[2]["body"], Redacted)
	})

	t.Run("VerboseUnredacted", func(t *testing.T) {
		lines := run(LevelVerbose, nil)
		require.Len(t, lines, 3)
		assert.Contains(t, lines[2]["body"], "s3cret")
	})
}

func TestRedactor(t *testing.T) {
	r := NewRedactor([]string{"token", "Password"})

	assert.Equal(t, `{"nested":[{"PASSWORD":"[REDACTED]"}],"token":"[REDACTED]","user":"jk"}`,
		r.Redact([]byte(`{"token":"abc","user":"jk","nested":[{"PASSWORD":"x"}]}`)))

	// Truncated JSON falls back to pattern masking
	assert.Equal(t, `{"user":"jk","token":"[REDACTED]","more":`,
		r.Redact([]byte(`{"user":"jk","token":"abc","more":`)))
	assert.Equal(t, `{"token":"[REDACTED]"`, r.Redact([]byte(`{"token":"ab`)))

	assert.Equal(t, "plain text", r.Redact([]byte("plain text")))
	assert.Nil(t, NewRedactor(nil))

	var none *Redactor
	assert.Equal(t, `{"token":"abc"}`, none.Redact([]byte(`{"token":"abc"}`)))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics("test", reg)
	require.NoError(t, err)

	// Registering twice reuses the collectors
	again, err := NewMetrics("test", reg)
	require.NoError(t, err)

	ok := NewTransport(okTransport(http.StatusNotFound, `{}`), LevelNone, 0, m.Hooks())
	failing := NewTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("dial tcp: timeout")
	}), LevelNone, 0, again.Hooks())

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.org/", nil)
	resp, err := ok.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()
	_, err = failing.RoundTrip(req)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET", "4xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues("GET")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration), "one GET series holds both observations")
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "unknown", statusClass(0))
}
