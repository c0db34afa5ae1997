// Package observe emits request/response events around an http.RoundTripper.
// Hooks are best-effort: a failing hook or an unreadable body never changes
// the outcome of the request.
package observe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestEvent describes an outbound request. Body is only captured at LevelVerbose.
type RequestEvent struct {
	ID      string
	Method  string
	URL     string
	Body    []byte
	BodyErr error
}

// ResponseEvent is emitted as soon as response headers arrive.
type ResponseEvent struct {
	ID         string
	Method     string
	URL        string
	StatusCode int
	Duration   time.Duration
}

// BodyEvent is emitted at LevelVerbose once the caller has read or closed the response body.
type BodyEvent struct {
	ID         string
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Truncated  bool
	Err        error
}

// ErrorEvent is emitted when the base transport fails.
type ErrorEvent struct {
	ID       string
	Method   string
	URL      string
	Err      error
	Duration time.Duration
}

// Hooks is a set of optional callbacks. Nil fields are skipped.
type Hooks struct {
	OnRequest      func(ctx context.Context, e RequestEvent)
	OnResponse     func(ctx context.Context, e ResponseEvent)
	OnResponseBody func(ctx context.Context, e BodyEvent)
	OnError        func(ctx context.Context, e ErrorEvent)
}

// Transport wraps Base and reports every round trip to Hooks.
type Transport struct {
	Base         http.RoundTripper
	Level        Level
	MaxBodyBytes int
	Hooks        []Hooks

	// NewID generates request ids for log correlation
	NewID func() string
}

// NewTransport wraps base, defaulting to http.DefaultTransport
func NewTransport(base http.RoundTripper, level Level, maxBodyBytes int, hooks ...Hooks) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		Base:         base,
		Level:        level,
		MaxBodyBytes: maxBodyBytes,
		Hooks:        hooks,
		NewID:        uuid.NewString,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	id := t.newID()
	method, url := req.Method, req.URL.String()

	reqEvent := RequestEvent{ID: id, Method: method, URL: url}
	if t.Level >= LevelVerbose {
		reqEvent.Body, reqEvent.BodyErr = peekRequestBody(req, t.MaxBodyBytes)
	}
	t.emit(func(h Hooks) {
		if h.OnRequest != nil {
			h.OnRequest(ctx, reqEvent)
		}
	})

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	elapsed := time.Since(start)
	if err != nil {
		t.emit(func(h Hooks) {
			if h.OnError != nil {
				h.OnError(ctx, ErrorEvent{ID: id, Method: method, URL: url, Err: err, Duration: elapsed})
			}
		})
		return nil, err
	}

	t.emit(func(h Hooks) {
		if h.OnResponse != nil {
			h.OnResponse(ctx, ResponseEvent{ID: id, Method: method, URL: url, StatusCode: resp.StatusCode, Duration: elapsed})
		}
	})

	if t.Level >= LevelVerbose && resp.Body != nil && resp.Body != http.NoBody {
		resp.Body = &capturingBody{
			rc:    resp.Body,
			limit: t.MaxBodyBytes,
			done: func(body []byte, truncated bool, readErr error) {
				t.emit(func(h Hooks) {
					if h.OnResponseBody != nil {
						h.OnResponseBody(ctx, BodyEvent{
							ID: id, Method: method, URL: url, StatusCode: resp.StatusCode,
							Body: body, Truncated: truncated, Err: readErr,
						})
					}
				})
			},
		}
	}

	return resp, nil
}

func (t *Transport) newID() string {
	if t.NewID == nil {
		return ""
	}
	return t.NewID()
}

// emit calls fn for every hook, swallowing panics
func (t *Transport) emit(fn func(Hooks)) {
	for _, h := range t.Hooks {
		func() {
			defer func() { _ = recover() }()
			fn(h)
		}()
	}
}

// peekRequestBody reads a copy of the request body through GetBody.
// The body sent on the wire is never consumed.
func peekRequestBody(req *http.Request, limit int) (body []byte, err error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body is not replayable")
	}

	defer func() {
		if r := recover(); r != nil {
			body, err = nil, fmt.Errorf("read request body: %v", r)
		}
	}()

	rc, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, int64(limit))
	}
	return io.ReadAll(r)
}

// capturingBody tees up to limit bytes of a response body and reports them
// once, at EOF or Close, whichever comes first.
type capturingBody struct {
	rc        io.ReadCloser
	limit     int
	buf       bytes.Buffer
	truncated bool
	once      sync.Once
	done      func(body []byte, truncated bool, err error)
}

func (b *capturingBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		b.capture(p[:n])
	}
	switch {
	case err == io.EOF:
		b.finish(nil)
	case err != nil:
		b.finish(err)
	}
	return n, err
}

func (b *capturingBody) Close() error {
	b.finish(nil)
	return b.rc.Close()
}

func (b *capturingBody) capture(p []byte) {
	if b.limit <= 0 {
		b.buf.Write(p)
		return
	}
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return
	}
	if len(p) > room {
		p = p[:room]
		b.truncated = true
	}
	b.buf.Write(p)
}

func (b *capturingBody) finish(err error) {
	b.once.Do(func() {
		b.done(bytes.Clone(b.buf.Bytes()), b.truncated, err)
	})
}
