package core

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// readTimeoutTransport bounds the wait for each chunk of a response body.
// ResponseHeaderTimeout only covers the headers; a server that stalls
// mid-body would otherwise hold the caller forever.
type readTimeoutTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

func newReadTimeoutTransport(base http.RoundTripper, timeout time.Duration) http.RoundTripper {
	if timeout <= 0 {
		return base
	}
	return &readTimeoutTransport{base: base, timeout: timeout}
}

func (t *readTimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.Body == nil || resp.Body == http.NoBody {
		return resp, err
	}
	resp.Body = newIdleTimeoutBody(resp.Body, t.timeout)
	return resp, nil
}

// idleTimeoutBody closes the underlying body when no Read completes within
// timeout, which unblocks a pending Read.
type idleTimeoutBody struct {
	rc      io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleTimeoutBody(rc io.ReadCloser, timeout time.Duration) *idleTimeoutBody {
	b := &idleTimeoutBody{rc: rc, timeout: timeout}
	b.timer = time.AfterFunc(timeout, func() {
		b.expired.Store(true)
		rc.Close()
	})
	return b
}

func (b *idleTimeoutBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if b.expired.Load() {
		return n, fmt.Errorf("read response body: idle for %s: %w", b.timeout, os.ErrDeadlineExceeded)
	}
	if err != nil {
		b.timer.Stop()
		return n, err
	}
	b.timer.Reset(b.timeout)
	return n, nil
}

func (b *idleTimeoutBody) Close() error {
	b.timer.Stop()
	return b.rc.Close()
}
