package observe

import (
	"context"

	"github.com/rs/zerolog"
)

// LogHooks logs through logger according to level:
// LevelBasic logs status codes and failures, LevelVerbose adds method, URL
// and bodies (masked by redactor when non-nil).
func LogHooks(logger zerolog.Logger, level Level, redactor *Redactor) Hooks {
	if level <= LevelNone {
		return Hooks{}
	}

	h := Hooks{
		OnResponse: func(_ context.Context, e ResponseEvent) {
			ev := logger.Info().
				Str("request_id", e.ID).
				Int("status", e.StatusCode).
				Dur("duration", e.Duration)
			if level >= LevelVerbose {
				ev = ev.Str("method", e.Method).Str("url", e.URL)
			}
			ev.Msg("http response")
		},
		OnError: func(_ context.Context, e ErrorEvent) {
			logger.Error().
				Err(e.Err).
				Str("request_id", e.ID).
				Str("method", e.Method).
				Str("url", e.URL).
				Dur("duration", e.Duration).
				Msg("http request failed")
		},
	}

	if level >= LevelVerbose {
		h.OnRequest = func(_ context.Context, e RequestEvent) {
			ev := logger.Info().
				Str("request_id", e.ID).
				Str("method", e.Method).
				Str("url", e.URL)
			if len(e.Body) > 0 {
				ev = ev.Str("body", redactor.Redact(e.Body))
			}
			if e.BodyErr != nil {
				ev = ev.AnErr("body_error", e.BodyErr)
			}
			ev.Msg("http request")
		}
		h.OnResponseBody = func(_ context.Context, e BodyEvent) {
			ev := logger.Info().
				Str("request_id", e.ID).
				Int("status", e.StatusCode).
				Str("body", redactor.Redact(e.Body)).
				Bool("truncated", e.Truncated)
			if e.Err != nil {
				ev = ev.AnErr("body_error", e.Err)
			}
			ev.Msg("http response body")
		}
	}

	return h
}
