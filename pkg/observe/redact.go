package observe

import (
	"regexp"
	"strings"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
)

// Redacted replaces sensitive values in logged bodies.
const Redacted = "[REDACTED]"

// Redactor masks the values of sensitive JSON keys before bodies are logged.
// A nil Redactor leaves bodies untouched.
type Redactor struct {
	fields  map[string]struct{}
	pattern *regexp.Regexp
}

// NewRedactor masks the given keys, matched case-insensitively.
// It returns nil when fields is empty.
func NewRedactor(fields []string) *Redactor {
	r := &Redactor{fields: make(map[string]struct{})}
	var quoted []string
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		r.fields[f] = struct{}{}
		quoted = append(quoted, regexp.QuoteMeta(f))
	}
	if len(quoted) == 0 {
		return nil
	}
	// Fallback for bodies that do not parse, e.g. truncated ones
	r.pattern = regexp.MustCompile(`(?i)("(?:` + strings.Join(quoted, "|") + `)"\s*:\s*)("(?:[^"\\]|\\.)*"?|[^,}\]\s]+)`)
	return r
}

// Redact returns body as a string with sensitive values masked
func (r *Redactor) Redact(body []byte) string {
	if r == nil || len(body) == 0 {
		return string(body)
	}

	var doc any
	if err := codec.Decode(body, &doc); err == nil {
		if out, err := codec.Encode(r.walk(doc)); err == nil {
			return string(out)
		}
	}

	return r.pattern.ReplaceAllString(string(body), `${1}"`+Redacted+`"`)
}

func (r *Redactor) walk(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if _, ok := r.fields[strings.ToLower(k)]; ok {
				t[k] = Redacted
				continue
			}
			t[k] = r.walk(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = r.walk(t[i])
		}
		return t
	}
	return v
}
