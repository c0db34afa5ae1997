// Package codec is the JSON content negotiator shared by the REST pipeline
// and the GraphQL client.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tailscale/hujson"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// ContentType is the media type produced by Encode and expected by Decode.
const ContentType = "application/json"

// JSON encodes outgoing payloads and decodes incoming bodies.
// The zero value is ready to use and produces compact output.
type JSON struct {
	// Indent pretty prints encoded output when true.
	Indent bool
}

// Encode serializes v to UTF-8 JSON.
func (c JSON) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if c.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, errors.WrapError(err, errors.ErrEncode, "encode json")
	}
	// Encoder always terminates with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses data into v in lenient mode: unknown fields are ignored,
// and the relaxed forms accepted by Standardize are tolerated. It fails with a
// *errors.DecodeError only when data cannot be read as JSON at all.
func (c JSON) Decode(data []byte, v any) error {
	return decode(data, v, false)
}

// DecodeStrict is like Decode but rejects fields v does not declare.
func (c JSON) DecodeStrict(data []byte, v any) error {
	return decode(data, v, true)
}

func decode(data []byte, v any, strict bool) error {
	std, err := Standardize(data)
	if err != nil {
		return &errors.DecodeError{Body: data, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(std))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return &errors.DecodeError{Body: data, Err: err}
	}

	// Ensure there's no extra non-whitespace payload.
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected extra JSON value")
		}
		return &errors.DecodeError{Body: data, Err: err}
	}
	return nil
}

// Standardize rewrites relaxed JSON into standard JSON: comments, trailing
// commas, bare keys and words, single quoted strings. Standard input is
// returned unchanged.
func Standardize(data []byte) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if json.Valid(data) {
		return data, nil
	}
	// hujson standardizes in place; relaxLiterals already returns a copy
	return hujson.Standardize(relaxLiterals(data))
}

// Default is the compact codec used when none is configured.
var Default = JSON{}

// Encode encodes v with the Default codec.
func Encode(v any) ([]byte, error) { return Default.Encode(v) }

// Decode decodes data into v with the Default codec.
func Decode(data []byte, v any) error { return Default.Decode(data, v) }
