package codec

import (
	"bytes"
	"encoding/json"
)

// relaxLiterals rewrites relaxed literal forms into standard ones:
// bare keys and bare words become strings and single quoted strings become
// double quoted. Comments, trailing commas and structural errors are left
// for hujson.
func relaxLiterals(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data) + 16)

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isSpace(c) || isStructural(c):
			out.WriteByte(c)
			i++
		case c == '/' && i+1 < len(data) && (data[i+1] == '/' || data[i+1] == '*'):
			end := commentEnd(data, i)
			out.Write(data[i:end])
			i = end
		case c == '"':
			end := quotedEnd(data, i, '"')
			out.Write(data[i:end])
			i = end
		case c == '\'':
			end := quotedEnd(data, i, '\'')
			writeSingleQuoted(&out, data[i:end])
			i = end
		default:
			end := bareEnd(data, i)
			writeBare(&out, data[i:end])
			i = end
		}
	}
	return out.Bytes()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isStructural(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ':', ',':
		return true
	}
	return false
}

// commentEnd returns the index just past the comment starting at i
func commentEnd(data []byte, i int) int {
	if data[i+1] == '/' {
		if n := bytes.IndexByte(data[i:], '\n'); n >= 0 {
			return i + n
		}
		return len(data)
	}
	if n := bytes.Index(data[i+2:], []byte("*/")); n >= 0 {
		return i + 2 + n + 2
	}
	return len(data)
}

// quotedEnd returns the index just past the closing quote, or len(data)
// when the string is unterminated
func quotedEnd(data []byte, i int, quote byte) int {
	for j := i + 1; j < len(data); j++ {
		switch data[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(data)
}

func bareEnd(data []byte, i int) int {
	j := i
	for j < len(data) {
		c := data[j]
		if isSpace(c) || isStructural(c) || c == '"' || c == '\'' {
			break
		}
		if c == '/' && j+1 < len(data) && (data[j+1] == '/' || data[j+1] == '*') {
			break
		}
		j++
	}
	return j
}

// writeSingleQuoted re-quotes 'text' as "text". Escapes valid in JSON are
// kept as they are.
func writeSingleQuoted(out *bytes.Buffer, lit []byte) {
	body := lit[1:]
	closed := len(body) > 0 && body[len(body)-1] == '\'' && !escapedAt(body, len(body)-1)
	if closed {
		body = body[:len(body)-1]
	}

	out.WriteByte('"')
	for j := 0; j < len(body); j++ {
		switch c := body[j]; {
		case c == '\\' && j+1 < len(body) && body[j+1] == '\'':
			out.WriteByte('\'')
			j++
		case c == '\\' && j+1 < len(body):
			out.Write(body[j : j+2])
			j++
		case c == '"':
			out.WriteString(`\"`)
		default:
			out.WriteByte(c)
		}
	}
	if closed {
		out.WriteByte('"')
	}
}

// escapedAt reports whether body[i] is preceded by an odd number of backslashes
func escapedAt(body []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && body[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// writeBare keeps JSON literals and numbers and quotes everything else
func writeBare(out *bytes.Buffer, word []byte) {
	switch string(word) {
	case "true", "false", "null":
		out.Write(word)
		return
	}
	if json.Valid(word) {
		// numbers
		out.Write(word)
		return
	}
	quoted, _ := json.Marshal(string(word))
	out.Write(quoted)
}
