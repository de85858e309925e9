// Package repair recovers well-formed structured values from the malformed
// JSON large language models habitually emit: surrounding prose, markdown
// fences, single-quoted keys, trailing commas, and unclosed braces.
//
// Repair is pure: no network, no state, same input always yields the same
// output. Validation against a JSON Schema decides whether the recovered
// value is usable; anything less fails explicitly instead of leaking a
// half-shaped object downstream.
package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrUnparsable means no value satisfying the schema's required subset
// could be recovered from the raw text.
var ErrUnparsable = errors.New("unparsable llm response")

// Repair extracts, fixes, and validates a JSON object from raw model
// output. schema is a JSON Schema document; the returned map has passed it.
func Repair(raw, schema string) (map[string]interface{}, error) {
	candidate := extractObject(raw)
	if candidate == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrUnparsable)
	}

	value, err := decode(candidate)
	if err != nil {
		fixed := stripTrailingCommas(requoteAndBalance(candidate))
		value, err = decode(fixed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
	}

	if err := validate(value, schema); err != nil {
		return nil, err
	}
	return value, nil
}

func decode(s string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func validate(value map[string]interface{}, schema string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(value),
	)
	if err != nil {
		return fmt.Errorf("%w: schema check: %v", ErrUnparsable, err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrUnparsable, strings.Join(reasons, "; "))
	}
	return nil
}

// extractObject cuts the JSON blob out of surrounding commentary and
// markdown fences. It ends the candidate at the brace that balances the
// first opening one, so commentary after the object may itself contain
// braces. When the object is truncated it keeps everything from the first
// opening brace onward and leaves balancing to the fixer.
func extractObject(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	if end := balancedEnd(s, start); end > start {
		return s[start : end+1]
	}
	return s[start:]
}

// balancedEnd returns the index of the brace closing the object opened at
// start, or -1 when the object never closes. Braces inside string
// literals, single- or double-quoted, do not count.
func balancedEnd(s string, start int) int {
	depth := 0
	var quote byte
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// requoteAndBalance walks the candidate once, converting single-quoted
// strings to double-quoted ones and appending whatever closers an
// abruptly-truncated completion left off.
func requoteAndBalance(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 8)

	var stack []byte
	inString := false  // inside a double-quoted string
	inSingle := false  // inside a single-quoted string being converted
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString || inSingle {
			if escaped {
				escaped = false
				out.WriteByte(c)
				continue
			}
			switch {
			case c == '\\':
				escaped = true
				out.WriteByte(c)
			case inString && c == '"':
				inString = false
				out.WriteByte(c)
			case inSingle && c == '\'':
				inSingle = false
				out.WriteByte('"')
			case inSingle && c == '"':
				out.WriteString(`\"`)
			default:
				out.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			out.WriteByte(c)
		case '\'':
			inSingle = true
			out.WriteByte('"')
		case '{', '[':
			stack = append(stack, c)
			out.WriteByte(c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
			out.WriteByte(c)
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}

	if inString || inSingle {
		out.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			out.WriteByte('}')
		} else {
			out.WriteByte(']')
		}
	}
	return out.String()
}

// stripTrailingCommas removes commas that directly precede a closing brace
// or bracket, ignoring whitespace, outside of strings.
func stripTrailingCommas(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			out.WriteByte(c)
			continue
		}

		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		out.WriteByte(c)
	}
	return out.String()
}
