package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when the content holds nothing that decodes as JSON.
var ErrNoJSON = errors.New("no JSON value found")

// ParseStringAs decodes model-produced text into T. It tries, in order, the
// content as-is, the content repaired by jsonrepair, and every balanced JSON
// value embedded in surrounding prose. Values wrapped as {"type":..,"value":..}
// are unwrapped when the plain decode fails.
//
//	type call struct {
//	    Name      string         `json:"name"`
//	    Arguments map[string]any `json:"arguments"`
//	}
//	c, err := parse.ParseStringAs[call]("Calling now: {name: 'getWeather', arguments: {city: 'Rome'}}")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(stripCodeFence(content))
	if content == "" {
		return result, ErrNoJSON
	}

	startsWithValue := content[0] == '{' || content[0] == '['
	if startsWithValue {
		if err := decode(content, &result); err == nil {
			return result, nil
		}
	}

	var lastErr error = ErrNoJSON
	for _, candidate := range extractJSONCandidates(content) {
		var attempt T
		if err := decode(candidate, &attempt); err != nil {
			lastErr = err
			continue
		}
		return attempt, nil
	}

	if !startsWithValue {
		if start := strings.IndexAny(content, "{["); start > 0 {
			// Prose followed by a truncated value: repair from the bracket on.
			if err := decode(content[start:], &result); err == nil {
				return result, nil
			}
		}
	}
	return result, fmt.Errorf("parse %T: %w", result, lastErr)
}

// Arguments decodes tool call arguments into an object. Empty input yields an
// empty map; anything that is not an object after repair is an error.
func Arguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}
	if trimmed[0] == '[' {
		return nil, errors.New("arguments must be a JSON object, got an array")
	}
	args, err := ParseStringAs[map[string]any](raw)
	if err != nil {
		return nil, err
	}
	return args, nil
}

// decode unmarshals data into target, retrying with jsonrepair and then with
// schema-wrapped values unwrapped.
func decode(data string, target any) error {
	err := json.Unmarshal([]byte(data), target)
	if err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(data)
	if repairErr != nil {
		return fmt.Errorf("unmarshal: %w (repair: %v)", err, repairErr)
	}
	if err = json.Unmarshal([]byte(repaired), target); err == nil {
		return nil
	}

	unwrapped, unwrapErr := unwrapSchemaValues(repaired)
	if unwrapErr != nil {
		return err
	}
	return json.Unmarshal([]byte(unwrapped), target)
}

// stripCodeFence removes a surrounding ```json ... ``` block.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
}

// extractJSONCandidates returns every balanced object or array in text, in
// order of their opening bracket. Nested values are returned after the value
// that contains them. Brackets inside string literals are ignored.
func extractJSONCandidates(text string) []string {
	candidates := []string{}
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			if end := matchBracket(text, i); end > 0 {
				candidates = append(candidates, text[i:end+1])
			}
		}
	}
	return candidates
}

// matchBracket returns the index of the bracket closing the one at start, or
// -1 when the value is unbalanced.
func matchBracket(text string, start int) int {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// unwrapSchemaValues replaces {"type": .., "value": v} wrappers with v, a
// mistake models make when they echo the parameter schema.
//
//	{"city": {"type": "string", "value": "Rome"}}  =>  {"city": "Rome"}
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}
	result, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return recursiveUnwrap(value)
			}
		}
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result
	default:
		return data
	}
}
