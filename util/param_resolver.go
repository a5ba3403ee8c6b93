package util

import (
	"regexp"
	"strings"
)

var tokenRegex = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
var wholeTokenRegex = regexp.MustCompile(`^\s*\{\{[^{}]*\}\}\s*$`)

// IsWholeToken reports whether v is a string made of exactly one {{path}}
// token, so its value is only known after interpolation.
func IsWholeToken(v any) bool {
	s, ok := v.(string)
	return ok && wholeTokenRegex.MatchString(s)
}

// ResolveInputParams materializes action parameters against the execution
// data. The input map is left untouched.
func ResolveInputParams(data map[string]any, inputParams map[string]any) map[string]any {
	if inputParams == nil {
		return map[string]any{}
	}
	return Interpolate(inputParams, data).(map[string]any)
}

// Interpolate replaces {{path}} tokens inside strings, recursing through maps
// and lists. Tokens whose path does not resolve are kept verbatim. Values of
// any other type are returned as is.
func Interpolate(value any, data map[string]any) any {
	switch v := value.(type) {
	case string:
		return resolveString(v, data)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Interpolate(val, data)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, val := range v {
			out[k] = resolveString(val, data)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = Interpolate(v[i], data)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i := range v {
			out[i] = resolveString(v[i], data)
		}
		return out
	default:
		return value
	}
}

func resolveString(s string, data map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return tokenRegex.ReplaceAllStringFunc(s, func(token string) string {
		path := strings.TrimSpace(token[2 : len(token)-2])
		if path == "" {
			return token
		}
		value, ok := Lookup(data, path)
		if !ok {
			return token
		}
		return Stringify(value)
	})
}
