// Package form decodes application/x-www-form-urlencoded bodies the way
// browsers and payment gateways send them.
package form

import (
	"fmt"
	"net/url"
	"strings"
)

// Parse splits body on '&' only, so a raw ';' stays part of its value
// instead of failing the whole body as url.ParseQuery does. Keys and values
// are unescaped with '+' meaning space; a bad percent escape is an error.
func Parse(body string) (url.Values, error) {
	values := make(url.Values)
	for body != "" {
		var pair string
		pair, body, _ = strings.Cut(body, "&")
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("invalid form key %q: %w", key, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("invalid form value for %q: %w", k, err)
		}
		values[k] = append(values[k], v)
	}
	return values, nil
}

// First flattens values to their first entry per key.
func First(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
