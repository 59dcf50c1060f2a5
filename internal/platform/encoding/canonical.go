// Package encoding provides canonical JSON and content addressing helpers.
package encoding

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Option tunes canonicalization.
type Option func(*options)

type options struct {
	pruneEmpty bool
}

// WithoutEmpty drops object fields whose value is null, an empty array or an
// empty object, recursively, so absent and explicitly-empty values encode the
// same way. Array elements are never dropped.
func WithoutEmpty() Option {
	return func(o *options) {
		o.pruneEmpty = true
	}
}

// CanonicalJSON produces deterministic JSON output inspired by RFC 8785 (JCS):
// object keys sorted lexicographically, no insignificant whitespace, no HTML
// escaping, and numbers kept as their literal text.
func CanonicalJSON(v any, opts ...Option) ([]byte, error) {
	var cfg options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	canonical := canonicalize(raw, cfg)
	if canonical == nil && cfg.pruneEmpty {
		canonical = orderedMap{}
	}

	return marshalWithoutHTMLEscape(canonical)
}

// canonicalize recursively orders object keys and, when requested, prunes
// empty values. A nil return means the value itself is empty.
func canonicalize(v any, cfg options) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		values := make(map[string]any, len(val))
		for k, item := range val {
			c := canonicalize(item, cfg)
			if cfg.pruneEmpty && c == nil {
				continue
			}
			keys = append(keys, k)
			values[k] = c
		}
		if cfg.pruneEmpty && len(keys) == 0 {
			return nil
		}
		sort.Strings(keys)
		return orderedMap{keys: keys, values: values}

	case []any:
		if cfg.pruneEmpty && len(val) == 0 {
			return nil
		}
		result := make([]any, len(val))
		for i, item := range val {
			c := canonicalize(item, cfg)
			if c == nil {
				// Keep positions stable inside arrays.
				c = emptyOf(item)
			}
			result[i] = c
		}
		return result

	default:
		return v
	}
}

func emptyOf(v any) any {
	switch v.(type) {
	case map[string]any:
		return orderedMap{}
	case []any:
		return []any{}
	default:
		return nil
	}
}

// orderedMap marshals map keys in the recorded (sorted) order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (o orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := marshalWithoutHTMLEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := marshalWithoutHTMLEscape(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalWithoutHTMLEscape marshals a value without HTML escaping and without
// the trailing newline json.Encoder appends.
func marshalWithoutHTMLEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ContentHash computes the SHA-256 hex digest of v's canonical JSON.
func ContentHash(v any, opts ...Option) (string, error) {
	canonical, err := CanonicalJSON(v, opts...)
	if err != nil {
		return "", fmt.Errorf("canonical json: %w", err)
	}
	return SHA256Hex(canonical), nil
}
