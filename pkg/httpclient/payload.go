package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// BuildMode selects how a payload becomes a request body.
type BuildMode string

const (
	BuildQuery BuildMode = "query"
	BuildJSON  BuildMode = "json"
)

// Field is a single payload entry.
type Field struct {
	Key   string
	Value any
}

// Payload is an ordered list of request parameters. Order matters: it drives
// the query string, the JSON key order and which value is sent when payload
// building is disabled.
type Payload []Field

// Params builds a Payload from alternating keys and values.
func Params(kv ...any) Payload {
	p := make(Payload, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var value any
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		p = append(p, Field{Key: key, Value: value})
	}
	return p
}

// FromMap builds a Payload from m with keys in lexical order.
func FromMap(m map[string]any) Payload {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := make(Payload, 0, len(keys))
	for _, k := range keys {
		p = append(p, Field{Key: k, Value: m[k]})
	}
	return p
}

// Get returns the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key or appends a new field.
func (p Payload) Set(key string, value any) Payload {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Field{Key: key, Value: value})
}

// First returns the first value of the payload.
func (p Payload) First() (any, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[0].Value, true
}

// MarshalJSON encodes the payload as a JSON object keeping field order.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSONValue(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalJSONValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", f.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeJSON returns the payload as a JSON document.
func EncodeJSON(p Payload) (string, error) {
	if p == nil {
		p = Payload{}
	}
	out, err := marshalJSONValue(p)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func marshalJSONValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeQuery returns the payload as an application/x-www-form-urlencoded
// string. Nested maps, payloads and slices expand to bracketed keys
// (a[b]=c, a[0]=x); nil values are skipped.
func EncodeQuery(p Payload) string {
	parts := make([]string, 0, len(p))
	for _, f := range p {
		parts = appendQuery(parts, f.Key, f.Value)
	}
	return strings.Join(parts, "&")
}

func appendQuery(parts []string, key string, value any) []string {
	switch v := value.(type) {
	case nil:
		return parts
	case Payload:
		for _, f := range v {
			parts = appendQuery(parts, key+"["+f.Key+"]", f.Value)
		}
		return parts
	case map[string]any:
		for _, f := range FromMap(v) {
			parts = appendQuery(parts, key+"["+f.Key+"]", f.Value)
		}
		return parts
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return appendQuery(parts, key, m)
	case []any:
		for i, item := range v {
			parts = appendQuery(parts, key+"["+strconv.Itoa(i)+"]", item)
		}
		return parts
	case []string:
		for i, item := range v {
			parts = appendQuery(parts, key+"["+strconv.Itoa(i)+"]", item)
		}
		return parts
	default:
		return append(parts, url.QueryEscape(key)+"="+url.QueryEscape(scalarString(v)))
	}
}

// scalarString renders a scalar the way form encoders conventionally do:
// booleans become 1 and 0.
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case bool:
		if s {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
