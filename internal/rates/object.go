package rates

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// object is a JSON object in document order with its member values kept raw,
// so fields this package does not understand are written back untouched.
// A repeated key keeps its first position and its last value.
type object = orderedmap.OrderedMap[string, json.RawMessage]

func decodeObject(b []byte) (*object, error) {
	o := orderedmap.New[string, json.RawMessage]()
	if err := o.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return o, nil
}

// member returns the raw value of key, nil when absent.
func member(o *object, key string) json.RawMessage {
	v, _ := o.Get(key)
	return v
}

func copyObject(o *object) *object {
	out := orderedmap.New[string, json.RawMessage](o.Len() + 3)
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// writeObject writes o minified. Unlike the map's own MarshalJSON, string
// contents are copied as written: "<", ">" and "&" stay unescaped.
func writeObject(buf *bytes.Buffer, o *object) error {
	buf.WriteByte('{')
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		if pair != o.Oldest() {
			buf.WriteByte(',')
		}
		if err := writeMember(buf, pair.Key, pair.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeMember writes `"key":value` with value compacted and HTML left unescaped.
func writeMember(buf *bytes.Buffer, key string, raw json.RawMessage) error {
	kb, err := marshalNoEscape(key)
	if err != nil {
		return err
	}
	buf.Write(kb)
	buf.WriteByte(':')
	if len(raw) == 0 {
		buf.WriteString("null")
		return nil
	}
	if err := json.Compact(buf, raw); err != nil {
		return fmt.Errorf("compacting %q: %w", key, err)
	}
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// isObject reports whether raw holds a JSON object.
func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
