package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// jsonNode wraps a single decoded JSON value (object, array element, or
// scalar) so it satisfies Node regardless of its underlying shape.
type jsonNode struct {
	value interface{}
}

func (n jsonNode) Text() string {
	switch v := n.value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func (n jsonNode) Attr(name string) (string, bool) {
	obj, ok := n.value.(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := obj[name]
	if !ok {
		return "", false
	}
	return jsonNode{value: v}.Text(), true
}

// JSONLocator selects values out of a decoded JSON document using a small
// dotted path dialect ("data.flights", "data.flights[].segments[0].price"),
// matching the `api-json` crawler kind's extraction map. `[]` on a path
// segment fans an array out into one Node per element; a numeric index
// selects a single element.
type JSONLocator struct{}

// Select parses root as raw JSON bytes (or reuses an already-decoded
// interface{} value) and walks selector, a dot-separated path where array
// segments carry a literal `[]` (fan-out) or `[N]` (index) suffix.
func (JSONLocator) Select(root interface{}, selector string) ([]Node, error) {
	value, err := asDecodedJSON(root)
	if err != nil {
		return nil, err
	}

	values := []interface{}{value}
	if selector != "" {
		for _, segment := range strings.Split(selector, ".") {
			values, err = stepJSONPath(values, segment)
			if err != nil {
				return nil, err
			}
		}
	}

	nodes := make([]Node, 0, len(values))
	for _, v := range values {
		nodes = append(nodes, jsonNode{value: v})
	}
	return nodes, nil
}

func asDecodedJSON(root interface{}) (interface{}, error) {
	switch v := root.(type) {
	case []byte:
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, fmt.Errorf("parse: invalid JSON document: %w", err)
		}
		return decoded, nil
	default:
		return v, nil
	}
}

func stepJSONPath(values []interface{}, segment string) ([]interface{}, error) {
	key := segment
	fanOut := false
	index := -1

	if strings.HasSuffix(segment, "[]") {
		key = strings.TrimSuffix(segment, "[]")
		fanOut = true
	} else if open := strings.Index(segment, "["); open >= 0 && strings.HasSuffix(segment, "]") {
		key = segment[:open]
		idxStr := segment[open+1 : len(segment)-1]
		parsed, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, fmt.Errorf("parse: invalid array index in path segment %q", segment)
		}
		index = parsed
	}

	var next []interface{}
	for _, v := range values {
		resolved := v
		if key != "" {
			obj, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			resolved, ok = obj[key]
			if !ok {
				continue
			}
		}

		switch {
		case fanOut:
			arr, ok := resolved.([]interface{})
			if !ok {
				continue
			}
			next = append(next, arr...)
		case index >= 0:
			arr, ok := resolved.([]interface{})
			if !ok || index >= len(arr) {
				continue
			}
			next = append(next, arr[index])
		default:
			next = append(next, resolved)
		}
	}
	return next, nil
}
