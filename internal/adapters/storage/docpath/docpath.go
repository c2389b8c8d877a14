// Package docpath holds the path and JSON-tree helpers shared by the
// document store backends.
//
// Stores behave like a JSON tree: reading a node returns the object made of
// its children, null and empty objects are never stored, and deleting a node
// removes its whole subtree.
package docpath

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

// Split validates path and returns its segments.
func Split(path string) ([]string, error) {
	path = strings.Trim(strings.TrimSuffix(path, ".json"), "/")
	if path == "" {
		return nil, domain.ErrInvalidPath
	}

	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, ".#$[]") {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPath, path)
		}
	}
	return parts, nil
}

// Join builds a path from segments.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// NewKey returns a fresh child key for Post.
func NewKey() string {
	return uuid.NewString()
}

// Normalize converts any JSON-encodable value into its generic form
// (map[string]any, []any, json.Number, string, bool) with empty objects and
// nulls pruned. A nil result means "nothing to store".
func Normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return Prune(generic), nil
}

// Prune drops nulls and empty objects, recursively.
func Prune(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}

	for k, child := range obj {
		child = Prune(child)
		if child == nil {
			delete(obj, k)
			continue
		}
		obj[k] = child
	}
	if len(obj) == 0 {
		return nil
	}
	return obj
}

// Flatten turns a normalized value into leaf entries keyed by relative path.
// A non-object value is a single leaf with an empty relative path.
func Flatten(v any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	if err := flatten("", v, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, v any, out map[string]json.RawMessage) error {
	if obj, ok := v.(map[string]any); ok {
		for k, child := range obj {
			p := k
			if prefix != "" {
				p = prefix + "/" + k
			}
			if err := flatten(p, child, out); err != nil {
				return err
			}
		}
		return nil
	}

	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode leaf %q: %w", prefix, err)
	}
	out[prefix] = raw
	return nil
}

// Unflatten rebuilds a JSON document from leaf entries keyed by relative path.
func Unflatten(leaves map[string]json.RawMessage) (json.RawMessage, error) {
	if len(leaves) == 0 {
		return nil, nil
	}
	if raw, ok := leaves[""]; ok {
		return raw, nil
	}

	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, k := range keys {
		parts := strings.Split(k, "/")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = leaves[k]
	}
	return json.Marshal(root)
}

// Rel returns the path of full relative to base, and whether full is base
// itself or one of its descendants.
func Rel(base, full string) (string, bool) {
	if full == base {
		return "", true
	}
	if strings.HasPrefix(full, base+"/") {
		return full[len(base)+1:], true
	}
	return "", false
}

// Ancestors returns every proper ancestor of path, outermost first.
func Ancestors(parts []string) []string {
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, Join(parts[:i]...))
	}
	return out
}
