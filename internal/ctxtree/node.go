package ctxtree

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	KindNone Kind = iota
	KindScalar
	KindMapping
	KindSequence
	KindRecord
)

const (
	// maxChildren bounds how many children of a single node are retained
	// or visited. Invocation contexts are assumed small; anything wider is
	// pathological input.
	maxChildren = 50

	// buildDepthLimit bounds tree construction. It is deliberately larger
	// than the default scan depth so the scanner's own bound is what
	// governs traversal.
	buildDepthLimit = 8
)

// Node is a read-only view over one value of a heterogeneous invocation
// context. All polymorphism over maps, slices, structs, and raw JSON is
// isolated here; the scanner only ever sees Nodes.
type Node struct {
	kind     Kind
	value    any
	keys     []string
	children map[string]*Node
	items    []*Node
}

func (n *Node) Kind() Kind {
	if n == nil {
		return KindNone
	}
	return n.kind
}

// Value returns the scalar leaf value, or the node itself for composite
// nodes. Composite results fail identifier validation downstream, which
// matches treating "found a sub-object under that key" as not an identifier.
func (n *Node) Value() any {
	if n == nil || n.kind == KindNone {
		return nil
	}
	if n.kind == KindScalar {
		return n.value
	}
	return n
}

// Lookup returns the child bound to key on a mapping or record node.
func (n *Node) Lookup(key string) (*Node, bool) {
	if n == nil || (n.kind != KindMapping && n.kind != KindRecord) {
		return nil, false
	}
	c, ok := n.children[key]
	if !ok || c.kind == KindNone {
		return nil, false
	}
	return c, true
}

// Keys returns the child keys of a mapping or record node in traversal order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return n.keys
}

// FromValue builds a Node from an arbitrary Go value. It never panics:
// any introspection failure yields a None node, which the scanner treats
// as "no keys here".
func FromValue(v any) (node *Node) {
	defer func() {
		if r := recover(); r != nil {
			node = &Node{kind: KindNone}
		}
	}()
	return fromValue(v, buildDepthLimit)
}

// FromJSON builds a Node from a raw JSON document.
func FromJSON(raw []byte) *Node {
	return fromJSON(gjson.ParseBytes(raw), buildDepthLimit)
}

func fromValue(v any, depth int) *Node {
	if v == nil {
		return &Node{kind: KindNone}
	}
	if depth <= 0 {
		return &Node{kind: KindScalar, value: v}
	}

	switch t := v.(type) {
	case json.RawMessage:
		return fromJSON(gjson.ParseBytes(t), depth)
	case gjson.Result:
		return fromJSON(t, depth)
	case map[string]any:
		return fromStringMap(t, depth)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return &Node{kind: KindNone}
		}
		return fromValue(rv.Elem().Interface(), depth)
	case reflect.Map:
		return fromReflectMap(rv, depth)
	case reflect.Slice, reflect.Array:
		n := &Node{kind: KindSequence}
		for i := 0; i < rv.Len() && i < maxChildren; i++ {
			n.items = append(n.items, fromValue(rv.Index(i).Interface(), depth-1))
		}
		return n
	case reflect.Struct:
		return fromStruct(rv, depth)
	default:
		return &Node{kind: KindScalar, value: v}
	}
}

func fromStringMap(m map[string]any, depth int) *Node {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxChildren {
		keys = keys[:maxChildren]
	}
	n := &Node{kind: KindMapping, keys: keys, children: make(map[string]*Node, len(keys))}
	for _, k := range keys {
		n.children[k] = fromValue(m[k], depth-1)
	}
	return n
}

func fromReflectMap(rv reflect.Value, depth int) *Node {
	keys := make([]string, 0, rv.Len())
	byKey := make(map[string]reflect.Value, rv.Len())
	for _, kv := range rv.MapKeys() {
		k := fmt.Sprint(kv.Interface())
		keys = append(keys, k)
		byKey[k] = rv.MapIndex(kv)
	}
	sort.Strings(keys)
	if len(keys) > maxChildren {
		keys = keys[:maxChildren]
	}
	n := &Node{kind: KindMapping, keys: keys, children: make(map[string]*Node, len(keys))}
	for _, k := range keys {
		n.children[k] = fromValue(byKey[k].Interface(), depth-1)
	}
	return n
}

// fromStruct treats exported struct fields like a mapping, preferring the
// json tag name when one is present.
func fromStruct(rv reflect.Value, depth int) *Node {
	rt := rv.Type()
	n := &Node{kind: KindRecord, children: make(map[string]*Node)}
	for i := 0; i < rt.NumField() && len(n.keys) < maxChildren; i++ {
		f := rt.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name := f.Name
		if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag != "" {
				name = tag
			}
		}
		n.keys = append(n.keys, name)
		n.children[name] = fromValue(rv.Field(i).Interface(), depth-1)
	}
	return n
}

func fromJSON(res gjson.Result, depth int) *Node {
	switch {
	case !res.Exists() || res.Type == gjson.Null:
		return &Node{kind: KindNone}
	case res.IsObject():
		if depth <= 0 {
			return &Node{kind: KindScalar, value: res.Raw}
		}
		n := &Node{kind: KindMapping, children: make(map[string]*Node)}
		res.ForEach(func(k, v gjson.Result) bool {
			if len(n.keys) >= maxChildren {
				return false
			}
			key := k.String()
			n.keys = append(n.keys, key)
			n.children[key] = fromJSON(v, depth-1)
			return true
		})
		return n
	case res.IsArray():
		if depth <= 0 {
			return &Node{kind: KindScalar, value: res.Raw}
		}
		n := &Node{kind: KindSequence}
		res.ForEach(func(_, v gjson.Result) bool {
			if len(n.items) >= maxChildren {
				return false
			}
			n.items = append(n.items, fromJSON(v, depth-1))
			return true
		})
		return n
	case res.Type == gjson.Number:
		// Keep the raw digits so large identifiers survive verbatim.
		return &Node{kind: KindScalar, value: res.Raw}
	default:
		return &Node{kind: KindScalar, value: res.Value()}
	}
}
