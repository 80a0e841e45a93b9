package ctxtree

import "fmt"

// DefaultMaxDepth is how far FindFirst descends below the root by default.
const DefaultMaxDepth = 4

// FindFirst searches root depth-first for the first value bound to any of
// the candidate keys. At every mapping or record node the keys are tested
// in their given priority order before descending into children, so a
// shallow hit always beats a deeper one. Sequences are descended in order.
// Traversal stops at maxDepth and visits at most 50 children per node.
// The first match by traversal order wins; there is no backtracking, and a
// composite value under a matching key is returned as-is rather than
// descended. Callers judge the hit.
func FindFirst(root *Node, keys []string, maxDepth int) (path string, value any, ok bool) {
	return find(root, keys, "", maxDepth)
}

func find(n *Node, keys []string, path string, budget int) (string, any, bool) {
	if n == nil || n.kind == KindNone || budget < 0 {
		return "", nil, false
	}

	switch n.kind {
	case KindMapping, KindRecord:
		for _, k := range keys {
			if c, ok := n.children[k]; ok && c.kind != KindNone {
				return joinPath(path, k), c.Value(), true
			}
		}
		for i, k := range n.keys {
			if i >= maxChildren {
				break
			}
			if p, v, ok := find(n.children[k], keys, joinPath(path, k), budget-1); ok {
				return p, v, ok
			}
		}
	case KindSequence:
		for i, item := range n.items {
			if i >= maxChildren {
				break
			}
			if p, v, ok := find(item, keys, fmt.Sprintf("%s[%d]", path, i), budget-1); ok {
				return p, v, ok
			}
		}
	}
	return "", nil, false
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
