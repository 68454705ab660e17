package hierarchy

import (
	"encoding/json"
	"strings"
)

// Bounds is a rectangle reported for a hierarchy node. The unit space is
// whatever the platform's dump produced (pixels on Android, points on iOS);
// callers reconcile units separately.
type Bounds struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// PositiveArea reports whether the rectangle has strictly positive width and height.
func (b Bounds) PositiveArea() bool {
	return b.W > 0 && b.H > 0
}

// Contains reports whether the point (x, y) falls inside the rectangle,
// edges included.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x <= b.X+b.W && y >= b.Y && y <= b.Y+b.H
}

// Node is one element of a UI hierarchy snapshot. Snapshots are immutable:
// a refresh replaces the whole tree, nodes are never mutated in place.
type Node struct {
	Tag        string
	Attributes map[string]string
	Bounds     *Bounds
	NodePath   []int
	Selectors  json.RawMessage
	Children   []*Node
}

// nodeWire matches the JSON shape produced by the backend. The attribute map
// mixes string values with the parsed "bounds_computed" object, so it cannot
// be decoded as map[string]string directly.
type nodeWire struct {
	Tag        string                     `json:"tag"`
	Attributes map[string]json.RawMessage `json:"attributes"`
	NodePath   []int                      `json:"node_path"`
	Selectors  json.RawMessage            `json:"selectors"`
	Children   []*Node                    `json:"children"`
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var wire nodeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	n.Tag = wire.Tag
	n.NodePath = wire.NodePath
	n.Selectors = wire.Selectors
	n.Children = wire.Children
	n.Attributes = make(map[string]string, len(wire.Attributes))
	n.Bounds = nil

	for key, raw := range wire.Attributes {
		if key == "bounds_computed" {
			var b Bounds
			if err := json.Unmarshal(raw, &b); err == nil {
				n.Bounds = &b
			}
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			n.Attributes[key] = s
		}
		// non-string attributes other than bounds_computed are dropped
	}

	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	attrs := make(map[string]interface{}, len(n.Attributes)+1)
	for key, value := range n.Attributes {
		attrs[key] = value
	}
	if n.Bounds != nil {
		attrs["bounds_computed"] = *n.Bounds
	}

	return json.Marshal(struct {
		Tag        string                 `json:"tag"`
		Attributes map[string]interface{} `json:"attributes"`
		NodePath   []int                  `json:"node_path"`
		Selectors  json.RawMessage        `json:"selectors,omitempty"`
		Children   []*Node                `json:"children"`
	}{n.Tag, attrs, n.NodePath, n.Selectors, n.Children})
}

// Attr returns the named attribute, or "" when absent.
func (n *Node) Attr(key string) string {
	if n.Attributes == nil {
		return ""
	}
	return n.Attributes[key]
}

// Visible reports whether the node may be drawn. Only an explicit
// visible="false" marks a node invisible; Android dumps omit the attribute.
func (n *Node) Visible() bool {
	return n.Attr("visible") != "false"
}

func (n *Node) Clickable() bool {
	return n.Attr("clickable") == "true"
}

func (n *Node) Scrollable() bool {
	return n.Attr("scrollable") == "true"
}

func (n *Node) Focusable() bool {
	return n.Attr("focusable") == "true"
}

func (n *Node) LongClickable() bool {
	return n.Attr("long-clickable") == "true"
}

func (n *Node) Text() string {
	return n.Attr("text")
}

func (n *Node) ResourceID() string {
	return n.Attr("resource-id")
}

func (n *Node) ContentDesc() string {
	return n.Attr("content-desc")
}

// TagName returns the last dotted or namespaced segment of the node's tag,
// e.g. "android.widget.Button" -> "Button".
func (n *Node) TagName() string {
	tag := n.Tag
	if idx := strings.LastIndex(tag, "."); idx >= 0 {
		tag = tag[idx+1:]
	}
	if idx := strings.LastIndex(tag, ":"); idx >= 0 {
		tag = tag[idx+1:]
	}
	return tag
}

// Walk visits the tree in pre-order. Returning false from visit stops the walk.
func (n *Node) Walk(visit func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(visit) {
			return false
		}
	}
	return true
}

// FindByPath resolves a node path (child indices from this node) to a node.
// Returns nil when the path points outside the tree.
func (n *Node) FindByPath(path []int) *Node {
	current := n
	for _, index := range path {
		if current == nil || index < 0 || index >= len(current.Children) {
			return nil
		}
		current = current.Children[index]
	}
	return current
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node) bool {
		total++
		return true
	})
	return total
}
