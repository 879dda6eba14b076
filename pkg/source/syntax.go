package source

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node is an immutable copy of a tree-sitter node. Trees are copied out
// of tree-sitter right after parsing so the model can be queried from
// several goroutines without touching the C tree.
type Node struct {
	Kind   string
	Field  string // field name in the parent, if any
	Named  bool
	Start  uint32
	End    uint32
	Row    uint32
	Column uint32

	Parent   *Node
	Children []*Node

	file *File
}

// copyTree converts the tree under the cursor into Nodes.
func copyTree(c *sitter.TreeCursor, parent *Node, file *File) *Node {
	tn := c.CurrentNode()
	point := tn.StartPoint()
	n := &Node{
		Kind:   tn.Type(),
		Field:  c.CurrentFieldName(),
		Named:  tn.IsNamed(),
		Start:  tn.StartByte(),
		End:    tn.EndByte(),
		Row:    point.Row,
		Column: point.Column,
		Parent: parent,
		file:   file,
	}
	if c.GoToFirstChild() {
		for {
			n.Children = append(n.Children, copyTree(c, n, file))
			if !c.GoToNextSibling() {
				break
			}
		}
		c.GoToParent()
	}
	return n
}

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	if n == nil || n.file == nil {
		return ""
	}
	return string(n.file.Content[n.Start:n.End])
}

// File returns the file the node belongs to.
func (n *Node) File() *File {
	return n.file
}

// Line and Col are 1-based.
func (n *Node) Line() int { return int(n.Row) + 1 }
func (n *Node) Col() int  { return int(n.Column) + 1 }

// Child returns the first child stored under the given field name.
func (n *Node) Child(field string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildOfKind returns the first direct child of the given kind.
func (n *Node) ChildOfKind(kinds ...string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		for _, k := range kinds {
			if c.Kind == k {
				return c
			}
		}
	}
	return nil
}

// NamedChildren returns the named children, skipping comments.
func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Named && c.Kind != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// FirstNamed returns the first named, non-comment child.
func (n *Node) FirstNamed() *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Named && c.Kind != "comment" {
			return c
		}
	}
	return nil
}

// Walk visits n and its descendants in source order. Returning false
// from visit skips the node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// FirstDescendant returns the first node of the given kind in source
// order, not counting n itself.
func (n *Node) FirstDescendant(kind string) *Node {
	var found *Node
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if found != nil {
				return false
			}
			if d.Kind == kind {
				found = d
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Is reports whether the node has one of the given kinds.
func (n *Node) Is(kinds ...string) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// unwrapParens strips parenthesized_expression wrappers.
func unwrapParens(n *Node) *Node {
	for n != nil && n.Kind == "parenthesized_expression" {
		inner := n.FirstNamed()
		if inner == nil {
			return n
		}
		n = inner
	}
	return n
}

// normalizeSpace collapses runs of whitespace so multi-line type
// annotations print on one line.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var functionKinds = []string{
	"function_declaration",
	"generator_function_declaration",
	"function_expression",
	"function",
	"generator_function",
	"arrow_function",
	"method_definition",
}

func isFunctionLike(n *Node) bool {
	return n.Is(functionKinds...)
}
