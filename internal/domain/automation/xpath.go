package automation

import (
	"fmt"

	"github.com/antchfx/xpath"
)

// selectXPath evaluates expr over the document whose top element is root,
// the same tree the page source renders. Element names are control types
// and attributes are the ones emitted by the page source. limit <= 0
// means no limit.
func selectXPath(root Element, expr string, limit int) ([]Element, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Msg: "invalid xpath '" + expr + "'", Err: err}
	}

	nav := newTreeNavigator(root)
	iter, ok := compiled.Evaluate(nav).(*xpath.NodeIterator)
	if !ok {
		return nil, validation("xpath '%s' does not select elements", expr)
	}

	var out []Element
	for iter.MoveNext() {
		cur, ok := iter.Current().(*treeNavigator)
		if !ok || cur.attr >= 0 || cur.atDocument() {
			continue
		}
		out = append(out, cur.element())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if nav.err.error != nil {
		return nil, fmt.Errorf("failed to evaluate xpath: %w", nav.err.error)
	}
	return out, nil
}

type navFrame struct {
	elem     Element
	siblings []Element
	index    int
}

// treeNavigator implements xpath.NodeNavigator over the live element tree.
// path[0] is the document node; its only child is root.
type treeNavigator struct {
	root  Element
	path  []navFrame
	attr  int
	attrs []attribute
	// err is shared by every copy of one navigator; it records the first
	// failure to enumerate children and identifies the tree for MoveTo.
	err *errBox
}

type errBox struct{ error }

func newTreeNavigator(root Element) *treeNavigator {
	return &treeNavigator{
		root: root,
		path: []navFrame{{}},
		attr: -1,
		err:  &errBox{},
	}
}

func (n *treeNavigator) element() Element {
	return n.path[len(n.path)-1].elem
}

func (n *treeNavigator) atDocument() bool {
	return len(n.path) == 1
}

func (n *treeNavigator) NodeType() xpath.NodeType {
	switch {
	case n.attr >= 0:
		return xpath.AttributeNode
	case n.atDocument():
		return xpath.RootNode
	default:
		return xpath.ElementNode
	}
}

func (n *treeNavigator) LocalName() string {
	if n.attr >= 0 {
		return n.attrs[n.attr].name
	}
	if n.atDocument() {
		return ""
	}
	return controlTypeTag(n.element())
}

func (n *treeNavigator) Prefix() string {
	return ""
}

func (n *treeNavigator) Value() string {
	if n.attr >= 0 {
		return n.attrs[n.attr].value
	}
	if n.atDocument() {
		return n.root.Name()
	}
	return n.element().Name()
}

func (n *treeNavigator) Copy() xpath.NodeNavigator {
	cp := *n
	cp.path = make([]navFrame, len(n.path))
	copy(cp.path, n.path)
	return &cp
}

func (n *treeNavigator) MoveToRoot() {
	n.path = n.path[:1]
	n.attr = -1
	n.attrs = nil
}

func (n *treeNavigator) MoveToParent() bool {
	if n.attr >= 0 {
		n.attr = -1
		n.attrs = nil
		return true
	}
	if n.atDocument() {
		return false
	}
	n.path = n.path[:len(n.path)-1]
	return true
}

func (n *treeNavigator) MoveToNextAttribute() bool {
	if n.atDocument() {
		return false
	}
	if n.attr < 0 {
		n.attrs = elementAttributes(n.element())
	}
	if n.attr+1 >= len(n.attrs) {
		return false
	}
	n.attr++
	return true
}

func (n *treeNavigator) MoveToChild() bool {
	if n.attr >= 0 {
		return false
	}
	if n.atDocument() {
		n.path = append(n.path, navFrame{elem: n.root, siblings: []Element{n.root}})
		return true
	}
	children, err := n.element().Children()
	if err != nil {
		if n.err.error == nil {
			n.err.error = err
		}
		return false
	}
	if len(children) == 0 {
		return false
	}
	n.path = append(n.path, navFrame{elem: children[0], siblings: children})
	return true
}

func (n *treeNavigator) MoveToFirst() bool {
	if n.attr >= 0 || n.atDocument() {
		return false
	}
	top := &n.path[len(n.path)-1]
	if top.index == 0 {
		return false
	}
	top.index = 0
	top.elem = top.siblings[0]
	return true
}

func (n *treeNavigator) MoveToNext() bool {
	if n.attr >= 0 || n.atDocument() {
		return false
	}
	top := &n.path[len(n.path)-1]
	if top.index+1 >= len(top.siblings) {
		return false
	}
	top.index++
	top.elem = top.siblings[top.index]
	return true
}

func (n *treeNavigator) MoveToPrevious() bool {
	if n.attr >= 0 || n.atDocument() {
		return false
	}
	top := &n.path[len(n.path)-1]
	if top.index == 0 {
		return false
	}
	top.index--
	top.elem = top.siblings[top.index]
	return true
}

func (n *treeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*treeNavigator)
	if !ok || o.err != n.err {
		return false
	}
	n.path = make([]navFrame, len(o.path))
	copy(n.path, o.path)
	n.attr = o.attr
	n.attrs = o.attrs
	return true
}
