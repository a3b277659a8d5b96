// MIT License
//
// Copyright (c) 2022-2026 Arsene Tochemey Gandote
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package tree implements the back-reference tree nodes that mirror service
// ownership. A node carries no behavior of its own: it only keeps the value it
// mirrors, an ordered list of children and a non-owning parent pointer. Nodes
// are used for introspection, path rendering and graph export.
//
// Nodes are not safe for concurrent mutation. The owner of a node is expected
// to serialize writes; read-only traversal of a settled tree is safe from any
// goroutine.
package tree

import (
	"fmt"
	"iter"
	"strings"
)

// Node is a node in a tree of T values.
type Node[T comparable] struct {
	// data is the value this node mirrors
	data T
	// parent is a non-owning back-reference and never extends the
	// parent's lifetime
	parent *Node[T]
	// children holds the child nodes in insertion order
	children []*Node[T]
}

// New creates a detached node mirroring the given value.
func New[T comparable](data T) *Node[T] {
	return &Node[T]{data: data}
}

// Data returns the value mirrored by this node.
func (x *Node[T]) Data() T {
	return x.data
}

// Parent returns the parent node or nil when the node is a root.
func (x *Node[T]) Parent() *Node[T] {
	return x.parent
}

// Children returns a copy of the child nodes in insertion order.
func (x *Node[T]) Children() []*Node[T] {
	out := make([]*Node[T], len(x.children))
	copy(out, x.children)
	return out
}

// Add appends the given node as the last child and adopts it as our own.
func (x *Node[T]) Add(child *Node[T]) {
	if child == nil {
		return
	}
	child.parent = x
	x.children = append(x.children, child)
}

// AddValue creates a node for the given value, appends it as the last child
// and returns the new node.
func (x *Node[T]) AddValue(data T) *Node[T] {
	child := New(data)
	x.Add(child)
	return child
}

// AddDeduplicate appends the given node unless a child mirroring an equal
// value is already present.
func (x *Node[T]) AddDeduplicate(child *Node[T]) {
	if child == nil {
		return
	}
	for _, existing := range x.children {
		if existing.data == child.data {
			return
		}
	}
	x.Add(child)
}

// Discard removes the given child node. It is a no-op when the node is not
// one of our children.
func (x *Node[T]) Discard(child *Node[T]) {
	if child == nil {
		return
	}
	for i, existing := range x.children {
		if existing == child {
			x.children = append(x.children[:i], x.children[i+1:]...)
			if child.parent == x {
				child.parent = nil
			}
			return
		}
	}
}

// Detach removes this node from the given parent and returns it. The subtree
// below this node is kept intact.
func (x *Node[T]) Detach(parent *Node[T]) *Node[T] {
	if parent != nil {
		parent.Discard(x)
	}
	return x
}

// Reattach detaches this node from its current parent, if any, and grafts it
// under the given parent. Because Root is resolved by following parent links,
// every node of the reattached subtree observes the new root afterwards.
func (x *Node[T]) Reattach(parent *Node[T]) *Node[T] {
	x.Detach(x.parent)
	if parent != nil {
		parent.Add(x)
	}
	return x
}

// Root returns the furthest ancestor, which is the node without a parent.
func (x *Node[T]) Root() *Node[T] {
	node := x
	for node.parent != nil {
		node = node.parent
	}
	return node
}

// Depth returns the number of ancestors above this node.
func (x *Node[T]) Depth() int {
	depth := 0
	for node := x.parent; node != nil; node = node.parent {
		depth++
	}
	return depth
}

// Path returns the dot-joined rendering of the values from the root down to
// this node.
func (x *Node[T]) Path() string {
	var labels []string
	for node := range x.Walk() {
		labels = append(labels, fmt.Sprintf("%v", node.data))
	}
	// Walk yields self first, reverse into root-first order
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ".")
}

// Traverse returns a lazy, restartable depth-first sequence over this node
// and every descendant, self first, children in insertion order.
func (x *Node[T]) Traverse() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		x.traverse(yield)
	}
}

func (x *Node[T]) traverse(yield func(*Node[T]) bool) bool {
	if !yield(x) {
		return false
	}
	for _, child := range x.children {
		if !child.traverse(yield) {
			return false
		}
	}
	return true
}

// Walk returns a lazy, restartable sequence over this node and its ancestors
// up to the root.
func (x *Node[T]) Walk() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for node := x; node != nil; node = node.parent {
			if !yield(node) {
				return
			}
		}
	}
}

// AsGraph projects the subtree rooted at this node into a dependency graph
// with directed parent-to-child edges.
func (x *Node[T]) AsGraph() *Graph[T] {
	graph := NewGraph[T]()
	// register the vertices first so their order follows the traversal
	// instead of the edge insertions
	for node := range x.Traverse() {
		graph.AddVertex(node.data)
	}
	for node := range x.Traverse() {
		for _, child := range node.children {
			graph.AddEdge(node.data, child.data)
		}
	}
	return graph
}

// String returns the rendering of the mirrored value.
func (x *Node[T]) String() string {
	return fmt.Sprintf("Node(%v)", x.data)
}
