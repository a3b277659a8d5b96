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

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode(t *testing.T) {
	t.Run("with add and children ordering", func(t *testing.T) {
		root := New("root")
		a := root.AddValue("a")
		b := root.AddValue("b")

		children := root.Children()
		require.Len(t, children, 2)
		assert.Equal(t, a, children[0])
		assert.Equal(t, b, children[1])
		assert.Equal(t, root, a.Parent())
		assert.Equal(t, root, b.Parent())
	})
	t.Run("with add deduplicate", func(t *testing.T) {
		root := New("root")
		root.AddValue("a")
		root.AddDeduplicate(New("a"))
		root.AddDeduplicate(New("b"))

		require.Len(t, root.Children(), 2)
	})
	t.Run("with discard", func(t *testing.T) {
		root := New("root")
		a := root.AddValue("a")
		b := root.AddValue("b")

		root.Discard(a)

		children := root.Children()
		require.Len(t, children, 1)
		assert.Equal(t, b, children[0])
		assert.Nil(t, a.Parent())

		// discarding an unknown node is a no-op
		root.Discard(New("c"))
		require.Len(t, root.Children(), 1)
	})
	t.Run("with depth and root", func(t *testing.T) {
		root := New("root")
		child := root.AddValue("child")
		grandChild := child.AddValue("grandchild")

		assert.Equal(t, 0, root.Depth())
		assert.Equal(t, 1, child.Depth())
		assert.Equal(t, 2, grandChild.Depth())
		assert.Equal(t, root, grandChild.Root())
		assert.Equal(t, root, root.Root())
	})
	t.Run("with path", func(t *testing.T) {
		root := New("root")
		child := root.AddValue("child")
		grandChild := child.AddValue("grandchild")

		assert.Equal(t, "root.child.grandchild", grandChild.Path())
		assert.Equal(t, "root", root.Path())
	})
	t.Run("with traverse in depth-first order", func(t *testing.T) {
		root := New("root")
		a := root.AddValue("a")
		a.AddValue("a1")
		a.AddValue("a2")
		root.AddValue("b")

		var visited []string
		for node := range root.Traverse() {
			visited = append(visited, node.Data())
		}
		assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, visited)

		// the sequence is restartable
		count := 0
		for range root.Traverse() {
			count++
		}
		assert.Equal(t, 5, count)
	})
	t.Run("with traverse early break", func(t *testing.T) {
		root := New("root")
		root.AddValue("a")
		root.AddValue("b")

		var visited []string
		for node := range root.Traverse() {
			visited = append(visited, node.Data())
			if len(visited) == 2 {
				break
			}
		}
		assert.Equal(t, []string{"root", "a"}, visited)
	})
	t.Run("with walk up to the root", func(t *testing.T) {
		root := New("root")
		child := root.AddValue("child")
		grandChild := child.AddValue("grandchild")

		var visited []string
		for node := range grandChild.Walk() {
			visited = append(visited, node.Data())
		}
		assert.Equal(t, []string{"grandchild", "child", "root"}, visited)
	})
	t.Run("with reattach repointing the subtree root", func(t *testing.T) {
		oldRoot := New("old")
		subtree := oldRoot.AddValue("subtree")
		leaf := subtree.AddValue("leaf")

		newRoot := New("new")
		returned := subtree.Reattach(newRoot)

		assert.Equal(t, subtree, returned)
		assert.Empty(t, oldRoot.Children())
		// every node of the subtree observes the new root
		assert.Equal(t, newRoot, subtree.Root())
		assert.Equal(t, newRoot, leaf.Root())
		// the subtree edges are preserved
		require.Len(t, subtree.Children(), 1)
		assert.Equal(t, leaf, subtree.Children()[0])
		assert.Equal(t, "new.subtree.leaf", leaf.Path())
	})
	t.Run("with detach", func(t *testing.T) {
		root := New("root")
		child := root.AddValue("child")

		returned := child.Detach(root)

		assert.Equal(t, child, returned)
		assert.Empty(t, root.Children())
		assert.Nil(t, child.Parent())
		assert.Equal(t, child, child.Root())
	})
}

func TestGraph(t *testing.T) {
	t.Run("with tree projection", func(t *testing.T) {
		root := New("root")
		a := root.AddValue("a")
		a.AddValue("a1")
		root.AddValue("b")

		graph := root.AsGraph()

		assert.Equal(t, []string{"root", "a", "a1", "b"}, graph.Vertices())
		assert.Equal(t, 4, graph.Size())
		assert.Equal(t, []string{"a", "b"}, graph.Adjacent("root"))
		assert.Equal(t, []string{"a1"}, graph.Adjacent("a"))
		assert.Empty(t, graph.Adjacent("a1"))

		edges := graph.Edges()
		require.Len(t, edges, 3)
		assert.Contains(t, edges, Edge[string]{From: "root", To: "a"})
		assert.Contains(t, edges, Edge[string]{From: "root", To: "b"})
		assert.Contains(t, edges, Edge[string]{From: "a", To: "a1"})
	})
	t.Run("with duplicate vertices ignored", func(t *testing.T) {
		graph := NewGraph[string]()
		graph.AddVertex("a")
		graph.AddVertex("a")
		graph.AddEdge("a", "b")

		assert.Equal(t, 2, graph.Size())
	})
}
