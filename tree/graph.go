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

// Edge is a directed dependency edge.
type Edge[T comparable] struct {
	// From is the depending vertex
	From T
	// To is the vertex From depends upon
	To T
}

// Graph is a simple directed dependency graph used as the exchange format
// when exporting a tree for external inspection or rendering.
type Graph[T comparable] struct {
	// vertices keeps the insertion order
	vertices []T
	// seen indexes the vertices for dedup
	seen map[T]bool
	// adjacency maps a vertex to the vertices it points to
	adjacency map[T][]T
}

// NewGraph creates an empty dependency graph.
func NewGraph[T comparable]() *Graph[T] {
	return &Graph[T]{
		seen:      make(map[T]bool),
		adjacency: make(map[T][]T),
	}
}

// AddVertex registers the given vertex. Duplicates are ignored.
func (x *Graph[T]) AddVertex(vertex T) {
	if x.seen[vertex] {
		return
	}
	x.seen[vertex] = true
	x.vertices = append(x.vertices, vertex)
}

// AddEdge registers a directed edge, adding the endpoints as needed.
func (x *Graph[T]) AddEdge(from, to T) {
	x.AddVertex(from)
	x.AddVertex(to)
	x.adjacency[from] = append(x.adjacency[from], to)
}

// Vertices returns the vertices in insertion order.
func (x *Graph[T]) Vertices() []T {
	out := make([]T, len(x.vertices))
	copy(out, x.vertices)
	return out
}

// Adjacent returns the vertices the given vertex points to.
func (x *Graph[T]) Adjacent(vertex T) []T {
	out := make([]T, len(x.adjacency[vertex]))
	copy(out, x.adjacency[vertex])
	return out
}

// Edges returns every directed edge of the graph.
func (x *Graph[T]) Edges() []Edge[T] {
	var edges []Edge[T]
	for _, from := range x.vertices {
		for _, to := range x.adjacency[from] {
			edges = append(edges, Edge[T]{From: from, To: to})
		}
	}
	return edges
}

// Size returns the number of vertices.
func (x *Graph[T]) Size() int {
	return len(x.vertices)
}
