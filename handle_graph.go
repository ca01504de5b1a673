/*
 *  handle_graph.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/07/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"fmt"
)

// Handle is a node visited in one of its two orientations
type Handle struct {
	ID      int32
	Reverse bool
}

// Flip returns the same node in the opposite orientation
func (h Handle) Flip() Handle {
	return Handle{h.ID, !h.Reverse}
}

// String prints the handle as id followed by + or -
func (h Handle) String() string {
	if h.Reverse {
		return fmt.Sprintf("%d-", h.ID)
	}
	return fmt.Sprintf("%d+", h.ID)
}

// HandleGraph is the read-only view of a sequence graph used by the path search
type HandleGraph interface {
	ForEachNodeID(fn func(id int32))
	HasNode(id int32) bool
	// FollowEdges calls fn on every handle reachable in one step from h
	// until fn returns false
	FollowEdges(h Handle, fn func(next Handle) bool)
}

// BidirectedGraph stores oriented links between sequences, as in GFA. A link
// from a to b also allows walking from the flip of b to the flip of a.
type BidirectedGraph struct {
	order []int32
	nodes map[int32]bool
	next  map[Handle][]Handle
	edges int
}

// NewBidirectedGraph makes an empty graph
func NewBidirectedGraph() *BidirectedGraph {
	return &BidirectedGraph{
		nodes: map[int32]bool{},
		next:  map[Handle][]Handle{},
	}
}

// AddNode inserts id, no-op if it exists
func (r *BidirectedGraph) AddNode(id int32) {
	if r.nodes[id] {
		return
	}
	r.nodes[id] = true
	r.order = append(r.order, id)
}

// AddEdge links from to to; duplicate links are ignored
func (r *BidirectedGraph) AddEdge(from, to Handle) error {
	if !r.nodes[from.ID] {
		return notFoundf("node %d", from.ID)
	}
	if !r.nodes[to.ID] {
		return notFoundf("node %d", to.ID)
	}
	if !r.appendNext(from, to) {
		return nil
	}
	r.appendNext(to.Flip(), from.Flip())
	r.edges++
	return nil
}

func (r *BidirectedGraph) appendNext(from, to Handle) bool {
	for _, h := range r.next[from] {
		if h == to {
			return false
		}
	}
	r.next[from] = append(r.next[from], to)
	return true
}

// HasNode checks if id is in the graph
func (r *BidirectedGraph) HasNode(id int32) bool {
	return r.nodes[id]
}

// HasEdge checks if there is a link from a to b
func (r *BidirectedGraph) HasEdge(from, to Handle) bool {
	for _, h := range r.next[from] {
		if h == to {
			return true
		}
	}
	return false
}

// ForEachNodeID visits nodes in insertion order
func (r *BidirectedGraph) ForEachNodeID(fn func(id int32)) {
	for _, id := range r.order {
		fn(id)
	}
}

// FollowEdges visits the handles following h in link order
func (r *BidirectedGraph) FollowEdges(h Handle, fn func(next Handle) bool) {
	for _, n := range r.next[h] {
		if !fn(n) {
			return
		}
	}
}

// NodeCount returns the number of nodes
func (r *BidirectedGraph) NodeCount() int {
	return len(r.order)
}

// EdgeCount returns the number of links, not counting their flipped copies
func (r *BidirectedGraph) EdgeCount() int {
	return r.edges
}
