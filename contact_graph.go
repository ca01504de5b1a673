/*
 *  contact_graph.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/02/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"math/rand"
)

// Partition labels carried by each node
const (
	PartitionA     int8 = -1
	PartitionUnset int8 = 0
	PartitionB     int8 = 1
)

// Node holds the per-contig attributes of the contact graph
type Node struct {
	Length    int64 // Sequence length in bases
	Coverage  int64 // Matched bases accumulated from confirmed edges
	Partition int8  // PartitionA, PartitionB or PartitionUnset
	HasAlt    bool  // Linked to an alternate copy of itself
}

// Edge is an unordered pair of node ids, stored with A <= B
type Edge struct {
	A, B int32
}

// NewEdge returns the canonical edge for the pair a, b
func NewEdge(a, b int32) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// NodePartition is a single entry of a partition snapshot
type NodePartition struct {
	ID        int32
	Partition int8
}

// ContactGraph is an undirected weighted graph whose nodes carry a two-way
// partition label. Traversals visit nodes and edges in insertion order.
//
// The score of a labeling is the sum over all edges of -w * p(a) * p(b): an edge
// across the two partitions adds its weight, an edge within a partition
// subtracts it, and an unset endpoint contributes nothing.
type ContactGraph struct {
	nodes     map[int32]*Node
	nodeOrder []int32
	adjacency map[int32][]int32
	edges     map[Edge]int64
	edgeOrder []Edge
	rng       *rand.Rand
}

// NewContactGraph makes an empty graph
func NewContactGraph() *ContactGraph {
	return &ContactGraph{
		nodes:     map[int32]*Node{},
		adjacency: map[int32][]int32{},
		edges:     map[Edge]int64{},
		rng:       newRand(0),
	}
}

// Seed resets the generator used by RandomizePartitions
func (r *ContactGraph) Seed(seed int64) {
	r.rng = newRand(seed)
}

// TryInsertNode adds a node with the given coverage, no-op if it exists
func (r *ContactGraph) TryInsertNode(id int32, coverage int64) {
	if _, ok := r.nodes[id]; ok {
		return
	}
	r.nodes[id] = &Node{Coverage: coverage}
	r.nodeOrder = append(r.nodeOrder, id)
}

// TryInsertEdge adds an edge between a and b with the given weight, no-op if
// the edge exists. Both nodes must exist.
func (r *ContactGraph) TryInsertEdge(a, b int32, weight int64) error {
	if a == b {
		return preconditionf("self edge on node %d", a)
	}
	if err := r.checkNodes(a, b); err != nil {
		return err
	}
	e := NewEdge(a, b)
	if _, ok := r.edges[e]; ok {
		return nil
	}
	r.edges[e] = weight
	r.edgeOrder = append(r.edgeOrder, e)
	r.adjacency[a] = append(r.adjacency[a], b)
	r.adjacency[b] = append(r.adjacency[b], a)
	return nil
}

// IncrementEdgeWeight adds delta to the weight of an existing edge
func (r *ContactGraph) IncrementEdgeWeight(a, b int32, delta int64) error {
	if err := r.checkNodes(a, b); err != nil {
		return err
	}
	e := NewEdge(a, b)
	if _, ok := r.edges[e]; !ok {
		return notFoundf("edge (%d,%d)", a, b)
	}
	r.edges[e] += delta
	return nil
}

// EdgeWeight returns the weight of the edge between a and b
func (r *ContactGraph) EdgeWeight(a, b int32) (int64, error) {
	w, ok := r.edges[NewEdge(a, b)]
	if !ok {
		return 0, notFoundf("edge (%d,%d)", a, b)
	}
	return w, nil
}

// HasEdge checks if a and b are connected
func (r *ContactGraph) HasEdge(a, b int32) bool {
	_, ok := r.edges[NewEdge(a, b)]
	return ok
}

// HasNode checks if id is in the graph
func (r *ContactGraph) HasNode(id int32) bool {
	_, ok := r.nodes[id]
	return ok
}

// NodeCount returns the number of nodes
func (r *ContactGraph) NodeCount() int {
	return len(r.nodes)
}

// EdgeCount returns the number of edges
func (r *ContactGraph) EdgeCount() int {
	return len(r.edges)
}

// NodeIDs lists the node ids in insertion order
func (r *ContactGraph) NodeIDs() []int32 {
	ids := make([]int32, len(r.nodeOrder))
	copy(ids, r.nodeOrder)
	return ids
}

// Node returns a copy of the attributes of id
func (r *ContactGraph) Node(id int32) (Node, error) {
	n, err := r.node(id)
	if err != nil {
		return Node{}, err
	}
	return *n, nil
}

// SetNodeLength sets the sequence length of id
func (r *ContactGraph) SetNodeLength(id int32, length int64) error {
	n, err := r.node(id)
	if err != nil {
		return err
	}
	n.Length = length
	return nil
}

// NodeLength returns the sequence length of id
func (r *ContactGraph) NodeLength(id int32) (int64, error) {
	n, err := r.node(id)
	if err != nil {
		return 0, err
	}
	return n.Length, nil
}

// SetNodeCoverage sets the coverage of id
func (r *ContactGraph) SetNodeCoverage(id int32, coverage int64) error {
	n, err := r.node(id)
	if err != nil {
		return err
	}
	n.Coverage = coverage
	return nil
}

// NodeCoverage returns the coverage of id
func (r *ContactGraph) NodeCoverage(id int32) (int64, error) {
	n, err := r.node(id)
	if err != nil {
		return 0, err
	}
	return n.Coverage, nil
}

// IncrementCoverage adds delta to the coverage of id
func (r *ContactGraph) IncrementCoverage(id int32, delta int64) error {
	n, err := r.node(id)
	if err != nil {
		return err
	}
	n.Coverage += delta
	return nil
}

// AddAlt marks a and b as alternates of each other
func (r *ContactGraph) AddAlt(a, b int32) error {
	if err := r.checkNodes(a, b); err != nil {
		return err
	}
	r.nodes[a].HasAlt = true
	r.nodes[b].HasAlt = true
	return nil
}

// RandomizePartitions draws every label independently from {A, B}
func (r *ContactGraph) RandomizePartitions() {
	for _, id := range r.nodeOrder {
		r.nodes[id].Partition = randomLabel(r.rng)
	}
}

func randomLabel(rng *rand.Rand) int8 {
	if rng.Intn(2) == 0 {
		return PartitionA
	}
	return PartitionB
}

// Partition returns the label of id
func (r *ContactGraph) Partition(id int32) (int8, error) {
	n, err := r.node(id)
	if err != nil {
		return PartitionUnset, err
	}
	return n.Partition, nil
}

// SetPartition sets the label of id
func (r *ContactGraph) SetPartition(id int32, p int8) error {
	if !validLabel(p) {
		return preconditionf("label %d for node %d", p, id)
	}
	n, err := r.node(id)
	if err != nil {
		return err
	}
	n.Partition = p
	return nil
}

// Partitions snapshots all labels, ordered by node id
func (r *ContactGraph) Partitions() []NodePartition {
	ids := r.NodeIDs()
	sortInt32s(ids)
	partitions := make([]NodePartition, len(ids))
	for i, id := range ids {
		partitions[i] = NodePartition{ID: id, Partition: r.nodes[id].Partition}
	}
	return partitions
}

// SetPartitions restores a snapshot. The snapshot must label every node of
// the graph exactly once with A or B; otherwise nothing is changed.
func (r *ContactGraph) SetPartitions(partitions []NodePartition) error {
	if len(partitions) != len(r.nodes) {
		return preconditionf("partition of %d nodes given for graph of %d nodes",
			len(partitions), len(r.nodes))
	}
	seen := make(map[int32]bool, len(partitions))
	for _, p := range partitions {
		if _, ok := r.nodes[p.ID]; !ok {
			return notFoundf("node %d", p.ID)
		}
		if seen[p.ID] {
			return preconditionf("node %d labeled twice", p.ID)
		}
		if !validLabel(p.Partition) {
			return preconditionf("label %d for node %d", p.Partition, p.ID)
		}
		seen[p.ID] = true
	}
	for _, p := range partitions {
		r.nodes[p.ID].Partition = p.Partition
	}
	return nil
}

func validLabel(p int8) bool {
	return p == PartitionA || p == PartitionB
}

// ComputeTotalConsistencyScore sums -w * p(a) * p(b) over all edges
func (r *ContactGraph) ComputeTotalConsistencyScore() int64 {
	score := int64(0)
	for _, e := range r.edgeOrder {
		pa := int64(r.nodes[e.A].Partition)
		pb := int64(r.nodes[e.B].Partition)
		score -= r.edges[e] * pa * pb
	}
	return score
}

// FlipDelta returns how much the score changes if the label of id is flipped,
// looking only at the edges incident to id
func (r *ContactGraph) FlipDelta(id int32) (int64, error) {
	n, err := r.node(id)
	if err != nil {
		return 0, err
	}
	s := int64(0)
	for _, other := range r.adjacency[id] {
		s += r.edges[NewEdge(id, other)] * int64(r.nodes[other].Partition)
	}
	return 2 * int64(n.Partition) * s, nil
}

// ForEachNode visits every node in insertion order. The callback receives a
// copy of the node and may mutate the graph.
func (r *ContactGraph) ForEachNode(fn func(id int32, n Node)) {
	for _, id := range r.NodeIDs() {
		n, ok := r.nodes[id]
		if !ok {
			continue
		}
		fn(id, *n)
	}
}

// ForEachEdge visits every edge in insertion order. The callback may mutate
// the graph; edges removed before they are reached are skipped.
func (r *ContactGraph) ForEachEdge(fn func(e Edge, weight int64)) {
	order := make([]Edge, len(r.edgeOrder))
	copy(order, r.edgeOrder)
	for _, e := range order {
		w, ok := r.edges[e]
		if !ok {
			continue
		}
		fn(e, w)
	}
}

// ForEachNodeNeighbor visits the neighbors of id in the order their edges
// were inserted
func (r *ContactGraph) ForEachNodeNeighbor(id int32, fn func(other int32, weight int64)) error {
	if _, err := r.node(id); err != nil {
		return err
	}
	neighbors := make([]int32, len(r.adjacency[id]))
	copy(neighbors, r.adjacency[id])
	for _, other := range neighbors {
		w, ok := r.edges[NewEdge(id, other)]
		if !ok {
			continue
		}
		fn(other, w)
	}
	return nil
}

// RemoveEdge deletes the edge between a and b
func (r *ContactGraph) RemoveEdge(a, b int32) error {
	e := NewEdge(a, b)
	if _, ok := r.edges[e]; !ok {
		return notFoundf("edge (%d,%d)", a, b)
	}
	delete(r.edges, e)
	r.edgeOrder = removeEdgeFrom(r.edgeOrder, e)
	r.adjacency[a] = removeInt32From(r.adjacency[a], b)
	r.adjacency[b] = removeInt32From(r.adjacency[b], a)
	return nil
}

// RemoveNode deletes id together with its edges
func (r *ContactGraph) RemoveNode(id int32) error {
	if _, err := r.node(id); err != nil {
		return err
	}
	for _, other := range append([]int32(nil), r.adjacency[id]...) {
		if err := r.RemoveEdge(id, other); err != nil {
			return err
		}
	}
	delete(r.adjacency, id)
	delete(r.nodes, id)
	r.nodeOrder = removeInt32From(r.nodeOrder, id)
	return nil
}

// RemoveNodesWithoutAlt drops every node that has no alternate and returns
// how many were removed
func (r *ContactGraph) RemoveNodesWithoutAlt() int {
	removed := 0
	r.ForEachNode(func(id int32, n Node) {
		if n.HasAlt {
			return
		}
		if err := r.RemoveNode(id); err == nil {
			removed++
		}
	})
	return removed
}

func (r *ContactGraph) node(id int32) (*Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, notFoundf("node %d", id)
	}
	return n, nil
}

func (r *ContactGraph) checkNodes(a, b int32) error {
	if _, err := r.node(a); err != nil {
		return err
	}
	_, err := r.node(b)
	return err
}

func removeInt32From(a []int32, x int32) []int32 {
	for i, y := range a {
		if y == x {
			return append(a[:i:i], a[i+1:]...)
		}
	}
	return a
}

func removeEdgeFrom(a []Edge, x Edge) []Edge {
	for i, y := range a {
		if y == x {
			return append(a[:i:i], a[i+1:]...)
		}
	}
	return a
}
