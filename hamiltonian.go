/*
 *  hamiltonian.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/07/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"context"

	"github.com/bits-and-blooms/bitset"
)

// HamiltonianProblem describes which nodes a path must and must not visit
type HamiltonianProblem struct {
	Targets       []int32  // Nodes the path must visit, empty means any path will do
	Prohibited    []int32  // Nodes the path must never enter
	Starts        []Handle // Allowed first handles, empty means any
	Ends          []Handle // Allowed last handles, empty means any
	MaxIterations int      // Budget of search steps, 0 for DefaultMaxPathIterations
}

// HamiltonianResult is the outcome of FindHamiltonianPath
type HamiltonianResult struct {
	Solved       bool
	Path         []Handle // First solution found
	Unique       bool     // The search space was exhausted and held one solution
	UniquePrefix []Handle // Handles shared by the start of every solution found
	Solutions    int
	Iterations   int
}

// FindHamiltonianPath searches depth-first for a path over oriented handles
// that visits every target once, never enters a prohibited node and begins
// and ends on allowed handles. Non-target nodes may be used along the way.
// Once all targets are visited at an allowed end the path is recorded and
// not extended. The search stops at the second solution, at the step budget
// or when ctx is done.
func FindHamiltonianPath(ctx context.Context, g HandleGraph, problem HamiltonianProblem) (HamiltonianResult, error) {
	e := newPathEngine(ctx, g, problem)
	var result HamiltonianResult
	if e.unreachableTarget {
		return result, nil
	}
	for _, h := range e.startHandles(problem.Starts) {
		if e.extend(h) {
			break
		}
	}
	result.Iterations = e.iterations
	result.Solutions = len(e.solutions)
	if e.err != nil {
		return result, e.err
	}
	if len(e.solutions) == 0 {
		return result, nil
	}
	result.Solved = true
	result.Path = e.solutions[0]
	switch {
	case len(e.solutions) == 1:
		result.Unique = !e.outOfBudget
		result.UniquePrefix = append([]Handle(nil), e.solutions[0]...)
	default:
		result.UniquePrefix = commonPrefix(e.solutions[0], e.solutions[1])
	}
	return result, nil
}

// pathEngine holds the state of one search. Nodes are indexed densely so
// that visited and target sets are bitsets.
type pathEngine struct {
	ctx   context.Context
	g     HandleGraph
	ids   []int32
	index map[int32]uint

	targets           *bitset.BitSet
	nTargets          uint
	prohibited        *bitset.BitSet
	ends              map[Handle]bool
	unreachableTarget bool

	visited        *bitset.BitSet
	visitedTargets uint
	seen           *bitset.BitSet // scratch for reachability, two bits per node
	queue          []Handle
	path           []Handle

	solutions     [][]Handle
	iterations    int
	maxIterations int
	outOfBudget   bool
	err           error
}

func newPathEngine(ctx context.Context, g HandleGraph, problem HamiltonianProblem) *pathEngine {
	e := &pathEngine{
		ctx:           ctx,
		g:             g,
		index:         map[int32]uint{},
		ends:          map[Handle]bool{},
		maxIterations: problem.MaxIterations,
	}
	if e.maxIterations <= 0 {
		e.maxIterations = DefaultMaxPathIterations
	}
	g.ForEachNodeID(func(id int32) {
		e.index[id] = uint(len(e.ids))
		e.ids = append(e.ids, id)
	})
	n := uint(len(e.ids))
	e.targets = bitset.New(n)
	e.prohibited = bitset.New(n)
	e.visited = bitset.New(n)
	e.seen = bitset.New(2 * n)

	for _, id := range problem.Prohibited {
		if i, ok := e.index[id]; ok {
			e.prohibited.Set(i)
		}
	}
	for _, id := range problem.Targets {
		i, ok := e.index[id]
		if !ok || e.prohibited.Test(i) {
			log.Warningf("Target %d is missing or prohibited, no path can exist", id)
			e.unreachableTarget = true
			continue
		}
		e.targets.Set(i)
	}
	e.nTargets = e.targets.Count()
	for _, h := range problem.Ends {
		e.ends[h] = true
	}
	return e
}

// startHandles lists the allowed first handles, both orientations of every
// node when none are given
func (e *pathEngine) startHandles(starts []Handle) []Handle {
	if len(starts) > 0 {
		return starts
	}
	handles := make([]Handle, 0, 2*len(e.ids))
	for _, id := range e.ids {
		handles = append(handles, Handle{ID: id}, Handle{ID: id, Reverse: true})
	}
	return handles
}

// extend pushes h on the path and searches onwards. Returns true when the
// whole search must stop.
func (e *pathEngine) extend(h Handle) bool {
	i, ok := e.index[h.ID]
	if !ok || e.prohibited.Test(i) || e.visited.Test(i) {
		return false
	}
	e.iterations++
	if e.iterations > e.maxIterations {
		e.outOfBudget = true
		return true
	}
	if e.iterations&4095 == 0 {
		if err := e.ctx.Err(); err != nil {
			e.err = err
			return true
		}
	}

	e.visited.Set(i)
	isTarget := e.targets.Test(i)
	if isTarget {
		e.visitedTargets++
	}
	e.path = append(e.path, h)
	defer func() {
		e.path = e.path[:len(e.path)-1]
		e.visited.Clear(i)
		if isTarget {
			e.visitedTargets--
		}
	}()

	if e.visitedTargets == e.nTargets && (len(e.ends) == 0 || e.ends[h]) {
		if e.known(e.path) {
			return false
		}
		e.solutions = append(e.solutions, append([]Handle(nil), e.path...))
		return len(e.solutions) > 1
	}
	if !e.targetsReachable(h) {
		return false
	}
	stop := false
	e.g.FollowEdges(h, func(next Handle) bool {
		stop = e.extend(next)
		return !stop
	})
	return stop
}

// targetsReachable checks that every unvisited target can still be reached
// from h through unvisited, allowed nodes
func (e *pathEngine) targetsReachable(h Handle) bool {
	missing := e.nTargets - e.visitedTargets
	if missing == 0 {
		return true
	}
	e.seen.ClearAll()
	found := e.targets.Clone()
	found.InPlaceIntersection(e.visited)
	e.queue = append(e.queue[:0], h)
	e.seen.Set(e.handleBit(h))
	for len(e.queue) > 0 {
		cur := e.queue[0]
		e.queue = e.queue[1:]
		e.g.FollowEdges(cur, func(next Handle) bool {
			j, ok := e.index[next.ID]
			if !ok || e.prohibited.Test(j) || e.visited.Test(j) || e.seen.Test(e.handleBit(next)) {
				return true
			}
			e.seen.Set(e.handleBit(next))
			if e.targets.Test(j) && !found.Test(j) {
				found.Set(j)
				missing--
			}
			e.queue = append(e.queue, next)
			return missing > 0
		})
		if missing == 0 {
			return true
		}
	}
	return false
}

func (e *pathEngine) handleBit(h Handle) uint {
	b := 2 * e.index[h.ID]
	if h.Reverse {
		b++
	}
	return b
}

// known checks if path is the reverse walk of a solution already recorded
func (e *pathEngine) known(path []Handle) bool {
	for _, s := range e.solutions {
		if isReverseWalk(s, path) {
			return true
		}
	}
	return false
}

func isReverseWalk(a, b []Handle) bool {
	if len(a) != len(b) {
		return false
	}
	n := len(a)
	for i := range a {
		if a[i] != b[n-1-i].Flip() {
			return false
		}
	}
	return true
}

func commonPrefix(a, b []Handle) []Handle {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return append([]Handle(nil), a[:n]...)
}
