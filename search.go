/*
 *  search.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/04/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BestPartition is the result slot shared by all search workers. The score is
// read lock-free to reject losing trials early; the labels and the score they
// belong to are always replaced together under the mutex.
type BestPartition struct {
	score      atomic.Int64
	mu         sync.Mutex
	partitions []NodePartition
	partScore  int64
}

// NewBestPartition seeds the slot with the current labeling of g. A graph
// with unset labels leaves the slot empty.
func NewBestPartition(g *ContactGraph) *BestPartition {
	r := &BestPartition{partScore: math.MinInt64}
	r.score.Store(math.MinInt64)
	partitions := g.Partitions()
	for _, p := range partitions {
		if !validLabel(p.Partition) {
			return r
		}
	}
	r.Offer(g.ComputeTotalConsistencyScore(), partitions)
	return r
}

// Score returns the best score published so far. It is math.MinInt64 while
// the slot is Empty, so check Empty first.
func (r *BestPartition) Score() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.partScore
}

// Partitions returns a copy of the best labeling, nil if nothing was published
func (r *BestPartition) Partitions() []NodePartition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.partitions == nil {
		return nil
	}
	partitions := make([]NodePartition, len(r.partitions))
	copy(partitions, r.partitions)
	return partitions
}

// Empty checks if nothing has been published yet
func (r *BestPartition) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.partitions == nil
}

// Offer publishes partitions if score beats the incumbent. Ties keep the
// incumbent. Returns whether the offer was taken.
func (r *BestPartition) Offer(score int64, partitions []NodePartition) bool {
	for {
		current := r.score.Load()
		if score <= current {
			return false
		}
		if r.score.CompareAndSwap(current, score) {
			break
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// A better offer may have slipped in between the swap and the lock
	if r.partitions != nil && score <= r.partScore {
		return false
	}
	r.partitions = make([]NodePartition, len(partitions))
	copy(r.partitions, partitions)
	r.partScore = score
	return true
}

// beats is the lock-free pre-filter used by the workers
func (r *BestPartition) beats(score int64) bool {
	return score > r.score.Load()
}

// PhaseSearcher races randomized hill-climbing trials over the labels of a
// contact graph
type PhaseSearcher struct {
	Graph         *ContactGraph
	NodeIDs       []int32 // Nodes the search may relabel, empty means all nodes
	MaxIterations int     // Total number of trials across all workers
	Threads       int
	Seed          int64   // Seed of the worker generators, 0 for a random seed
	Perturbation  float64 // Fraction of labels flipped when a trial starts from the incumbent
	// OnTrial, if set, is called from the worker goroutines after every trial
	OnTrial func(trial int, score int64)
}

// Search runs MaxIterations trials and publishes improvements into best. The
// graph itself is not relabeled; apply best.Partitions() to keep the result.
// Nodes outside NodeIDs that carry no label are given a random one first.
func (r *PhaseSearcher) Search(ctx context.Context, best *BestPartition) error {
	seed := r.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	dense, free, base, err := r.prepare(newRand(deriveSeed(seed, math.MaxUint64)))
	if err != nil {
		return err
	}

	threads := r.Threads
	if threads < 1 {
		threads = 1
	}
	perturbation := r.Perturbation
	if perturbation <= 0 {
		perturbation = DefaultPerturbation
	}
	log.Noticef("Search %d trials on %d threads (%d free nodes, %d edges)",
		r.MaxIterations, threads, len(free), r.Graph.EdgeCount())

	var job atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		rng := rand.New(rand.NewSource(deriveSeed(seed, uint64(w))))
		g.Go(func() error {
			labels := make([]int8, len(base))
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				trial := int(job.Add(1)) - 1
				if trial >= r.MaxIterations {
					return nil
				}
				copy(labels, base)
				if trial%2 == 1 && dense.loadLabels(best, labels) {
					for _, i := range free {
						if rng.Float64() < perturbation {
							labels[i] = -labels[i]
						}
					}
				} else {
					for _, i := range free {
						labels[i] = randomLabel(rng)
					}
				}
				score := dense.climb(labels, free)
				if r.OnTrial != nil {
					r.OnTrial(trial, score)
				}
				if best.beats(score) && best.Offer(score, dense.partitions(labels)) {
					log.Debugf("Trial %d improved score to %d", trial, score)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if best.Empty() {
		log.Warning("No labeling was published")
		return nil
	}
	log.Noticef("Best score: %d", best.Score())
	return nil
}

// prepare indexes the graph and returns the free positions along with the
// current labels. Fixed nodes without a label draw one from rng.
func (r *PhaseSearcher) prepare(rng *rand.Rand) (*denseGraph, []int, []int8, error) {
	dense := newDenseGraph(r.Graph)
	free, err := r.freeNodes(dense)
	if err != nil {
		return nil, nil, nil, err
	}
	base := make([]int8, len(dense.ids))
	isFree := make([]bool, len(dense.ids))
	for _, i := range free {
		isFree[i] = true
	}
	unlabeled := 0
	for i, id := range dense.ids {
		base[i] = r.Graph.nodes[id].Partition
		if !isFree[i] && !validLabel(base[i]) {
			base[i] = randomLabel(rng)
			unlabeled++
		}
	}
	if unlabeled > 0 {
		log.Warningf("%d fixed nodes had no label, drawn at random", unlabeled)
	}
	return dense, free, base, nil
}

func (r *PhaseSearcher) freeNodes(dense *denseGraph) ([]int, error) {
	if len(r.NodeIDs) == 0 {
		free := make([]int, len(dense.ids))
		for i := range free {
			free[i] = i
		}
		return free, nil
	}
	seen := map[int]bool{}
	free := make([]int, 0, len(r.NodeIDs))
	for _, id := range r.NodeIDs {
		i, ok := dense.index[id]
		if !ok {
			return nil, notFoundf("node %d", id)
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		free = append(free, i)
	}
	return free, nil
}

// denseGraph is a read-only compressed adjacency view of a ContactGraph,
// indexed by the position of each node id in ascending order
type denseGraph struct {
	ids     []int32
	index   map[int32]int
	offsets []int
	targets []int
	weights []int64
}

func newDenseGraph(g *ContactGraph) *denseGraph {
	ids := g.NodeIDs()
	sortInt32s(ids)
	d := &denseGraph{
		ids:     ids,
		index:   make(map[int32]int, len(ids)),
		offsets: make([]int, len(ids)+1),
	}
	for i, id := range ids {
		d.index[id] = i
	}
	for i, id := range ids {
		d.offsets[i] = len(d.targets)
		for _, other := range g.adjacency[id] {
			d.targets = append(d.targets, d.index[other])
			d.weights = append(d.weights, g.edges[NewEdge(id, other)])
		}
	}
	d.offsets[len(ids)] = len(d.targets)
	return d
}

func (d *denseGraph) score(labels []int8) int64 {
	score := int64(0)
	for i := range d.ids {
		for k := d.offsets[i]; k < d.offsets[i+1]; k++ {
			j := d.targets[k]
			if i < j {
				score -= d.weights[k] * int64(labels[i]) * int64(labels[j])
			}
		}
	}
	return score
}

func (d *denseGraph) flipDelta(labels []int8, i int) int64 {
	s := int64(0)
	for k := d.offsets[i]; k < d.offsets[i+1]; k++ {
		s += d.weights[k] * int64(labels[d.targets[k]])
	}
	return 2 * int64(labels[i]) * s
}

// climb flips free labels while any single flip improves the score, and
// returns the final score
func (d *denseGraph) climb(labels []int8, free []int) int64 {
	score := d.score(labels)
	for improved := true; improved; {
		improved = false
		for _, i := range free {
			if delta := d.flipDelta(labels, i); delta > 0 {
				labels[i] = -labels[i]
				score += delta
				improved = true
			}
		}
	}
	return score
}

func (d *denseGraph) partitions(labels []int8) []NodePartition {
	partitions := make([]NodePartition, len(d.ids))
	for i, id := range d.ids {
		partitions[i] = NodePartition{ID: id, Partition: labels[i]}
	}
	return partitions
}

// loadLabels copies the incumbent into labels, false if there is none
func (d *denseGraph) loadLabels(best *BestPartition, labels []int8) bool {
	best.mu.Lock()
	defer best.mu.Unlock()
	if best.partitions == nil {
		return false
	}
	for _, p := range best.partitions {
		if i, ok := d.index[p.ID]; ok {
			labels[i] = p.Partition
		}
	}
	return true
}
