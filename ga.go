/**
 * Filename: /Users/bao/code/allphase/ga.go
 * Path: /Users/bao/code/allphase
 * Created Date: Tuesday, March 8th 2022, 9:40:36 pm
 * Author: bao
 *
 * Copyright (c) 2022 Haibao Tang
 */

package allphase

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/MaxHalford/eaopt"
)

// PhaseGenome is a labeling of the free nodes of a contact graph. Only the
// free positions are ever mutated or crossed over.
type PhaseGenome struct {
	labels []int8
	dense  *denseGraph
	free   []int
}

// Evaluate returns the negated consistency score, as eaopt minimizes
func (r *PhaseGenome) Evaluate() (float64, error) {
	return -float64(r.dense.score(r.labels)), nil
}

// Mutate flips one random free label, or a short run of them
func (r *PhaseGenome) Mutate(rng *rand.Rand) {
	if len(r.free) == 0 {
		return
	}
	n := 1
	if rng.Float64() < 0.5 {
		n = 1 + rng.Intn(3)
	}
	for k := 0; k < n; k++ {
		i := r.free[rng.Intn(len(r.free))]
		r.labels[i] = -r.labels[i]
	}
}

// Crossover swaps the labels of each free node with probability 0.5
// (uniform crossover). Labels are only defined up to a global flip, so the
// other genome is aligned to this one first.
func (r *PhaseGenome) Crossover(genome eaopt.Genome, rng *rand.Rand) {
	q := genome.(*PhaseGenome)
	agree := 0
	for _, i := range r.free {
		if r.labels[i] == q.labels[i] {
			agree++
		}
	}
	flip := int8(1)
	if 2*agree < len(r.free) && len(r.free) == len(r.labels) {
		flip = -1
	}
	for _, i := range r.free {
		if rng.Float64() < 0.5 {
			r.labels[i], q.labels[i] = flip*q.labels[i], flip*r.labels[i]
		}
	}
}

// Clone a PhaseGenome
func (r *PhaseGenome) Clone() eaopt.Genome {
	clone := &PhaseGenome{
		labels: make([]int8, len(r.labels)),
		dense:  r.dense,
		free:   r.free,
	}
	copy(clone.labels, r.labels)
	return clone
}

// GARefiner evolves a population of labelings seeded from the incumbent and
// publishes the fittest one
type GARefiner struct {
	Graph        *ContactGraph
	NodeIDs      []int32 // Nodes the GA may relabel, empty means all nodes
	PopSize      int
	NGenerations int
	MutRate      float64
	CrossRate    float64
	Seed         int64
}

// Refine runs the GA. The first genome is the incumbent of best (or the
// graph labels, with unset ones drawn at random); the rest of the population
// are perturbed copies of it.
func (r *GARefiner) Refine(ctx context.Context, best *BestPartition) error {
	seed := r.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := newRand(deriveSeed(seed, 0))
	searcher := PhaseSearcher{Graph: r.Graph, NodeIDs: r.NodeIDs}
	dense, free, base, err := searcher.prepare(rng)
	if err != nil {
		return err
	}
	if len(free) == 0 {
		return nil
	}
	dense.loadLabels(best, base)
	for _, i := range free {
		if !validLabel(base[i]) {
			base[i] = randomLabel(rng)
		}
	}

	npop, ngen := r.PopSize, r.NGenerations
	if npop < 2 {
		npop = DefaultPopSize
	}
	if ngen < 1 {
		ngen = DefaultGenerations
	}
	conf := eaopt.NewDefaultGAConfig()
	conf.NPops = 1
	conf.PopSize = uint(npop)
	conf.NGenerations = uint(ngen)
	conf.Model = eaopt.ModGenerational{
		Selector: eaopt.SelTournament{
			NContestants: 3,
		},
		MutRate:   r.MutRate,
		CrossRate: r.CrossRate,
	}
	conf.RNG = newRand(deriveSeed(seed, 1))
	conf.ParallelEval = true

	report := ngen / 10
	if report < 1 {
		report = 1
	}
	conf.Callback = func(ga *eaopt.GA) {
		if int(ga.Generations)%report == 0 {
			log.Noticef("Current iteration GA-%d: max_score=%.0f",
				ga.Generations, -ga.HallOfFame[0].Fitness)
		}
	}
	conf.EarlyStop = func(ga *eaopt.GA) bool {
		return ctx.Err() != nil
	}
	ga, err := conf.NewGA()
	if err != nil {
		return err
	}
	log.Noticef("GA initialized (npop: %v, ngen: %v, mu: %.3f, cx: %.3f)",
		npop, ngen, r.MutRate, r.CrossRate)

	var made atomic.Int64
	newGenome := func(rng *rand.Rand) eaopt.Genome {
		g := &PhaseGenome{labels: make([]int8, len(base)), dense: dense, free: free}
		copy(g.labels, base)
		if made.Add(1) > 1 {
			for _, i := range free {
				if rng.Float64() < DefaultPerturbation {
					g.labels[i] = -g.labels[i]
				}
			}
		}
		return g
	}
	if err := ga.Minimize(newGenome); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fittest := ga.HallOfFame[0].Genome.(*PhaseGenome)
	score := dense.score(fittest.labels)
	if best.Offer(score, dense.partitions(fittest.labels)) {
		log.Noticef("GA improved score to %d", score)
	}
	return nil
}
