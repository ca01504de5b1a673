/*
 *  alignment_graph.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/12/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// AlignmentPair is a target and a query to be aligned, the target being the
// longer of the two
type AlignmentPair struct {
	Target, Query string
}

// AlignmentCandidates turns hash overlaps into distinct pairs, longer
// sequence first, in the order the overlaps were found
func AlignmentCandidates(overlaps []Overlap, sequences []Sequence) []AlignmentPair {
	lengths := map[string]int{}
	for _, s := range sequences {
		lengths[s.Name] = s.Len()
	}
	seen := map[AlignmentPair]bool{}
	var pairs []AlignmentPair
	for _, o := range overlaps {
		p := AlignmentPair{Target: o.A, Query: o.B}
		if lengths[o.B] > lengths[o.A] || (lengths[o.B] == lengths[o.A] && o.B < o.A) {
			p = AlignmentPair{Target: o.B, Query: o.A}
		}
		if p.Target == p.Query || seen[p] {
			continue
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	return pairs
}

// AlignmentGraphBuilder aligns candidate pairs on a pool of workers and
// collects the total matches of each pair as an edge
type AlignmentGraphBuilder struct {
	Aligner       *Aligner
	Threads       int
	MinSimilarity float64 // Minimum size ratio and alignment coverage relative to the target
}

// Build aligns every pair and returns the alignment graph, keyed by ids
func (r *AlignmentGraphBuilder) Build(ctx context.Context, pairs []AlignmentPair,
	sequences []Sequence, ids *IDMap) (*ContactGraph, error) {
	bySequence := make(map[string]*Sequence, len(sequences))
	for i := range sequences {
		bySequence[sequences[i].Name] = &sequences[i]
	}
	for _, p := range pairs {
		for _, name := range []string{p.Target, p.Query} {
			if _, ok := bySequence[name]; !ok {
				return nil, notFoundf("sequence `%s`", name)
			}
			ids.TryInsert(name)
		}
	}
	aligner := r.Aligner
	if aligner == nil {
		aligner = NewAligner(DefaultAlignKmer)
	}
	threads := r.Threads
	if threads < 1 {
		threads = 1
	}
	log.Noticef("Align %d candidate pairs on %d threads", len(pairs), threads)

	graph := NewContactGraph()
	var mu sync.Mutex
	var job atomic.Int64
	var nAdded atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := int(job.Add(1)) - 1
				if i >= len(pairs) {
					return nil
				}
				a := bySequence[pairs[i].Target]
				b := bySequence[pairs[i].Query]
				lengthA, lengthB := a.Len(), b.Len()
				if lengthA == 0 || float64(lengthB)/float64(lengthA) < r.MinSimilarity {
					continue
				}
				chain := aligner.Align(a.Seq, b.Seq)
				if chain.Empty() {
					continue
				}
				total := chain.ApproximateNonOverlappingMatches()
				if total > lengthA {
					total = lengthA
				}
				if float64(total)/float64(lengthA) < r.MinSimilarity {
					continue
				}
				idA, _ := ids.GetID(a.Name)
				idB, _ := ids.GetID(b.Name)

				mu.Lock()
				err := addAlignment(graph, idA, idB, lengthA, lengthB, total)
				mu.Unlock()
				if err != nil {
					return err
				}
				nAdded.Add(1)
				log.Debugf("Alignment %s,%s,%d,%d,%d", a.Name, b.Name, lengthA, lengthB, total)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Noticef("Kept %s alignments", Percentage(int(nAdded.Load()), len(pairs)))
	return graph, nil
}

func addAlignment(g *ContactGraph, a, b int32, lengthA, lengthB, total int) error {
	g.TryInsertNode(a, 0)
	g.TryInsertNode(b, 0)
	if err := g.SetNodeLength(a, int64(lengthA)); err != nil {
		return err
	}
	if err := g.SetNodeLength(b, int64(lengthB)); err != nil {
		return err
	}
	return g.TryInsertEdge(a, b, int64(total))
}
