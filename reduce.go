/*
 *  reduce.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/05/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

// SymmetricReducer extracts reciprocal best edges from a similarity graph.
// Confirmed edges move to the output graph and raise the coverage of both
// endpoints in the source graph, which is why passes repeat until nothing
// more can be confirmed.
type SymmetricReducer struct {
	MinFraction float64 // Edge weight must exceed this fraction of both node lengths
}

// Reduce runs passes over src until a pass confirms no edge. src loses the
// confirmed edges and keeps the raised coverages.
func (r *SymmetricReducer) Reduce(src *ContactGraph) (*ContactGraph, error) {
	minFraction := r.MinFraction
	if minFraction <= 0 {
		minFraction = DefaultMinFraction
	}
	out := NewContactGraph()
	for pass := 1; ; pass++ {
		var confirmed []Edge
		var err error
		src.ForEachEdge(func(e Edge, w int64) {
			if err != nil {
				return
			}
			ok, cerr := r.confirm(src, e, w, minFraction)
			if cerr != nil || !ok {
				err = cerr
				return
			}
			if err = copyConfirmed(src, out, e, w); err != nil {
				return
			}
			if err = src.IncrementCoverage(e.A, w); err != nil {
				return
			}
			if err = src.IncrementCoverage(e.B, w); err != nil {
				return
			}
			confirmed = append(confirmed, e)
		})
		if err != nil {
			return nil, err
		}
		for _, e := range confirmed {
			if err := src.RemoveEdge(e.A, e.B); err != nil {
				return nil, err
			}
		}
		log.Debugf("Pass %d confirmed %d edges", pass, len(confirmed))
		if len(confirmed) == 0 {
			break
		}
	}
	log.Noticef("Confirmed %d symmetric edges among %d nodes", out.EdgeCount(), out.NodeCount())
	return out, nil
}

func (r *SymmetricReducer) confirm(g *ContactGraph, e Edge, w int64, minFraction float64) (bool, error) {
	bestA, err := bestNeighbor(g, e.A)
	if err != nil {
		return false, err
	}
	bestB, err := bestNeighbor(g, e.B)
	if err != nil {
		return false, err
	}
	if bestA != e.B || bestB != e.A {
		return false, nil
	}
	for _, id := range []int32{e.A, e.B} {
		n := g.nodes[id]
		if n.Coverage+w >= n.Length {
			return false, nil
		}
		if float64(w) <= float64(n.Length)*minFraction {
			return false, nil
		}
	}
	return true, nil
}

// bestNeighbor returns the heaviest neighbor of id, the first one seen on ties
func bestNeighbor(g *ContactGraph, id int32) (int32, error) {
	best := int32(0)
	bestWeight := int64(0)
	found := false
	err := g.ForEachNodeNeighbor(id, func(other int32, w int64) {
		if !found || w > bestWeight {
			best, bestWeight, found = other, w, true
		}
	})
	return best, err
}

func copyConfirmed(src, out *ContactGraph, e Edge, w int64) error {
	for _, id := range []int32{e.A, e.B} {
		out.TryInsertNode(id, 0)
		if err := out.SetNodeLength(id, src.nodes[id].Length); err != nil {
			return err
		}
	}
	return out.TryInsertEdge(e.A, e.B, w)
}
