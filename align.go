/*
 *  align.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/12/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"fmt"
	"sort"
)

// AlignmentBlock is one gapped local alignment between a target and a query.
// Query coordinates are always on the forward strand of the query.
type AlignmentBlock struct {
	RefStart, RefStop     int
	QueryStart, QueryStop int
	NMatches              int
	NMismatches           int
	NInserts              int
	NDeletes              int
	Reverse               bool
}

// Identity is the fraction of aligned columns that match
func (r AlignmentBlock) Identity() float64 {
	total := r.NMatches + r.NMismatches + r.NInserts + r.NDeletes
	if total == 0 {
		return 0
	}
	return float64(r.NMatches) / float64(total)
}

// String prints the strand and coordinates of the block
func (r AlignmentBlock) String() string {
	strand := '+'
	if r.Reverse {
		strand = '-'
	}
	return fmt.Sprintf("%c\t(%d,%d)\t(%d,%d)\t%.3f", strand,
		r.RefStart, r.RefStop, r.QueryStart, r.QueryStop, r.Identity())
}

// AlignmentChain collects the blocks of one target/query pair
type AlignmentChain struct {
	Blocks []AlignmentBlock
}

// Empty checks if no block was found
func (r *AlignmentChain) Empty() bool {
	return len(r.Blocks) == 0
}

// SortByQuery orders blocks by query start
func (r *AlignmentChain) SortByQuery() {
	sort.SliceStable(r.Blocks, func(i, j int) bool {
		return r.Blocks[i].QueryStart < r.Blocks[j].QueryStart
	})
}

// ApproximateNonOverlappingMatches sums the matches of all blocks, counting
// each query base at most once. Blocks overlapping an earlier block on the
// query only contribute matches in proportion to their novel span.
func (r *AlignmentChain) ApproximateNonOverlappingMatches() int {
	blocks := make([]AlignmentBlock, len(r.Blocks))
	copy(blocks, r.Blocks)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].QueryStart < blocks[j].QueryStart
	})
	total := 0.0
	reach := 0
	for _, b := range blocks {
		span := b.QueryStop - b.QueryStart
		if span <= 0 {
			continue
		}
		start := b.QueryStart
		if reach > start {
			start = reach
		}
		if b.QueryStop > start {
			total += float64(b.NMatches) * float64(b.QueryStop-start) / float64(span)
		}
		if b.QueryStop > reach {
			reach = b.QueryStop
		}
	}
	return int(total + 0.5)
}

// Aligner finds gapped alignments by seeding exact k-mer anchors and
// extending them greedily, tolerating small indels
type Aligner struct {
	K         int // Anchor size
	MaxErrors int // Errors allowed before an extension stops
	MinBlock  int // Minimum matches for a block to be kept
	MaxOcc    int // K-mers occurring more often than this in the target are not used as anchors
}

// NewAligner makes an aligner with default settings
func NewAligner(k int) *Aligner {
	if k <= 0 {
		k = DefaultAlignKmer
	}
	return &Aligner{K: k, MaxErrors: 8, MinBlock: 2 * k, MaxOcc: 16}
}

// Align aligns query against target on both strands
func (r *Aligner) Align(target, query []byte) AlignmentChain {
	var chain AlignmentChain
	k := r.K
	if k <= 0 || len(target) < k || len(query) < k {
		return chain
	}
	index := map[string][]int{}
	for i := 0; i+k <= len(target); i++ {
		kmer := string(target[i : i+k])
		index[kmer] = append(index[kmer], i)
	}
	for _, reverse := range []bool{false, true} {
		q := query
		if reverse {
			q = reverseComplement(query)
		}
		for i := 0; i+k <= len(q); {
			positions := index[string(q[i:i+k])]
			if len(positions) == 0 || (r.MaxOcc > 0 && len(positions) > r.MaxOcc) {
				i++
				continue
			}
			var best AlignmentBlock
			for _, pos := range positions {
				b := r.extend(target, q, pos, i)
				if b.NMatches > best.NMatches {
					best = b
				}
			}
			if best.NMatches < r.MinBlock {
				i++
				continue
			}
			i = best.QueryStop
			if reverse {
				best.Reverse = true
				best.QueryStart, best.QueryStop = len(q)-best.QueryStop, len(q)-best.QueryStart
			}
			chain.Blocks = append(chain.Blocks, best)
		}
	}
	chain.SortByQuery()
	return chain
}

// AlignSequences aligns query against target with anchors of size k
func AlignSequences(target, query Sequence, k int) AlignmentChain {
	return NewAligner(k).Align(target.Seq, query.Seq)
}

// extend grows an exact anchor at (rStart, qStart) to the right, and trims
// the block back to its last matching base
func (r *Aligner) extend(ref, query []byte, rStart, qStart int) AlignmentBlock {
	k := r.K
	b := AlignmentBlock{
		RefStart: rStart, RefStop: rStart + k,
		QueryStart: qStart, QueryStop: qStart + k,
		NMatches: k,
	}
	last := b // Snapshot at the last matching base
	ri, qi := rStart+k, qStart+k
	errors := 0
	for ri < len(ref) && qi < len(query) && errors <= r.MaxErrors {
		if ref[ri] == query[qi] {
			ri++
			qi++
			b.NMatches++
			b.RefStop, b.QueryStop = ri, qi
			last = b
			continue
		}
		errors++
		if shift, insert := resync(ref, query, ri, qi); shift > 0 {
			if insert {
				qi += shift
				b.NInserts += shift
			} else {
				ri += shift
				b.NDeletes += shift
			}
			continue
		}
		ri++
		qi++
		b.NMismatches++
	}
	return last
}

// resync decides how to step over a difference at (ri, qi). A substitution
// is preferred when the bases right after it agree; otherwise a gap of 1 or 2
// bases in either sequence is tried. Returns shift 0 for a substitution.
func resync(ref, query []byte, ri, qi int) (shift int, insert bool) {
	if agrees(ref, query, ri+1, qi+1) {
		return 0, false
	}
	for shift = 1; shift <= 2; shift++ {
		if agrees(ref, query, ri, qi+shift) {
			return shift, true
		}
		if agrees(ref, query, ri+shift, qi) {
			return shift, false
		}
	}
	return 0, false
}

// agrees checks that the next few bases of a and b are identical
func agrees(a, b []byte, ai, bi int) bool {
	const lookahead = 3
	for t := 0; t < lookahead; t++ {
		if ai+t >= len(a) || bi+t >= len(b) || a[ai+t] != b[bi+t] {
			return false
		}
	}
	return true
}

func reverseComplement(s []byte) []byte {
	rc := make([]byte, len(s))
	for i, c := range s {
		rc[len(s)-1-i] = complementBase(upperBase(c))
	}
	return rc
}
