/*
 *  hasher.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/10/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/exascience/pargo/parallel"
)

// Hasher estimates which sequences overlap by sampling their canonical k-mers
// under several hash functions and counting shared samples
type Hasher struct {
	K          int
	SampleRate float64 // Fraction of k-mers kept per hash function
	Iterations int     // Number of hash functions
	Threads    int

	names    []string
	totals   []int64           // Sampled hashes per sequence
	overlaps []map[int32]int64 // Shared hashes per pair, both directions
}

// Overlap is a candidate pair found by the Hasher
type Overlap struct {
	A, B   string
	Shared int64 // Hashes shared by A and B
	Total  int64 // Hashes sampled from A
}

// Similarity is the fraction of the hashes of A that B shares
func (r Overlap) Similarity() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Shared) / float64(r.Total)
}

// Hash sketches every sequence and counts shared hashes between all pairs
func (r *Hasher) Hash(sequences []Sequence) {
	n := len(sequences)
	r.names = make([]string, n)
	r.totals = make([]int64, n)
	r.overlaps = make([]map[int32]int64, n)
	for i, s := range sequences {
		r.names[i] = s.Name
		r.overlaps[i] = map[int32]int64{}
	}
	log.Noticef("Sketch %d sequences (k=%d, sample rate=%.3f, iterations=%d)",
		n, r.K, r.SampleRate, r.Iterations)

	if n == 0 {
		return
	}
	sketches := make([][]uint64, n)
	parallel.Range(0, n, r.Threads, func(low, high int) {
		for i := low; i < high; i++ {
			sketches[i] = r.sketch(sequences[i].Seq)
		}
	})

	bins := map[uint64][]int32{}
	for i, sketch := range sketches {
		r.totals[i] = int64(len(sketch))
		for _, h := range sketch {
			bins[h] = append(bins[h], int32(i))
		}
	}
	for _, bin := range bins {
		for x := 0; x < len(bin); x++ {
			for y := x + 1; y < len(bin); y++ {
				r.overlaps[bin[x]][bin[y]]++
				r.overlaps[bin[y]][bin[x]]++
			}
		}
	}
}

// sketch returns the sorted distinct sampled hashes of s
func (r *Hasher) sketch(s []byte) []uint64 {
	k := r.K
	if k <= 0 || len(s) < k {
		return nil
	}
	limit := uint64(math.MaxUint64)
	if r.SampleRate < 1 {
		limit = uint64(r.SampleRate * float64(math.MaxUint64))
	}
	iterations := r.Iterations
	if iterations < 1 {
		iterations = 1
	}
	forward := make([]byte, len(s))
	reverse := make([]byte, len(s))
	for i, c := range s {
		forward[i] = upperBase(c)
		reverse[len(s)-1-i] = complementBase(forward[i])
	}

	seen := map[uint64]bool{}
	run := 0 // Length of the current stretch of unambiguous bases
	for i := range forward {
		if forward[i] == 'N' {
			run = 0
			continue
		}
		run++
		if run < k {
			continue
		}
		start := i - k + 1
		hf := xxhash.Sum64(forward[start : i+1])
		hr := xxhash.Sum64(reverse[len(s)-1-i : len(s)-start])
		if hr < hf {
			hf = hr
		}
		for it := 0; it < iterations; it++ {
			h := uint64(deriveSeed(int64(hf), uint64(it)))
			if h <= limit {
				seen[h] = true
			}
		}
	}
	sketch := make([]uint64, 0, len(seen))
	for h := range seen {
		sketch = append(sketch, h)
	}
	sort.Slice(sketch, func(i, j int) bool { return sketch[i] < sketch[j] })
	return sketch
}

func upperBase(c byte) byte {
	switch c {
	case 'A', 'a':
		return 'A'
	case 'C', 'c':
		return 'C'
	case 'G', 'g':
		return 'G'
	case 'T', 't':
		return 'T'
	}
	return 'N'
}

func complementBase(c byte) byte {
	switch c {
	case 'A':
		return 'T'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'T':
		return 'A'
	}
	return 'N'
}

// Overlaps lists, for every sequence in input order, its best maxHits
// partners whose similarity reaches minSimilarity, best first
func (r *Hasher) Overlaps(maxHits int, minSimilarity float64) []Overlap {
	var result []Overlap
	for i := range r.names {
		items := []Item{}
		for j, shared := range r.overlaps[i] {
			o := Overlap{Shared: shared, Total: r.totals[i]}
			if o.Similarity() < minSimilarity {
				continue
			}
			items = append(items, Item{id: j, priority: shared})
		}
		for _, item := range topK(items, maxHits) {
			result = append(result, Overlap{
				A:      r.names[i],
				B:      r.names[item.id],
				Shared: item.priority,
				Total:  r.totals[i],
			})
		}
	}
	return result
}

// ForEachOverlap visits the same overlaps as Overlaps, without collecting them
func (r *Hasher) ForEachOverlap(maxHits int, minSimilarity float64, fn func(a, b string, shared, total int64)) {
	for _, o := range r.Overlaps(maxHits, minSimilarity) {
		fn(o.A, o.B, o.Shared, o.Total)
	}
}

// SymmetricalMatches pairs up sequences that are each other's best overlap
// with at least minSimilarity in both directions. Each pair appears once,
// keyed by the sequence that comes first in the input.
func (r *Hasher) SymmetricalMatches(minSimilarity float64) map[string]string {
	best := make([]int32, len(r.names))
	for i := range r.names {
		best[i] = -1
		if top := topK(r.candidates(i), 1); len(top) == 1 {
			best[i] = top[0].id
		}
	}
	matches := map[string]string{}
	for i, j := range best {
		if j < 0 || int32(i) >= j || best[j] != int32(i) {
			continue
		}
		ab := Overlap{Shared: r.overlaps[i][j], Total: r.totals[i]}
		ba := Overlap{Shared: r.overlaps[j][int32(i)], Total: r.totals[j]}
		if ab.Similarity() >= minSimilarity && ba.Similarity() >= minSimilarity {
			matches[r.names[i]] = r.names[j]
		}
	}
	log.Noticef("Found %d symmetrical matches", len(matches))
	return matches
}

func (r *Hasher) candidates(i int) []Item {
	items := make([]Item, 0, len(r.overlaps[i]))
	for j, shared := range r.overlaps[i] {
		items = append(items, Item{id: j, priority: shared})
	}
	return items
}
