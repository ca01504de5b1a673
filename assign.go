/**
 * Filename: /Users/bao/code/allphase/assign.go
 * Path: /Users/bao/code/allphase
 * Created Date: Wednesday, March 16th 2022, 8:46:25 pm
 * Author: bao
 *
 * Copyright (c) 2022 Haibao Tang
 */

package allphase

import (
	"context"
	"path"
	"strings"
	"sync/atomic"

	hungarianAlgorithm "github.com/oddg/hungarian-algorithm"
	"golang.org/x/sync/errgroup"
)

// Parent labels of a diploid assignment
const (
	ParentUnknown = iota
	ParentPat
	ParentMat
)

// ParentName prints the parent label
func ParentName(parent int) string {
	switch parent {
	case ParentPat:
		return "pat"
	case ParentMat:
		return "mat"
	}
	return "unknown"
}

// ParentAssignment is the outcome of aligning one query to both parents
type ParentAssignment struct {
	Name       string
	Length     int
	PatMatches int
	MatMatches int
	Parent     int
}

// DiploidAssigner aligns queries to a paternal and a maternal reference and
// assigns each query to the parent it shares more matching bases with
type DiploidAssigner struct {
	Pat     []Sequence
	Mat     []Sequence
	Aligner *Aligner
	Prefix  string // Skip queries without this prefix
	Threads int
}

// Assign aligns every query to both references, in input order
func (r *DiploidAssigner) Assign(ctx context.Context, queries []Sequence) ([]ParentAssignment, error) {
	aligner := r.Aligner
	if aligner == nil {
		aligner = NewAligner(DefaultAlignKmer)
	}
	threads := r.Threads
	if threads < 1 {
		threads = 1
	}
	var kept []*Sequence
	for i := range queries {
		if strings.Contains(queries[i].Name, r.Prefix) {
			kept = append(kept, &queries[i])
		}
	}
	log.Noticef("Assign %d queries against %d pat and %d mat sequences",
		len(kept), len(r.Pat), len(r.Mat))

	result := make([]ParentAssignment, len(kept))
	var job atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := int(job.Add(1)) - 1
				if i >= len(kept) {
					return nil
				}
				q := kept[i]
				a := ParentAssignment{
					Name:       q.Name,
					Length:     q.Len(),
					PatMatches: bestMatches(aligner, r.Pat, q),
					MatMatches: bestMatches(aligner, r.Mat, q),
				}
				switch {
				case a.PatMatches > a.MatMatches:
					a.Parent = ParentPat
				case a.MatMatches > a.PatMatches:
					a.Parent = ParentMat
				}
				result[i] = a
				log.Debugf("Query %s,%d,%d,%s", a.Name, a.PatMatches, a.MatMatches, ParentName(a.Parent))
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assigned := 0
	for _, a := range result {
		if a.Parent != ParentUnknown {
			assigned++
		}
	}
	log.Noticef("Assigned %s queries to a parent", Percentage(assigned, len(result)))
	return result, nil
}

// bestMatches returns the most matches of q against any of the references
func bestMatches(aligner *Aligner, refs []Sequence, q *Sequence) int {
	best := 0
	for i := range refs {
		chain := aligner.Align(refs[i].Seq, q.Seq)
		if total := chain.ApproximateNonOverlappingMatches(); total > best {
			best = total
		}
	}
	return best
}

// PhaseAgreement summarizes how well the phases agree with the parents
type PhaseAgreement struct {
	Bases    [2][2]int // Query bases by phase (A, B) and parent (pat, mat)
	ParentOf [2]int    // Parent matched to phase A and phase B
	Agreed   int       // Bases whose phase matches its parent
	Total    int       // Bases with both a phase and a parent
}

// Fraction is the share of agreeing bases
func (r PhaseAgreement) Fraction() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Agreed) / float64(r.Total)
}

// MatchPhasesToParents pairs each phase with one parent so that the number of
// agreeing bases is largest. Queries without a phase or a parent are ignored.
func MatchPhasesToParents(phases map[string]int8, assignments []ParentAssignment) PhaseAgreement {
	var r PhaseAgreement
	weights := Make2DSlice(2, 2)
	for _, a := range assignments {
		p, ok := phases[a.Name]
		if !ok || a.Parent == ParentUnknown || !validLabel(p) {
			continue
		}
		pi := 0
		if p == PartitionB {
			pi = 1
		}
		weights[pi][a.Parent-ParentPat] += a.Length
		r.Total += a.Length
	}
	for i := range weights {
		copy(r.Bases[i][:], weights[i])
	}

	solution := maxBipartiteMatchingWithWeights(weights)
	for pi, parent := range solution {
		r.ParentOf[pi] = parent + ParentPat
		r.Agreed += weights[pi][parent]
	}
	log.Noticef("Phase A => %s, phase B => %s, agreement: %s",
		ParentName(r.ParentOf[0]), ParentName(r.ParentOf[1]), Percentage(r.Agreed, r.Total))
	return r
}

// maxBipartiteMatchingWithWeights calculates the bipartite matching using the
// weights, wraps hungarianAlgorithm() which minimizes the costs, so we need to
// transform from weights to costs
func maxBipartiteMatchingWithWeights(weights [][]int) []int {
	maxCell := 0
	for _, row := range weights {
		for _, cell := range row {
			if cell > maxCell {
				maxCell = cell
			}
		}
	}
	N := len(weights)
	costs := Make2DSlice(N, N)
	for i, row := range weights {
		for j, cell := range row {
			costs[i][j] = maxCell - cell
		}
	}
	solution, err := hungarianAlgorithm.Solve(costs)
	if err != nil || len(solution) != N {
		// Identity matching for a degenerate matrix
		solution = make([]int, N)
		for i := range solution {
			solution[i] = i
		}
	}
	return solution
}

// Assigner runs the diploid assignment from FASTA files and, when a phases
// file is given, scores the phases against the parents
type Assigner struct {
	PatFile    string
	MatFile    string
	QueryFile  string
	PhasesFile string // Optional
	OutDir     string
	Config     *Config
	RunID      string

	Assignments []ParentAssignment
	Agreement   PhaseAgreement
}

// Run reads the inputs, assigns the queries and writes the outputs into OutDir
func (r *Assigner) Run(ctx context.Context) error {
	cfg := r.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := createOutDir(r.OutDir); err != nil {
		return err
	}
	var inputs [3][]Sequence
	for i, filename := range []string{r.PatFile, r.MatFile, r.QueryFile} {
		seqs, err := ReadFasta(filename)
		if err != nil {
			return err
		}
		inputs[i] = seqs
	}
	assigner := DiploidAssigner{
		Pat:     inputs[0],
		Mat:     inputs[1],
		Aligner: NewAligner(cfg.AlignKmer),
		Prefix:  cfg.Prefix,
		Threads: cfg.Threads,
	}
	var err error
	if r.Assignments, err = assigner.Assign(ctx, inputs[2]); err != nil {
		return err
	}
	if err := WriteAssignments(path.Join(r.OutDir, "assignments.csv"), r.Assignments); err != nil {
		return err
	}
	if r.PhasesFile != "" {
		phases, err := ReadPhases(r.PhasesFile)
		if err != nil {
			return err
		}
		r.Agreement = MatchPhasesToParents(phases, r.Assignments)
		if err := WriteAgreement(path.Join(r.OutDir, "agreement.csv"), r.Agreement); err != nil {
			return err
		}
	}
	return WriteConfig(path.Join(r.OutDir, "config.csv"), r.RunID, cfg)
}
