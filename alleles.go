/*
 *  alleles.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/20/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"context"
	"path"
)

// AlleleFinder pairs up allelic segments of an assembly graph from their
// pairwise alignments, either computed from the minhash candidates or read
// from a minimap2 PAF file
type AlleleFinder struct {
	GFAfile string
	PafFile string // Optional, skips hashing and aligning
	OutDir  string
	Config  *Config
	RunID   string

	// Outputs
	IDs       *IDMap
	Confirmed *ContactGraph // Symmetrical alignments
	Residual  *ContactGraph // Alignments the reducer did not confirm
}

// Run builds the alignment graph, reduces it to symmetrical pairs and writes
// the outputs into OutDir
func (r *AlleleFinder) Run(ctx context.Context) error {
	cfg := r.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := createOutDir(r.OutDir); err != nil {
		return err
	}
	gfa, err := LoadGFA(r.GFAfile)
	if err != nil {
		return err
	}
	r.IDs = gfa.IDs

	var alignments *ContactGraph
	if r.PafFile != "" {
		paf := PAF{PafFile: r.PafFile}
		if err := paf.ParseRecords(); err != nil {
			return err
		}
		if alignments, err = paf.AlignmentGraph(r.IDs, cfg.MinSimilarity); err != nil {
			return err
		}
	} else if alignments, err = r.alignCandidates(ctx, gfa.Sequences, cfg); err != nil {
		return err
	}

	reducer := SymmetricReducer{MinFraction: cfg.MinFraction}
	if r.Confirmed, err = reducer.Reduce(alignments); err != nil {
		return err
	}
	r.Residual = alignments

	if err := WriteAlignments(path.Join(r.OutDir, "alignments.csv"), r.Confirmed, r.Residual, r.IDs); err != nil {
		return err
	}
	return WriteConfig(path.Join(r.OutDir, "config.csv"), r.RunID, cfg)
}

// alignCandidates hashes the segments, then aligns the overlapping pairs
func (r *AlleleFinder) alignCandidates(ctx context.Context, sequences []Sequence, cfg *Config) (*ContactGraph, error) {
	hasher := Hasher{
		K:          cfg.KmerSize,
		SampleRate: cfg.SampleRate,
		Iterations: cfg.HashIterations,
		Threads:    cfg.Threads,
	}
	hasher.Hash(sequences)
	overlaps := hasher.Overlaps(cfg.MaxHits, cfg.MinHashSimilarity)
	if err := WriteOverlaps(path.Join(r.OutDir, "overlaps.csv"), overlaps); err != nil {
		return nil, err
	}

	builder := AlignmentGraphBuilder{
		Aligner:       NewAligner(cfg.AlignKmer),
		Threads:       cfg.Threads,
		MinSimilarity: cfg.MinSimilarity,
	}
	return builder.Build(ctx, AlignmentCandidates(overlaps, sequences), sequences, r.IDs)
}
