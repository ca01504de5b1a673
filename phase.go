/**
 * Filename: /Users/bao/code/allphase/phase.go
 * Path: /Users/bao/code/allphase
 * Created Date: Sunday, March 20th 2022, 3:12:03 pm
 * Author: bao
 *
 * Copyright (c) 2022 Haibao Tang
 */

package allphase

import (
	"context"
	"os"
	"path"
)

// Phaser runs the Hi-C phasing pipeline: load the assembly graph, count
// contacts between its segments, mark alternate copies, then search for the
// most consistent two-way partition
type Phaser struct {
	Bamfile string
	GFAfile string
	OutDir  string
	Config  *Config
	RunID   string

	// Outputs
	Graph *ContactGraph
	IDs   *IDMap
	Best  *BestPartition
}

// Run executes the pipeline and writes the outputs into OutDir
func (r *Phaser) Run(ctx context.Context) error {
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
	r.Graph = NewContactGraph()
	r.Graph.Seed(cfg.Seed)
	for _, s := range gfa.Sequences {
		id, err := r.IDs.GetID(s.Name)
		if err != nil {
			return err
		}
		r.Graph.TryInsertNode(id, 0)
		if err := r.Graph.SetNodeLength(id, int64(s.Len())); err != nil {
			return err
		}
	}

	counter := ContactCounter{Bamfile: r.Bamfile, MinMapq: cfg.MinMapq, Prefix: cfg.Prefix}
	if _, err := counter.CountContacts(r.Graph, r.IDs); err != nil {
		return err
	}
	if err := r.markAlts(gfa.Sequences, cfg); err != nil {
		return err
	}
	if cfg.RequireAlt {
		removed := r.Graph.RemoveNodesWithoutAlt()
		log.Noticef("Removed %d nodes without an alt", removed)
	}
	if r.Graph.NodeCount() == 0 {
		return preconditionf("no node left to phase")
	}

	r.Best = NewBestPartition(r.Graph)
	if n := r.Graph.NodeCount(); n <= cfg.SpectralMaxNodes {
		partitions, score, err := SpectralPartition(r.Graph)
		if err != nil {
			log.Warningf("Skip spectral seed: %v", err)
		} else {
			r.Best.Offer(score, partitions)
		}
	}

	searcher := PhaseSearcher{
		Graph:         r.Graph,
		MaxIterations: cfg.Iterations,
		Threads:       cfg.Threads,
		Seed:          cfg.Seed,
		Perturbation:  cfg.Perturbation,
	}
	if err := searcher.Search(ctx, r.Best); err != nil {
		return err
	}
	if cfg.GA {
		ga := GARefiner{
			Graph:        r.Graph,
			PopSize:      cfg.PopSize,
			NGenerations: cfg.Generations,
			MutRate:      cfg.MutRate,
			CrossRate:    cfg.CrossRate,
			Seed:         cfg.Seed,
		}
		if err := ga.Refine(ctx, r.Best); err != nil {
			return err
		}
	}
	if r.Best.Empty() {
		return preconditionf("no partition was found")
	}
	if err := r.Graph.SetPartitions(r.Best.Partitions()); err != nil {
		return err
	}
	log.Noticef("Final consistency score: %d", r.Graph.ComputeTotalConsistencyScore())
	return r.write(cfg)
}

// markAlts links sequences that are each other's best minhash match
func (r *Phaser) markAlts(sequences []Sequence, cfg *Config) error {
	var withBases []Sequence
	for _, s := range sequences {
		if len(s.Seq) > 0 {
			withBases = append(withBases, s)
		}
	}
	hasher := Hasher{
		K:          cfg.KmerSize,
		SampleRate: cfg.SampleRate,
		Iterations: cfg.HashIterations,
		Threads:    cfg.Threads,
	}
	hasher.Hash(withBases)
	matches := hasher.SymmetricalMatches(cfg.AltSimilarity)
	for a, b := range matches {
		idA, err := r.IDs.GetID(a)
		if err != nil {
			return err
		}
		idB, err := r.IDs.GetID(b)
		if err != nil {
			return err
		}
		if err := r.Graph.AddAlt(idA, idB); err != nil {
			return err
		}
	}
	return WritePairs(path.Join(r.OutDir, "pairs.csv"), matches)
}

func (r *Phaser) write(cfg *Config) error {
	if err := WriteContacts(path.Join(r.OutDir, "contacts.csv"), r.Graph, r.IDs); err != nil {
		return err
	}
	if err := WritePhases(path.Join(r.OutDir, "phases.csv"), r.Graph, r.IDs); err != nil {
		return err
	}
	m := MatrixWriter{
		NpyFile:  path.Join(r.OutDir, "contacts.npy"),
		IDsFile:  path.Join(r.OutDir, "contacts.ids"),
		MaxNodes: cfg.MatrixMaxNodes,
	}
	if err := m.Write(r.Graph, r.IDs); err != nil {
		return err
	}
	return WriteConfig(path.Join(r.OutDir, "config.csv"), r.RunID, cfg)
}

// createOutDir makes a fresh output directory, refusing to reuse one
func createOutDir(dir string) error {
	if dir == "" {
		return preconditionf("no output directory given")
	}
	if _, err := os.Stat(dir); err == nil {
		return preconditionf("output directory `%s` already exists", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ioError("create", dir, err)
	}
	return nil
}
