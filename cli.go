/*
 *  cli.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/21/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute builds the command tree and runs the subcommand named on the
// command line. Interrupts cancel the running pipeline.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd returns the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "allphase",
		Short:        "Phase diploid assembly graphs using Hi-C contacts",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.NOTICE
			if verbose {
				level = logging.DEBUG
			}
			logging.SetLevel(level, "allphase")
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug messages")

	root.AddCommand(newPhaseCmd())
	root.AddCommand(newAlignCmd())
	root.AddCommand(newAssignCmd())
	root.AddCommand(newPathCmd())
	return root
}

// configOpts carries the --config flag of a subcommand along with the
// settings bound to its other flags
type configOpts struct {
	file string
	cfg  *Config
	bind func(fs *pflag.FlagSet, cfg *Config)
}

// resolve loads the config file, if any, and re-applies the flags given on
// the command line on top of it
func (r *configOpts) resolve(cmd *cobra.Command) (*Config, error) {
	if r.file == "" {
		return r.cfg, nil
	}
	cfg, err := LoadConfig(r.file)
	if err != nil {
		return nil, err
	}
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	r.bind(fs, cfg)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if err != nil || fs.Lookup(f.Name) == nil {
			return
		}
		err = fs.Set(f.Name, f.Value.String())
	})
	if err != nil {
		return nil, preconditionf("flag: %v", err)
	}
	return cfg, nil
}

func newConfigOpts(cmd *cobra.Command, bind func(fs *pflag.FlagSet, cfg *Config)) *configOpts {
	r := &configOpts{cfg: DefaultConfig(), bind: bind}
	bind(cmd.Flags(), r.cfg)
	cmd.Flags().StringVar(&r.file, "config", "", "TOML file with settings, flags take precedence")
	return r
}

func bindCommonFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVarP(&cfg.Threads, "threads", "t", cfg.Threads, "Number of worker threads")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed, 0 for a random one")
}

func bindHashFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.KmerSize, "kmer", cfg.KmerSize, "Minhash k-mer size")
	fs.Float64Var(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Fraction of k-mers kept per hash function")
	fs.IntVar(&cfg.HashIterations, "hash-iterations", cfg.HashIterations, "Number of hash functions")
}

func newPhaseCmd() *cobra.Command {
	p := Phaser{}
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Partition the segments of a GFA into two phases using Hi-C contacts",
	}
	opts := newConfigOpts(cmd, func(fs *pflag.FlagSet, cfg *Config) {
		bindCommonFlags(fs, cfg)
		bindHashFlags(fs, cfg)
		fs.StringVarP(&cfg.Prefix, "prefix", "p", cfg.Prefix, "Only count alignments to references with this prefix")
		fs.IntVarP(&cfg.MinMapq, "mapq", "m", cfg.MinMapq, "Minimum mapping quality")
		fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "Number of search trials")
		fs.Float64Var(&cfg.Perturbation, "perturbation", cfg.Perturbation, "Fraction of labels flipped when perturbing the incumbent")
		fs.BoolVar(&cfg.GA, "ga", cfg.GA, "Refine the partition with a genetic algorithm")
		fs.IntVar(&cfg.MatrixMaxNodes, "matrix-max-nodes", cfg.MatrixMaxNodes, "Skip contacts.npy above this many segments, 0 for no limit")
		fs.BoolVar(&cfg.RequireAlt, "require-alt", cfg.RequireAlt, "Drop segments without an alt before phasing")
		fs.Float64Var(&cfg.AltSimilarity, "alt-similarity", cfg.AltSimilarity, "Minhash similarity for two segments to be alts")
	})
	cmd.Flags().StringVarP(&p.Bamfile, "input", "i", "", "Hi-C alignments (.bam or .sam)")
	cmd.Flags().StringVarP(&p.GFAfile, "gfa", "g", "", "Assembly graph")
	cmd.Flags().StringVarP(&p.OutDir, "output", "o", "", "Output directory, must not exist")
	for _, name := range []string{"input", "gfa", "output"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.resolve(cmd)
		if err != nil {
			return err
		}
		p.Config, p.RunID = cfg, uuid.New().String()
		banner("phase " + p.RunID)
		return p.Run(cmd.Context())
	}
	return cmd
}

func newAlignCmd() *cobra.Command {
	a := AlleleFinder{}
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Find symmetrical alignments between the segments of a GFA",
	}
	opts := newConfigOpts(cmd, func(fs *pflag.FlagSet, cfg *Config) {
		bindCommonFlags(fs, cfg)
		bindHashFlags(fs, cfg)
		fs.IntVar(&cfg.MaxHits, "max-hits", cfg.MaxHits, "Candidate overlaps kept per segment")
		fs.Float64Var(&cfg.MinHashSimilarity, "min-hash-similarity", cfg.MinHashSimilarity, "Minimum minhash similarity of a candidate")
		fs.IntVar(&cfg.AlignKmer, "align-kmer", cfg.AlignKmer, "Anchor size of the aligner")
		fs.Float64Var(&cfg.MinSimilarity, "min-similarity", cfg.MinSimilarity, "Minimum size ratio and alignment coverage")
		fs.Float64Var(&cfg.MinFraction, "min-fraction", cfg.MinFraction, "Minimum matches as a fraction of both lengths")
	})
	cmd.Flags().StringVarP(&a.GFAfile, "gfa", "g", "", "Assembly graph")
	cmd.Flags().StringVar(&a.PafFile, "paf", "", "Use these minimap2 alignments instead of aligning")
	cmd.Flags().StringVarP(&a.OutDir, "output", "o", "", "Output directory, must not exist")
	for _, name := range []string{"gfa", "output"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.resolve(cmd)
		if err != nil {
			return err
		}
		a.Config, a.RunID = cfg, uuid.New().String()
		banner("align " + a.RunID)
		return a.Run(cmd.Context())
	}
	return cmd
}

func newAssignCmd() *cobra.Command {
	a := Assigner{}
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign query sequences to the paternal or maternal haplotype",
	}
	opts := newConfigOpts(cmd, func(fs *pflag.FlagSet, cfg *Config) {
		bindCommonFlags(fs, cfg)
		fs.StringVarP(&cfg.Prefix, "prefix", "p", cfg.Prefix, "Skip queries whose name lacks this prefix")
		fs.IntVar(&cfg.AlignKmer, "align-kmer", cfg.AlignKmer, "Anchor size of the aligner")
	})
	cmd.Flags().StringVar(&a.PatFile, "pat", "", "Paternal reference FASTA")
	cmd.Flags().StringVar(&a.MatFile, "mat", "", "Maternal reference FASTA")
	cmd.Flags().StringVar(&a.QueryFile, "query", "", "Query FASTA")
	cmd.Flags().StringVar(&a.PhasesFile, "phases", "", "phases.csv to score against the parents")
	cmd.Flags().StringVarP(&a.OutDir, "output", "o", "", "Output directory, must not exist")
	for _, name := range []string{"pat", "mat", "query", "output"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.resolve(cmd)
		if err != nil {
			return err
		}
		a.Config, a.RunID = cfg, uuid.New().String()
		banner("assign " + a.RunID)
		return a.Run(cmd.Context())
	}
	return cmd
}

func newPathCmd() *cobra.Command {
	p := PathFinder{}
	var targets, prohibited, starts, ends string
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Find a path through the GFA that visits every target segment once",
	}
	opts := newConfigOpts(cmd, func(fs *pflag.FlagSet, cfg *Config) {
		fs.IntVar(&cfg.MaxPathIterations, "max-iterations", cfg.MaxPathIterations, "Step budget of the search")
	})
	cmd.Flags().StringVarP(&p.GFAfile, "gfa", "g", "", "Assembly graph")
	cmd.Flags().StringVar(&targets, "targets", "", "Comma-separated segments to visit")
	cmd.Flags().StringVar(&prohibited, "prohibited", "", "Comma-separated segments to avoid")
	cmd.Flags().StringVar(&starts, "starts", "", "Comma-separated allowed first handles, e.g. ctg1+")
	cmd.Flags().StringVar(&ends, "ends", "", "Comma-separated allowed last handles, e.g. ctg9-")
	_ = cmd.MarkFlagRequired("gfa")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.resolve(cmd)
		if err != nil {
			return err
		}
		p.Targets, p.Prohibited = splitList(targets), splitList(prohibited)
		p.Starts, p.Ends = splitList(starts), splitList(ends)
		p.MaxIterations = cfg.MaxPathIterations
		if err := p.Run(cmd.Context()); err != nil {
			return err
		}
		return p.Print(cmd.OutOrStdout())
	}
	return cmd
}

// banner prints the separate steps
func banner(message string) {
	message = "* " + message + " *"
	log.Notice(strings.Repeat("*", len(message)))
	log.Notice(message)
	log.Notice(strings.Repeat("*", len(message)))
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
