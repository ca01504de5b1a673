/*
 *  config.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/20/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"fmt"
	"os"
	"reflect"

	"github.com/BurntSushi/toml"
)

// Config holds the tunables shared by all subcommands. Every field can be
// set in a TOML file and overridden on the command line.
type Config struct {
	// Contacts
	MinMapq int    `toml:"min_mapq"`
	Prefix  string `toml:"prefix"`

	// Search
	Threads          int     `toml:"threads"`
	Iterations       int     `toml:"iterations"`
	Seed             int64   `toml:"seed"`
	Perturbation     float64 `toml:"perturbation"`
	SpectralMaxNodes int     `toml:"spectral_max_nodes"`
	MatrixMaxNodes   int     `toml:"matrix_max_nodes"`
	RequireAlt       bool    `toml:"require_alt"`

	// GA refinement
	GA          bool    `toml:"ga"`
	PopSize     int     `toml:"pop_size"`
	Generations int     `toml:"generations"`
	MutRate     float64 `toml:"mut_rate"`
	CrossRate   float64 `toml:"cross_rate"`

	// Hashing
	KmerSize          int     `toml:"kmer_size"`
	SampleRate        float64 `toml:"sample_rate"`
	HashIterations    int     `toml:"hash_iterations"`
	AltSimilarity     float64 `toml:"alt_similarity"`
	MaxHits           int     `toml:"max_hits"`
	MinHashSimilarity float64 `toml:"min_hash_similarity"`

	// Alignment
	AlignKmer     int     `toml:"align_kmer"`
	MinSimilarity float64 `toml:"min_similarity"`
	MinFraction   float64 `toml:"min_fraction"`

	// Hamiltonian path
	MaxPathIterations int `toml:"max_path_iterations"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		MinMapq:           DefaultMinMapq,
		Threads:           1,
		Iterations:        DefaultIterations,
		Perturbation:      DefaultPerturbation,
		SpectralMaxNodes:  DefaultSpectralMaxNodes,
		MatrixMaxNodes:    DefaultMatrixMaxNodes,
		PopSize:           DefaultPopSize,
		Generations:       DefaultGenerations,
		MutRate:           DefaultMutRate,
		CrossRate:         DefaultCrossRate,
		KmerSize:          DefaultKmerSize,
		SampleRate:        DefaultSampleRate,
		HashIterations:    DefaultHashIterations,
		AltSimilarity:     DefaultAltSimilarity,
		MaxHits:           DefaultMaxHits,
		MinHashSimilarity: DefaultMinHashSimilarity,
		AlignKmer:         DefaultAlignKmer,
		MinSimilarity:     DefaultMinSimilarity,
		MinFraction:       DefaultMinFraction,
		MaxPathIterations: DefaultMaxPathIterations,
	}
}

// LoadConfig reads a TOML file on top of the defaults. Unknown keys are
// reported and ignored.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ioError("open", path, err)
	}
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config `%s`: %w: %w", path, ErrPrecondition, err)
	}
	for _, key := range md.Undecoded() {
		log.Warningf("Unknown key `%s` in `%s`", key, path)
	}
	log.Noticef("Loaded config `%s`", path)
	return cfg, nil
}

// Rows lists every setting as a key, value pair in declaration order
func (r *Config) Rows() [][2]string {
	v := reflect.ValueOf(r).Elem()
	t := v.Type()
	rows := make([][2]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		rows = append(rows, [2]string{t.Field(i).Tag.Get("toml"), fmt.Sprint(v.Field(i).Interface())})
	}
	return rows
}
