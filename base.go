/**
 * Filename: /Users/bao/code/allphase/base.go
 * Path: /Users/bao/code/allphase
 * Created Date: Tuesday, January 2nd 2018, 8:07:22 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package allphase

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	logging "github.com/op/go-logging"
)

const (
	// Version is the current version of allphase
	Version = "0.2.0"
	// DefaultMinMapq is the minimum mapping quality for a Hi-C alignment to count
	DefaultMinMapq = 0
	// DefaultIterations is the number of random restarts in the phase search
	DefaultIterations = 100
	// DefaultPerturbation is the fraction of labels flipped when perturbing the incumbent
	DefaultPerturbation = 0.1
	// DefaultMinFraction is the fraction of node length an edge must exceed to be confirmed
	DefaultMinFraction = 0.2
	// DefaultKmerSize is the k-mer size used by the minhash sketcher
	DefaultKmerSize = 22
	// DefaultSampleRate is the fraction of k-mers kept in each sketch
	DefaultSampleRate = 0.1
	// DefaultHashIterations is the number of independent hash functions
	DefaultHashIterations = 10
	// DefaultAltSimilarity is the similarity needed for two sequences to be called alts
	DefaultAltSimilarity = 0.75
	// DefaultMaxHits is the number of candidate overlaps kept per sequence
	DefaultMaxHits = 5
	// DefaultMinHashSimilarity is the minimum sketch similarity for a candidate overlap
	DefaultMinHashSimilarity = 0.05
	// DefaultAlignKmer is the anchor size used by the pairwise aligner
	DefaultAlignKmer = 15
	// DefaultMinSimilarity is the smallest size ratio, and alignment coverage of the
	// longer sequence, for a pair to enter the alignment graph
	DefaultMinSimilarity = 0.2
	// DefaultSpectralMaxNodes bounds the dense matrix used for the spectral seed
	DefaultSpectralMaxNodes = 5000
	// DefaultMatrixMaxNodes bounds the dense contact matrix export
	DefaultMatrixMaxNodes = 10000
	// DefaultPopSize is the population size of the GA refinement
	DefaultPopSize = 50
	// DefaultGenerations is the number of GA generations
	DefaultGenerations = 200
	// DefaultMutRate is the GA mutation rate
	DefaultMutRate = 0.2
	// DefaultCrossRate is the GA crossover rate
	DefaultCrossRate = 0.7
	// DefaultMaxPathIterations is the step budget of the Hamiltonian path search
	DefaultMaxPathIterations = 1000000
)

var log = logging.MustGetLogger("allphase")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// Percentage prints a human readable message of the percentage
func Percentage(a, b int) string {
	if b == 0 {
		return fmt.Sprintf("%d of %d (0.0 %%)", a, b)
	}
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}

// Make2DSlice allocates a 2D matrix with shape (m, n)
func Make2DSlice(m, n int) [][]int {
	P := make([][]int, m)
	for i := 0; i < m; i++ {
		P[i] = make([]int, n)
	}
	return P
}

// sortInt32s sorts a slice of int32
func sortInt32s(a []int32) {
	sort.Slice(a, func(i, j int) bool {
		return a[i] < a[j]
	})
}

// newRand returns a seeded generator; seed 0 picks a random seed
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = rand.Int63()
	}
	return rand.New(rand.NewSource(seed))
}

// deriveSeed mixes a parent seed and a stream id into an independent seed,
// using the SplitMix64 finalizer
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
