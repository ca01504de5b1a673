/**
 * Filename: /Users/bao/code/allphase/spectral.go
 * Path: /Users/bao/code/allphase
 * Created Date: Monday, March 7th 2022, 10:12:41 pm
 * Author: bao
 *
 * Copyright (c) 2022 Haibao Tang
 */

package allphase

import (
	"github.com/gonum/matrix/mat64"
)

// SpectralPartition labels the nodes by the signs of the eigenvector that
// belongs to the smallest eigenvalue of the weighted adjacency matrix. This
// is the relaxed minimum of sum(w * p(a) * p(b)), so it makes a reasonable
// seed for the random search. The labeling is returned with its score; the
// graph is not relabeled.
func SpectralPartition(g *ContactGraph) ([]NodePartition, int64, error) {
	var (
		M mat64.Dense
		e mat64.EigenSym
	)

	dense := newDenseGraph(g)
	N := len(dense.ids)
	if N == 0 {
		return nil, 0, preconditionf("cannot partition an empty graph")
	}
	if ok := e.Factorize(dense.adjacency(), true); !ok {
		return nil, 0, preconditionf("eigen decomposition did not converge")
	}
	M.EigenvectorsSym(&e)
	v := M.ColView(0) // Eigenvalues are in ascending order

	labels := make([]int8, N)
	for i := 0; i < N; i++ {
		if v.At(i, 0) < 0 {
			labels[i] = PartitionA
		} else {
			labels[i] = PartitionB
		}
	}
	score := dense.score(labels)
	log.Noticef("Eigenvector calculated on %d x %d contact matrix, score: %d", N, N, score)
	return dense.partitions(labels), score, nil
}

// adjacency yields the symmetric contact matrix, where each cell contains the
// edge weight between i-th and j-th node
func (d *denseGraph) adjacency() *mat64.SymDense {
	N := len(d.ids)
	P := mat64.NewSymDense(N, nil)
	for i := 0; i < N; i++ {
		for k := d.offsets[i]; k < d.offsets[i+1]; k++ {
			P.SetSym(i, d.targets[k], float64(d.weights[k]))
		}
	}
	return P
}
