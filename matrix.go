/*
 * Filename: /Users/bao/code/allphase/matrix.go
 * Path: /Users/bao/code/allphase
 * Created Date: Saturday, March 19th 2022, 1:33:37 pm
 * Author: bao
 *
 * Copyright (c) 2022 Haibao Tang
 */

package allphase

import (
	"fmt"

	"github.com/kshedden/gonpy"
	"github.com/shenwei356/xopen"
)

// MatrixWriter serializes the contact graph as a dense square matrix for
// plotting, with the node names in a separate file in row order
type MatrixWriter struct {
	NpyFile  string
	IDsFile  string
	MaxNodes int // Larger graphs are not written, 0 for no limit
}

// Write dumps g, rows in ascending node id order. Nothing is written when g
// has more than MaxNodes nodes.
func (r *MatrixWriter) Write(g *ContactGraph, ids *IDMap) error {
	if N := g.NodeCount(); r.MaxNodes > 0 && N > r.MaxNodes {
		log.Warningf("Skip contact matrix: %d nodes exceed the limit of %d", N, r.MaxNodes)
		return nil
	}
	dense := newDenseGraph(g)
	N := len(dense.ids)
	data := make([]float64, N*N)
	for i := 0; i < N; i++ {
		for k := dense.offsets[i]; k < dense.offsets[i+1]; k++ {
			data[i*N+dense.targets[k]] = float64(dense.weights[k])
		}
	}

	w, err := gonpy.NewFileWriter(r.NpyFile)
	if err != nil {
		return ioError("create", r.NpyFile, err)
	}
	w.Shape = []int{N, N}
	if err := w.WriteFloat64(data); err != nil {
		return ioError("write", r.NpyFile, err)
	}

	fw, err := xopen.Wopen(r.IDsFile)
	if err != nil {
		return ioError("create", r.IDsFile, err)
	}
	defer fw.Close()
	for _, id := range dense.ids {
		name, err := ids.GetName(id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(fw, name); err != nil {
			return ioError("write", r.IDsFile, err)
		}
	}
	log.Noticef("Contact matrix (%d x %d) written to `%s`", N, N, r.NpyFile)
	return nil
}
