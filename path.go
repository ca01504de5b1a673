/*
 *  path.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/21/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// PathFinder threads a Hamiltonian path through named segments of an
// assembly graph
type PathFinder struct {
	GFAfile       string
	Targets       []string // Segment names
	Prohibited    []string // Segment names
	Starts        []string // Handles such as ctg1+
	Ends          []string // Handles such as ctg9-
	MaxIterations int

	GFA    *GFA
	Result HamiltonianResult
}

// Run loads the graph and searches for the path
func (r *PathFinder) Run(ctx context.Context) error {
	gfa, err := LoadGFA(r.GFAfile)
	if err != nil {
		return err
	}
	r.GFA = gfa
	problem := HamiltonianProblem{MaxIterations: r.MaxIterations}
	if problem.Targets, err = r.nodeIDs(r.Targets); err != nil {
		return err
	}
	if problem.Prohibited, err = r.nodeIDs(r.Prohibited); err != nil {
		return err
	}
	if problem.Starts, err = r.handles(r.Starts); err != nil {
		return err
	}
	if problem.Ends, err = r.handles(r.Ends); err != nil {
		return err
	}

	r.Result, err = FindHamiltonianPath(ctx, gfa.Graph, problem)
	if err != nil {
		return err
	}
	log.Noticef("Path search: solved=%v unique=%v solutions=%d iterations=%d",
		r.Result.Solved, r.Result.Unique, r.Result.Solutions, r.Result.Iterations)
	return nil
}

// Print writes the path and its unique prefix, one line each
func (r *PathFinder) Print(w io.Writer) error {
	if !r.Result.Solved {
		_, err := fmt.Fprintln(w, "No path found")
		return err
	}
	if _, err := fmt.Fprintf(w, "path\t%s\n", r.names(r.Result.Path)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "unique_prefix\t%s\n", r.names(r.Result.UniquePrefix))
	return err
}

func (r *PathFinder) names(path []Handle) string {
	names := make([]string, len(path))
	for i, h := range path {
		names[i] = r.GFA.HandleName(h)
	}
	return strings.Join(names, ",")
}

func (r *PathFinder) nodeIDs(names []string) ([]int32, error) {
	ids := make([]int32, 0, len(names))
	for _, name := range names {
		id, err := r.GFA.IDs.GetID(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *PathFinder) handles(names []string) ([]Handle, error) {
	handles := make([]Handle, 0, len(names))
	for _, name := range names {
		h, err := r.GFA.ParseHandle(name)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}
