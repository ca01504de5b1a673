/*
 *  hamiltonian_test.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/07/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanghaibao/allphase"
)

func fwd(id int32) allphase.Handle { return allphase.Handle{ID: id} }
func rev(id int32) allphase.Handle { return allphase.Handle{ID: id, Reverse: true} }

func handleGraph(t *testing.T, nodes []int32, links [][2]allphase.Handle) *allphase.BidirectedGraph {
	t.Helper()
	g := allphase.NewBidirectedGraph()
	for _, id := range nodes {
		g.AddNode(id)
	}
	for _, l := range links {
		require.NoError(t, g.AddEdge(l[0], l[1]))
	}
	return g
}

func cycle4(t *testing.T) *allphase.BidirectedGraph {
	return handleGraph(t, []int32{1, 2, 3, 4}, [][2]allphase.Handle{
		{fwd(1), fwd(2)}, {fwd(2), fwd(3)}, {fwd(3), fwd(4)}, {fwd(4), fwd(1)},
	})
}

func TestBidirectedGraphLinks(t *testing.T) {
	g := handleGraph(t, []int32{1, 2}, [][2]allphase.Handle{{fwd(1), rev(2)}, {fwd(1), rev(2)}})
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.HasEdge(fwd(1), rev(2)))
	assert.True(t, g.HasEdge(fwd(2), rev(1)))
	assert.False(t, g.HasEdge(rev(2), fwd(1)))
	assert.ErrorIs(t, g.AddEdge(fwd(1), fwd(7)), allphase.ErrNotFound)
	assert.Equal(t, "2-", rev(2).String())
}

func TestHamiltonianCycleUnique(t *testing.T) {
	g := cycle4(t)
	for _, start := range []int32{1, 2, 3, 4} {
		result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
			Targets: []int32{1, 2, 3, 4},
			Starts:  []allphase.Handle{fwd(start)},
		})
		require.NoError(t, err)
		assert.True(t, result.Solved)
		assert.True(t, result.Unique)
		require.Len(t, result.Path, 4)
		assert.Equal(t, fwd(start), result.Path[0])
		assert.Equal(t, result.Path, result.UniquePrefix)
	}
}

func TestHamiltonianTwoSolutions(t *testing.T) {
	g := handleGraph(t, []int32{1, 2, 3, 4}, [][2]allphase.Handle{
		{fwd(1), fwd(2)}, {fwd(1), fwd(3)}, {fwd(2), fwd(3)}, {fwd(3), fwd(2)},
		{fwd(2), fwd(4)}, {fwd(3), fwd(4)},
	})
	result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets: []int32{1, 2, 3, 4},
		Starts:  []allphase.Handle{fwd(1)},
		Ends:    []allphase.Handle{fwd(4)},
	})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.False(t, result.Unique)
	assert.Equal(t, 2, result.Solutions)
	assert.Equal(t, []allphase.Handle{fwd(1), fwd(2), fwd(3), fwd(4)}, result.Path)
	assert.Equal(t, []allphase.Handle{fwd(1)}, result.UniquePrefix)
}

func TestHamiltonianProhibited(t *testing.T) {
	g := cycle4(t)
	result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets:    []int32{1, 3},
		Prohibited: []int32{2, 4},
	})
	require.NoError(t, err)
	assert.False(t, result.Solved)

	// A prohibited start is simply never entered
	result, err = allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets:    []int32{3, 4},
		Prohibited: []int32{1},
		Starts:     []allphase.Handle{fwd(1), fwd(2)},
	})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.True(t, result.Unique)
	assert.Equal(t, []allphase.Handle{fwd(2), fwd(3), fwd(4)}, result.Path)
}

func TestHamiltonianPassesThroughNonTargets(t *testing.T) {
	g := cycle4(t)
	result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets: []int32{1, 3},
		Starts:  []allphase.Handle{fwd(1)},
	})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.True(t, result.Unique)
	assert.Equal(t, []allphase.Handle{fwd(1), fwd(2), fwd(3)}, result.Path)
}

func TestHamiltonianEmptyTargets(t *testing.T) {
	g := cycle4(t)
	result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Starts: []allphase.Handle{fwd(3)},
	})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.True(t, result.Unique)
	assert.Equal(t, []allphase.Handle{fwd(3)}, result.Path)

	result, err = allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.False(t, result.Unique)
	assert.Empty(t, result.UniquePrefix)
}

func TestHamiltonianReverseWalk(t *testing.T) {
	g := handleGraph(t, []int32{1, 2, 3}, [][2]allphase.Handle{{fwd(1), fwd(2)}, {fwd(2), rev(3)}})
	result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets: []int32{1, 2, 3},
		Starts:  []allphase.Handle{fwd(3)},
	})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.Equal(t, []allphase.Handle{fwd(3), rev(2), rev(1)}, result.Path)
}

func TestHamiltonianBudget(t *testing.T) {
	g := cycle4(t)
	result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets:       []int32{1, 2, 3, 4},
		Starts:        []allphase.Handle{fwd(1)},
		MaxIterations: 2,
	})
	require.NoError(t, err)
	assert.False(t, result.Solved)

	// Budget runs out right after the first solution
	result, err = allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets:       []int32{1, 2, 3, 4},
		Starts:        []allphase.Handle{fwd(1), fwd(2)},
		MaxIterations: 4,
	})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.False(t, result.Unique)
	assert.Equal(t, 1, result.Solutions)
	assert.Equal(t, result.Path, result.UniquePrefix)
}

func TestHamiltonianChainIsUnique(t *testing.T) {
	g := handleGraph(t, []int32{1, 2, 3}, [][2]allphase.Handle{{fwd(1), fwd(2)}, {fwd(2), fwd(3)}})
	result, err := allphase.FindHamiltonianPath(context.Background(), g, allphase.HamiltonianProblem{
		Targets: []int32{1, 2, 3},
	})
	require.NoError(t, err)
	assert.True(t, result.Solved)
	// 3-,2-,1- walks the same path backwards
	assert.True(t, result.Unique)
	assert.Equal(t, 1, result.Solutions)
	assert.Equal(t, []allphase.Handle{fwd(1), fwd(2), fwd(3)}, result.Path)
	assert.Equal(t, result.Path, result.UniquePrefix)
}
