/*
 *  ga_test.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/08/22
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

func bipartite(t *testing.T) *allphase.ContactGraph {
	t.Helper()
	g := allphase.NewContactGraph()
	for id := int32(1); id <= 4; id++ {
		g.TryInsertNode(id, 0)
	}
	for _, a := range []int32{1, 2} {
		for _, b := range []int32{3, 4} {
			require.NoError(t, g.TryInsertEdge(a, b, 10))
		}
	}
	return g
}

func labelsOf(partitions []allphase.NodePartition) map[int32]int8 {
	labels := map[int32]int8{}
	for _, p := range partitions {
		labels[p.ID] = p.Partition
	}
	return labels
}

func TestSpectralPartitionBipartite(t *testing.T) {
	partitions, score, err := allphase.SpectralPartition(bipartite(t))
	require.NoError(t, err)
	assert.Equal(t, int64(40), score)
	labels := labelsOf(partitions)
	assert.Equal(t, labels[1], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, -labels[1], labels[3])
}

func TestSpectralPartitionTriangle(t *testing.T) {
	g := triangle(t)
	partitions, score, err := allphase.SpectralPartition(g)
	require.NoError(t, err)
	assert.Equal(t, int64(19), score)
	labels := labelsOf(partitions)
	assert.Equal(t, labels[1], labels[3])
	assert.NotEqual(t, labels[1], labels[2])

	// the graph keeps its labels
	for _, p := range g.Partitions() {
		assert.Equal(t, allphase.PartitionUnset, p.Partition)
	}

	best := allphase.NewBestPartition(g)
	assert.True(t, best.Offer(score, partitions))
	assert.Equal(t, int64(19), best.Score())
}

func TestSpectralPartitionEmpty(t *testing.T) {
	_, _, err := allphase.SpectralPartition(allphase.NewContactGraph())
	assert.ErrorIs(t, err, allphase.ErrPrecondition)
}

func TestGARefineTriangle(t *testing.T) {
	g := triangle(t)
	best := allphase.NewBestPartition(g)
	ga := allphase.GARefiner{Graph: g, PopSize: 10, NGenerations: 30,
		MutRate: 0.5, CrossRate: 0.5, Seed: 3}
	require.NoError(t, ga.Refine(context.Background(), best))
	assert.Equal(t, int64(19), best.Score())
	assert.Len(t, best.Partitions(), 3)
}

func TestGARefineNeverWorsens(t *testing.T) {
	g := randomGraph(t, 30, 120, 9)
	g.RandomizePartitions()
	best := allphase.NewBestPartition(g)
	before := best.Score()

	ga := allphase.GARefiner{Graph: g, PopSize: 20, NGenerations: 20,
		MutRate: 0.3, CrossRate: 0.5, Seed: 4}
	require.NoError(t, ga.Refine(context.Background(), best))
	assert.GreaterOrEqual(t, best.Score(), before)

	// the published labeling rescores to the published score
	require.NoError(t, g.SetPartitions(best.Partitions()))
	assert.Equal(t, best.Score(), g.ComputeTotalConsistencyScore())
}

func TestGARefineFixedNodes(t *testing.T) {
	g := triangle(t)
	// unlabeled fixed nodes draw a label, node 2 then plays against them
	ga := allphase.GARefiner{Graph: g, NodeIDs: []int32{2}, PopSize: 10, NGenerations: 30,
		MutRate: 0.5, CrossRate: 0.5, Seed: 5}
	drawn := allphase.NewBestPartition(g)
	require.NoError(t, ga.Refine(context.Background(), drawn))
	require.False(t, drawn.Empty())
	got := labelsOf(drawn.Partitions())
	for id := int32(1); id <= 3; id++ {
		assert.NotEqual(t, allphase.PartitionUnset, got[id])
	}
	if got[1] == got[3] {
		assert.Equal(t, -got[1], got[2])
		assert.Equal(t, int64(19), drawn.Score())
	}

	require.NoError(t, g.SetPartition(1, allphase.PartitionA))
	require.NoError(t, g.SetPartition(3, allphase.PartitionA))
	best := allphase.NewBestPartition(g)
	ga = allphase.GARefiner{Graph: g, NodeIDs: []int32{2}, PopSize: 10, NGenerations: 30,
		MutRate: 0.5, CrossRate: 0.5, Seed: 5}
	require.NoError(t, ga.Refine(context.Background(), best))
	labels := labelsOf(best.Partitions())
	assert.Equal(t, allphase.PartitionA, labels[1])
	assert.Equal(t, allphase.PartitionB, labels[2])
	assert.Equal(t, allphase.PartitionA, labels[3])
}

func TestGARefineCancelled(t *testing.T) {
	g := randomGraph(t, 10, 30, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ga := allphase.GARefiner{Graph: g, PopSize: 4, NGenerations: 5, Seed: 1}
	assert.ErrorIs(t, ga.Refine(ctx, allphase.NewBestPartition(g)), context.Canceled)
}
