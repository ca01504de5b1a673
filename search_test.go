/*
 *  search_test.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/04/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase_test

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanghaibao/allphase"
)

func randomGraph(t *testing.T, nodes, edges int, seed int64) *allphase.ContactGraph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g := allphase.NewContactGraph()
	g.Seed(seed)
	for id := int32(1); id <= int32(nodes); id++ {
		g.TryInsertNode(id, 0)
	}
	for i := 0; i < edges; i++ {
		a, b := int32(rng.Intn(nodes)+1), int32(rng.Intn(nodes)+1)
		if a == b {
			continue
		}
		require.NoError(t, g.TryInsertEdge(a, b, 0))
		require.NoError(t, g.IncrementEdgeWeight(a, b, int64(rng.Intn(100)+1)))
	}
	return g
}

func TestSearchTriangle(t *testing.T) {
	g := triangle(t)
	best := allphase.NewBestPartition(g)
	assert.True(t, best.Empty())

	searcher := allphase.PhaseSearcher{Graph: g, MaxIterations: 20, Threads: 4, Seed: 1}
	require.NoError(t, searcher.Search(context.Background(), best))
	assert.Equal(t, int64(19), best.Score())

	require.NoError(t, g.SetPartitions(best.Partitions()))
	assert.Equal(t, int64(19), g.ComputeTotalConsistencyScore())
	p1, _ := g.Partition(1)
	p2, _ := g.Partition(2)
	p3, _ := g.Partition(3)
	assert.Equal(t, p1, p3)
	assert.NotEqual(t, p1, p2)
}

func TestSearchRescoresToBest(t *testing.T) {
	g := randomGraph(t, 60, 300, 11)
	g.RandomizePartitions()
	start := g.ComputeTotalConsistencyScore()
	best := allphase.NewBestPartition(g)
	require.Equal(t, start, best.Score())

	var mu sync.Mutex
	trials := map[int]int64{}
	searcher := allphase.PhaseSearcher{
		Graph:         g,
		MaxIterations: 64,
		Threads:       8,
		Seed:          5,
		OnTrial: func(trial int, score int64) {
			mu.Lock()
			defer mu.Unlock()
			trials[trial] = score
		},
	}
	require.NoError(t, searcher.Search(context.Background(), best))
	require.Len(t, trials, 64)

	maxTrial := start
	for _, s := range trials {
		if s > maxTrial {
			maxTrial = s
		}
	}
	assert.Equal(t, maxTrial, best.Score())
	assert.GreaterOrEqual(t, best.Score(), start)

	require.NoError(t, g.SetPartitions(best.Partitions()))
	assert.Equal(t, best.Score(), g.ComputeTotalConsistencyScore())
	assert.Equal(t, naiveScore(g), best.Score())
}

func TestSearchKeepsSeedWhenTrialsAreWorse(t *testing.T) {
	g := triangle(t)
	A, B := allphase.PartitionA, allphase.PartitionB
	require.NoError(t, g.SetPartitions([]allphase.NodePartition{{ID: 1, Partition: B}, {ID: 2, Partition: A}, {ID: 3, Partition: B}}))
	best := allphase.NewBestPartition(g)
	seed := best.Partitions()

	searcher := allphase.PhaseSearcher{Graph: g, MaxIterations: 10, Threads: 2, Seed: 3}
	require.NoError(t, searcher.Search(context.Background(), best))
	// Ties never replace the incumbent
	assert.Equal(t, int64(19), best.Score())
	assert.Equal(t, seed, best.Partitions())
}

func TestSearchFixedNodes(t *testing.T) {
	g := triangle(t)
	A, B := allphase.PartitionA, allphase.PartitionB
	require.NoError(t, g.SetPartitions([]allphase.NodePartition{{ID: 1, Partition: A}, {ID: 2, Partition: A}, {ID: 3, Partition: B}}))
	best := allphase.NewBestPartition(g)
	searcher := allphase.PhaseSearcher{Graph: g, NodeIDs: []int32{3}, MaxIterations: 10, Threads: 2, Seed: 9}
	require.NoError(t, searcher.Search(context.Background(), best))

	// With 1 and 2 pinned together, node 3 alone cannot do better than 1
	assert.Equal(t, int64(1), best.Score())
	partitions := best.Partitions()
	assert.Equal(t, A, partitions[0].Partition)
	assert.Equal(t, A, partitions[1].Partition)

	searcher.NodeIDs = []int32{42}
	assert.ErrorIs(t, searcher.Search(context.Background(), best), allphase.ErrNotFound)
}

func TestSearchDrawsLabelsForFixedNodes(t *testing.T) {
	g := triangle(t)
	best := allphase.NewBestPartition(g)
	searcher := allphase.PhaseSearcher{Graph: g, NodeIDs: []int32{2}, MaxIterations: 10, Threads: 2, Seed: 4}
	require.NoError(t, searcher.Search(context.Background(), best))
	require.False(t, best.Empty())
	require.NoError(t, g.SetPartitions(best.Partitions()))
	assert.Equal(t, best.Score(), g.ComputeTotalConsistencyScore())
}

func TestSearchWithoutTrials(t *testing.T) {
	g := triangle(t)
	best := allphase.NewBestPartition(g)
	searcher := allphase.PhaseSearcher{Graph: g, MaxIterations: 0, Seed: 1}
	require.NoError(t, searcher.Search(context.Background(), best))
	assert.True(t, best.Empty())
	assert.Nil(t, best.Partitions())
	assert.Equal(t, int64(math.MinInt64), best.Score())
}

func TestSearchCancelled(t *testing.T) {
	g := randomGraph(t, 20, 60, 3)
	best := allphase.NewBestPartition(g)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	searcher := allphase.PhaseSearcher{Graph: g, MaxIterations: 1000, Threads: 4}
	assert.ErrorIs(t, searcher.Search(ctx, best), context.Canceled)
}

func TestBestPartitionOffer(t *testing.T) {
	best := allphase.NewBestPartition(allphase.NewContactGraph())
	one := []allphase.NodePartition{{ID: 1, Partition: allphase.PartitionA}}
	two := []allphase.NodePartition{{ID: 1, Partition: allphase.PartitionB}}
	assert.True(t, best.Offer(5, one))
	assert.False(t, best.Offer(5, two))
	assert.False(t, best.Offer(4, two))
	assert.Equal(t, one, best.Partitions())
	assert.True(t, best.Offer(6, two))
	assert.Equal(t, int64(6), best.Score())
	assert.Equal(t, two, best.Partitions())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(score int64) {
			defer wg.Done()
			best.Offer(score, []allphase.NodePartition{{ID: int32(score), Partition: allphase.PartitionA}})
		}(int64(i + 10))
	}
	wg.Wait()
	assert.Equal(t, int64(41), best.Score())
	assert.Equal(t, int32(41), best.Partitions()[0].ID)
}
