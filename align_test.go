/*
 *  align_test.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/12/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanghaibao/allphase"
)

// mutate substitutes every step-th base and deletes one base in the middle
func mutate(s []byte, step int) []byte {
	out := append([]byte(nil), s...)
	for i := step / 2; i < len(out); i += step {
		switch out[i] {
		case 'A':
			out[i] = 'C'
		default:
			out[i] = 'A'
		}
	}
	mid := len(out) / 2
	return append(out[:mid], out[mid+1:]...)
}

func TestAlignForward(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	target := randomDNA(rng, 2000)
	query := mutate(target[200:1500], 97)
	aligner := allphase.NewAligner(15)
	chain := aligner.Align(target, query)
	require.False(t, chain.Empty())
	for _, b := range chain.Blocks {
		assert.False(t, b.Reverse)
		assert.Greater(t, b.Identity(), 0.95)
	}
	total := chain.ApproximateNonOverlappingMatches()
	assert.Greater(t, total, 1200)
	assert.LessOrEqual(t, total, len(query))
}

func TestAlignReverse(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	target := randomDNA(rng, 1500)
	query := reverseComplement(target[100:1100])
	chain := allphase.NewAligner(15).Align(target, query)
	require.Len(t, chain.Blocks, 1)
	b := chain.Blocks[0]
	assert.True(t, b.Reverse)
	assert.Equal(t, 0, b.QueryStart)
	assert.Equal(t, 1000, b.QueryStop)
	assert.Equal(t, 100, b.RefStart)
	assert.Equal(t, 1000, chain.ApproximateNonOverlappingMatches())
}

func TestAlignUnrelated(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	chain := allphase.NewAligner(15).Align(randomDNA(rng, 1000), randomDNA(rng, 1000))
	assert.True(t, chain.Empty())
	assert.Equal(t, 0, chain.ApproximateNonOverlappingMatches())
}

func TestApproximateNonOverlappingMatches(t *testing.T) {
	chain := allphase.AlignmentChain{Blocks: []allphase.AlignmentBlock{
		{QueryStart: 50, QueryStop: 150, NMatches: 100},
		{QueryStart: 0, QueryStop: 100, NMatches: 90},
		{QueryStart: 120, QueryStop: 140, NMatches: 20},
	}}
	// 90 from the first block, half of the second, nothing from the contained one
	assert.Equal(t, 140, chain.ApproximateNonOverlappingMatches())
}

func TestBuildAlignmentGraph(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	a := randomDNA(rng, 3000)
	seqs := []allphase.Sequence{
		{Name: "hap1", Seq: a, Length: len(a)},
		{Name: "hap2", Seq: mutate(a, 211), Length: len(a) - 1},
		{Name: "short", Seq: a[:300], Length: 300},
		{Name: "other", Seq: randomDNA(rng, 2500), Length: 2500},
	}
	overlaps := []allphase.Overlap{
		{A: "hap2", B: "hap1"},
		{A: "hap1", B: "hap2"},
		{A: "hap1", B: "short"},
		{A: "other", B: "hap1"},
	}
	pairs := allphase.AlignmentCandidates(overlaps, seqs)
	assert.Equal(t, []allphase.AlignmentPair{
		{Target: "hap1", Query: "hap2"},
		{Target: "hap1", Query: "short"},
		{Target: "hap1", Query: "other"},
	}, pairs)

	ids := allphase.NewIDMap()
	builder := allphase.AlignmentGraphBuilder{Threads: 3, MinSimilarity: 0.2}
	g, err := builder.Build(context.Background(), pairs, seqs, ids)
	require.NoError(t, err)

	// short fails the size ratio, other never aligns
	assert.Equal(t, 1, g.EdgeCount())
	id1, _ := ids.GetID("hap1")
	id2, _ := ids.GetID("hap2")
	w, err := g.EdgeWeight(id1, id2)
	require.NoError(t, err)
	assert.Greater(t, w, int64(2900))
	length, _ := g.NodeLength(id1)
	assert.Equal(t, int64(3000), length)

	_, err = builder.Build(context.Background(), []allphase.AlignmentPair{{Target: "x", Query: "hap1"}}, seqs, ids)
	assert.ErrorIs(t, err, allphase.ErrNotFound)
}
