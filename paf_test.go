/*
 *  paf_test.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/17/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanghaibao/allphase"
)

func TestParseRecords(t *testing.T) {
	path := writeFile(t, "test.paf",
		"hap2\t900\t0\t500\t+\thap1\t1000\t0\t500\t480\t500\t60\ttp:A:P\tNM:i:20\tdv:f:0.01",
		"hap2\t900\t500\t900\t-\thap1\t1000\t500\t900\t390\t400\t60\ttp:A:P",
		"hap2\t900\t0\t900\t+\thap3\t950\t0\t900\t800\t900\t0\ttp:A:S",
		"short\t80\t0\t80\t+\thap1\t1000\t0\t80\t80\t80\t60",
		"hap1\t1000\t0\t1000\t+\thap1\t1000\t0\t1000\t1000\t1000\t60",
		"bad\tline",
	)
	paf := allphase.PAF{PafFile: path}
	require.NoError(t, paf.ParseRecords())
	require.Len(t, paf.Records, 5)

	rec := paf.Records[0]
	assert.Equal(t, "hap2", rec.Query)
	assert.Equal(t, 900, rec.QueryLength)
	assert.Equal(t, byte('+'), rec.RelativeStrand)
	assert.Equal(t, "hap1", rec.Target)
	assert.Equal(t, 480, rec.NumMatches)
	assert.Equal(t, uint8(60), rec.MappingQuality)
	assert.Equal(t, 20, rec.Tags["NM"])
	assert.Equal(t, "P", rec.Tags["tp"])
	assert.Equal(t, 0.01, rec.Tags["dv"])
	assert.True(t, rec.IsPrimary())
	assert.False(t, paf.Records[2].IsPrimary())
	assert.True(t, paf.Records[3].IsPrimary())

	ids := allphase.NewIDMap()
	g, err := paf.AlignmentGraph(ids, 0.2)
	require.NoError(t, err)

	// secondary, self and low coverage records are dropped
	assert.Equal(t, 1, g.EdgeCount())
	id1, err := ids.GetID("hap1")
	require.NoError(t, err)
	id2, err := ids.GetID("hap2")
	require.NoError(t, err)
	w, err := g.EdgeWeight(id1, id2)
	require.NoError(t, err)
	assert.Equal(t, int64(870), w)
	length, _ := g.NodeLength(id2)
	assert.Equal(t, int64(900), length)
	assert.False(t, ids.Exists("hap3"))
}

func TestParseRecordsMissing(t *testing.T) {
	paf := allphase.PAF{PafFile: "does/not/exist.paf"}
	assert.ErrorIs(t, paf.ParseRecords(), allphase.ErrIO)
}

func TestParseRecordsMalformed(t *testing.T) {
	path := writeFile(t, "bad.paf",
		"hap2\t900\t0\t500\t+\thap1\t1000\t0\t500\t480\t500\t60",
		"hap2\tlong\t0\t500\t+\thap1\t1000\t0\t500\t480\t500\t60",
	)
	paf := allphase.PAF{PafFile: path}
	err := paf.ParseRecords()
	assert.ErrorIs(t, err, allphase.ErrPrecondition)
	assert.ErrorContains(t, err, "line 2")
}
