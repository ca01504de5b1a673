/*
 *  writers_test.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/18/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanghaibao/allphase"
)

func readLines(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func namedTriangle(t *testing.T) (*allphase.ContactGraph, *allphase.IDMap) {
	t.Helper()
	ids := allphase.NewIDMap()
	for _, name := range []string{"a", "b", "c"} {
		ids.TryInsert(name)
	}
	return triangle(t), ids
}

func TestWriteContacts(t *testing.T) {
	g, ids := namedTriangle(t)
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, allphase.WriteContacts(path, g, ids))
	assert.Equal(t, "name_a,name_b,weight\na,b,10\nb,c,10\na,c,1\n", readLines(t, path))

	g.TryInsertNode(9, 0)
	require.NoError(t, g.TryInsertEdge(1, 9, 1))
	err := allphase.WriteContacts(filepath.Join(t.TempDir(), "contacts.csv"), g, ids)
	assert.ErrorIs(t, err, allphase.ErrNotFound)
}

func TestWriteAndReadPhases(t *testing.T) {
	g, ids := namedTriangle(t)
	require.NoError(t, g.SetPartition(1, allphase.PartitionA))
	require.NoError(t, g.SetPartition(2, allphase.PartitionB))
	path := filepath.Join(t.TempDir(), "phases.csv.gz")
	require.NoError(t, allphase.WritePhases(path, g, ids))

	phases, err := allphase.ReadPhases(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int8{
		"a": allphase.PartitionA,
		"b": allphase.PartitionB,
		"c": allphase.PartitionUnset,
	}, phases)

	plain := filepath.Join(t.TempDir(), "phases.csv")
	require.NoError(t, allphase.WritePhases(plain, g, ids))
	assert.Equal(t, "Name,Phase,Color\na,-1,Cornflower Blue\nb,1,Tomato\nc,0,Gray\n", readLines(t, plain))

	bad := writeFile(t, "bad.csv", "Name,Phase,Color", "a,7,Gray")
	_, err = allphase.ReadPhases(bad)
	assert.ErrorIs(t, err, allphase.ErrPrecondition)
}

func TestWritePairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	require.NoError(t, allphase.WritePairs(path, map[string]string{"x": "x_alt", "a": "a_alt"}))
	assert.Equal(t, "Name,Match,Color\n"+
		"a,a_alt,Cornflower Blue\na_alt,a,Tomato\n"+
		"x,x_alt,Cornflower Blue\nx_alt,x,Tomato\n", readLines(t, path))
}

func TestWriteAlignments(t *testing.T) {
	ids := allphase.NewIDMap()
	for _, name := range []string{"short", "long", "other"} {
		ids.TryInsert(name)
	}
	confirmed := allphase.NewContactGraph()
	confirmed.TryInsertNode(1, 0)
	confirmed.TryInsertNode(2, 0)
	require.NoError(t, confirmed.SetNodeLength(1, 100))
	require.NoError(t, confirmed.SetNodeLength(2, 200))
	require.NoError(t, confirmed.TryInsertEdge(1, 2, 90))

	residual := allphase.NewContactGraph()
	residual.TryInsertNode(1, 0)
	residual.TryInsertNode(3, 0)
	require.NoError(t, residual.TryInsertEdge(3, 1, 20))

	path := filepath.Join(t.TempDir(), "alignments.csv")
	require.NoError(t, allphase.WriteAlignments(path, confirmed, residual, ids))
	assert.Equal(t, "name_a,name_b,total_matches,symmetrical,color\n"+
		"long,short,90,1,Cornflower Blue\n"+
		"short,long,90,1,Tomato\n"+
		"short,other,20,0,Gray\n"+
		"other,short,20,0,Gray\n", readLines(t, path))
}

func TestWriteOverlapsAndAssignments(t *testing.T) {
	dir := t.TempDir()
	overlaps := []allphase.Overlap{{A: "a", B: "b", Shared: 3, Total: 4}}
	require.NoError(t, allphase.WriteOverlaps(filepath.Join(dir, "overlaps.csv"), overlaps))
	assert.Equal(t, "name_a,name_b,shared,total,similarity\na,b,3,4,0.7500\n",
		readLines(t, filepath.Join(dir, "overlaps.csv")))

	assignments := []allphase.ParentAssignment{
		{Name: "q1", PatMatches: 10, MatMatches: 2, Parent: allphase.ParentPat},
		{Name: "q2", Parent: allphase.ParentUnknown},
	}
	require.NoError(t, allphase.WriteAssignments(filepath.Join(dir, "assignments.csv"), assignments))
	assert.Equal(t, "Name,Parent,pat_matches,mat_matches,Color\n"+
		"q1,pat,10,2,Cornflower Blue\nq2,unknown,0,0,Gray\n",
		readLines(t, filepath.Join(dir, "assignments.csv")))
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.csv")
	cfg := allphase.DefaultConfig()
	cfg.Threads = 8
	require.NoError(t, allphase.WriteConfig(path, "run-1", cfg))
	content := readLines(t, path)
	assert.Contains(t, content, "key,value\nrun_id,run-1\nversion,"+allphase.Version+"\n")
	assert.Contains(t, content, "\nthreads,8\n")
	assert.Contains(t, content, "\nmin_fraction,0.2\n")
}
