/*
 *  writers.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/18/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strconv"

	"github.com/shenwei356/xopen"
)

// Bandage colours of the two phases
const (
	ColorA     = "Cornflower Blue"
	ColorB     = "Tomato"
	ColorUnset = "Gray"
)

// PhaseColor maps a partition label to its Bandage colour
func PhaseColor(p int8) string {
	switch p {
	case PartitionA:
		return ColorA
	case PartitionB:
		return ColorB
	}
	return ColorUnset
}

// csvFile is a CSV sink over a (possibly gzipped) output file
type csvFile struct {
	path string
	fw   *xopen.Writer
	w    *csv.Writer
}

func createCSV(path string, header ...string) (*csvFile, error) {
	fw, err := xopen.Wopen(path)
	if err != nil {
		return nil, ioError("create", path, err)
	}
	r := &csvFile{path: path, fw: fw, w: csv.NewWriter(fw)}
	if err := r.write(header...); err != nil {
		fw.Close()
		return nil, err
	}
	return r, nil
}

func (r *csvFile) write(fields ...string) error {
	if err := r.w.Write(fields); err != nil {
		return ioError("write", r.path, err)
	}
	return nil
}

// close flushes the rows, and keeps the first error seen
func (r *csvFile) close(err error) error {
	r.w.Flush()
	if err == nil {
		if err = r.w.Error(); err != nil {
			err = ioError("write", r.path, err)
		}
	}
	if cerr := r.fw.Close(); err == nil && cerr != nil {
		err = ioError("close", r.path, cerr)
	}
	return err
}

// edgeNames resolves both ends of an edge
func edgeNames(ids *IDMap, e Edge) (string, string, error) {
	a, err := ids.GetName(e.A)
	if err != nil {
		return "", "", err
	}
	b, err := ids.GetName(e.B)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// WriteContacts writes one row per edge of g, in insertion order
func WriteContacts(path string, g *ContactGraph, ids *IDMap) (err error) {
	f, err := createCSV(path, "name_a", "name_b", "weight")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	g.ForEachEdge(func(e Edge, w int64) {
		if err != nil {
			return
		}
		var a, b string
		if a, b, err = edgeNames(ids, e); err != nil {
			return
		}
		err = f.write(a, b, strconv.FormatInt(w, 10))
	})
	if err == nil {
		log.Noticef("Contacts written to `%s`", path)
	}
	return err
}

// WritePhases writes the label of every node in ascending id order
func WritePhases(path string, g *ContactGraph, ids *IDMap) (err error) {
	f, err := createCSV(path, "Name", "Phase", "Color")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	for _, p := range g.Partitions() {
		name, err := ids.GetName(p.ID)
		if err != nil {
			return err
		}
		if err := f.write(name, strconv.Itoa(int(p.Partition)), PhaseColor(p.Partition)); err != nil {
			return err
		}
	}
	log.Noticef("Phases written to `%s`", path)
	return nil
}

// ReadPhases loads a phases CSV written by WritePhases
func ReadPhases(path string) (map[string]int8, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}
	defer fh.Close()

	phases := map[string]int8{}
	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1
	header := true
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ioError("read", path, err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 2 {
			return nil, preconditionf("malformed phase row %v in `%s`", rec, path)
		}
		p, err := strconv.Atoi(rec[1])
		if err != nil || !validLabel(int8(p)) && p != int(PartitionUnset) {
			return nil, preconditionf("bad phase `%s` in `%s`", rec[1], path)
		}
		phases[rec[0]] = int8(p)
	}
	log.Noticef("Loaded %d phases from `%s`", len(phases), path)
	return phases, nil
}

// WritePairs writes each symmetrical match in both directions, the first
// member of each pair in ColorA and the second in ColorB
func WritePairs(path string, matches map[string]string) (err error) {
	f, err := createCSV(path, "Name", "Match", "Color")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	keys := make([]string, 0, len(matches))
	for a := range matches {
		keys = append(keys, a)
	}
	sort.Strings(keys)
	for _, a := range keys {
		b := matches[a]
		if err := f.write(a, b, ColorA); err != nil {
			return err
		}
		if err := f.write(b, a, ColorB); err != nil {
			return err
		}
	}
	log.Noticef("%d pairs written to `%s`", len(keys), path)
	return nil
}

// WriteAlignments writes every alignment edge in both directions. Edges
// confirmed by the reducer come first, marked symmetrical and coloured by
// length, longer first; the residual edges follow in gray.
func WriteAlignments(path string, confirmed, residual *ContactGraph, ids *IDMap) (err error) {
	f, err := createCSV(path, "name_a", "name_b", "total_matches", "symmetrical", "color")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	confirmed.ForEachEdge(func(e Edge, w int64) {
		if err != nil {
			return
		}
		var a, b string
		if a, b, err = edgeNames(ids, e); err != nil {
			return
		}
		lengthA, _ := confirmed.NodeLength(e.A)
		lengthB, _ := confirmed.NodeLength(e.B)
		if lengthB > lengthA {
			a, b = b, a
		}
		total := strconv.FormatInt(w, 10)
		if err = f.write(a, b, total, "1", ColorA); err == nil {
			err = f.write(b, a, total, "1", ColorB)
		}
	})
	residual.ForEachEdge(func(e Edge, w int64) {
		if err != nil {
			return
		}
		var a, b string
		if a, b, err = edgeNames(ids, e); err != nil {
			return
		}
		total := strconv.FormatInt(w, 10)
		if err = f.write(a, b, total, "0", ColorUnset); err == nil {
			err = f.write(b, a, total, "0", ColorUnset)
		}
	})
	if err == nil {
		log.Noticef("Alignments written to `%s`", path)
	}
	return err
}

// WriteOverlaps writes the candidate overlaps found by the hasher
func WriteOverlaps(path string, overlaps []Overlap) (err error) {
	f, err := createCSV(path, "name_a", "name_b", "shared", "total", "similarity")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	for _, o := range overlaps {
		if err := f.write(o.A, o.B,
			strconv.FormatInt(o.Shared, 10),
			strconv.FormatInt(o.Total, 10),
			strconv.FormatFloat(o.Similarity(), 'f', 4, 64)); err != nil {
			return err
		}
	}
	log.Noticef("%d overlaps written to `%s`", len(overlaps), path)
	return nil
}

// WriteAssignments writes the parent of each query with the matches that
// decided it
func WriteAssignments(path string, assignments []ParentAssignment) (err error) {
	f, err := createCSV(path, "Name", "Parent", "pat_matches", "mat_matches", "Color")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	for _, a := range assignments {
		color := ColorUnset
		switch a.Parent {
		case ParentPat:
			color = ColorA
		case ParentMat:
			color = ColorB
		}
		if err := f.write(a.Name, ParentName(a.Parent),
			strconv.Itoa(a.PatMatches), strconv.Itoa(a.MatMatches), color); err != nil {
			return err
		}
	}
	log.Noticef("%d assignments written to `%s`", len(assignments), path)
	return nil
}

// WriteAgreement writes the phase to parent matching
func WriteAgreement(path string, agreement PhaseAgreement) (err error) {
	f, err := createCSV(path, "phase", "parent", "pat_bases", "mat_bases")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	for pi, phase := range []int8{PartitionA, PartitionB} {
		if err := f.write(strconv.Itoa(int(phase)), ParentName(agreement.ParentOf[pi]),
			strconv.Itoa(agreement.Bases[pi][0]), strconv.Itoa(agreement.Bases[pi][1])); err != nil {
			return err
		}
	}
	return nil
}

// WriteConfig records the settings of a run
func WriteConfig(path string, runID string, cfg *Config) (err error) {
	f, err := createCSV(path, "key", "value")
	if err != nil {
		return err
	}
	defer func() { err = f.close(err) }()

	if err := f.write("run_id", runID); err != nil {
		return err
	}
	if err := f.write("version", Version); err != nil {
		return err
	}
	for _, kv := range cfg.Rows() {
		if err := f.write(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}
