/*
 *  paf.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/17/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// Tag is an optional SAM-style field (TAG:TYPE:VALUE) after the 12 mandatory
// PAF columns. Type i decodes to int, f to float64, anything else stays a
// string. Tags used here: tp (P for primary, S for secondary), NM, dv.
type Tag = interface{}

// PAFRecord is one minimap2 mapping, coordinates 0-based and half-open
type PAFRecord struct {
	Query           string
	QueryLength     int
	QueryStart      int
	QueryEnd        int
	RelativeStrand  byte // + or -
	Target          string
	TargetLength    int
	TargetStart     int
	TargetEnd       int
	NumMatches      int // Residue matches
	AlignmentLength int // Block length, gaps included
	MappingQuality  uint8
	Tags            map[string]Tag
}

// IsPrimary checks the tp tag, records without one count as primary
func (r *PAFRecord) IsPrimary() bool {
	tp, ok := r.Tags["tp"].(string)
	return !ok || tp == "P"
}

// PAF holds the records of a minimap2 PAF file
type PAF struct {
	PafFile string
	Records []PAFRecord
}

// ParseRecords loads every mapping line. Lines with fewer than 12 columns
// are skipped; a mandatory column that does not parse fails the whole file.
func (r *PAF) ParseRecords() error {
	fh, err := xopen.Ropen(r.PafFile)
	if err != nil {
		return ioError("open", r.PafFile, err)
	}
	defer fh.Close()

	log.Noticef("Parse paffile `%s`", r.PafFile)
	r.Records = r.Records[:0]
	skipped := 0
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 1<<16), 1<<28)
	for lineno := 1; scanner.Scan(); lineno++ {
		words := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")
		if len(words) < 12 || words[4] == "" {
			skipped++
			continue
		}
		rec, err := parsePAFRecord(words)
		if err != nil {
			return preconditionf("`%s` line %d: %v", r.PafFile, lineno, err)
		}
		r.Records = append(r.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return ioError("read", r.PafFile, err)
	}
	if skipped > 0 {
		log.Warningf("Skipped %d short lines in `%s`", skipped, r.PafFile)
	}
	log.Noticef("Loaded %d records", len(r.Records))
	return nil
}

func parsePAFRecord(words []string) (PAFRecord, error) {
	rec := PAFRecord{
		Query:          words[0],
		RelativeStrand: words[4][0],
		Target:         words[5],
		Tags:           map[string]Tag{},
	}
	columns := []struct {
		dst *int
		col int
	}{
		{&rec.QueryLength, 1}, {&rec.QueryStart, 2}, {&rec.QueryEnd, 3},
		{&rec.TargetLength, 6}, {&rec.TargetStart, 7}, {&rec.TargetEnd, 8},
		{&rec.NumMatches, 9}, {&rec.AlignmentLength, 10},
	}
	for _, c := range columns {
		v, err := strconv.Atoi(words[c.col])
		if err != nil {
			return rec, err
		}
		*c.dst = v
	}
	mapq, err := strconv.ParseUint(words[11], 10, 8)
	if err != nil {
		return rec, err
	}
	rec.MappingQuality = uint8(mapq)

	for _, field := range words[12:] {
		name, rest, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		kind, value, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		switch kind {
		case "i":
			if v, err := strconv.Atoi(value); err == nil {
				rec.Tags[name] = v
			}
		case "f":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				rec.Tags[name] = v
			}
		default:
			rec.Tags[name] = value
		}
	}
	return rec, nil
}

// AlignmentGraph sums the matches of primary records per sequence pair into
// an alignment graph, using the same coverage rule as the aligner: the
// matches must cover minSimilarity of the longer sequence
func (r *PAF) AlignmentGraph(ids *IDMap, minSimilarity float64) (*ContactGraph, error) {
	type pairTotal struct {
		a, b             string
		lengthA, lengthB int
		matches          int
	}
	totals := map[AlignmentPair]*pairTotal{}
	var order []AlignmentPair
	for i := range r.Records {
		rec := &r.Records[i]
		if rec.Query == rec.Target || !rec.IsPrimary() {
			continue
		}
		p := pairTotal{a: rec.Target, b: rec.Query, lengthA: rec.TargetLength, lengthB: rec.QueryLength}
		if p.lengthB > p.lengthA {
			p.a, p.b, p.lengthA, p.lengthB = p.b, p.a, p.lengthB, p.lengthA
		}
		key := AlignmentPair{Target: p.a, Query: p.b}
		t, ok := totals[key]
		if !ok {
			t = &p
			totals[key] = t
			order = append(order, key)
		}
		t.matches += rec.NumMatches
	}

	graph := NewContactGraph()
	for _, key := range order {
		t := totals[key]
		if t.lengthA == 0 {
			continue
		}
		total := t.matches
		if total > t.lengthA {
			total = t.lengthA
		}
		if float64(total)/float64(t.lengthA) < minSimilarity {
			continue
		}
		a, b := ids.TryInsert(t.a), ids.TryInsert(t.b)
		if err := addAlignment(graph, a, b, t.lengthA, t.lengthB, total); err != nil {
			return nil, err
		}
	}
	log.Noticef("Built alignment graph with %d edges from %d pairs", graph.EdgeCount(), len(order))
	return graph, nil
}
