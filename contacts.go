/**
 * Filename: /Users/htang/code/allphase/contacts.go
 * Path: /Users/htang/code/allphase
 * Created Date: Wednesday, January 3rd 2018, 11:21:45 am
 * Author: htang
 *
 * Copyright (c) 2018 Haibao Tang
 */

package allphase

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// ContactCounter converts Hi-C alignments into contact counts between contigs.
// Alignments of one read must be adjacent in the file, as in a name-sorted or
// unsorted aligner output.
type ContactCounter struct {
	Bamfile string
	MinMapq int    // Alignments below this mapping quality are ignored
	Prefix  string // If set, only references starting with the prefix count
}

type recordReader interface {
	Read() (*sam.Record, error)
}

// CountContacts adds one unit of weight between every pair of distinct
// contigs hit by the same read, inserting nodes and edges as needed. Returns
// the number of reads that contributed.
func (r *ContactCounter) CountContacts(g *ContactGraph, ids *IDMap) (int, error) {
	ext := strings.ToLower(filepath.Ext(r.Bamfile))
	if ext != ".bam" && ext != ".sam" {
		return 0, preconditionf("unrecognized extension for alignment file `%s`", r.Bamfile)
	}
	fh, err := os.Open(r.Bamfile)
	if err != nil {
		return 0, ioError("open", r.Bamfile, err)
	}
	defer fh.Close()
	log.Noticef("Parse bamfile `%s`", r.Bamfile)

	var reader recordReader
	if ext == ".bam" {
		br, err := bam.NewReader(fh, 0)
		if err != nil {
			return 0, ioError("read", r.Bamfile, err)
		}
		defer br.Close()
		reader = br
	} else {
		sr, err := sam.NewReader(fh)
		if err != nil {
			return 0, ioError("read", r.Bamfile, err)
		}
		reader = sr
	}

	nRecords, nKept, nReads := 0, 0, 0
	prevName := ""
	var group []string
	flush := func() error {
		if len(group) > 1 {
			nReads++
			if err := addContacts(g, ids, group); err != nil {
				return err
			}
		}
		group = group[:0]
		return nil
	}
	for {
		rec, err := reader.Read()
		if err != nil {
			if err != io.EOF {
				return 0, ioError("read", r.Bamfile, err)
			}
			break
		}
		nRecords++
		if rec.Name != prevName {
			if err := flush(); err != nil {
				return 0, err
			}
			prevName = rec.Name
		}
		if !r.keep(rec) {
			continue
		}
		nKept++
		group = append(group, rec.Ref.Name())
	}
	if err := flush(); err != nil {
		return 0, err
	}
	log.Noticef("Kept %s alignments, %d reads link contigs",
		Percentage(nKept, nRecords), nReads)
	return nReads, nil
}

func (r *ContactCounter) keep(rec *sam.Record) bool {
	if rec.Ref == nil || rec.Ref.Name() == "" {
		return false
	}
	if rec.Flags&(sam.Unmapped|sam.Secondary|sam.Supplementary) != 0 {
		return false
	}
	if int(rec.MapQ) < r.MinMapq {
		return false
	}
	return strings.HasPrefix(rec.Ref.Name(), r.Prefix)
}

// addContacts links every pair of distinct references in the group
func addContacts(g *ContactGraph, ids *IDMap, refs []string) error {
	for i := 0; i < len(refs); i++ {
		a := ids.TryInsert(refs[i])
		g.TryInsertNode(a, 0)
		for j := i + 1; j < len(refs); j++ {
			b := ids.TryInsert(refs[j])
			if a == b {
				continue
			}
			g.TryInsertNode(b, 0)
			if err := g.TryInsertEdge(a, b, 0); err != nil {
				return err
			}
			if err := g.IncrementEdgeWeight(a, b, 1); err != nil {
				return err
			}
		}
	}
	return nil
}
