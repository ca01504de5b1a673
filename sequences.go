/*
 *  sequences.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/08/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"io"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Sequence is a named stretch of DNA. Length may exceed len(Seq) when only
// the length is known, as for GFA segments without sequence.
type Sequence struct {
	Name   string
	Seq    []byte
	Length int
}

// Len returns the sequence length in bases
func (r Sequence) Len() int {
	if r.Length > len(r.Seq) {
		return r.Length
	}
	return len(r.Seq)
}

// ReadFasta loads all records of a FASTA or FASTQ file, gzipped or not
func ReadFasta(filename string) ([]Sequence, error) {
	log.Noticef("Parse fastafile `%s`", filename)
	reader, err := fastx.NewDefaultReader(filename)
	if err != nil {
		return nil, ioError("open", filename, err)
	}
	seq.ValidateSeq = false // This flag makes parsing FASTA much faster

	var sequences []Sequence
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ioError("read", filename, err)
		}
		fields := strings.Fields(string(rec.Name))
		if len(fields) == 0 {
			continue
		}
		// Records are reused by the reader
		s := make([]byte, len(rec.Seq.Seq))
		copy(s, rec.Seq.Seq)
		sequences = append(sequences, Sequence{Name: fields[0], Seq: s, Length: len(s)})
	}
	log.Noticef("Loaded %d sequences", len(sequences))
	return sequences, nil
}
