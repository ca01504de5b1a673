/*
 *  gfa.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/08/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// GFA is the assembly graph loaded from a GFA 1 file
type GFA struct {
	Graph     *BidirectedGraph
	IDs       *IDMap
	Sequences []Sequence // One per S line, in file order
}

// LoadGFA parses the S and L lines of a GFA file. Other record types are
// skipped.
func LoadGFA(filename string) (*GFA, error) {
	log.Noticef("Parse gfafile `%s`", filename)
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, ioError("open", filename, err)
	}
	defer fh.Close()

	gfa := &GFA{Graph: NewBidirectedGraph(), IDs: NewIDMap()}
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 1<<20), 1<<30)
	nLinks := 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		words := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		switch words[0] {
		case "S":
			if len(words) < 3 {
				return nil, preconditionf("%s:%d: malformed S line", filename, lineNo)
			}
			s := Sequence{Name: words[1]}
			if words[2] != "*" {
				s.Seq = []byte(words[2])
				s.Length = len(s.Seq)
			}
			for _, tag := range words[3:] {
				if strings.HasPrefix(tag, "LN:i:") {
					s.Length, _ = strconv.Atoi(tag[5:])
				}
			}
			gfa.Graph.AddNode(gfa.IDs.TryInsert(s.Name))
			gfa.Sequences = append(gfa.Sequences, s)
		case "L":
			if len(words) < 5 {
				return nil, preconditionf("%s:%d: malformed L line", filename, lineNo)
			}
			from, err := gfa.handle(words[1], words[2])
			if err != nil {
				return nil, preconditionf("%s:%d: %v", filename, lineNo, err)
			}
			to, err := gfa.handle(words[3], words[4])
			if err != nil {
				return nil, preconditionf("%s:%d: %v", filename, lineNo, err)
			}
			if err := gfa.Graph.AddEdge(from, to); err != nil {
				return nil, err
			}
			nLinks++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ioError("read", filename, err)
	}
	log.Noticef("Loaded %d segments and %d links", len(gfa.Sequences), nLinks)
	return gfa, nil
}

func (r *GFA) handle(name, orientation string) (Handle, error) {
	id := r.IDs.TryInsert(name)
	r.Graph.AddNode(id)
	switch orientation {
	case "+":
		return Handle{ID: id}, nil
	case "-":
		return Handle{ID: id, Reverse: true}, nil
	}
	return Handle{}, preconditionf("bad orientation `%s`", orientation)
}

// ParseHandle reads a handle written as a segment name followed by + or -
func (r *GFA) ParseHandle(s string) (Handle, error) {
	if len(s) < 2 {
		return Handle{}, preconditionf("bad handle `%s`", s)
	}
	name, orientation := s[:len(s)-1], s[len(s)-1:]
	id, err := r.IDs.GetID(name)
	if err != nil {
		return Handle{}, err
	}
	if orientation != "+" && orientation != "-" {
		return Handle{}, preconditionf("bad handle `%s`", s)
	}
	return Handle{ID: id, Reverse: orientation == "-"}, nil
}

// HandleName prints a handle as a segment name followed by + or -
func (r *GFA) HandleName(h Handle) string {
	name, err := r.IDs.GetName(h.ID)
	if err != nil {
		name = strconv.Itoa(int(h.ID))
	}
	if h.Reverse {
		return name + "-"
	}
	return name + "+"
}
