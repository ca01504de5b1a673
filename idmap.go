/*
 *  idmap.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/02/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

// IDMap is a bijection between sequence names and dense ids. Ids are handed
// out in insertion order starting from 1, so 0 never names a node.
type IDMap struct {
	ids   map[string]int32
	names []string
}

// NewIDMap makes an empty IDMap
func NewIDMap() *IDMap {
	return &IDMap{
		ids:   map[string]int32{},
		names: []string{""},
	}
}

// TryInsert returns the id of name, assigning the next id if it is new
func (r *IDMap) TryInsert(name string) int32 {
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := int32(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

// Exists checks if name has been inserted
func (r *IDMap) Exists(name string) bool {
	_, ok := r.ids[name]
	return ok
}

// GetID returns the id of name
func (r *IDMap) GetID(name string) (int32, error) {
	id, ok := r.ids[name]
	if !ok {
		return 0, notFoundf("name `%s`", name)
	}
	return id, nil
}

// GetName returns the name of id
func (r *IDMap) GetName(id int32) (string, error) {
	if id <= 0 || int(id) >= len(r.names) {
		return "", notFoundf("id %d", id)
	}
	return r.names[id], nil
}

// Len returns the number of names
func (r *IDMap) Len() int {
	return len(r.names) - 1
}

// Names lists all names in id order
func (r *IDMap) Names() []string {
	names := make([]string, len(r.names)-1)
	copy(names, r.names[1:])
	return names
}
