/*
 * Filename: /Users/bao/code/allphase/priority_queue.go
 * Path: /Users/bao/code/allphase
 * Created Date: Thursday, May 10th 2018, 2:03:09 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package allphase

import "container/heap"

// Item is a candidate hit with its score
type Item struct {
	id       int32
	priority int64
	index    int
}

// A PriorityQueue implements heap.Interface and holds Items. The lowest
// priority sits on top so that a bounded queue can evict it.
type PriorityQueue []*Item

// Len returns the number of items in the queue
func (pq PriorityQueue) Len() int { return len(pq) }

// Less defines the way items get ordered, ties evict the later id first
func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].priority == pq[j].priority {
		return pq[i].id > pq[j].id
	}
	return pq[i].priority < pq[j].priority
}

// Swap exchanges values of two elements
func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

// Push adds an element to the queue
func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*Item)
	item.index = n
	*pq = append(*pq, item)
}

// Pop removes the element with the lowest priority
func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	item.index = -1 // for safety
	*pq = old[0 : n-1]
	return item
}

// topK keeps the k items with the highest priority and returns them best
// first
func topK(items []Item, k int) []Item {
	pq := make(PriorityQueue, 0, k+1)
	for i := range items {
		item := items[i]
		heap.Push(&pq, &item)
		if pq.Len() > k {
			heap.Pop(&pq)
		}
	}
	best := make([]Item, pq.Len())
	for i := len(best) - 1; i >= 0; i-- {
		best[i] = *heap.Pop(&pq).(*Item)
	}
	return best
}
