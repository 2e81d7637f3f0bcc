package store

import "sync"

// idGenerator holds a counter for generating the next incremental candidate
// ID number.  IDs are never reused within a run.
type idGenerator struct {
	id int64
	sync.Mutex
}

func newIDGenerator() *idGenerator {
	return &idGenerator{}
}

// getNext next incremental number
func (id *idGenerator) getNext() int64 {
	id.Lock()
	defer id.Unlock()
	id.id++
	return id.id
}
