package store

import (
	"github.com/iov-one/stanza/errors"
)

// sliceIterator wraps an in-memory array of models, serving them one at a
// time through the Iterator interface.
type sliceIterator struct {
	data []Model
	idx  int
}

// NewSliceIterator creates a new Iterator over this slice.
func NewSliceIterator(data []Model) Iterator {
	return &sliceIterator{data: data}
}

func (s *sliceIterator) Next() ([]byte, []byte, error) {
	if s.idx >= len(s.data) {
		return nil, nil, errors.ErrIteratorDone
	}
	val := s.data[s.idx]
	s.idx++
	return val.Key, val.Value, nil
}

// Release frees the iterator data.
func (s *sliceIterator) Release() {
	s.data = nil
	s.idx = 0
}
