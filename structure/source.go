package structure

import "io"

// Source is a lazy, single-pass sequence of configurations.
//
// Next returns the next frame or io.EOF once the stream is exhausted.
// Sources are not restartable and not safe for concurrent use; exactly one
// goroutine should pull from a Source.
type Source interface {
	Next() (*Configuration, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (*Configuration, error)

// Next implements Source.
func (f SourceFunc) Next() (*Configuration, error) { return f() }

// SliceSource is an in-memory Source, primarily for tests and small inputs.
type SliceSource struct {
	configs []*Configuration
	pos     int
}

// NewSliceSource creates a Source yielding the given configurations in order.
func NewSliceSource(configs ...*Configuration) *SliceSource {
	return &SliceSource{configs: configs}
}

// Next implements Source.
func (s *SliceSource) Next() (*Configuration, error) {
	if s.pos >= len(s.configs) {
		return nil, io.EOF
	}
	c := s.configs[s.pos]
	s.pos++
	return c, nil
}
