package fileutil

// ProcessedSet records the candidate paths already routed during this process
// lifetime. It only grows and is never persisted. It is owned by the single
// processing goroutine and is not safe for concurrent use.
type ProcessedSet struct {
	paths map[string]struct{}
}

// NewProcessedSet creates an empty ProcessedSet.
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{paths: make(map[string]struct{})}
}

// Add marks path as processed.
func (s *ProcessedSet) Add(path string) {
	s.paths[path] = struct{}{}
}

// Contains reports whether path has been processed.
func (s *ProcessedSet) Contains(path string) bool {
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of processed paths.
func (s *ProcessedSet) Len() int {
	return len(s.paths)
}
