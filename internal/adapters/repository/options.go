package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxList caps the limit accepted by List.
func WithMaxList(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxList = n
		}
	}
}
