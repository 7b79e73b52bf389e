package slots

// Option applies a configuration option to the in-memory pool.
type Option func(*inMemoryPool)

// WithCapacity sets how many slots may be live at once. Values below one
// are ignored.
func WithCapacity(n int) Option {
	return func(p *inMemoryPool) {
		if n > 0 {
			p.capacity = n
		}
	}
}

// WithFirst sets the number of the first slot. vJoy counts devices from one.
func WithFirst(first int) Option {
	return func(p *inMemoryPool) {
		p.first = first
	}
}
