package attr

import "sync"

// Pool interns attributes by content hash so that structurally equal
// records attached to many operations share one instance.
//
// Thread-safety: Pool is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	entries map[string]Attribute
}

// NewPool creates an empty interning pool.
func NewPool() *Pool {
	return &Pool{entries: make(map[string]Attribute)}
}

// Intern returns the pooled instance equal to a, adding a if none exists.
func (p *Pool) Intern(a Attribute) (Attribute, error) {
	h, err := Hash(a)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.entries[h]; ok {
		return existing, nil
	}
	p.entries[h] = a
	return a, nil
}

// Len returns the number of distinct attributes in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
