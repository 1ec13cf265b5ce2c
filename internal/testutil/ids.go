package testutil

// FixedIDGenerator returns the same identifier every time.
//
// Unlike program.SequenceGenerator, every op built with it shares one ID,
// which keeps golden output independent of how many ops a test creates.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed generator.
// If id is empty, Generate() returns "test-id".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-id"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed identifier.
//
// Implements program.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
