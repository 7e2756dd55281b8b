package room

import (
	"errors"
	"sync"
)

// Platform display names.
const (
	PlatformPeacock   = "Peacock"
	PlatformESPN      = "ESPN"
	PlatformESPNWatch = "ESPN Watch"
	PlatformPrime     = "Prime Video"
	// PlatformGeneric is reported for identifiers no grammar classifies.
	PlatformGeneric = "WatchParty"
)

// Builtin returns the built-in grammar table in match order.
func Builtin() []Grammar {
	return []Grammar{
		peacockGrammar(),
		espnGrammar(),
		primeGrammar(),
	}
}

// Registry manages platform grammars in a thread-safe manner.
type Registry struct {
	mu       sync.RWMutex
	grammars map[string]*Grammar
	// Order preserving list so matching follows registration order
	ordered []*Grammar
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		grammars: make(map[string]*Grammar),
		ordered:  make([]*Grammar, 0),
	}
}

// NewDefault creates a Registry holding the built-in grammars.
func NewDefault() *Registry {
	r := New()
	for _, g := range Builtin() {
		if err := r.Register(g); err != nil {
			panic(err)
		}
	}
	return r
}

// Register compiles a grammar and appends it to the table.
// Returns an error if the grammar is malformed or its tag is already registered.
func (r *Registry) Register(g Grammar) error {
	compiled, err := g.compile()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.grammars[compiled.Tag]; exists {
		return errors.New("grammar already registered: " + compiled.Tag)
	}

	r.grammars[compiled.Tag] = &compiled
	r.ordered = append(r.ordered, &compiled)
	return nil
}

// Get retrieves a grammar by platform tag.
func (r *Registry) Get(tag string) (*Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.grammars[tag]
	return g, ok
}

// All returns the registered grammars in registration order.
// The returned slice is a copy; the grammars themselves must not be modified.
func (r *Registry) All() []*Grammar {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Grammar, 0, len(r.ordered))
	result = append(result, r.ordered...)
	return result
}

// Tags returns the registered platform tags in registration order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.ordered))
	for _, g := range r.ordered {
		tags = append(tags, g.Tag)
	}
	return tags
}

// Reset clears all registered grammars.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grammars = make(map[string]*Grammar)
	r.ordered = r.ordered[:0]
}

// Default is the registry used by the package-level Parse and Describe.
var Default = NewDefault()
