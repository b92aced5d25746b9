package commands

import (
	"sort"
	"sync"
)

// Builtin is a command run inside the shell process.
type Builtin interface {
	// Main runs the builtin with its arguments, excluding the name, and
	// returns its exit status.
	Main(s *Shell, args []string) int
}

type BuiltinFunc func(s *Shell, args []string) int

func (f BuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ Builtin = (BuiltinFunc)(nil)

// BuiltinEntry is a registered builtin.
type BuiltinEntry struct {
	Name string
	// Use is a one line usage string.
	Use string
	// Short is a one line description.
	Short   string
	Builtin Builtin
}

// Registry maps names to builtins.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]BuiltinEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]BuiltinEntry)}
}

// Register adds or replaces a builtin.
func (r *Registry) Register(entry BuiltinEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.Name] = entry
}

// Lookup finds the builtin registered under name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	entry, ok := r.Entry(name)
	return entry.Builtin, ok
}

// Entry returns the registration of name.
func (r *Registry) Entry(name string) (BuiltinEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns every registration sorted by name.
func (r *Registry) Entries() []BuiltinEntry {
	var out []BuiltinEntry
	for _, name := range r.Names() {
		if entry, ok := r.Entry(name); ok {
			out = append(out, entry)
		}
	}
	return out
}

// defaultBuiltins is filled by the init functions of the builtin files.
var defaultBuiltins []BuiltinEntry

func addBuiltin(name, use, short string, fn BuiltinFunc) {
	defaultBuiltins = append(defaultBuiltins, BuiltinEntry{
		Name:    name,
		Use:     use,
		Short:   short,
		Builtin: fn,
	})
}

// DefaultRegistry returns a new registry holding every builtin of the package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, entry := range defaultBuiltins {
		r.Register(entry)
	}
	return r
}
