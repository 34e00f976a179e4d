package instruction

import (
	"fmt"
	"sort"
	"sync"

	"github.com/conneroisu/xslate/internal/attrtype"
	"github.com/conneroisu/xslate/internal/contentmodel"
)

// Definition declares an instruction kind: the grammar of its children, the
// types of its attributes and how a validated element becomes a Ready
// instruction.
type Definition struct {
	Name  string
	Model contentmodel.Model
	Attrs attrtype.Decls
	// AnyAttributes skips attribute typing; raw attributes are kept on the
	// element as written. Used for literal result elements.
	AnyAttributes bool
	// PreserveSpace keeps whitespace-only text children.
	PreserveSpace bool
	// TopLevel kinds may only appear as children of the stylesheet.
	TopLevel bool
	Setup    func(el *Element) (Instruction, error)
}

// Registry is the table of instruction kinds, keyed by qualified name.
type Registry struct {
	defs  map[string]*Definition
	mutex sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition. Registering a name twice is an error.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("instruction: definition needs a name")
	}
	if def.Setup == nil {
		return fmt.Errorf("instruction: definition %s has no setup function", def.Name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("instruction: %s is already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(defs ...*Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a definition by qualified name
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	def, exists := r.defs[name]
	return def, exists
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []*Definition {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	defs := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Clone returns a registry holding the same definitions, for callers that
// want to add their own kinds without touching the shared table.
func (r *Registry) Clone() *Registry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c := NewRegistry()
	for n, d := range r.defs {
		c.defs[n] = d
	}
	return c
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in instruction table. It is populated once and
// must not be modified; use Clone to extend it.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.MustRegister(builtins()...)
	})
	return defaultRegistry
}
