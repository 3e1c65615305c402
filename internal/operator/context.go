package operator

import (
	"os"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// EnvSource abstracts the process environment so tests can substitute a
// frozen map instead of the real environment, per spec.md §9's "Global
// state: none. The process environment is read through an injected
// EnvSource interface so tests can substitute a frozen map."
type EnvSource interface {
	Lookup(name string) (string, bool)
}

// OSEnv reads from the real process environment via os.LookupEnv.
type OSEnv struct{}

func (OSEnv) Lookup(name string) (string, bool) { return os.LookupEnv(name) }

// FrozenEnv is an EnvSource backed by a fixed map, for tests and for
// callers that want deterministic `@env` resolution independent of the
// real process environment.
type FrozenEnv map[string]string

func (f FrozenEnv) Lookup(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// FrozenClock is a Clock that always returns the same instant.
type FrozenClock time.Time

func (f FrozenClock) Now() time.Time { return time.Time(f) }

// Clock abstracts wall-clock time so `@date.now` is reproducible under a
// frozen clock, per spec.md §8's determinism property.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MemoryStore is the runtime memory backing `@memory.store`/`@memory.load`.
// A Context's MemoryStore is single-writer per spec.md §5's "runtime
// context for evaluation is single-writer" rule; callers that need
// concurrent evaluations must use separate Contexts.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]cty.Value
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]cty.Value)}
}

func (m *MemoryStore) Store(key string, v cty.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = v
}

func (m *MemoryStore) Load(key string) (cty.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Context is the runtime context spec.md §4.5 describes: an
// identifier→Value mapping, the process environment snapshot, a memory
// store, and a per-evaluation cache, threaded through every operator
// call and every expression-tree evaluation.
type Context struct {
	// Vars holds the runtime identifier bindings consulted before the
	// process environment, per spec.md §4.5's variable resolution
	// precedence ("runtime context → process environment → error").
	Vars map[string]cty.Value

	Env    EnvSource
	Clock  Clock
	Memory *MemoryStore

	// cache is allocated by NewContext, but no evaluation path reads or
	// writes it: every AtOperatorCall is evaluated each time it is
	// reached, and results are not memoized.
	cache map[string]cty.Value
}

// NewContext builds a Context with the given variable bindings. A nil
// env or clock defaults to the real process environment and wall clock;
// tests pass a FrozenEnv/FrozenClock instead.
func NewContext(vars map[string]cty.Value, env EnvSource, clock Clock) *Context {
	if vars == nil {
		vars = make(map[string]cty.Value)
	}
	if env == nil {
		env = OSEnv{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Context{
		Vars:   vars,
		Env:    env,
		Clock:  clock,
		Memory: NewMemoryStore(),
		cache:  make(map[string]cty.Value),
	}
}

// Lookup resolves name against the runtime context then the process
// environment, the precedence spec.md §4.5 defines for both `!NAME!`
// and `$NAME`.
func (c *Context) Lookup(name string) (cty.Value, bool) {
	if v, ok := c.Vars[name]; ok {
		return v, true
	}
	if s, ok := c.Env.Lookup(name); ok {
		return cty.StringVal(s), true
	}
	return cty.NilVal, false
}
