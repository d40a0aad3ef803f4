package catalog

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// DataCatalog is the mutable, keyed data-set store the Runner reads from
// and writes to. Implementations must make Load/Save safe for concurrent
// access on distinct names.
type DataCatalog interface {
	// List returns the names currently registered.
	List() []string
	// Exists reports whether a persisted value exists for name.
	Exists(name string) bool
	// Load returns the value stored under name.
	Load(name string) (any, error)
	// Save stores value under name, overwriting any previous value.
	Save(name string, value any) error
	// Add registers name as a known data set with no value yet saved.
	Add(name string) error
	// ShallowCopy returns a clone whose registration map is independent of
	// the original's: adding/removing names on the clone does not affect
	// the receiver.
	ShallowCopy() DataCatalog
	// SetRemainingLoads hints that name will be loaded count more times;
	// an implementation may free the backing value once the count reaches
	// zero. Purely advisory.
	SetRemainingLoads(name string, count int)
}

// ErrNotFound is returned by Load when name was never registered or has
// no saved value.
type ErrNotFound struct {
	Name string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("catalog: data set %q not found", e.Name)
}

// MemoryCatalog is the reference DataCatalog: an in-memory, mutex-guarded
// map from name to value, with optional per-name JSON-schema validation on
// Save.
type MemoryCatalog struct {
	mu             sync.RWMutex
	registered     map[string]struct{}
	values         map[string]any
	remainingLoads map[string]int
	schemas        map[string]*gojsonschema.Schema
}

// NewMemoryCatalog returns an empty MemoryCatalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		registered:     make(map[string]struct{}),
		values:         make(map[string]any),
		remainingLoads: make(map[string]int),
		schemas:        make(map[string]*gojsonschema.Schema),
	}
}

// RegisterSchema attaches a JSON schema (as raw JSON text) to name; every
// subsequent Save for that name is validated against it. This extends the
// DataCatalog contract without changing Save's documented signature.
func (c *MemoryCatalog) RegisterSchema(name, schemaJSON string) error {
	loader := gojsonschema.NewStringLoader(schemaJSON)
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return fmt.Errorf("catalog: invalid schema for %q: %w", name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas[name] = schema
	return nil
}

func (c *MemoryCatalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.registered))
	for name := range c.registered {
		out = append(out, name)
	}
	return out
}

func (c *MemoryCatalog) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.values[name]
	return ok
}

func (c *MemoryCatalog) Load(name string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registered[name]; !ok {
		return nil, &ErrNotFound{Name: name}
	}
	value, ok := c.values[name]
	if !ok {
		return nil, &ErrNotFound{Name: name}
	}

	if remaining, tracked := c.remainingLoads[name]; tracked {
		remaining--
		if remaining <= 0 {
			delete(c.values, name)
			delete(c.remainingLoads, name)
		} else {
			c.remainingLoads[name] = remaining
		}
	}

	return value, nil
}

func (c *MemoryCatalog) Save(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if schema, ok := c.schemas[name]; ok {
		if err := validateAgainstSchema(schema, value); err != nil {
			return fmt.Errorf("catalog: %q failed schema validation: %w", name, err)
		}
	}

	c.registered[name] = struct{}{}
	c.values[name] = value
	return nil
}

func validateAgainstSchema(schema *gojsonschema.Schema, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(encoded))
	if err != nil {
		return err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%v", msgs)
	}
	return nil
}

func (c *MemoryCatalog) Add(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered[name] = struct{}{}
	return nil
}

// ShallowCopy returns a new MemoryCatalog whose registration and value
// maps are independent copies of the receiver's at the time of the call;
// subsequent Add/Save calls on either catalog do not affect the other.
func (c *MemoryCatalog) ShallowCopy() DataCatalog {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := NewMemoryCatalog()
	for name := range c.registered {
		clone.registered[name] = struct{}{}
	}
	for name, value := range c.values {
		clone.values[name] = value
	}
	for name, schema := range c.schemas {
		clone.schemas[name] = schema
	}
	return clone
}

func (c *MemoryCatalog) SetRemainingLoads(name string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remainingLoads[name] = count
}
