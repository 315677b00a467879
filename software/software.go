// Package software is a CPU implementation of the graph device. Filters are
// Go functions registered in a catalog under a name, together with their
// uniform schema. It's used for headless rendering and tests.
package software

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"pipelined.dev/wvr/graph"
)

// ErrUnknownFilter is returned when filter is not registered.
var ErrUnknownFilter = errors.New("unknown filter")

// FilterFunc renders a pass.
type FilterFunc func(*graph.Pass) error

type filter struct {
	uniforms []graph.UniformSpec
	fn       FilterFunc
}

// Catalog holds registered filters. It's safe for concurrent use.
type Catalog struct {
	m       sync.RWMutex
	filters map[string]filter
}

// NewCatalog returns catalog with built-in filters registered.
func NewCatalog() *Catalog {
	c := &Catalog{
		filters: make(map[string]filter),
	}
	registerBuiltins(c)
	return c
}

// Register adds filter to the catalog. Existing filter with the same name
// is replaced.
func (c *Catalog) Register(name string, fn FilterFunc, uniforms ...graph.UniformSpec) {
	c.m.Lock()
	defer c.m.Unlock()
	c.filters[name] = filter{
		uniforms: uniforms,
		fn:       fn,
	}
}

// Resolve implements graph.Catalog.
func (c *Catalog) Resolve(name string) (graph.FilterSource, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	f, ok := c.filters[name]
	if !ok {
		return graph.FilterSource{}, fmt.Errorf("%w: %v", ErrUnknownFilter, name)
	}
	uniforms := make([]graph.UniformSpec, len(f.uniforms))
	copy(uniforms, f.uniforms)
	return graph.FilterSource{
		Name:     name,
		Source:   name,
		Uniforms: uniforms,
	}, nil
}

// Names returns sorted names of registered filters.
func (c *Catalog) Names() []string {
	c.m.RLock()
	defer c.m.RUnlock()
	names := make([]string, 0, len(c.filters))
	for name := range c.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) lookup(source string) (FilterFunc, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	f, ok := c.filters[source]
	return f.fn, ok
}

// Device compiles filter sources of its catalog.
type Device struct {
	catalog *Catalog
}

// NewDevice returns device bound to the catalog.
func NewDevice(c *Catalog) *Device {
	return &Device{catalog: c}
}

// Compile implements graph.Device.
func (d *Device) Compile(src graph.FilterSource) (graph.Program, error) {
	fn, ok := d.catalog.lookup(src.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFilter, src.Source)
	}
	return &program{fn: fn}, nil
}

type program struct {
	fn FilterFunc
}

func (p *program) Render(pass *graph.Pass) error {
	return p.fn(pass)
}

func (p *program) Release() {}
