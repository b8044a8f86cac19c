package tool

import (
	"sync"

	"github.com/leofalp/chatgate/providers/ai"
)

// Catalog is the ordered set of descriptors selected for one request. It is
// safe for concurrent use so parallel dispatch can resolve from it.
type Catalog struct {
	mu          sync.RWMutex
	descriptors []*Descriptor
}

// NewCatalog returns a catalog holding descriptors in the given order.
func NewCatalog(descriptors ...*Descriptor) *Catalog {
	catalog := &Catalog{}
	catalog.Add(descriptors...)
	return catalog
}

// Add appends descriptors. Nil entries are ignored.
func (c *Catalog) Add(descriptors ...*Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, descriptor := range descriptors {
		if descriptor != nil {
			c.descriptors = append(c.descriptors, descriptor)
		}
	}
}

// Resolve finds the descriptor and path template for function, scanning
// descriptors in insertion order.
func (c *Catalog) Resolve(function string) (*Descriptor, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, descriptor := range c.descriptors {
		if path, ok := descriptor.PathFor(function); ok {
			return descriptor, path, nil
		}
	}
	return nil, "", ai.NewError(ai.KindUnknownFunction, "function %s not found in any schema", function)
}

// Functions returns every function of every descriptor, in order.
func (c *Catalog) Functions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var functions []ai.ToolDescription
	for _, descriptor := range c.descriptors {
		functions = append(functions, descriptor.Functions...)
	}
	return functions
}

// Descriptors returns a copy of the descriptor list.
func (c *Catalog) Descriptors() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Size returns the number of descriptors.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.descriptors)
}
