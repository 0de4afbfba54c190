package tool

import (
	"context"
	"fmt"
	"sync"

	"jirapilot/internal/value"
)

// Catalog holds the named operations available to the agent. It is built
// explicitly at startup and injected into the orchestrator.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Names are unique; registering a duplicate fails.
func (c *Catalog) Register(t Tool) error {
	name := t.Spec().Name
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	c.tools[name] = t
	c.order = append(c.order, name)
	return nil
}

// Get returns a tool by name.
func (c *Catalog) Get(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[name]
	return t, ok
}

// TagsFor returns the behavior tags for a named tool.
func (c *Catalog) TagsFor(name string) (Tags, bool) {
	t, ok := c.Get(name)
	if !ok {
		return Tags{}, false
	}
	return t.Tags(), true
}

// Describe returns all tool schemas in registration order. Repeated calls
// with no registrations in between return identical output.
func (c *Catalog) Describe() []Spec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	specs := make([]Spec, 0, len(c.order))
	for _, name := range c.order {
		specs = append(specs, c.tools[name].Spec())
	}
	return specs
}

// Execute runs the named tool. An unknown name produces a failed Result
// rather than an error, so the loop can feed it back to the model as an
// observation. The returned error is non-nil only for context cancellation.
func (c *Catalog) Execute(ctx context.Context, name string, args value.Map) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, ok := c.Get(name)
	if !ok {
		return Fail("unknown tool: %s", name), nil
	}

	res, err := t.Execute(ctx, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("tool %s failed: %v", name, err), nil
	}
	return res, nil
}
