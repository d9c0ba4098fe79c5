// Package job carries per-job state through provisioning, routing,
// execution, and supervision: the job identity, its logger, its event bus,
// and its cost tracker. Nothing in crewline keeps job state in globals;
// the caller owns a Context and passes it down.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/logging"
)

// Context is the explicit per-job state object.
type Context struct {
	ID        string
	StartedAt time.Time

	Logger *logging.Logger
	Bus    *event.Bus
	Costs  *CostTracker

	ceiling float64
}

// Option configures a job Context.
type Option func(*Context)

// WithLogger sets the job's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithBus sets the job's event bus.
func WithBus(bus *event.Bus) Option {
	return func(c *Context) { c.Bus = bus }
}

// WithCostCeiling caps the job's accumulated cost. Zero or negative means
// unlimited.
func WithCostCeiling(ceiling float64) Option {
	return func(c *Context) { c.ceiling = ceiling }
}

// New creates a job Context with a fresh ID.
func New(opts ...Option) *Context {
	c := &Context{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Logger:    logging.NopLogger(),
		Bus:       event.NewBus(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Costs = NewCostTracker(c.ID, c.ceiling, c.Bus)
	c.Logger = c.Logger.WithJob(c.ID)
	return c
}
