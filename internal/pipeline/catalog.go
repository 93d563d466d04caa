package pipeline

import (
	"fmt"
	"time"
)

// StepDefinition is one unit of the deployment simulation: a short label,
// a longer description, and the nominal time the step takes.
type StepDefinition struct {
	Message  string
	Detail   string
	Duration time.Duration
}

// Catalog is the immutable ordered list of steps for a run.
type Catalog struct {
	steps []StepDefinition
}

// NewCatalog validates the definitions and returns a catalog. Step order
// is execution order.
func NewCatalog(steps []StepDefinition) (Catalog, error) {
	if len(steps) == 0 {
		return Catalog{}, fmt.Errorf("catalog: no steps defined")
	}
	for i, s := range steps {
		if s.Message == "" {
			return Catalog{}, fmt.Errorf("catalog: step %d has empty message", i)
		}
		if s.Duration <= 0 {
			return Catalog{}, fmt.Errorf("catalog: step %d (%s) has non-positive duration", i, s.Message)
		}
	}
	return Catalog{steps: append([]StepDefinition(nil), steps...)}, nil
}

// Len returns the number of steps.
func (c Catalog) Len() int { return len(c.steps) }

// Step returns the definition at index i.
func (c Catalog) Step(i int) StepDefinition { return c.steps[i] }

// Steps returns a copy of all definitions in execution order.
func (c Catalog) Steps() []StepDefinition {
	return append([]StepDefinition(nil), c.steps...)
}

// DefaultCatalog returns the built-in deployment simulation steps.
func DefaultCatalog() Catalog {
	c, err := NewCatalog([]StepDefinition{
		{
			Message:  "Analyzing requirements",
			Detail:   "Parsing the prompt and sketching the service topology",
			Duration: 1400 * time.Millisecond,
		},
		{
			Message:  "Provisioning infrastructure",
			Detail:   "Allocating compute, storage volumes, and a private network",
			Duration: 2200 * time.Millisecond,
		},
		{
			Message:  "Generating services",
			Detail:   "Scaffolding the API, worker, and frontend projects",
			Duration: 1800 * time.Millisecond,
		},
		{
			Message:  "Building containers",
			Detail:   "Compiling images and pushing them to the registry",
			Duration: 2600 * time.Millisecond,
		},
		{
			Message:  "Configuring networking",
			Detail:   "Wiring ingress routes, TLS, and internal service discovery",
			Duration: 1200 * time.Millisecond,
		},
		{
			Message:  "Deploying services",
			Detail:   "Rolling out containers and waiting for readiness",
			Duration: 2000 * time.Millisecond,
		},
		{
			Message:  "Running health checks",
			Detail:   "Probing endpoints until every service reports healthy",
			Duration: 1000 * time.Millisecond,
		},
	})
	if err != nil {
		panic(err) // built-in steps are validated at development time
	}
	return c
}
