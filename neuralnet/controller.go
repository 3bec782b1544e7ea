package neuralnet

import (
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
)

// Request is one controller call. Load and Execute are independent; when
// both are set the weights are loaded first and then used by the same call.
type Request struct {
	Load    bool
	Execute bool

	Dims Dimensions

	// Read when Load is set
	Weights01 []fixed.Fixed
	Weights12 []fixed.Fixed

	// Read / written when Execute is set
	Input  []fixed.Fixed
	Output []fixed.Fixed
}

// Stats counts completed phases.
type Stats struct {
	Loads      uint64
	Executions uint64
}

// Controller owns one network instance: its weights and its forward pass.
type Controller struct {
	store *WeightStore
	pass  *ForwardPass
	log   logr.Logger

	loads      atomic.Uint64
	executions atomic.Uint64
}

// New creates a controller with empty weights.
func New() *Controller {
	store := NewWeightStore()
	return &Controller{
		store: store,
		pass:  NewForwardPass(store),
		log:   logr.Discard(),
	}
}

// SetLogger sets the logger. Loads log at V(1), executions at V(2).
func (c *Controller) SetLogger(l logr.Logger) {
	c.log = l.WithName("neuralnet")
}

// SetWorkers sets the goroutine count for one accumulation stage.
func (c *Controller) SetWorkers(n int) {
	c.pass.SetWorkers(n)
}

// SetBoundMode sets the accumulation sweep of the forward pass.
func (c *Controller) SetBoundMode(m BoundMode) {
	c.pass.SetBoundMode(m)
}

// Weights exposes the resident weight store.
func (c *Controller) Weights() *WeightStore {
	return c.store
}

// Stats returns the phase counters. Safe to call from any goroutine.
func (c *Controller) Stats() Stats {
	return Stats{
		Loads:      c.loads.Load(),
		Executions: c.executions.Load(),
	}
}

// Step runs the requested phases. The whole request is validated before
// either phase runs, so a rejected request changes nothing.
func (c *Controller) Step(req Request) error {
	if req.Load {
		if err := req.Dims.Validate(); err != nil {
			return err
		}
		if err := checkLen("weights0to1", len(req.Weights01), req.Dims.Weights01Len()); err != nil {
			return err
		}
		if err := checkLen("weights1to2", len(req.Weights12), req.Dims.Weights12Len()); err != nil {
			return err
		}
	}
	if req.Execute {
		if err := validateExecute(req.Dims, req.Input, req.Output); err != nil {
			return err
		}
	}

	if req.Load {
		if err := c.store.Load(req.Dims, req.Weights01, req.Weights12); err != nil {
			return err
		}
		c.loads.Add(1)
		c.log.V(1).Info("weights loaded", "dims", req.Dims.String())
	}

	if req.Execute {
		c.pass.run(req.Dims, req.Input, req.Output)
		c.executions.Add(1)
		c.log.V(2).Info("forward pass", "dims", req.Dims.String(), "loadedShape", c.store.Shape().String())
	}

	return nil
}

// Load is Step with only the load flag set.
func (c *Controller) Load(dims Dimensions, w01, w12 []fixed.Fixed) error {
	return c.Step(Request{Load: true, Dims: dims, Weights01: w01, Weights12: w12})
}

// Execute is Step with only the execute flag set.
func (c *Controller) Execute(dims Dimensions, input, output []fixed.Fixed) error {
	return c.Step(Request{Execute: true, Dims: dims, Input: input, Output: output})
}
