package metrics

import (
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// ControlEffort accumulates the integral of u^2 over the run, the energy
// proxy the tuner penalizes. Each sample contributes u^2 times the time
// since the previous sample, so the value is dt-independent for a given
// trajectory.
type ControlEffort struct {
	name    string
	prevT   float64
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	uf := dynamo.Force(u)
	if c.samples > 0 && t > c.prevT {
		c.sum += uf * uf * (t - c.prevT)
	}
	c.prevT = t
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	return c.sum
}

func (c *ControlEffort) Reset() {
	c.prevT = 0
	c.sum = 0
	c.samples = 0
}
