package metrics

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// Chattering measures the mean rate of change of the control signal,
// mean(|Δu| / Δt). High values indicate the switching term is flipping
// across the sliding surface faster than the boundary layer can smooth.
type Chattering struct {
	name    string
	prevU   float64
	prevT   float64
	sum     float64
	samples int
}

func NewChattering() *Chattering {
	return &Chattering{name: "chattering"}
}

func (c *Chattering) Name() string { return c.name }

func (c *Chattering) Observe(x dynamo.State, u dynamo.Control, t float64) {
	uf := dynamo.Force(u)
	if c.samples > 0 && t > c.prevT {
		c.sum += math.Abs(uf-c.prevU) / (t - c.prevT)
	}
	c.prevU = uf
	c.prevT = t
	c.samples++
}

func (c *Chattering) Value() float64 {
	if c.samples < 2 {
		return 0
	}
	return c.sum / float64(c.samples-1)
}

func (c *Chattering) Reset() {
	c.prevU = 0
	c.prevT = 0
	c.sum = 0
	c.samples = 0
}
