package contact

import (
	"contact3d/internal/lcp"

	"github.com/go-gl/mathgl/mgl64"
)

// InjectConstraints registers the three rows with d. Call it once per step
// per active contact: the descriptor keeps duplicates.
func (c *Contact) InjectConstraints(d *lcp.Descriptor) {
	d.InsertConstraint(&c.nx)
	d.InsertConstraint(&c.tu)
	d.InsertConstraint(&c.tv)
}

// ConstraintsBiReset zeroes the bias of all three rows.
func (c *Contact) ConstraintsBiReset() {
	c.nx.B = 0
	c.tu.B = 0
	c.tv.B = 0
}

// ConstraintsBiLoadC adds the stabilization term of a penetrating contact to
// the normal row: factor·gap, limited to -recoveryClamp when doClamp is set.
// Separated contacts and tangential rows get no bias.
func (c *Contact) ConstraintsBiLoadC(factor, recoveryClamp float64, doClamp bool) {
	if c.distance >= 0 {
		return
	}
	b := factor * c.distance
	if doClamp && b < -recoveryClamp {
		b = -recoveryClamp
	}
	c.nx.B += b
}

// ConstraintsFetchReact stores the solved multipliers, scaled by factor, as
// the reaction force in the contact frame.
func (c *Contact) ConstraintsFetchReact(factor float64) {
	c.react = mgl64.Vec3{c.nx.L * factor, c.tu.L * factor, c.tv.L * factor}
}

func (c *Contact) multipliers() [3]float64 {
	return [3]float64{c.nx.L, c.tu.L, c.tv.L}
}

func (c *Contact) setMultipliers(v [3]float64) {
	c.nx.L, c.tu.L, c.tv.L = v[0], v[1], v[2]
}

// ConstraintsLiLoadSuggestedSpeedSolution seeds the rows with the cached
// velocity-level multipliers. Without a live cache slot the rows keep their
// current values.
func (c *Contact) ConstraintsLiLoadSuggestedSpeedSolution() {
	if v, ok := c.cache.Cache.Speed(c.cache.Handle); ok {
		c.setMultipliers(v)
	}
}

// ConstraintsLiLoadSuggestedPositionSolution is the position-level
// counterpart of ConstraintsLiLoadSuggestedSpeedSolution.
func (c *Contact) ConstraintsLiLoadSuggestedPositionSolution() {
	if v, ok := c.cache.Cache.Position(c.cache.Handle); ok {
		c.setMultipliers(v)
	}
}

// ConstraintsLiFetchSuggestedSpeedSolution stores the solved multipliers in
// the cache for the next step.
func (c *Contact) ConstraintsLiFetchSuggestedSpeedSolution() {
	c.cache.Cache.SetSpeed(c.cache.Handle, c.multipliers())
}

// ConstraintsLiFetchSuggestedPositionSolution is the position-level
// counterpart of ConstraintsLiFetchSuggestedSpeedSolution.
func (c *Contact) ConstraintsLiFetchSuggestedPositionSolution() {
	c.cache.Cache.SetPosition(c.cache.Handle, c.multipliers())
}
