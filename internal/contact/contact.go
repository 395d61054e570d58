// Package contact implements the unilateral frictional contact constraint
// between two rigid bodies, or between a body and fixed environment.
//
// Conventions: the normal points from body A toward body B, the gap is
// (p2 - p1)·normal and is negative when penetrating, and a positive normal
// multiplier pushes the bodies apart. The reaction force is the force acting
// on body B, expressed in the contact frame.
package contact

import (
	"contact3d/internal/body"
	"contact3d/internal/lcp"

	"github.com/go-gl/mathgl/mgl64"
)

// ModelID identifies a collision shape for reporting.
type ModelID uint32

// Kind tags the contact variant.
type Kind int

const (
	// TwoBody couples two sets of solver variables.
	TwoBody Kind = iota
	// Static couples one body to fixed environment; its B block is empty.
	Static
)

func (k Kind) String() string {
	if k == Static {
		return "static"
	}
	return "two-body"
}

// Geometry exposes what collision detection established about a contact.
type Geometry interface {
	ContactPlane() mgl64.Mat3
	ContactP1() mgl64.Vec3
	ContactP2() mgl64.Vec3
	ContactNormal() mgl64.Vec3
	ContactDistance() float64
	ContactCoords() (origin mgl64.Vec3, rot mgl64.Quat)
	ModelA() ModelID
	ModelB() ModelID
}

// Reactor exposes solved reactions.
type Reactor interface {
	ContactForce() mgl64.Vec3
	Friction() float64
	SetFriction(mu float64)
}

// Link is the full contract the solver layer drives each step.
type Link interface {
	Geometry
	Reactor

	InjectConstraints(d *lcp.Descriptor)
	ConstraintsBiReset()
	ConstraintsBiLoadC(factor, recoveryClamp float64, doClamp bool)
	ConstraintsFetchReact(factor float64)
	ConstraintsLiLoadSuggestedSpeedSolution()
	ConstraintsLiLoadSuggestedPositionSolution()
	ConstraintsLiFetchSuggestedSpeedSolution()
	ConstraintsLiFetchSuggestedPositionSolution()
}

var _ Link = (*Contact)(nil)

// Params carries the inputs of New and Reset.
type Params struct {
	ModelA, ModelB ModelID
	VarA, VarB     *lcp.BodyVariables // VarB nil selects the Static variant
	FrameA, FrameB body.Frame
	PA, PB         mgl64.Vec3 // contact points, world frame
	Normal         mgl64.Vec3 // unit, from A toward B, world frame
	Distance       float64    // negative when penetrating
	Cache          CacheRef   // zero keeps the current binding on Reset
	Friction       float64
}

// Contact is one unilateral frictional contact: a normal row and two
// tangential rows bounded by friction times the normal multiplier.
type Contact struct {
	kind       Kind
	modA, modB ModelID
	p1, p2     mgl64.Vec3
	normal     mgl64.Vec3
	plane      mgl64.Mat3
	distance   float64
	cache      CacheRef
	nx, tu, tv lcp.Row
	react      mgl64.Vec3
}

// New creates a contact from fresh collision data.
func New(p Params) *Contact {
	c := &Contact{}
	c.nx = *lcp.NewUnilateral(p.VarA, p.VarB)
	c.tu = *lcp.NewFriction(p.VarA, p.VarB, &c.nx)
	c.tv = *lcp.NewFriction(p.VarA, p.VarB, &c.nx)
	c.Reset(p)
	return c
}

// Reset reinitializes the contact in place with the current geometry. The
// bound cache reference survives unless p.Cache refers to a live slot.
func (c *Contact) Reset(p Params) {
	c.modA, c.modB = p.ModelA, p.ModelB
	c.p1, c.p2 = p.PA, p.PB
	c.distance = p.Distance
	if p.Cache.Valid() {
		c.cache = p.Cache
	}

	c.plane = Plane(p.Normal)
	c.normal = c.plane.Col(0)

	c.kind = TwoBody
	if p.VarB == nil {
		c.kind = Static
	}

	for _, r := range c.rows() {
		r.SetVariables(p.VarA, p.VarB)
		r.SetActive(true)
		r.B = 0
		r.L = 0
		r.CqA, r.CqB = [6]float64{}, [6]float64{}
	}
	c.nx.SetFrictionCoefficient(p.Friction)

	rA := p.PA.Sub(p.FrameA.Pos)
	rB := p.PB.Sub(p.FrameB.Pos)
	for i, r := range c.rows() {
		axis := c.plane.Col(i)
		// relative point velocity of B with respect to A along axis
		r.CqA = jacobian(axis.Mul(-1), rA)
		if c.kind == TwoBody {
			r.CqB = jacobian(axis, rB)
		}
	}
}

// jacobian returns [d, r×d] so that J·(v, ω) = d·(v + ω×r).
func jacobian(d, r mgl64.Vec3) [6]float64 {
	m := r.Cross(d)
	return [6]float64{d[0], d[1], d[2], m[0], m[1], m[2]}
}

func (c *Contact) rows() [3]*lcp.Row { return [3]*lcp.Row{&c.nx, &c.tu, &c.tv} }

// Kind returns the variant of the contact.
func (c *Contact) Kind() Kind { return c.kind }

// Rows exposes the normal and the two tangential rows.
func (c *Contact) Rows() (n, u, v *lcp.Row) { return &c.nx, &c.tu, &c.tv }

// Cache returns the bound reaction cache reference.
func (c *Contact) Cache() CacheRef { return c.cache }

// Unbind drops the cache binding; later warm-start calls become no-ops.
func (c *Contact) Unbind() { c.cache = CacheRef{} }

// ContactPlane returns the contact frame. Column 0 is the normal.
func (c *Contact) ContactPlane() mgl64.Mat3 { return c.plane }

// ContactP1 returns the contact point on A, world frame.
func (c *Contact) ContactP1() mgl64.Vec3 { return c.p1 }

// ContactP2 returns the contact point on B, world frame.
func (c *Contact) ContactP2() mgl64.Vec3 { return c.p2 }

// ContactNormal returns the unit normal from A toward B.
func (c *Contact) ContactNormal() mgl64.Vec3 { return c.normal }

// ContactDistance returns the gap along the normal, negative when penetrating.
func (c *Contact) ContactDistance() float64 { return c.distance }

// ModelA and ModelB identify the two shapes for reporting.
func (c *Contact) ModelA() ModelID { return c.modA }
func (c *Contact) ModelB() ModelID { return c.modB }

// ContactCoords returns the contact coordinate system: origin at P2 and the
// rotation whose X axis is the normal.
func (c *Contact) ContactCoords() (mgl64.Vec3, mgl64.Quat) {
	return c.p2, mgl64.Mat4ToQuat(c.plane.Mat4())
}

// ContactForce returns the last fetched reaction in the contact frame:
// normal force, then the two friction components.
func (c *Contact) ContactForce() mgl64.Vec3 { return c.react }

// ContactForceWorld returns the reaction force on B in world coordinates.
func (c *Contact) ContactForceWorld() mgl64.Vec3 { return c.plane.Mul3x1(c.react) }

// Friction returns the Coulomb coefficient bounding the tangential rows.
func (c *Contact) Friction() float64 { return c.nx.FrictionCoefficient() }

// SetFriction changes the coefficient until the next Reset.
func (c *Contact) SetFriction(mu float64) { c.nx.SetFrictionCoefficient(mu) }
