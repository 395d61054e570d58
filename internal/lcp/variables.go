package lcp

import "github.com/go-gl/mathgl/mgl64"

// BodyVariables holds the six generalized velocities of one rigid body
// (linear then angular, world frame) together with its mass properties.
//
// The solver reads Fb and writes Qb. Bodies fill Fb before the solve and
// read Qb back afterwards.
type BodyVariables struct {
	Mass       float64
	InvMass    float64
	Inertia    mgl64.Mat3 // world frame
	InvInertia mgl64.Mat3 // world frame

	Fb [6]float64 // generalized impulse
	Qb [6]float64 // generalized velocity

	// Disabled variables behave as infinitely massive: rows never move them.
	Disabled bool

	offset int
}

// NewBodyVariables creates variables for a body with the given mass and
// world-frame inertia tensor.
func NewBodyVariables(mass float64, inertia mgl64.Mat3) *BodyVariables {
	v := &BodyVariables{}
	v.SetMass(mass, inertia)
	return v
}

// SetMass updates mass properties. A non-positive mass disables the variables.
func (v *BodyVariables) SetMass(mass float64, inertia mgl64.Mat3) {
	v.Mass = mass
	v.Inertia = inertia
	if mass <= 0 {
		v.InvMass = 0
		v.InvInertia = mgl64.Mat3{}
		v.Disabled = true
		return
	}
	v.InvMass = 1 / mass
	v.InvInertia = inertia.Inv()
	v.Disabled = false
}

// Offset returns the index of the first of the six entries of these
// variables in the assembled system vector.
func (v *BodyVariables) Offset() int { return v.offset }

// ComputeInvMb sets Qb = M⁻¹ Fb.
func (v *BodyVariables) ComputeInvMb() {
	if v.Disabled {
		v.Qb = [6]float64{}
		return
	}
	lin := mgl64.Vec3{v.Fb[0], v.Fb[1], v.Fb[2]}.Mul(v.InvMass)
	ang := v.InvInertia.Mul3x1(mgl64.Vec3{v.Fb[3], v.Fb[4], v.Fb[5]})
	v.Qb = [6]float64{lin[0], lin[1], lin[2], ang[0], ang[1], ang[2]}
}

// invM multiplies a generalized vector by the inverse mass matrix.
func (v *BodyVariables) invM(x [6]float64) [6]float64 {
	if v.Disabled {
		return [6]float64{}
	}
	ang := v.InvInertia.Mul3x1(mgl64.Vec3{x[3], x[4], x[5]})
	return [6]float64{
		x[0] * v.InvMass, x[1] * v.InvMass, x[2] * v.InvMass,
		ang[0], ang[1], ang[2],
	}
}

// Velocity returns Qb split into linear and angular parts.
func (v *BodyVariables) Velocity() (lin, ang mgl64.Vec3) {
	return mgl64.Vec3{v.Qb[0], v.Qb[1], v.Qb[2]}, mgl64.Vec3{v.Qb[3], v.Qb[4], v.Qb[5]}
}

// SetImpulse sets Fb from a linear and an angular part.
func (v *BodyVariables) SetImpulse(lin, ang mgl64.Vec3) {
	v.Fb = [6]float64{lin[0], lin[1], lin[2], ang[0], ang[1], ang[2]}
}
