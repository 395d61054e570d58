package body

import (
	"contact3d/internal/lcp"

	"github.com/go-gl/mathgl/mgl64"
)

// Sleep thresholds
const (
	SleepVelocityThreshold = 0.05 // units/sec - below this, body might sleep
	SleepAngularThreshold  = 0.05 // rad/sec - below this, body might sleep
	SleepTimeThreshold     = 0.5  // seconds of low velocity before sleeping
)

// Frame is a rigid transform: world position and world rotation.
type Frame struct {
	Pos mgl64.Vec3
	Rot mgl64.Mat3
}

// IdentityFrame returns a frame at the origin with no rotation.
func IdentityFrame() Frame {
	return Frame{Rot: mgl64.Ident3()}
}

// ToLocal expresses a world point in this frame.
func (f Frame) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return f.Rot.Transpose().Mul3x1(p.Sub(f.Pos))
}

// ToWorld expresses a local point in world coordinates.
func (f Frame) ToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return f.Rot.Mul3x1(p).Add(f.Pos)
}

// Body is the dynamic state of one rigid body.
type Body struct {
	ID   int
	Name string

	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3 // rad/sec, world frame

	Mass         float64
	InertiaLocal mgl64.Mat3 // body frame
	Friction     float64    // Coulomb coefficient, combined per contact pair
	UseGravity   bool
	Fixed        bool // never moves; contacts against it use the static variant

	// Sleep state - sleeping bodies are excluded from the solve
	IsSleeping bool
	sleepTimer float64
	CanSleep   bool

	vars *lcp.BodyVariables
}

// New creates a dynamic body with the given mass and body-frame inertia.
func New(name string, mass float64, inertia mgl64.Mat3) *Body {
	b := &Body{
		Name:         name,
		Rotation:     mgl64.QuatIdent(),
		Mass:         mass,
		InertiaLocal: inertia,
		Friction:     0.5,
		UseGravity:   true,
		CanSleep:     true,
	}
	b.vars = lcp.NewBodyVariables(mass, inertia)
	return b
}

// NewFixed creates an immovable body.
func NewFixed(name string) *Body {
	b := New(name, 0, mgl64.Mat3{})
	b.Fixed = true
	b.UseGravity = false
	b.CanSleep = false
	return b
}

// SphereInertia returns the inertia tensor of a solid sphere.
func SphereInertia(mass, radius float64) mgl64.Mat3 {
	i := 0.4 * mass * radius * radius
	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

// BoxInertia returns the inertia tensor of a solid box given its half extents.
func BoxInertia(mass float64, half mgl64.Vec3) mgl64.Mat3 {
	x, y, z := 2*half.X(), 2*half.Y(), 2*half.Z()
	k := mass / 12
	return mgl64.Diag3(mgl64.Vec3{k * (y*y + z*z), k * (x*x + z*z), k * (x*x + y*y)})
}

// Frame returns the current world frame of the body.
func (b *Body) Frame() Frame {
	return Frame{Pos: b.Position, Rot: b.Rotation.Normalize().Mat4().Mat3()}
}

// Variables returns the solver variables of the body.
func (b *Body) Variables() *lcp.BodyVariables { return b.vars }

// InvInertiaWorld returns R I⁻¹ Rᵀ.
func (b *Body) InvInertiaWorld() mgl64.Mat3 {
	if b.Fixed || b.Mass <= 0 {
		return mgl64.Mat3{}
	}
	r := b.Rotation.Normalize().Mat4().Mat3()
	return r.Mul3(b.InertiaLocal.Inv()).Mul3(r.Transpose())
}

// LoadVariables refreshes the solver variables from the current state:
// world-frame mass matrix and Fb = M·v + dt·F_ext.
func (b *Body) LoadVariables(gravity mgl64.Vec3, dt float64) {
	if b.Fixed {
		b.vars.SetMass(0, mgl64.Mat3{})
		b.vars.Fb = [6]float64{}
		b.vars.Qb = [6]float64{}
		return
	}

	r := b.Rotation.Normalize().Mat4().Mat3()
	inertiaWorld := r.Mul3(b.InertiaLocal).Mul3(r.Transpose())
	b.vars.SetMass(b.Mass, inertiaWorld)
	b.vars.Disabled = b.IsSleeping

	lin := b.Velocity
	if b.UseGravity {
		lin = lin.Add(gravity.Mul(dt))
	}
	b.vars.SetImpulse(lin.Mul(b.Mass), inertiaWorld.Mul3x1(b.AngularVelocity))
}

// LoadPositionVariables prepares the variables for a position-level solve:
// no external impulse, same mass matrix.
func (b *Body) LoadPositionVariables() {
	b.vars.Fb = [6]float64{}
	b.vars.Qb = [6]float64{}
}

// StoreVelocities copies the solved velocities back into the body.
func (b *Body) StoreVelocities() {
	if b.Fixed || b.IsSleeping {
		return
	}
	b.Velocity, b.AngularVelocity = b.vars.Velocity()
}

// Integrate advances the pose by dt using the current velocities.
func (b *Body) Integrate(dt float64) {
	if b.Fixed || b.IsSleeping {
		return
	}
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Rotation = rotate(b.Rotation, b.AngularVelocity, dt)
}

// ApplyPositionCorrection moves the body by the pseudo-velocities of a
// position-level solve, scaled by k.
func (b *Body) ApplyPositionCorrection(k float64) {
	if b.Fixed || b.IsSleeping {
		return
	}
	lin, ang := b.vars.Velocity()
	b.Position = b.Position.Add(lin.Mul(k))
	b.Rotation = rotate(b.Rotation, ang, k)
}

// rotate integrates q by angular velocity w over dt: q' = q + ½ dt (w ⊗ q).
func rotate(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	if w.Len() == 0 {
		return q
	}
	spin := mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}

// Wake forces the body out of sleep state
func (b *Body) Wake() {
	b.IsSleeping = false
	b.sleepTimer = 0
}

// TrySleep checks if the body should go to sleep based on velocity
func (b *Body) TrySleep(dt float64) {
	if !b.CanSleep || b.IsSleeping || b.Fixed {
		return
	}

	if b.Velocity.Len() < SleepVelocityThreshold && b.AngularVelocity.Len() < SleepAngularThreshold {
		b.sleepTimer += dt
		if b.sleepTimer >= SleepTimeThreshold {
			b.IsSleeping = true
			b.Velocity = mgl64.Vec3{}
			b.AngularVelocity = mgl64.Vec3{}
		}
	} else {
		b.sleepTimer = 0
	}
}

// KineticEnergy returns ½ m v² + ½ ωᵀ I ω.
func (b *Body) KineticEnergy() float64 {
	if b.Fixed {
		return 0
	}
	r := b.Rotation.Normalize().Mat4().Mat3()
	iw := r.Mul3(b.InertiaLocal).Mul3(r.Transpose())
	lin := 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	ang := 0.5 * b.AngularVelocity.Dot(iw.Mul3x1(b.AngularVelocity))
	return lin + ang
}
