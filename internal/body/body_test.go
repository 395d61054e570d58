package body

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestFrameRoundTrip(t *testing.T) {
	b := New("box", 1, BoxInertia(1, mgl64.Vec3{0.5, 0.5, 0.5}))
	b.Position = mgl64.Vec3{1, 2, 3}
	b.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})

	f := b.Frame()
	p := mgl64.Vec3{0.3, -0.2, 0.9}
	back := f.ToWorld(f.ToLocal(p))
	assert.True(t, back.ApproxEqualThreshold(p, 1e-12), "got %v", back)

	// local +X maps to world -Z under a quarter turn about Y
	x := f.ToWorld(mgl64.Vec3{1, 0, 0}).Sub(f.Pos)
	assert.True(t, x.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-12), "got %v", x)
}

func TestLoadVariablesAppliesGravity(t *testing.T) {
	b := New("ball", 2, SphereInertia(2, 0.5))
	b.Velocity = mgl64.Vec3{1, 0, 0}
	b.LoadVariables(mgl64.Vec3{0, -10, 0}, 0.1)

	v := b.Variables()
	assert.False(t, v.Disabled)
	assert.InDelta(t, 2.0, v.Fb[0], 1e-12)
	assert.InDelta(t, -2.0, v.Fb[1], 1e-12)

	v.ComputeInvMb()
	b.StoreVelocities()
	assert.InDelta(t, -1.0, b.Velocity.Y(), 1e-12)
}

func TestFixedBodyHasDisabledVariables(t *testing.T) {
	g := NewFixed("ground")
	g.LoadVariables(mgl64.Vec3{0, -10, 0}, 0.01)
	assert.True(t, g.Variables().Disabled)

	g.Velocity = mgl64.Vec3{1, 1, 1}
	g.Integrate(1)
	assert.Equal(t, mgl64.Vec3{}, g.Position)
	assert.Zero(t, g.KineticEnergy())
}

func TestSleepingBodyIsDisabled(t *testing.T) {
	b := New("ball", 1, SphereInertia(1, 0.5))
	b.IsSleeping = true
	b.LoadVariables(mgl64.Vec3{0, -10, 0}, 0.01)
	assert.True(t, b.Variables().Disabled)

	b.Wake()
	b.LoadVariables(mgl64.Vec3{0, -10, 0}, 0.01)
	assert.False(t, b.Variables().Disabled)
}

func TestIntegrateRotation(t *testing.T) {
	b := New("spin", 1, SphereInertia(1, 1))
	b.AngularVelocity = mgl64.Vec3{0, 0, 1}

	dt := 0.001
	for i := 0; i < 1000; i++ {
		b.Integrate(dt)
	}

	// one radian about Z
	want := mgl64.QuatRotate(1, mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 1.0, b.Rotation.Len(), 1e-12)
	assert.InDelta(t, want.W, b.Rotation.W, 1e-3)
	assert.InDelta(t, want.V.Z(), b.Rotation.V.Z(), 1e-3)
}

func TestTrySleep(t *testing.T) {
	b := New("ball", 1, SphereInertia(1, 0.5))
	b.Velocity = mgl64.Vec3{0.01, 0, 0}

	b.TrySleep(SleepTimeThreshold / 2)
	assert.False(t, b.IsSleeping)
	b.TrySleep(SleepTimeThreshold / 2)
	assert.True(t, b.IsSleeping)
	assert.Equal(t, mgl64.Vec3{}, b.Velocity)

	b.Wake()
	b.Velocity = mgl64.Vec3{1, 0, 0}
	b.TrySleep(SleepTimeThreshold * 2)
	assert.False(t, b.IsSleeping)
}

func TestInertiaHelpers(t *testing.T) {
	s := SphereInertia(5, 2)
	assert.InDelta(t, 8.0, s.At(0, 0), 1e-12)

	box := BoxInertia(12, mgl64.Vec3{0.5, 1, 1.5})
	assert.InDelta(t, 4.0+9.0, box.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0+9.0, box.At(1, 1), 1e-12)
	assert.InDelta(t, 1.0+4.0, box.At(2, 2), 1e-12)
}
