package collide

import (
	"contact3d/internal/contact"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

// Candidate is one potential contact point between two models. The normal
// points from ModelA toward ModelB and Distance is (PB-PA)·Normal, negative
// when the shapes overlap.
type Candidate struct {
	ModelA, ModelB *Model
	Feature        int
	PA, PB         mgl64.Vec3
	Normal         mgl64.Vec3
	Distance       float64
}

// Swapped returns the same contact seen from the other model.
func (c Candidate) Swapped() Candidate {
	return Candidate{
		ModelA:   c.ModelB,
		ModelB:   c.ModelA,
		Feature:  c.Feature,
		PA:       c.PB,
		PB:       c.PA,
		Normal:   c.Normal.Mul(-1),
		Distance: c.Distance,
	}
}

// Key identifies the candidate across steps.
func (c Candidate) Key() Key {
	return Key{A: c.ModelA.ID, B: c.ModelB.ID, Feature: c.Feature}
}

// Key is the persistent identity of a contact point.
type Key struct {
	A, B    contact.ModelID
	Feature int
}

// Less orders keys by model pair, then feature.
func (k Key) Less(o Key) bool {
	if k.A != o.A {
		return k.A < o.A
	}
	if k.B != o.B {
		return k.B < o.B
	}
	return k.Feature < o.Feature
}

// Feature ids for box pairs: corners of A are 0-7, corners of B are 8-15.
const boxCornersB = 8

// Narrow runs the exact test for a pair and appends every candidate closer
// than envelope to out.
func Narrow(a, b *Model, envelope float32, out []Candidate) []Candidate {
	switch {
	case a.Shape.Kind == SphereShape && b.Shape.Kind == SphereShape:
		if c, ok := sphereSphere(a, b, envelope); ok {
			out = append(out, c)
		}
	case a.Shape.Kind == SphereShape && b.Shape.Kind == BoxShape:
		if c, ok := sphereBox(a, b, envelope); ok {
			out = append(out, c)
		}
	case a.Shape.Kind == BoxShape && b.Shape.Kind == SphereShape:
		if c, ok := sphereBox(b, a, envelope); ok {
			out = append(out, c.Swapped())
		}
	case a.Shape.Kind == BoxShape && b.Shape.Kind == BoxShape:
		out = boxBox(a, b, envelope, out)
	}
	return out
}

func sphereSphere(a, b *Model, envelope float32) (Candidate, bool) {
	ca, cb := a.Center(), b.Center()
	delta := rl.Vector3Subtract(cb, ca)
	dist := rl.Vector3Length(delta)
	gap := dist - a.Shape.Radius - b.Shape.Radius
	if gap > envelope {
		return Candidate{}, false
	}

	n := rl.Vector3{X: 0, Y: 1, Z: 0}
	if dist > 1e-6 {
		n = rl.Vector3Scale(delta, 1/dist)
	}
	return Candidate{
		ModelA:   a,
		ModelB:   b,
		PA:       toVec(rl.Vector3Add(ca, rl.Vector3Scale(n, a.Shape.Radius))),
		PB:       toVec(rl.Vector3Subtract(cb, rl.Vector3Scale(n, b.Shape.Radius))),
		Normal:   toVec(n),
		Distance: float64(gap),
	}, true
}

// sphereBox treats the sphere as A.
func sphereBox(s, b *Model, envelope float32) (Candidate, bool) {
	center := s.Center()
	q, out, d := pointBox(b.OBB(), center)
	gap := d - s.Shape.Radius
	if gap > envelope {
		return Candidate{}, false
	}

	n := rl.Vector3Scale(out, -1)
	return Candidate{
		ModelA:   s,
		ModelB:   b,
		PA:       toVec(rl.Vector3Add(center, rl.Vector3Scale(n, s.Shape.Radius))),
		PB:       toVec(q),
		Normal:   toVec(n),
		Distance: float64(gap),
	}, true
}

// boxBox tests the corners of each box against the other one. Edge-edge
// crossings without a corner inside the envelope are not reported.
func boxBox(a, b *Model, envelope float32, out []Candidate) []Candidate {
	oa, ob := a.OBB(), b.OBB()
	if !oa.IntersectsOBB(ob, envelope/2) {
		return out
	}

	for i, c := range oa.Corners() {
		q, n, d := pointBox(ob, c)
		if d > envelope {
			continue
		}
		out = append(out, Candidate{
			ModelA:   a,
			ModelB:   b,
			Feature:  i,
			PA:       toVec(c),
			PB:       toVec(q),
			Normal:   toVec(rl.Vector3Scale(n, -1)),
			Distance: float64(d),
		})
	}
	for i, c := range ob.Corners() {
		q, n, d := pointBox(oa, c)
		if d > envelope {
			continue
		}
		out = append(out, Candidate{
			ModelA:   a,
			ModelB:   b,
			Feature:  boxCornersB + i,
			PA:       toVec(q),
			PB:       toVec(c),
			Normal:   toVec(n),
			Distance: float64(d),
		})
	}
	return out
}
