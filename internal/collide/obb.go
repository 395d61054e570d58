package collide

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OBB represents an Oriented Bounding Box
type OBB struct {
	Center   rl.Vector3    // World-space center
	HalfSize rl.Vector3    // Half-extents along local axes
	Axes     [3]rl.Vector3 // Local X, Y, Z axes (rotated)
}

func (o OBB) half(i int) float32 {
	switch i {
	case 0:
		return o.HalfSize.X
	case 1:
		return o.HalfSize.Y
	}
	return o.HalfSize.Z
}

// IntersectsOBB tests if two OBBs, each grown by margin, intersect using the
// Separating Axis Theorem
func (a OBB) IntersectsOBB(b OBB, margin float32) bool {
	// Vector from A's center to B's center
	t := rl.Vector3Subtract(b.Center, a.Center)

	// 15 axes: 3 face normals from each box and 9 edge cross products
	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, a.Axes[i], t, margin) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, b.Axes[i], t, margin) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := rl.Vector3CrossProduct(a.Axes[i], b.Axes[j])
			// Skip near-zero axes (parallel edges)
			if rl.Vector3Length(axis) > 0.0001 {
				axis = rl.Vector3Normalize(axis)
				if !overlapOnAxis(a, b, axis, t, margin) {
					return false
				}
			}
		}
	}

	return true
}

// overlapOnAxis checks if two OBBs overlap when projected onto a given axis
func overlapOnAxis(a, b OBB, axis, t rl.Vector3, margin float32) bool {
	aProjection := a.HalfSize.X*absf(rl.Vector3DotProduct(a.Axes[0], axis)) +
		a.HalfSize.Y*absf(rl.Vector3DotProduct(a.Axes[1], axis)) +
		a.HalfSize.Z*absf(rl.Vector3DotProduct(a.Axes[2], axis))

	bProjection := b.HalfSize.X*absf(rl.Vector3DotProduct(b.Axes[0], axis)) +
		b.HalfSize.Y*absf(rl.Vector3DotProduct(b.Axes[1], axis)) +
		b.HalfSize.Z*absf(rl.Vector3DotProduct(b.Axes[2], axis))

	distance := absf(rl.Vector3DotProduct(t, axis))

	return distance <= aProjection+bProjection+2*margin
}

// Corners returns the eight vertices of the box in world space. Corner i
// takes the sign of bit 0, 1, 2 for the X, Y, Z axes respectively.
func (o OBB) Corners() [8]rl.Vector3 {
	var out [8]rl.Vector3
	for i := 0; i < 8; i++ {
		p := o.Center
		for k := 0; k < 3; k++ {
			s := o.half(k)
			if i&(1<<k) == 0 {
				s = -s
			}
			p = rl.Vector3Add(p, rl.Vector3Scale(o.Axes[k], s))
		}
		out[i] = p
	}
	return out
}

// ClosestPointOnOBB returns the closest point on or inside the OBB to the given point
func ClosestPointOnOBB(o OBB, point rl.Vector3) rl.Vector3 {
	local := rl.Vector3Subtract(point, o.Center)

	result := o.Center
	for k := 0; k < 3; k++ {
		d := clampf(rl.Vector3DotProduct(local, o.Axes[k]), -o.half(k), o.half(k))
		result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[k], d))
	}
	return result
}

// pointBox measures a point against the surface of a box. It returns the
// nearest surface point q, the outward direction n from the surface toward
// the point, and the signed distance (negative inside).
func pointBox(o OBB, p rl.Vector3) (q, n rl.Vector3, dist float32) {
	q = ClosestPointOnOBB(o, p)
	diff := rl.Vector3Subtract(p, q)
	if d := rl.Vector3Length(diff); d > 1e-6 {
		return q, rl.Vector3Scale(diff, 1/d), d
	}

	// Inside: leave through the face with least penetration.
	local := rl.Vector3Subtract(p, o.Center)
	best := float32(-1)
	var axis int
	var sign float32
	for k := 0; k < 3; k++ {
		c := rl.Vector3DotProduct(local, o.Axes[k])
		pen := o.half(k) - absf(c)
		if best < 0 || pen < best {
			best = pen
			axis = k
			sign = 1
			if c < 0 {
				sign = -1
			}
		}
	}
	n = rl.Vector3Scale(o.Axes[axis], sign)
	q = rl.Vector3Add(p, rl.Vector3Scale(n, best))
	return q, n, -best
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
