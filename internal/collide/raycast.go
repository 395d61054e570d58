package collide

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type RaycastHit struct {
	Model    *Model
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// Raycast checks for intersection with all models and returns the closest hit
func Raycast(models []*Model, origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	direction = rl.Vector3Normalize(direction)
	var closestHit RaycastHit
	closestHit.Distance = maxDistance
	hit := false

	for _, m := range models {
		var hitInfo RaycastHit
		var ok bool
		switch m.Shape.Kind {
		case SphereShape:
			hitInfo, ok = raycastSphere(origin, direction, m.Center(), m.Shape.Radius, maxDistance)
		case BoxShape:
			hitInfo, ok = raycastOBB(origin, direction, m.OBB(), maxDistance)
		}
		if ok && hitInfo.Distance < closestHit.Distance {
			closestHit = hitInfo
			closestHit.Model = m
			hit = true
		}
	}

	return closestHit, hit
}

// raycastOBB runs the slab test in the box's local frame.
func raycastOBB(origin, direction rl.Vector3, o OBB, maxDistance float32) (RaycastHit, bool) {
	rel := rl.Vector3Subtract(origin, o.Center)

	tmin, tmax := float32(-1e30), float32(1e30)
	enter := -1
	var enterSign float32
	for k := 0; k < 3; k++ {
		org := rl.Vector3DotProduct(rel, o.Axes[k])
		dir := rl.Vector3DotProduct(direction, o.Axes[k])
		h := o.half(k)
		if absf(dir) < 1e-8 {
			if org < -h || org > h {
				return RaycastHit{}, false
			}
			continue
		}
		t1 := (-h - org) / dir
		t2 := (h - org) / dir
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			enter = k
			enterSign = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return RaycastHit{}, false
		}
	}

	if tmax < 0 || tmin > maxDistance {
		return RaycastHit{}, false
	}

	t := tmin
	var normal rl.Vector3
	if t < 0 || enter < 0 {
		// Origin inside the box: report the exit point.
		t = tmax
		p := rl.Vector3Subtract(rl.Vector3Add(origin, rl.Vector3Scale(direction, t)), o.Center)
		_, normal, _ = pointBox(OBB{HalfSize: o.HalfSize, Axes: o.Axes}, rl.Vector3Scale(p, 0.999))
	} else {
		normal = rl.Vector3Scale(o.Axes[enter], enterSign)
	}
	if t > maxDistance {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	return RaycastHit{Point: point, Normal: normal, Distance: t}, true
}

func raycastSphere(origin, direction, center rl.Vector3, radius, maxDistance float32) (RaycastHit, bool) {
	oc := rl.Vector3Subtract(origin, center)
	a := rl.Vector3DotProduct(direction, direction)
	b := 2.0 * rl.Vector3DotProduct(oc, direction)
	c := rl.Vector3DotProduct(oc, oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return RaycastHit{}, false
	}

	t := (-b - float32(math.Sqrt(float64(discriminant)))) / (2 * a)
	if t < 0 {
		t = (-b + float32(math.Sqrt(float64(discriminant)))) / (2 * a)
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	normal := rl.Vector3Normalize(rl.Vector3Subtract(point, center))

	return RaycastHit{Point: point, Normal: normal, Distance: t}, true
}
