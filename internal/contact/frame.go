package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane builds the contact frame for a normal: column 0 is the normal,
// columns 1 and 2 span the tangent plane, and the basis is right-handed.
//
// The normal is re-normalized. A zero normal has no defined frame.
func Plane(normal mgl64.Vec3) mgl64.Mat3 {
	n := normal.Normalize()

	// Auxiliary axis: the coordinate axis least aligned with n.
	ax, ay, az := math.Abs(n.X()), math.Abs(n.Y()), math.Abs(n.Z())
	var aux mgl64.Vec3
	switch {
	case ax <= ay && ax <= az:
		aux = mgl64.Vec3{1, 0, 0}
	case ay <= az:
		aux = mgl64.Vec3{0, 1, 0}
	default:
		aux = mgl64.Vec3{0, 0, 1}
	}

	u := aux.Cross(n).Normalize()
	v := n.Cross(u)
	return mgl64.Mat3FromCols(n, u, v)
}
