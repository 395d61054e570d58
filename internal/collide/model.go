// Package collide produces contact candidates for pairs of collision models.
// Geometry is evaluated in float32 raylib vectors; results are handed to the
// contact layer in float64.
package collide

import (
	"contact3d/internal/body"
	"contact3d/internal/contact"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

type ShapeKind int

const (
	SphereShape ShapeKind = iota
	BoxShape
)

// Shape is a convex primitive in the body frame, centered on the body origin.
type Shape struct {
	Kind     ShapeKind
	Radius   float32    // spheres
	HalfSize rl.Vector3 // boxes
}

func Sphere(radius float32) Shape {
	return Shape{Kind: SphereShape, Radius: radius}
}

func Box(half rl.Vector3) Shape {
	return Shape{Kind: BoxShape, HalfSize: half}
}

// Model attaches a shape to a body.
type Model struct {
	ID    contact.ModelID
	Body  *body.Body
	Shape Shape
}

func NewModel(id contact.ModelID, b *body.Body, s Shape) *Model {
	return &Model{ID: id, Body: b, Shape: s}
}

// Center returns the world-space center of the model.
func (m *Model) Center() rl.Vector3 {
	return toRL(m.Body.Position)
}

// OBB returns the oriented box of a box model.
func (m *Model) OBB() OBB {
	rot := m.Body.Frame().Rot
	return OBB{
		Center:   m.Center(),
		HalfSize: m.Shape.HalfSize,
		Axes: [3]rl.Vector3{
			toRL(rot.Col(0)),
			toRL(rot.Col(1)),
			toRL(rot.Col(2)),
		},
	}
}

// Bounds returns the world AABB of the model grown by margin.
func (m *Model) Bounds(margin float32) AABB {
	c := m.Center()
	var half rl.Vector3
	switch m.Shape.Kind {
	case SphereShape:
		half = rl.Vector3{X: m.Shape.Radius, Y: m.Shape.Radius, Z: m.Shape.Radius}
	case BoxShape:
		o := m.OBB()
		// projected half extents of the rotated box on the world axes
		for i := 0; i < 3; i++ {
			ax := o.Axes[i]
			h := []float32{o.HalfSize.X, o.HalfSize.Y, o.HalfSize.Z}[i]
			half.X += absf(ax.X) * h
			half.Y += absf(ax.Y) * h
			half.Z += absf(ax.Z) * h
		}
	}
	half = rl.Vector3Add(half, rl.Vector3{X: margin, Y: margin, Z: margin})
	return NewAABBFromCenter(c, rl.Vector3Scale(half, 2))
}

func toRL(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

func toVec(v rl.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}
