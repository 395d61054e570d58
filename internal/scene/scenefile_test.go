package scene

import (
	"math"
	"path/filepath"
	"testing"

	"contact3d/internal/collide"
	"contact3d/internal/config"
	"contact3d/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScene = `{
  "objects": [
    {
      "name": "ground",
      "position": [0, -1, 0],
      "components": [
        {"type": "BoxCollider", "size": [40, 2, 40]},
        {"type": "Static", "friction": 0.8}
      ]
    },
    {
      "name": "ball",
      "position": [0, 2, 0],
      "velocity": [1, 0, 0],
      "components": [
        {"type": "SphereCollider", "radius": 0.5},
        {"type": "Rigidbody", "mass": 2, "friction": 0.25}
      ]
    },
    {
      "name": "crate",
      "position": [3, 1, 0],
      "rotation": [0, 90, 0],
      "components": [
        {"type": "BoxCollider", "size": [1, 2, 1]},
        {"type": "Rigidbody", "useGravity": false}
      ]
    }
  ]
}`

func newWorld(t *testing.T) *physics.World {
	t.Helper()
	w, err := physics.NewWorld(config.Default())
	require.NoError(t, err)
	return w
}

func TestLoadBytes(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, LoadBytes(w, []byte(testScene)))

	bodies := w.Bodies()
	require.Len(t, bodies, 3)
	require.Len(t, w.Models(), 3)

	ground, ball, crate := bodies[0], bodies[1], bodies[2]
	assert.True(t, ground.Fixed)
	assert.Equal(t, 0.8, ground.Friction)
	assert.Equal(t, collide.BoxShape, w.Models()[0].Shape.Kind)
	assert.Equal(t, float32(20), w.Models()[0].Shape.HalfSize.X)

	assert.False(t, ball.Fixed)
	assert.Equal(t, 2.0, ball.Mass)
	assert.Equal(t, 0.25, ball.Friction)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, ball.Velocity)
	assert.Equal(t, float32(0.5), w.Models()[1].Shape.Radius)

	assert.Equal(t, 1.0, crate.Mass, "mass defaults to one")
	assert.False(t, crate.UseGravity)
	// 90° about Y maps local X onto -Z
	x := crate.Rotation.Rotate(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, -1, x.Z(), 1e-9)
}

func TestLoadBytesErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", `{"objects": [`},
		{"unknown component", `{"objects": [{"name": "x", "components": [{"type": "Light"}]}]}`},
		{"no collider", `{"objects": [{"name": "x", "components": [{"type": "Rigidbody"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, LoadBytes(newWorld(t), []byte(tt.text)))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, LoadBytes(w, []byte(testScene)))
	w.Bodies()[2].Rotation = mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{1, 1, 0}.Normalize())

	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, Save(w, path))

	back := newWorld(t)
	require.NoError(t, Load(back, path))
	require.Len(t, back.Bodies(), 3)

	for i, b := range w.Bodies() {
		got := back.Bodies()[i]
		assert.Equal(t, b.Name, got.Name)
		assert.Equal(t, b.Fixed, got.Fixed)
		assert.Equal(t, b.Mass, got.Mass)
		assert.Equal(t, b.Friction, got.Friction)
		assert.Equal(t, b.UseGravity, got.UseGravity)
		assert.Equal(t, b.Position, got.Position)
		assert.True(t, b.Rotation.Normalize().ApproxEqualThreshold(got.Rotation, 1e-12), "%s rotation", b.Name)
		assert.Equal(t, w.Models()[i].Shape, back.Models()[i].Shape)
	}
}

func TestLoadMissingFile(t *testing.T) {
	assert.Error(t, Load(newWorld(t), filepath.Join(t.TempDir(), "nope.json")))
}
