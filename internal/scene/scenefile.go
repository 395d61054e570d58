// Package scene loads and saves world setups as JSON files.
package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"contact3d/internal/body"
	"contact3d/internal/collide"
	"contact3d/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

// --- JSON types ---

type SceneFile struct {
	Objects []ObjectDef `json:"objects"`
}

// ObjectDef is one body. Rotation holds Euler angles in degrees applied X
// then Y then Z; Orientation, a w, x, y, z quaternion, takes precedence when
// present.
type ObjectDef struct {
	Name        string            `json:"name"`
	Position    [3]float64        `json:"position"`
	Rotation    [3]float64        `json:"rotation"`
	Orientation *[4]float64       `json:"orientation,omitempty"`
	Velocity    [3]float64        `json:"velocity"`
	Angular     [3]float64        `json:"angularVelocity"`
	Components  []json.RawMessage `json:"components"`
}

type componentHeader struct {
	Type string `json:"type"`
}

type boxColliderDef struct {
	Type string     `json:"type"`
	Size [3]float32 `json:"size"`
}

type sphereColliderDef struct {
	Type   string  `json:"type"`
	Radius float32 `json:"radius"`
}

type rigidbodyDef struct {
	Type       string   `json:"type"`
	Mass       float64  `json:"mass,omitempty"`
	Friction   *float64 `json:"friction,omitempty"`
	UseGravity *bool    `json:"useGravity,omitempty"`
	CanSleep   *bool    `json:"canSleep,omitempty"`
}

// staticDef sets the friction of an object without a rigidbody.
type staticDef struct {
	Type     string  `json:"type"`
	Friction float64 `json:"friction"`
}

// --- Loading ---

// Load reads the scene file at path into w.
func Load(w *physics.World, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	return LoadBytes(w, data)
}

// LoadBytes adds the objects of a JSON scene to w. Objects without a
// Rigidbody component are fixed.
func LoadBytes(w *physics.World, data []byte) error {
	var sf SceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}

	for i, objDef := range sf.Objects {
		if err := loadObject(w, objDef); err != nil {
			return fmt.Errorf("scene object %d (%s): %w", i, objDef.Name, err)
		}
	}
	return nil
}

func loadObject(w *physics.World, objDef ObjectDef) error {
	var (
		shapes []collide.Shape
		rb     *rigidbodyDef
		st     *staticDef
	)
	for _, raw := range objDef.Components {
		var header componentHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			return err
		}

		switch header.Type {
		case "BoxCollider":
			var def boxColliderDef
			if err := json.Unmarshal(raw, &def); err != nil {
				return err
			}
			shapes = append(shapes, collide.Box(rl.Vector3{X: def.Size[0] / 2, Y: def.Size[1] / 2, Z: def.Size[2] / 2}))
		case "SphereCollider":
			var def sphereColliderDef
			if err := json.Unmarshal(raw, &def); err != nil {
				return err
			}
			shapes = append(shapes, collide.Sphere(def.Radius))
		case "Rigidbody":
			rb = &rigidbodyDef{}
			if err := json.Unmarshal(raw, rb); err != nil {
				return err
			}
		case "Static":
			st = &staticDef{}
			if err := json.Unmarshal(raw, st); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown component type '%s'", header.Type)
		}
	}
	if len(shapes) == 0 {
		return fmt.Errorf("no collider")
	}

	var b *body.Body
	if rb == nil {
		b = body.NewFixed(objDef.Name)
		if st != nil {
			b.Friction = st.Friction
		}
	} else {
		mass := rb.Mass
		if mass <= 0 {
			mass = 1
		}
		b = body.New(objDef.Name, mass, inertia(shapes[0], mass))
		if rb.Friction != nil {
			b.Friction = *rb.Friction
		}
		if rb.UseGravity != nil {
			b.UseGravity = *rb.UseGravity
		}
		if rb.CanSleep != nil {
			b.CanSleep = *rb.CanSleep
		}
		b.Velocity = objDef.Velocity
		b.AngularVelocity = objDef.Angular
	}

	b.Position = objDef.Position
	if q := objDef.Orientation; q != nil {
		b.Rotation = mgl64.Quat{W: q[0], V: mgl64.Vec3{q[1], q[2], q[3]}}.Normalize()
	} else if objDef.Rotation != [3]float64{} {
		r := objDef.Rotation
		b.Rotation = mgl64.AnglesToQuat(
			mgl64.DegToRad(r[0]), mgl64.DegToRad(r[1]), mgl64.DegToRad(r[2]), mgl64.XYZ,
		)
	}

	for _, s := range shapes {
		w.AddModel(b, s)
	}
	return nil
}

// inertia uses the first collider of a body as its mass distribution.
func inertia(s collide.Shape, mass float64) mgl64.Mat3 {
	if s.Kind == collide.SphereShape {
		return body.SphereInertia(mass, float64(s.Radius))
	}
	h := s.HalfSize
	return body.BoxInertia(mass, mgl64.Vec3{float64(h.X), float64(h.Y), float64(h.Z)})
}

// --- Saving ---

// Save writes the current state of w. Rotations are stored as quaternions.
func Save(w *physics.World, path string) error {
	data, err := Marshal(w)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

// Marshal encodes the bodies of w and their colliders.
func Marshal(w *physics.World) ([]byte, error) {
	byBody := make(map[*body.Body][]*collide.Model)
	for _, m := range w.Models() {
		byBody[m.Body] = append(byBody[m.Body], m)
	}

	var sf SceneFile
	for _, b := range w.Bodies() {
		q := b.Rotation.Normalize()
		objDef := ObjectDef{
			Name:        b.Name,
			Position:    b.Position,
			Orientation: &[4]float64{q.W, q.V[0], q.V[1], q.V[2]},
			Velocity:    b.Velocity,
			Angular:     b.AngularVelocity,
		}

		for _, m := range byBody[b] {
			if raw := serializeShape(m.Shape); raw != nil {
				objDef.Components = append(objDef.Components, raw)
			}
		}
		if b.Fixed {
			objDef.Components = append(objDef.Components, mustMarshal(staticDef{Type: "Static", Friction: b.Friction}))
		} else {
			friction, gravity, sleep := b.Friction, b.UseGravity, b.CanSleep
			objDef.Components = append(objDef.Components, mustMarshal(rigidbodyDef{
				Type:       "Rigidbody",
				Mass:       b.Mass,
				Friction:   &friction,
				UseGravity: &gravity,
				CanSleep:   &sleep,
			}))
		}

		sf.Objects = append(sf.Objects, objDef)
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}
	return data, nil
}

func serializeShape(s collide.Shape) json.RawMessage {
	switch s.Kind {
	case collide.BoxShape:
		h := s.HalfSize
		return mustMarshal(boxColliderDef{
			Type: "BoxCollider",
			Size: [3]float32{2 * h.X, 2 * h.Y, 2 * h.Z},
		})
	case collide.SphereShape:
		return mustMarshal(sphereColliderDef{
			Type:   "SphereCollider",
			Radius: s.Radius,
		})
	}
	return nil
}

// mustMarshal encodes plain structs that cannot fail to marshal.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
