// Package physics advances a set of rigid bodies through time, resolving
// their contacts with a complementarity solve each step.
package physics

import (
	"context"
	"fmt"
	"log"
	"sort"

	"contact3d/internal/body"
	"contact3d/internal/collide"
	"contact3d/internal/config"
	"contact3d/internal/contact"
	"contact3d/internal/lcp"
	"contact3d/internal/manifold"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactListener receives pair level contact events. Calls happen on the
// goroutine running Step, in model id order.
type ContactListener interface {
	OnContactEnter(a, b *collide.Model)
	OnContactExit(a, b *collide.Model)
}

// pairKey identifies two models in contact, in the order the contact uses.
type pairKey struct {
	A, B contact.ModelID
}

// StepStats reports what one step did.
type StepStats struct {
	Contacts int
	Added    int
	Removed  int
	Sleeping int
	Speed    lcp.Stats
	Position lcp.Stats // split stepper only

	// Complementarity is the largest violation of the assembled velocity
	// problem, measured only when [Solver] Diagnostics is on.
	Complementarity float64
}

type World struct {
	cfg     *config.Config
	gravity mgl64.Vec3

	bodies     []*body.Body
	models     []*collide.Model
	nextID     contact.ModelID
	nextBodyID int

	grid       *collide.Grid
	contacts   *manifold.Container
	descriptor *lcp.Descriptor
	solver     *lcp.SOR

	// Contact tracking for callbacks
	listener     ContactListener
	activePairs  map[pairKey][2]*collide.Model // pairs from last step
	currentPairs map[pairKey][2]*collide.Model // pairs this step

	lastLoggedCount int // prevents duplicate logs at same body count
}

// NewWorld builds an empty world from a validated configuration.
func NewWorld(cfg *config.Config) (*World, error) {
	if err := cfg.CheckInit(); err != nil {
		return nil, fmt.Errorf("physics: %w", err)
	}
	g, err := cfg.GravityVec()
	if err != nil {
		return nil, fmt.Errorf("physics: %w", err)
	}
	return &World{
		cfg:          cfg,
		gravity:      g,
		nextID:       1,
		nextBodyID:   1,
		grid:         collide.NewGrid(collide.DefaultCellSize),
		contacts:     manifold.NewContainer(cfg.Contact.Workers),
		descriptor:   lcp.NewDescriptor(),
		solver:       lcp.NewSOR(cfg.Solver.MaxIterations, cfg.Solver.Omega, cfg.Solver.Tolerance),
		activePairs:  make(map[pairKey][2]*collide.Model),
		currentPairs: make(map[pairKey][2]*collide.Model),
	}, nil
}

// Config returns the configuration the world was built with.
func (w *World) Config() *config.Config { return w.cfg }

// Gravity returns the parsed gravity vector.
func (w *World) Gravity() mgl64.Vec3 { return w.gravity }

// AddBody registers b and gives it an id that is never reused. Adding the
// same body twice is a no-op.
func (w *World) AddBody(b *body.Body) {
	for _, other := range w.bodies {
		if other == b {
			return
		}
	}
	b.ID = w.nextBodyID
	w.nextBodyID++
	w.bodies = append(w.bodies, b)
}

// AddModel attaches a collision shape to b, registering b if needed.
func (w *World) AddModel(b *body.Body, s collide.Shape) *collide.Model {
	w.AddBody(b)
	m := collide.NewModel(w.nextID, b, s)
	w.nextID++
	w.models = append(w.models, m)
	return m
}

// RemoveBody drops b and its models. Their contacts disappear on the next
// step and exit events fire for them then.
func (w *World) RemoveBody(b *body.Body) {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	kept := w.models[:0]
	for _, m := range w.models {
		if m.Body != b {
			kept = append(kept, m)
		}
	}
	for i := len(kept); i < len(w.models); i++ {
		w.models[i] = nil
	}
	w.models = kept
}

func (w *World) Bodies() []*body.Body { return w.bodies }

func (w *World) Models() []*collide.Model { return w.models }

// Contacts returns the active contacts in key order.
func (w *World) Contacts() []*contact.Contact {
	out := make([]*contact.Contact, 0, w.contacts.Len())
	w.contacts.Each(func(_ collide.Key, c *contact.Contact) {
		out = append(out, c)
	})
	return out
}

func (w *World) SetListener(l ContactListener) { w.listener = l }

// Raycast returns the closest model hit by the ray.
func (w *World) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (collide.RaycastHit, bool) {
	return collide.Raycast(w.models, vec(origin), vec(direction), float32(maxDistance))
}

func vec(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// Step advances the world by dt.
func (w *World) Step(ctx context.Context, dt float64) (StepStats, error) {
	if dt <= 0 {
		return StepStats{}, fmt.Errorf("physics: step: time step must be positive, got %g", dt)
	}
	if err := ctx.Err(); err != nil {
		return StepStats{}, fmt.Errorf("physics: step: %w", err)
	}

	if n := len(w.bodies); n%100 == 0 && n > 0 && n != w.lastLoggedCount {
		w.lastLoggedCount = n
		log.Printf("Physics: %d bodies, %d models", n, len(w.models))
	}

	// 1. Collision detection, then wake bodies hit hard enough
	candidates := w.grid.Detect(w.models, float32(w.cfg.World.Envelope))
	w.wake(candidates)

	// 2. Solver variables: mass matrices and impulses from forces
	for _, b := range w.bodies {
		b.LoadVariables(w.gravity, dt)
	}

	// 3. Contacts follow the candidates, keeping warm-start slots
	if err := w.contacts.Update(ctx, candidates); err != nil {
		return StepStats{}, fmt.Errorf("physics: step: %w", err)
	}

	w.descriptor.BeginInsertion()
	for _, b := range w.bodies {
		w.descriptor.InsertVariables(b.Variables())
	}
	w.contacts.InjectConstraints(w.descriptor)
	w.descriptor.EndInsertion()

	stats := StepStats{
		Contacts: w.contacts.Len(),
		Added:    w.contacts.Added(),
		Removed:  w.contacts.Removed(),
	}
	split := w.cfg.World.Stepper == config.SplitStepper

	// 4. Velocity solve. The speed stepper folds stabilization into it.
	w.contacts.ConstraintsBiReset()
	if !split {
		w.contacts.ConstraintsBiLoadC(1/dt, w.cfg.Contact.RecoverySpeed, w.cfg.Contact.ClampRecovery)
	}
	if w.cfg.Solver.WarmStart {
		w.contacts.ConstraintsLiLoadSuggestedSpeedSolution()
	}
	stats.Speed = w.solver.Solve(w.descriptor)
	if w.cfg.Solver.Diagnostics {
		stats.Complementarity = w.descriptor.ConvertToMatrixForm().Violation()
	}
	w.contacts.ConstraintsLiFetchSuggestedSpeedSolution()
	w.contacts.ConstraintsFetchReact(1 / dt)

	// 5. Integrate
	for _, b := range w.bodies {
		b.StoreVelocities()
		b.Integrate(dt)
	}

	// 6. Position correction
	if split {
		stats.Position = w.positionPass(dt)
	}

	for _, b := range w.bodies {
		b.TrySleep(dt)
		if b.IsSleeping {
			stats.Sleeping++
		}
	}

	// 7. Dispatch contact callbacks
	w.dispatchContactCallbacks()

	return stats, nil
}

// positionPass solves for pseudo-velocities that push penetrating contacts
// apart by PositionFactor of their depth and applies them as displacements.
func (w *World) positionPass(dt float64) lcp.Stats {
	for _, b := range w.bodies {
		b.LoadPositionVariables()
	}

	w.contacts.ConstraintsBiReset()
	w.contacts.ConstraintsBiLoadC(w.cfg.Contact.PositionFactor,
		w.cfg.Contact.RecoverySpeed*dt, w.cfg.Contact.ClampRecovery)

	if w.cfg.Solver.WarmStart {
		w.contacts.ConstraintsLiLoadSuggestedPositionSolution()
	} else {
		w.contacts.Each(func(_ collide.Key, c *contact.Contact) {
			n, u, v := c.Rows()
			n.L, u.L, v.L = 0, 0, 0
		})
	}
	stats := w.solver.Solve(w.descriptor)
	w.contacts.ConstraintsLiFetchSuggestedPositionSolution()

	for _, b := range w.bodies {
		b.ApplyPositionCorrection(1)
	}
	return stats
}

// wake wakes sleeping bodies in penetrating contacts only if the contact has
// significant relative velocity. This prevents micro-collisions from waking
// settled stacks.
func (w *World) wake(candidates []collide.Candidate) {
	wakeThreshold := body.SleepVelocityThreshold * 2.0
	for _, cd := range candidates {
		if cd.Distance > 0 {
			continue
		}
		a, b := cd.ModelA.Body, cd.ModelB.Body
		if !a.IsSleeping && !b.IsSleeping {
			continue
		}
		if a.Velocity.Sub(b.Velocity).Len() > wakeThreshold {
			a.Wake()
			b.Wake()
		}
	}
}

// dispatchContactCallbacks sends OnContactEnter/Exit to the listener
func (w *World) dispatchContactCallbacks() {
	clear(w.currentPairs)
	var entered []pairKey
	w.contacts.Each(func(k collide.Key, _ *contact.Contact) {
		pair := pairKey{A: k.A, B: k.B}
		if _, ok := w.currentPairs[pair]; ok {
			return
		}
		w.currentPairs[pair] = w.modelPair(pair)
		if _, ok := w.activePairs[pair]; !ok {
			entered = append(entered, pair)
		}
	})

	var exited []pairKey
	for pair := range w.activePairs {
		if _, ok := w.currentPairs[pair]; !ok {
			exited = append(exited, pair)
		}
	}
	sort.Slice(exited, func(i, j int) bool {
		if exited[i].A != exited[j].A {
			return exited[i].A < exited[j].A
		}
		return exited[i].B < exited[j].B
	})

	if w.listener != nil {
		for _, pair := range entered {
			m := w.currentPairs[pair]
			w.listener.OnContactEnter(m[0], m[1])
		}
		for _, pair := range exited {
			m := w.activePairs[pair]
			w.listener.OnContactExit(m[0], m[1])
		}
	}

	// Swap buffers
	w.activePairs, w.currentPairs = w.currentPairs, w.activePairs
}

// modelPair looks up both models of a pair. Models are kept in id order.
func (w *World) modelPair(p pairKey) [2]*collide.Model {
	find := func(id contact.ModelID) *collide.Model {
		i := sort.Search(len(w.models), func(i int) bool { return w.models[i].ID >= id })
		if i < len(w.models) && w.models[i].ID == id {
			return w.models[i]
		}
		return nil
	}
	return [2]*collide.Model{find(p.A), find(p.B)}
}
