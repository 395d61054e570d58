// Headless drop test: random spheres and boxes fall onto a fixed slab and
// the solver statistics are logged as they settle.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"contact3d/internal/body"
	"contact3d/internal/collide"
	"contact3d/internal/config"
	"contact3d/internal/physics"
	"contact3d/internal/scene"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	var (
		configPath  = flag.String("config", "", "gcfg file overriding the default settings")
		steps       = flag.Int("steps", 1000, "number of steps to run")
		spheres     = flag.Int("spheres", 100, "number of falling spheres")
		boxes       = flag.Int("boxes", 50, "number of falling boxes")
		every       = flag.Int("every", 100, "log statistics every this many steps")
		seed        = flag.Int64("seed", 42, "random seed for the drop positions")
		exampleConf = flag.Bool("example-config", false, "print an example config file and exit")
		scenePath   = flag.String("scene", "", "load bodies from this scene file instead of random drops")
		savePath    = flag.String("save", "", "write the final state to this scene file")
	)
	flag.Parse()

	if *exampleConf {
		fmt.Println(config.ExampleFile)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Read(*configPath); err != nil {
			log.Fatal(err)
		}
	}

	w, err := physics.NewWorld(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if *scenePath != "" {
		if err := scene.Load(w, *scenePath); err != nil {
			log.Fatal(err)
		}
	} else {
		populate(w, *spheres, *boxes, *seed)
	}
	log.Printf("Scene: %d bodies, %d models, %s stepper, dt %g",
		len(w.Bodies()), len(w.Models()), cfg.World.Stepper, cfg.World.TimeStep)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, w, *steps, *every); err != nil {
		log.Fatal(err)
	}
	if *savePath != "" {
		if err := scene.Save(w, *savePath); err != nil {
			log.Fatal(err)
		}
		log.Printf("Saved scene to %s", *savePath)
	}
}

// populate drops bodies in a column above a slab whose top face is at y = 0.
func populate(w *physics.World, spheres, boxes int, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	ground := body.NewFixed("ground")
	ground.Position = mgl64.Vec3{0, -1, 0}
	w.AddModel(ground, collide.Box(rl.Vector3{X: 50, Y: 1, Z: 50}))

	// Spawn in a column, height scales with count to keep density reasonable
	spawnSize := 10.0
	height := 2.0 + float64(spheres+boxes)/20.0
	drop := func() mgl64.Vec3 {
		return mgl64.Vec3{
			rng.Float64()*spawnSize - spawnSize/2,
			1 + rng.Float64()*height,
			rng.Float64()*spawnSize - spawnSize/2,
		}
	}

	for i := 0; i < spheres; i++ {
		r := 0.25 + rng.Float64()*0.25 // 0.25 to 0.5 radius
		b := body.New(fmt.Sprintf("sphere%d", i), 1, body.SphereInertia(1, r))
		b.Position = drop()
		w.AddModel(b, collide.Sphere(float32(r)))
	}
	for i := 0; i < boxes; i++ {
		half := mgl64.Vec3{
			0.2 + rng.Float64()*0.3,
			0.2 + rng.Float64()*0.3,
			0.2 + rng.Float64()*0.3,
		}
		mass := 8 * half.X() * half.Y() * half.Z() * 10
		b := body.New(fmt.Sprintf("box%d", i), mass, body.BoxInertia(mass, half))
		b.Position = drop()
		b.Rotation = mgl64.QuatRotate(rng.Float64()*3.14, mgl64.Vec3{
			rng.Float64(), rng.Float64(), rng.Float64(),
		}.Normalize())
		w.AddModel(b, collide.Box(rl.Vector3{X: float32(half.X()), Y: float32(half.Y()), Z: float32(half.Z())}))
	}
}

func run(ctx context.Context, w *physics.World, steps, every int) error {
	if steps <= 0 {
		return nil
	}
	dt := w.Config().World.TimeStep
	if every <= 0 {
		every = steps
	}

	var events physics.ContactEvents
	var entered, exited int
	events.Enter.AddListener(func(physics.ContactPair) { entered++ })
	events.Exit.AddListener(func(physics.ContactPair) { exited++ })
	w.SetListener(&events)
	defer w.SetListener(nil)

	var (
		total      time.Duration
		window     time.Duration
		iterations int
		maxContact int
		unconv     int
		worst      float64
	)
	diagnostics := w.Config().Solver.Diagnostics
	for i := 1; i <= steps; i++ {
		start := time.Now()
		stats, err := w.Step(ctx, dt)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		elapsed := time.Since(start)
		total += elapsed
		window += elapsed
		iterations += stats.Speed.Iterations
		if stats.Contacts > maxContact {
			maxContact = stats.Contacts
		}
		if !stats.Speed.Converged {
			unconv++
		}

		if stats.Complementarity > worst {
			worst = stats.Complementarity
		}

		if i%every == 0 {
			line := fmt.Sprintf("Step %5d: %4d contacts (+%d -%d) | %3d iterations | violation %.2e | %d sleeping | %v/step",
				i, stats.Contacts, stats.Added, stats.Removed, stats.Speed.Iterations,
				stats.Speed.MaxViolation, stats.Sleeping, (window / time.Duration(every)).Round(time.Microsecond))
			if diagnostics {
				line += fmt.Sprintf(" | complementarity %.2e", stats.Complementarity)
			}
			log.Print(line)
			window = 0
		}
	}

	var energy float64
	for _, b := range w.Bodies() {
		energy += b.KineticEnergy()
	}
	log.Printf("Done: %d steps in %v (%v/step) | avg %.1f iterations | max %d contacts | %d unconverged | %d touches, %d separations | kinetic energy %.3g",
		steps, total.Round(time.Millisecond), (total / time.Duration(steps)).Round(time.Microsecond),
		float64(iterations)/float64(steps), maxContact, unconv, entered, exited, energy)
	if diagnostics {
		log.Printf("Worst complementarity violation: %.2e", worst)
	}
	return nil
}
