// Package config reads simulation settings from gcfg (INI style) files.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/gcfg.v1"
)

const ExampleFile = `[World]
# Gravity acceleration as three space separated components.
Gravity = 0 -9.81 0
# Fixed step length in seconds.
TimeStep = 0.01
# speed: stabilization folded into the velocity solve.
# split: velocity solve, then a separate position correction pass.
Stepper = speed
# Collision envelope. Pairs closer than this produce contacts.
Envelope = 0.01

[Solver]
MaxIterations = 50
Omega = 1.0
Tolerance = 1e-6
WarmStart = true
# Assemble the dense system after each velocity solve and report its
# largest complementarity violation. Costly for large scenes.
Diagnostics = false

[Contact]
# Maximum separation speed injected to resolve penetration.
RecoverySpeed = 0.6
ClampRecovery = true
# Fraction of the penetration removed per position pass.
PositionFactor = 0.8
# Goroutines used to reset persisting contacts.
Workers = 4`

const (
	SpeedStepper = "speed"
	SplitStepper = "split"
)

type WorldConfig struct {
	Gravity  string
	TimeStep float64
	Stepper  string
	Envelope float64
}

type SolverConfig struct {
	MaxIterations int
	Omega         float64
	Tolerance     float64
	WarmStart     bool
	Diagnostics   bool
}

type ContactConfig struct {
	RecoverySpeed  float64
	ClampRecovery  bool
	PositionFactor float64
	Workers        int
}

// Config is the gcfg wrapper: one field per file section.
type Config struct {
	World   WorldConfig
	Solver  SolverConfig
	Contact ContactConfig
}

// Default returns a configuration usable without any file.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Gravity:  "0 -9.81 0",
			TimeStep: 0.01,
			Stepper:  SpeedStepper,
			Envelope: 0.01,
		},
		Solver: SolverConfig{
			MaxIterations: 50,
			Omega:         1.0,
			Tolerance:     1e-6,
			WarmStart:     true,
		},
		Contact: ContactConfig{
			RecoverySpeed:  0.6,
			ClampRecovery:  true,
			PositionFactor: 0.8,
			Workers:        4,
		},
	}
}

// Read overlays the file at path on the defaults and validates the result.
func Read(path string) (*Config, error) {
	con := Default()
	if err := gcfg.ReadFileInto(con, path); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := con.CheckInit(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return con, nil
}

// ReadString is Read for an in-memory file.
func ReadString(text string) (*Config, error) {
	con := Default()
	if err := gcfg.ReadStringInto(con, text); err != nil {
		return nil, fmt.Errorf("config: parsing: %w", err)
	}
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

func (con *Config) CheckInit() error {
	if _, err := con.GravityVec(); err != nil {
		return err
	}
	switch {
	case con.World.TimeStep <= 0:
		return fmt.Errorf(
			"[World] TimeStep must be positive, but is %g", con.World.TimeStep,
		)
	case con.World.Stepper != SpeedStepper && con.World.Stepper != SplitStepper:
		return fmt.Errorf(
			"[World] Stepper must be '%s' or '%s', but is '%s'",
			SpeedStepper, SplitStepper, con.World.Stepper,
		)
	case con.World.Envelope < 0:
		return fmt.Errorf(
			"[World] Envelope cannot be negative, but is %g", con.World.Envelope,
		)
	case con.Solver.MaxIterations <= 0:
		return fmt.Errorf(
			"[Solver] MaxIterations must be positive, but is %d",
			con.Solver.MaxIterations,
		)
	case con.Solver.Omega <= 0 || con.Solver.Omega >= 2:
		return fmt.Errorf(
			"[Solver] Omega must be in (0, 2), but is %g", con.Solver.Omega,
		)
	case con.Solver.Tolerance < 0:
		return fmt.Errorf(
			"[Solver] Tolerance cannot be negative, but is %g", con.Solver.Tolerance,
		)
	case con.Contact.RecoverySpeed < 0:
		return fmt.Errorf(
			"[Contact] RecoverySpeed cannot be negative, but is %g",
			con.Contact.RecoverySpeed,
		)
	case con.Contact.PositionFactor < 0 || con.Contact.PositionFactor > 1:
		return fmt.Errorf(
			"[Contact] PositionFactor must be in [0, 1], but is %g",
			con.Contact.PositionFactor,
		)
	case con.Contact.Workers <= 0:
		return fmt.Errorf(
			"[Contact] Workers must be positive, but is %d", con.Contact.Workers,
		)
	}
	return nil
}

// GravityVec parses the Gravity string.
func (con *Config) GravityVec() (mgl64.Vec3, error) {
	fields := strings.Fields(con.World.Gravity)
	if len(fields) != 3 {
		return mgl64.Vec3{}, fmt.Errorf(
			"[World] Gravity needs three components, but is '%s'",
			con.World.Gravity,
		)
	}
	var g mgl64.Vec3
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("[World] Gravity component %d: %w", i, err)
		}
		g[i] = v
	}
	return g, nil
}
