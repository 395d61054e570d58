package lcp

import "math"

// Stats reports the outcome of one solve.
type Stats struct {
	Iterations   int
	MaxDelta     float64 // largest multiplier change in the last sweep
	MaxViolation float64 // largest row violation after the last sweep
	Converged    bool
}

// SOR is a projected successive over-relaxation solver. Each sweep visits
// rows in descriptor order, so results are reproducible for a fixed
// insertion order.
type SOR struct {
	MaxIterations int
	Omega         float64
	Tolerance     float64
}

func NewSOR(maxIterations int, omega, tolerance float64) *SOR {
	return &SOR{MaxIterations: maxIterations, Omega: omega, Tolerance: tolerance}
}

// Solve runs the solver on d. Row multipliers L are used as the starting
// guess, so callers either zero them or load a warm start beforehand. On
// return every variable's Qb holds M⁻¹(Fb + Cqᵀ L) and every row's L holds
// its converged multiplier.
func (s *SOR) Solve(d *Descriptor) Stats {
	for _, v := range d.vars {
		v.ComputeInvMb()
	}

	for _, r := range d.rows {
		if !r.active {
			continue
		}
		r.UpdateAuxiliary()
		r.Project()
		if r.L != 0 {
			r.IncrementQ(r.L)
		}
	}

	omega := s.Omega
	if omega <= 0 {
		omega = 1
	}

	var stats Stats
	for it := 0; it < s.MaxIterations; it++ {
		stats.Iterations = it + 1
		stats.MaxDelta = 0

		for _, r := range d.rows {
			if !r.active || r.G <= 0 {
				continue
			}
			old := r.L
			r.L = old - omega*r.Residual()/r.G
			r.Project()
			delta := r.L - old
			if delta != 0 {
				r.IncrementQ(delta)
			}
			stats.MaxDelta = math.Max(stats.MaxDelta, math.Abs(delta))
		}

		if stats.MaxDelta < s.Tolerance {
			stats.Converged = true
			break
		}
	}

	for _, r := range d.rows {
		if r.active {
			stats.MaxViolation = math.Max(stats.MaxViolation, r.Violation())
		}
	}
	return stats
}
