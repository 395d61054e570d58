package lcp

// Kind selects how a row's multiplier is projected.
type Kind int

const (
	// Unilateral rows keep their multiplier non-negative.
	Unilateral Kind = iota
	// Friction rows keep their multiplier within ±μλN of their normal row.
	Friction
)

func (k Kind) String() string {
	switch k {
	case Unilateral:
		return "unilateral"
	case Friction:
		return "friction"
	}
	return "unknown"
}

// Row is one scalar constraint coupling at most two bodies.
//
// The relative velocity along the row is c = CqA·qA + CqB·qB + B. The solver
// searches L such that the projected complementarity conditions hold:
// L ≥ 0, c ≥ 0, L·c = 0 for unilateral rows, and a box bound for friction.
type Row struct {
	Kind Kind

	CqA, CqB [6]float64
	B        float64 // bias
	L        float64 // multiplier
	CFM      float64

	// EqA, EqB and G are refreshed by UpdateAuxiliary.
	EqA, EqB [6]float64
	G        float64

	varA, varB *BodyVariables
	friction   float64 // unilateral rows only
	normal     *Row    // friction rows only
	active     bool
	offset     int
}

// NewUnilateral creates a non-penetration row between two variables.
// vb may be nil when the second body is fixed environment.
func NewUnilateral(va, vb *BodyVariables) *Row {
	return &Row{Kind: Unilateral, varA: va, varB: vb, active: true}
}

// NewFriction creates a friction row bounded by the multiplier of normal.
func NewFriction(va, vb *BodyVariables, normal *Row) *Row {
	return &Row{Kind: Friction, varA: va, varB: vb, normal: normal, active: true}
}

// SetVariables rebinds the row to a new pair of variables.
func (r *Row) SetVariables(va, vb *BodyVariables) {
	r.varA = va
	r.varB = vb
}

// Variables returns the two bound variables. The second may be nil.
func (r *Row) Variables() (*BodyVariables, *BodyVariables) { return r.varA, r.varB }

// FrictionCoefficient is meaningful on unilateral rows only.
func (r *Row) FrictionCoefficient() float64 { return r.friction }

// SetFrictionCoefficient sets μ on a unilateral row.
func (r *Row) SetFrictionCoefficient(mu float64) { r.friction = mu }

func (r *Row) Active() bool { return r.active }
func (r *Row) SetActive(on bool) { r.active = on }

// Offset returns the row index assigned by the descriptor.
func (r *Row) Offset() int { return r.offset }

func (r *Row) usesA() bool { return r.varA != nil && !r.varA.Disabled }
func (r *Row) usesB() bool { return r.varB != nil && !r.varB.Disabled }

// UpdateAuxiliary refreshes Eq = M⁻¹Cqᵀ and G = Cq M⁻¹ Cqᵀ + CFM.
func (r *Row) UpdateAuxiliary() {
	r.G = r.CFM
	r.EqA, r.EqB = [6]float64{}, [6]float64{}
	if r.usesA() {
		r.EqA = r.varA.invM(r.CqA)
		r.G += dot6(r.CqA, r.EqA)
	}
	if r.usesB() {
		r.EqB = r.varB.invM(r.CqB)
		r.G += dot6(r.CqB, r.EqB)
	}
}

// ComputeCqV returns Cq·q for the current velocities of the bound variables.
func (r *Row) ComputeCqV() float64 {
	var c float64
	if r.usesA() {
		c += dot6(r.CqA, r.varA.Qb)
	}
	if r.usesB() {
		c += dot6(r.CqB, r.varB.Qb)
	}
	return c
}

// IncrementQ adds Eq·delta to the bound velocities.
func (r *Row) IncrementQ(delta float64) {
	if r.usesA() {
		for i := range r.varA.Qb {
			r.varA.Qb[i] += r.EqA[i] * delta
		}
	}
	if r.usesB() {
		for i := range r.varB.Qb {
			r.varB.Qb[i] += r.EqB[i] * delta
		}
	}
}

// Residual returns c = Cq·q + B.
func (r *Row) Residual() float64 { return r.ComputeCqV() + r.B }

// Project clamps L onto the feasible set of the row.
func (r *Row) Project() {
	switch r.Kind {
	case Unilateral:
		if r.L < 0 {
			r.L = 0
		}
	case Friction:
		if r.normal == nil {
			r.L = 0
			return
		}
		bound := r.normal.friction * r.normal.L
		if bound < 0 {
			bound = 0
		}
		r.L = clamp(r.L, -bound, bound)
	}
}

// Violation measures how far the current state is from satisfying the row.
func (r *Row) Violation() float64 {
	c := r.Residual()
	switch r.Kind {
	case Unilateral:
		if r.L > 0 {
			return abs(c)
		}
		return max(0, -c)
	case Friction:
		if r.normal == nil {
			return 0
		}
		bound := r.normal.friction * r.normal.L
		if abs(r.L) < bound {
			return abs(c)
		}
		return 0
	}
	return 0
}

func dot6(a, b [6]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3] + a[4]*b[4] + a[5]*b[5]
}
