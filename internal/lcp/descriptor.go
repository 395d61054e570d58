package lcp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Descriptor collects the variables and constraint rows that take part in
// one solve. It does not deduplicate: every row must be inserted exactly
// once per step.
type Descriptor struct {
	vars []*BodyVariables
	rows []*Row
}

func NewDescriptor() *Descriptor {
	return &Descriptor{
		vars: make([]*BodyVariables, 0),
		rows: make([]*Row, 0),
	}
}

// BeginInsertion clears the descriptor, keeping allocated capacity.
func (d *Descriptor) BeginInsertion() {
	for i := range d.vars {
		d.vars[i] = nil
	}
	for i := range d.rows {
		d.rows[i] = nil
	}
	d.vars = d.vars[:0]
	d.rows = d.rows[:0]
}

func (d *Descriptor) InsertVariables(v *BodyVariables) {
	d.vars = append(d.vars, v)
}

func (d *Descriptor) InsertConstraint(r *Row) {
	d.rows = append(d.rows, r)
}

// EndInsertion assigns offsets in insertion order.
func (d *Descriptor) EndInsertion() {
	for i, v := range d.vars {
		v.offset = i * 6
	}
	for i, r := range d.rows {
		r.offset = i
	}
}

func (d *Descriptor) Variables() []*BodyVariables { return d.vars }
func (d *Descriptor) Rows() []*Row { return d.rows }

// CountActiveConstraints returns the number of active rows.
func (d *Descriptor) CountActiveConstraints() int {
	n := 0
	for _, r := range d.rows {
		if r.active {
			n++
		}
	}
	return n
}

// MatrixForm is the dense form of the assembled problem:
//
//	| M   -Cqᵀ | | q |   | f |
//	| Cq       | | l | + | b | = c,   c ⊥ l within each row's bounds
type MatrixForm struct {
	Cq   *mat.Dense
	MInv *mat.SymDense
	F    *mat.VecDense
	B    *mat.VecDense
	L    *mat.VecDense

	// Lo and Hi bound each multiplier: [0, +Inf) for unilateral rows and
	// ±μλN of the governing row for friction rows.
	Lo, Hi *mat.VecDense
}

// ConvertToMatrixForm assembles dense matrices for all inserted variables and
// active rows. Offsets must already be assigned by EndInsertion. Disabled
// variables contribute zero blocks. gonum rejects empty matrices, so an empty
// side is represented by a single zero entry.
func (d *Descriptor) ConvertToMatrixForm() MatrixForm {
	nv := len(d.vars) * 6
	active := make([]*Row, 0, len(d.rows))
	for _, r := range d.rows {
		if r.active {
			active = append(active, r)
		}
	}
	nr := len(active)

	form := MatrixForm{
		Cq:   mat.NewDense(max(nr, 1), max(nv, 1), nil),
		MInv: mat.NewSymDense(max(nv, 1), nil),
		F:    mat.NewVecDense(max(nv, 1), nil),
		B:    mat.NewVecDense(max(nr, 1), nil),
		L:    mat.NewVecDense(max(nr, 1), nil),
		Lo:   mat.NewVecDense(max(nr, 1), nil),
		Hi:   mat.NewVecDense(max(nr, 1), nil),
	}

	for _, v := range d.vars {
		o := v.offset
		for i := 0; i < 6; i++ {
			form.F.SetVec(o+i, v.Fb[i])
		}
		if v.Disabled {
			continue
		}
		for i := 0; i < 3; i++ {
			form.MInv.SetSym(o+i, o+i, v.InvMass)
			for j := i; j < 3; j++ {
				form.MInv.SetSym(o+3+i, o+3+j, v.InvInertia.At(i, j))
			}
		}
	}

	for i, r := range active {
		if r.usesA() {
			for k := 0; k < 6; k++ {
				form.Cq.Set(i, r.varA.offset+k, r.CqA[k])
			}
		}
		if r.usesB() {
			for k := 0; k < 6; k++ {
				form.Cq.Set(i, r.varB.offset+k, r.CqB[k])
			}
		}
		form.B.SetVec(i, r.B)
		form.L.SetVec(i, r.L)
		lo, hi := r.bounds()
		form.Lo.SetVec(i, lo)
		form.Hi.SetVec(i, hi)
	}
	return form
}

// bounds returns the feasible interval of the multiplier.
func (r *Row) bounds() (lo, hi float64) {
	if r.Kind == Unilateral {
		return 0, math.Inf(1)
	}
	if r.normal == nil {
		return 0, 0
	}
	bound := max(0, r.normal.friction*r.normal.L)
	return -bound, bound
}

// Residual evaluates c = Cq M⁻¹ (f + Cqᵀ l) + b.
func (m MatrixForm) Residual() *mat.VecDense {
	nr, _ := m.Cq.Dims()
	var impulse mat.VecDense
	impulse.MulVec(m.Cq.T(), m.L)
	impulse.AddVec(&impulse, m.F)

	var q mat.VecDense
	q.MulVec(m.MInv, &impulse)

	c := mat.NewVecDense(nr, nil)
	c.MulVec(m.Cq, &q)
	c.AddVec(c, m.B)
	return c
}

// Violation returns the largest complementarity violation of the system:
// a multiplier at its lower bound needs c ≥ 0, at its upper bound c ≤ 0, and
// strictly inside c = 0.
func (m MatrixForm) Violation() float64 {
	const eps = 1e-12
	c := m.Residual()
	var worst float64
	for i := 0; i < c.Len(); i++ {
		ci, l := c.AtVec(i), m.L.AtVec(i)
		atLo := l <= m.Lo.AtVec(i)+eps
		atHi := l >= m.Hi.AtVec(i)-eps
		var v float64
		switch {
		case atLo && atHi:
		case atLo:
			v = max(0, -ci)
		case atHi:
			v = max(0, ci)
		default:
			v = math.Abs(ci)
		}
		worst = max(worst, v)
	}
	return worst
}

// Delassus returns N = Cq M⁻¹ Cqᵀ.
func (m MatrixForm) Delassus() *mat.Dense {
	var tmp, n mat.Dense
	tmp.Mul(m.Cq, m.MInv)
	n.Mul(&tmp, m.Cq.T())
	return &n
}
