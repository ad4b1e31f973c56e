// Package smt is the VC-construction protocol and built-in bounded solver
// the geometry verifier uses to decide feasibility of a UI layout tree. The
// reference verifier discharges its constraints to a real Z3 context; this
// module has no cgo SMT binding available, so it solves the one constraint
// shape the verifier ever produces — non-negative bounded integers related
// by sums and differences — with interval (bounds) propagation instead of a
// general decision procedure. That is a deliberate narrowing: Problem only
// ever receives box and linear-sum constraints (§4.5), never disjunction or
// existential quantification, so bounds propagation is complete for this
// problem's constraint shapes even though it would not be for arbitrary
// integer arithmetic.
package smt

import "fmt"

// Domain is an inclusive integer interval. An empty domain (Lo > Hi) is the
// solver's UNSAT signal for the variable it belongs to.
type Domain struct {
	Lo, Hi int64
}

func (d Domain) Empty() bool { return d.Lo > d.Hi }

// Term is one coefficient*variable addend of a linear constraint.
type Term struct {
	Var  string
	Coef int64
}

// LE asserts that the weighted sum of Terms is at most Const. Geometry's
// entire constraint vocabulary (box bounds, containment, stacking spacing)
// reduces to this one shape: every coefficient the verifier ever emits is
// +1 or -1.
type LE struct {
	Terms []Term
	Const int64

	// Label identifies the constraint for counterexample mapping, e.g.
	// "child-within-parent-x:n2" or "vstack-spacing:n1->n2".
	Label string
}

// Problem accumulates variable domains and LE constraints for one Solve
// call. Variable declaration order is preserved so a model or conflict
// report is deterministic across runs.
type Problem struct {
	order       []string
	domains     map[string]*Domain
	constraints []LE
}

func NewProblem() *Problem {
	return &Problem{domains: make(map[string]*Domain)}
}

// Var declares v with an initial bound, merging with any prior bound (the
// tighter of the two wins on each side) if v was already declared.
func (p *Problem) Var(v string, lo, hi int64) {
	d, ok := p.domains[v]
	if !ok {
		p.domains[v] = &Domain{Lo: lo, Hi: hi}
		p.order = append(p.order, v)
		return
	}
	if lo > d.Lo {
		d.Lo = lo
	}
	if hi < d.Hi {
		d.Hi = hi
	}
}

// Assert registers sum(terms) <= c under label, declaring any variable seen
// for the first time here with an unbounded-below, unbounded-above domain
// (callers normally call Var first; Assert's auto-declare exists so a
// constraint-only test doesn't need to restate every bound).
func (p *Problem) Assert(terms []Term, c int64, label string) {
	for _, t := range terms {
		if _, ok := p.domains[t.Var]; !ok {
			p.Var(t.Var, -1<<62, 1<<62)
		}
	}
	p.constraints = append(p.constraints, LE{Terms: terms, Const: c, Label: label})
}

// Eq is sugar for the pair of constraints v == k.
func (p *Problem) Eq(v string, k int64) {
	p.Var(v, k, k)
}

// Result is a Solve outcome: either Sat with a witness model, or Unsat with
// the variable whose domain collapsed and the constraint that collapsed it.
type Result struct {
	Sat          bool
	Model        map[string]int64
	ConflictVar  string
	ConflictWhy  string
}

// Solve runs bounds propagation to a fixpoint, tightening each variable's
// domain against every constraint until nothing changes or some domain goes
// empty. On success the low end of each final domain is returned as the
// model. The model is not checked against the constraints: for a
// constraint with negative coefficients (such as child-within-parent
// containment) the all-lows point need not satisfy it.
func (p *Problem) Solve() Result {
	const maxRounds = 1000
	for round := 0; round < maxRounds; round++ {
		changed := false
		for _, c := range p.constraints {
			ok, did := p.tighten(c)
			if !ok {
				return Result{Sat: false, ConflictVar: conflictingVar(c, p.domains), ConflictWhy: c.Label}
			}
			if did {
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	model := make(map[string]int64, len(p.order))
	for _, v := range p.order {
		d := p.domains[v]
		if d.Empty() {
			return Result{Sat: false, ConflictVar: v, ConflictWhy: "domain collapsed"}
		}
		model[v] = d.Lo
	}
	return Result{Sat: true, Model: model}
}

// tighten narrows each single-variable domain appearing in c as far as the
// other terms' current bounds allow, given c's sum <= Const shape. Returns
// ok=false the instant a domain goes empty.
func (p *Problem) tighten(c LE) (ok bool, changed bool) {
	for _, target := range c.Terms {
		d := p.domains[target.Var]
		if target.Coef == 0 {
			continue
		}

		// minOthers = minimum possible value of (sum - target term) given
		// current domains, using each other term's extreme that minimizes
		// its contribution.
		var minOthers int64
		for _, t := range c.Terms {
			if t.Var == target.Var && t.Coef == target.Coef {
				continue
			}
			od := p.domains[t.Var]
			if t.Coef > 0 {
				minOthers += t.Coef * od.Lo
			} else {
				minOthers += t.Coef * od.Hi
			}
		}

		// target.Coef * targetVar <= Const - minOthers
		bound := c.Const - minOthers
		if target.Coef > 0 {
			newHi := floorDiv(bound, target.Coef)
			if newHi < d.Hi {
				d.Hi = newHi
				changed = true
			}
		} else {
			// target.Coef * v <= bound, coef negative: v >= bound/coef (ceil, direction flips)
			newLo := ceilDiv(bound, target.Coef)
			if newLo > d.Lo {
				d.Lo = newLo
				changed = true
			}
		}
		if d.Empty() {
			return false, changed
		}
	}
	return true, changed
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

func conflictingVar(c LE, domains map[string]*Domain) string {
	for _, t := range c.Terms {
		if domains[t.Var].Empty() {
			return t.Var
		}
	}
	if len(c.Terms) > 0 {
		return c.Terms[0].Var
	}
	return ""
}

func (r Result) String() string {
	if r.Sat {
		return fmt.Sprintf("sat: %v", r.Model)
	}
	return fmt.Sprintf("unsat: %s (%s)", r.ConflictVar, r.ConflictWhy)
}
