// Package milp holds a solver-independent mixed-integer linear model:
// variables, linear constraints and a minimization objective.
package milp

import (
	"fmt"
	"math"
)

type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// Var is the column index of a variable inside its Model.
type Var int

type Variable struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression sum(coef*var) + Constant.
type Expr struct {
	Terms    []Term
	Constant float64
}

func (e *Expr) Add(v Var, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// AddExpr appends scale*o to e.
func (e *Expr) AddExpr(o Expr, scale float64) *Expr {
	for _, t := range o.Terms {
		e.Terms = append(e.Terms, Term{Var: t.Var, Coef: t.Coef * scale})
	}
	e.Constant += o.Constant * scale
	return e
}

// Value evaluates the expression against a full assignment.
func (e Expr) Value(values []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		if int(t.Var) < len(values) {
			v += t.Coef * values[t.Var]
		}
	}
	return v
}

type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	}
	return "="
}

// Constraint is terms <sense> RHS, with every constant already moved to RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

type Model struct {
	Name        string
	Vars        []Variable
	Constraints []Constraint
	Objective   Expr

	byName map[string]Var
}

func NewModel(name string) *Model {
	return &Model{Name: name, byName: make(map[string]Var)}
}

// AddVar declares a variable. Binary variables are always bounded to [0, 1].
func (m *Model) AddVar(name string, kind VarKind, lower, upper float64) Var {
	if kind == Binary {
		lower, upper = 0, 1
	}
	v := Var(len(m.Vars))
	m.Vars = append(m.Vars, Variable{Name: name, Kind: kind, Lower: lower, Upper: upper})
	m.byName[name] = v
	return v
}

func (m *Model) VarByName(name string) (Var, bool) {
	v, ok := m.byName[name]
	return v, ok
}

func (m *Model) NumVars() int { return len(m.Vars) }

func (m *Model) NumConstraints() int { return len(m.Constraints) }

// AddConstraint records lhs <sense> rhs after merging repeated variables and
// moving the constant part of lhs to the right-hand side.
func (m *Model) AddConstraint(name string, lhs Expr, sense Sense, rhs float64) {
	m.Constraints = append(m.Constraints, Constraint{
		Name:  name,
		Terms: mergeTerms(lhs.Terms),
		Sense: sense,
		RHS:   rhs - lhs.Constant,
	})
}

func (m *Model) SetObjective(e Expr) {
	m.Objective = Expr{Terms: mergeTerms(e.Terms), Constant: e.Constant}
}

func (m *Model) ObjectiveValue(values []float64) float64 {
	return m.Objective.Value(values)
}

func mergeTerms(terms []Term) []Term {
	idx := make(map[Var]int, len(terms))
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if i, ok := idx[t.Var]; ok {
			out[i].Coef += t.Coef
			continue
		}
		idx[t.Var] = len(out)
		out = append(out, t)
	}

	kept := out[:0]
	for _, t := range out {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	return kept
}

// Violation describes a bound, integrality or row that an assignment breaks.
type Violation struct {
	Name     string
	Activity float64
	Sense    Sense
	RHS      float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %.6g %s %.6g", v.Name, v.Activity, v.Sense, v.RHS)
}

// Evaluate checks values against every bound, integrality requirement and
// constraint, using tol as the absolute feasibility tolerance.
func (m *Model) Evaluate(values []float64, tol float64) []Violation {
	var out []Violation

	for i, v := range m.Vars {
		x := 0.0
		if i < len(values) {
			x = values[i]
		}
		if x < v.Lower-tol {
			out = append(out, Violation{Name: "lower:" + v.Name, Activity: x, Sense: GreaterEq, RHS: v.Lower})
		}
		if !math.IsInf(v.Upper, 1) && x > v.Upper+tol {
			out = append(out, Violation{Name: "upper:" + v.Name, Activity: x, Sense: LessEq, RHS: v.Upper})
		}
		if v.Kind != Continuous && math.Abs(x-math.Round(x)) > tol {
			out = append(out, Violation{Name: "integer:" + v.Name, Activity: x, Sense: Equal, RHS: math.Round(x)})
		}
	}

	for _, c := range m.Constraints {
		act := Expr{Terms: c.Terms}.Value(values)
		ok := true
		switch c.Sense {
		case LessEq:
			ok = act <= c.RHS+tol
		case GreaterEq:
			ok = act >= c.RHS-tol
		case Equal:
			ok = math.Abs(act-c.RHS) <= tol
		}
		if !ok {
			out = append(out, Violation{Name: c.Name, Activity: act, Sense: c.Sense, RHS: c.RHS})
		}
	}

	return out
}
