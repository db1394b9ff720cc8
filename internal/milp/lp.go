package milp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

const termsPerLine = 8

// WriteLP writes the model in CPLEX LP format, readable by HiGHS and CBC.
// Rows are named r0, r1, ... and columns keep their model names.
func (m *Model) WriteLP(w io.Writer) error {
	if len(m.Vars) == 0 {
		return fmt.Errorf("write lp: model %q has no variables", m.Name)
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ %s\n", m.Name)
	bw.WriteString("Minimize\n obj:")
	if len(m.Objective.Terms) == 0 {
		fmt.Fprintf(bw, " 0 %s", m.Vars[0].Name)
	} else {
		m.writeTerms(bw, m.Objective.Terms)
	}
	bw.WriteString("\nSubject To\n")

	for i, c := range m.Constraints {
		fmt.Fprintf(bw, " r%d:", i)
		if len(c.Terms) == 0 {
			fmt.Fprintf(bw, " 0 %s", m.Vars[0].Name)
		} else {
			m.writeTerms(bw, c.Terms)
		}
		fmt.Fprintf(bw, " %s %s\n", c.Sense, formatNumber(c.RHS))
	}

	bw.WriteString("Bounds\n")
	for _, v := range m.Vars {
		if v.Kind == Binary {
			continue
		}
		upInf := math.IsInf(v.Upper, 1)
		loInf := math.IsInf(v.Lower, -1)
		switch {
		case loInf && upInf:
			fmt.Fprintf(bw, " %s free\n", v.Name)
		case v.Lower == v.Upper:
			fmt.Fprintf(bw, " %s = %s\n", v.Name, formatNumber(v.Lower))
		case upInf && v.Lower == 0:
			// default bound
		case upInf:
			fmt.Fprintf(bw, " %s >= %s\n", v.Name, formatNumber(v.Lower))
		case loInf:
			fmt.Fprintf(bw, " -inf <= %s <= %s\n", v.Name, formatNumber(v.Upper))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNumber(v.Lower), v.Name, formatNumber(v.Upper))
		}
	}

	m.writeSection(bw, "General", Integer)
	m.writeSection(bw, "Binary", Binary)
	bw.WriteString("End\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write lp: %w", err)
	}
	return nil
}

func (m *Model) writeTerms(bw *bufio.Writer, terms []Term) {
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			bw.WriteString("\n   ")
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		if coef == 1 {
			fmt.Fprintf(bw, " %s %s", sign, m.Vars[t.Var].Name)
			continue
		}
		fmt.Fprintf(bw, " %s %s %s", sign, formatNumber(coef), m.Vars[t.Var].Name)
	}
}

func (m *Model) writeSection(bw *bufio.Writer, title string, kind VarKind) {
	count := 0
	for _, v := range m.Vars {
		if v.Kind != kind {
			continue
		}
		if count == 0 {
			bw.WriteString(title + "\n")
		}
		bw.WriteString(" " + v.Name + "\n")
		count++
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
