package exercise

import (
	"fmt"

	"github.com/mathmaster/mathmaster/internal/topic"
)

// linearEasy holds ax + b = c.
type linearEasy struct{ a, b, c int }

func (l linearEasy) String() string {
	if l.b >= 0 {
		return fmt.Sprintf("%dx + %d = %d", l.a, l.b, l.c)
	}
	return fmt.Sprintf("%dx - %d = %d", l.a, abs(l.b), l.c)
}

// linearMedium holds ax + b = cx + d with c < a.
type linearMedium struct{ a, b, c, d int }

func (l linearMedium) String() string {
	return fmt.Sprintf("%dx %s = %dx %s", l.a, signed(l.b), l.c, signed(l.d))
}

// linearHard holds a(x + b) = c(x - d) + e.
type linearHard struct{ a, b, c, d, e int }

func (l linearHard) String() string {
	return fmt.Sprintf("%d(x + %d) = %d(x - %d) %s", l.a, l.b, l.c, l.d, signed(l.e))
}

// signed renders n as "+ n" or "- |n|".
func signed(n int) string {
	if n < 0 {
		return fmt.Sprintf("- %d", -n)
	}
	return fmt.Sprintf("+ %d", n)
}

func (g *Generator) linearEquation(d topic.Difficulty) Exercise {
	var x int
	var equation fmt.Stringer

	switch d {
	case topic.Easy:
		a := g.intn(1, 5)
		x = g.intn(1, 10)
		c := a*x + g.intn(-10, 10)
		equation = linearEasy{a: a, b: c - a*x, c: c}
	case topic.Medium:
		a := g.intn(2, 8)
		c := g.intn(1, a-1)
		x = g.intn(1, 10)
		dd := g.intn(-15, 15)
		equation = linearMedium{a: a, b: (c-a)*x + dd, c: c, d: dd}
	default:
		a, b := g.intn(2, 6), g.intn(1, 8)
		c, dd := g.intn(1, 5), g.intn(1, 8)
		x = g.intn(5, 15)
		equation = linearHard{a: a, b: b, c: c, d: dd, e: a*(x+b) - c*(x-dd)}
	}

	correct := itoa(x)
	return Exercise{
		Title:         "Ecuación Lineal",
		Question:      fmt.Sprintf("Resuelve para x: %s", equation),
		CorrectAnswer: correct,
		Options: g.options(correct,
			itoa(x+g.intn(1, 3)),
			itoa(x-g.intn(1, 3)),
			itoa(x*2),
		),
		Explanation: fmt.Sprintf("El valor de x es %d", x),
		Topic:       topic.LinearEquations,
	}
}

// quadratic holds x² + bx + c = 0 built from its two integer roots.
type quadratic struct{ r1, r2 int }

func (q quadratic) b() int { return -(q.r1 + q.r2) }
func (q quadratic) c() int { return q.r1 * q.r2 }

func (q quadratic) String() string {
	return fmt.Sprintf("x² %sx %s = 0", signed(q.b()), signed(q.c()))
}

func (g *Generator) quadraticEquation() Exercise {
	q := quadratic{r1: g.intn(-5, 10), r2: g.intn(-5, 10)}
	lo, hi := min(q.r1, q.r2), max(q.r1, q.r2)
	correct := itoa(lo)

	return Exercise{
		Title:         "Ecuación Cuadrática",
		Question:      fmt.Sprintf("Encuentra la solución menor de: %s", q),
		CorrectAnswer: correct,
		Options: g.options(correct,
			itoa(hi),
			itoa(lo+g.intn(1, 5)),
			itoa(lo-g.intn(1, 5)),
		),
		Explanation: fmt.Sprintf("Las raíces son %d y %d, la menor es %d", q.r1, q.r2, lo),
		Topic:       topic.QuadraticEquations,
	}
}
