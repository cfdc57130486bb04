package exercise

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mathmaster/mathmaster/internal/topic"
)

func (g *Generator) fractions(d topic.Difficulty) Exercise {
	var num, den int
	var question string

	switch d {
	case topic.Easy:
		den = g.pick(2, 3, 4, 5, 6)
		n1, n2 := g.intn(1, den-1), g.intn(1, den-1)
		num = n1 + n2
		question = fmt.Sprintf("%d/%d + %d/%d", n1, den, n2, den)
	case topic.Medium:
		d1 := g.pick(2, 3, 4, 5)
		d2 := g.pick(2, 3, 4, 5, 6)
		for d1 == d2 {
			d2 = g.pick(2, 3, 4, 5, 6)
		}
		n1, n2 := g.intn(1, d1-1), g.intn(1, d2-1)
		den = lcm(d1, d2)
		num = n1*(den/d1) + n2*(den/d2)
		question = fmt.Sprintf("%d/%d + %d/%d", n1, d1, n2, d2)
	default:
		n1, d1 := g.intn(1, 8), g.intn(2, 9)
		n2, d2 := g.intn(1, 8), g.intn(2, 9)
		if g.coin() {
			num, den = n1*n2, d1*d2
			question = fmt.Sprintf("(%d/%d) × (%d/%d)", n1, d1, n2, d2)
		} else {
			num, den = n1*d2, d1*n2
			question = fmt.Sprintf("(%d/%d) ÷ (%d/%d)", n1, d1, n2, d2)
		}
	}

	num, den = simplify(num, den)
	correct := formatFraction(num, den)

	third := fmt.Sprintf("%d/%d", num, den-1)
	if num > 1 {
		third = fmt.Sprintf("%d/%d", num-1, den)
	}

	return Exercise{
		Title:         "Fracciones",
		Question:      fmt.Sprintf("Calcula: %s", question),
		CorrectAnswer: correct,
		Options: g.options(correct,
			fmt.Sprintf("%d/%d", num+1, den),
			fmt.Sprintf("%d/%d", num, den+1),
			third,
		),
		Explanation: fmt.Sprintf("El resultado simplificado es %s", correct),
		Topic:       topic.Fractions,
	}
}

// simplify reduces num/den by their GCD. Both are positive by construction.
func simplify(num, den int) (int, int) {
	g := gcd(num, den)
	return num / g, den / g
}

// formatFraction renders whole results without a denominator.
func formatFraction(num, den int) string {
	if den == 1 {
		return itoa(num)
	}
	return fmt.Sprintf("%d/%d", num, den)
}

func (g *Generator) percentages(d topic.Difficulty) Exercise {
	var pct, number int
	var answer float64

	if d == topic.Easy {
		pct = g.pick(10, 20, 25, 50, 75)
		number = g.intn(20, 200)
		for number*pct%100 != 0 {
			number++
		}
		answer = float64(number * pct / 100)
	} else {
		pct = g.intn(5, 95)
		number = g.intn(50, 500)
		answer = math.Round(float64(number*pct)/100*100) / 100
	}

	correct := formatDecimal(answer)
	return Exercise{
		Title:         "Porcentajes",
		Question:      fmt.Sprintf("¿Cuánto es el %d%% de %d?", pct, number),
		CorrectAnswer: correct,
		Options: g.options(correct,
			itoa(int(answer*1.1)),
			itoa(int(answer*0.9)),
			itoa(int(answer+float64(pct))),
		),
		Explanation: fmt.Sprintf("El %d%% de %d es %s", pct, number, correct),
		Topic:       topic.Percentages,
	}
}

// formatDecimal prints whole values as integers and everything else with
// the shortest exact representation.
func formatDecimal(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
