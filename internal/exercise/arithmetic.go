package exercise

import (
	"fmt"

	"github.com/mathmaster/mathmaster/internal/topic"
)

type template struct {
	text  string
	value int
}

func (g *Generator) operations(d topic.Difficulty) Exercise {
	var a, b, answer int
	var op string

	if d == topic.Easy {
		a, b = g.intn(1, 20), g.intn(1, 20)
		ops := []string{"+", "-", "×"}
		op = ops[g.rng.IntN(len(ops))]
	} else {
		a, b = g.intn(10, 50), g.intn(2, 20)
		ops := []string{"+", "-", "×", "÷"}
		op = ops[g.rng.IntN(len(ops))]
	}

	switch op {
	case "+":
		answer = a + b
	case "-":
		answer = a - b
	case "×":
		answer = a * b
	case "÷":
		answer = g.intn(2, 20)
		a = answer * b
	}

	question := fmt.Sprintf("%d %s %d", a, op, b)
	correct := itoa(answer)

	return Exercise{
		Title:         "Operación Básica",
		Question:      fmt.Sprintf("¿Cuánto es %s?", question),
		CorrectAnswer: correct,
		Options: g.options(correct,
			itoa(answer+g.intn(1, 10)),
			itoa(answer-g.intn(1, 10)),
			itoa(answer+g.intn(11, 20)),
		),
		Explanation: fmt.Sprintf("%s = %d", question, answer),
		Topic:       topic.Operations,
	}
}

func (g *Generator) combinedOperations(d topic.Difficulty) Exercise {
	var menu []template

	switch d {
	case topic.Easy:
		a, b, c := g.intn(1, 20), g.intn(1, 20), g.intn(1, 10)
		menu = []template{
			{fmt.Sprintf("%d + %d - %d", a, b, c), a + b - c},
			{fmt.Sprintf("%d × %d + %d", a, c, b), a*c + b},
			{fmt.Sprintf("%d - %d × 2", a+b, c), (a + b) - c*2},
		}
	case topic.Medium:
		a, b, c, e := g.intn(2, 15), g.intn(2, 15), g.intn(2, 10), g.intn(1, 5)
		menu = []template{
			{fmt.Sprintf("(%d + %d) × %d - %d", a, b, c, e), (a+b)*c - e},
			{fmt.Sprintf("%d × (%d - %d) + %d", a, b, c, e), a*(b-c) + e},
			{fmt.Sprintf("(%d × %d) ÷ %d + %d", a, b, c, e), floorDiv(a*b, c) + e},
			{fmt.Sprintf("%d + (%d × %d) - %d", a, b, c, e), a + b*c - e},
		}
	default:
		a, b, c, e := g.intn(5, 20), g.intn(3, 15), g.intn(2, 10), g.intn(2, 8)
		menu = []template{
			{fmt.Sprintf("((%d + %d) × %d) - (%d × 2)", a, b, c, e), (a+b)*c - e*2},
			{fmt.Sprintf("%d × (%d + %d) - (%d × %d)", a, b, c, e, c), a*(b+c) - e*c},
			{fmt.Sprintf("(%d × %d) ÷ %d + (%d × %d)", a, b, c, e, c), floorDiv(a*b, c) + e*c},
		}
	}

	chosen := menu[g.rng.IntN(len(menu))]
	answer := chosen.value
	correct := itoa(answer)

	return Exercise{
		Title:         "Operación Combinada",
		Question:      fmt.Sprintf("¿Cuál es el resultado de: %s?", chosen.text),
		CorrectAnswer: correct,
		Options: g.options(correct,
			itoa(answer+g.intn(1, 5)),
			itoa(answer-g.intn(1, 5)),
			itoa(int(float64(answer)*1.1)),
		),
		Explanation: fmt.Sprintf("Resolviendo paso a paso: %s = %d", chosen.text, answer),
		Topic:       topic.CombinedOperations,
	}
}
