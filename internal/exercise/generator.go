package exercise

import (
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/mathmaster/mathmaster/internal/topic"
)

// Generator produces parameterized exercises. All randomness comes from the
// injected source so tests can pin outcomes with a seed.
// A Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeededGenerator creates a Generator with a PCG source seeded by seed.
func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Generate builds an exercise for t. The requested difficulty is first
// adjusted by score (see AdjustDifficulty). Topics without a dedicated
// generator (geometry, algebra and unknown values) get a combined
// operations exercise so a student's turn never fails.
func (g *Generator) Generate(t topic.Topic, requested topic.Difficulty, score int) Exercise {
	d := AdjustDifficulty(requested, score)

	g.mu.Lock()
	defer g.mu.Unlock()

	var ex Exercise
	switch t {
	case topic.Operations:
		ex = g.operations(d)
	case topic.LinearEquations:
		ex = g.linearEquation(d)
	case topic.QuadraticEquations:
		ex = g.quadraticEquation()
	case topic.Fractions:
		ex = g.fractions(d)
	case topic.Percentages:
		ex = g.percentages(d)
	default:
		ex = g.combinedOperations(d)
	}
	ex.Difficulty = d
	return ex
}

// intn returns a uniform integer in [lo, hi].
func (g *Generator) intn(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) pick(values ...int) int {
	return values[g.rng.IntN(len(values))]
}

func (g *Generator) coin() bool {
	return g.rng.IntN(2) == 0
}

// options puts the correct answer first, appends the distractors and
// shuffles the four.
func (g *Generator) options(correct string, distractors ...string) []string {
	out := make([]string, 0, 4)
	out = append(out, correct)
	out = append(out, distractors...)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func itoa(n int) string { return strconv.Itoa(n) }

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
