package exercise

import (
	"errors"
	"math"
	"math/big"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/mathmaster/mathmaster/internal/topic"
)

func testGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, 42)))
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	if err != nil {
		t.Fatalf("atoi(%q): %v", s, err)
	}
	return n
}

func signOf(op string) int {
	if op == "-" {
		return -1
	}
	return 1
}

func TestGenerate_OptionsContainAnswer(t *testing.T) {
	g := testGenerator(1)
	for _, tp := range topic.All() {
		for _, d := range topic.AllDifficulties() {
			for _, score := range []int{0, 150, 350, 700} {
				for range 25 {
					ex := g.Generate(tp, d, score)
					if len(ex.Options) != 4 {
						t.Fatalf("%s/%s: got %d options", tp, d, len(ex.Options))
					}
					if !slices.Contains(ex.Options, ex.CorrectAnswer) {
						t.Fatalf("%s/%s: %q not in %v", tp, d, ex.CorrectAnswer, ex.Options)
					}
					if err := Validate(ex); err != nil {
						t.Fatalf("%s/%s: Validate: %v", tp, d, err)
					}
					if ex.Difficulty != AdjustDifficulty(d, score) {
						t.Fatalf("difficulty = %s, want %s", ex.Difficulty, AdjustDifficulty(d, score))
					}
				}
			}
		}
	}
}

func TestGenerate_UnimplementedTopicsFallBack(t *testing.T) {
	g := testGenerator(2)
	for _, tp := range []topic.Topic{topic.Geometry, topic.Algebra, topic.Topic("calculus")} {
		ex := g.Generate(tp, topic.Medium, 150)
		if ex.Topic != topic.CombinedOperations {
			t.Errorf("Generate(%s).Topic = %s, want combined_operations", tp, ex.Topic)
		}
		if ex.Title != "Operación Combinada" {
			t.Errorf("Generate(%s).Title = %q", tp, ex.Title)
		}
	}
}

func TestGenerate_SameSeedSameExercise(t *testing.T) {
	a := testGenerator(7).Generate(topic.Fractions, topic.Hard, 700)
	b := testGenerator(7).Generate(topic.Fractions, topic.Hard, 700)
	if a.Question != b.Question || !slices.Equal(a.Options, b.Options) {
		t.Errorf("same seed produced %+v and %+v", a, b)
	}
}

func TestLinearEasy_ThreeTimesFour(t *testing.T) {
	for offset := -10; offset <= 10; offset++ {
		c := 3*4 + offset
		eq := linearEasy{a: 3, b: c - 3*4, c: c}
		if eq.a*4+eq.b != eq.c {
			t.Fatalf("%s is not satisfied by x=4", eq)
		}
		m := regexp.MustCompile(`^(\d+)x ([+-]) (\d+) = (-?\d+)$`).FindStringSubmatch(eq.String())
		if m == nil {
			t.Fatalf("unexpected rendering %q", eq)
		}
		a, b, cc := atoi(t, m[1]), signOf(m[2])*atoi(t, m[3]), atoi(t, m[4])
		if (cc-b)%a != 0 || (cc-b)/a != 4 {
			t.Errorf("%s solves to %d/%d, want 4", eq, cc-b, a)
		}
	}
}

var (
	linearEasyRe   = regexp.MustCompile(`^Resuelve para x: (\d+)x ([+-]) (\d+) = (-?\d+)$`)
	linearMediumRe = regexp.MustCompile(`^Resuelve para x: (\d+)x ([+-]) (\d+) = (\d+)x ([+-]) (\d+)$`)
	linearHardRe   = regexp.MustCompile(`^Resuelve para x: (\d+)\(x \+ (\d+)\) = (\d+)\(x - (\d+)\) ([+-]) (\d+)$`)
)

func TestLinearEquation_AnswerSolvesEquation(t *testing.T) {
	g := testGenerator(3)
	for range 200 {
		for _, d := range topic.AllDifficulties() {
			ex := g.linearEquation(d)
			x := atoi(t, ex.CorrectAnswer)

			switch d {
			case topic.Easy:
				m := linearEasyRe.FindStringSubmatch(ex.Question)
				if m == nil {
					t.Fatalf("easy question %q", ex.Question)
				}
				a, b, c := atoi(t, m[1]), signOf(m[2])*atoi(t, m[3]), atoi(t, m[4])
				if a*x+b != c {
					t.Fatalf("%q not satisfied by %d", ex.Question, x)
				}
			case topic.Medium:
				m := linearMediumRe.FindStringSubmatch(ex.Question)
				if m == nil {
					t.Fatalf("medium question %q", ex.Question)
				}
				a, b := atoi(t, m[1]), signOf(m[2])*atoi(t, m[3])
				c, dd := atoi(t, m[4]), signOf(m[5])*atoi(t, m[6])
				if a == c {
					t.Fatalf("%q has no unique solution", ex.Question)
				}
				if a*x+b != c*x+dd {
					t.Fatalf("%q not satisfied by %d", ex.Question, x)
				}
			case topic.Hard:
				m := linearHardRe.FindStringSubmatch(ex.Question)
				if m == nil {
					t.Fatalf("hard question %q", ex.Question)
				}
				a, b, c, dd := atoi(t, m[1]), atoi(t, m[2]), atoi(t, m[3]), atoi(t, m[4])
				e := signOf(m[5]) * atoi(t, m[6])
				if a*(x+b) != c*(x-dd)+e {
					t.Fatalf("%q not satisfied by %d", ex.Question, x)
				}
			}
		}
	}
}

var quadraticRe = regexp.MustCompile(`^Encuentra la solución menor de: x² ([+-]) (\d+)x ([+-]) (\d+) = 0$`)

func TestQuadratic_SmallerRoot(t *testing.T) {
	g := testGenerator(4)
	for range 200 {
		ex := g.quadraticEquation()
		m := quadraticRe.FindStringSubmatch(ex.Question)
		if m == nil {
			t.Fatalf("unexpected question %q", ex.Question)
		}
		b, c := signOf(m[1])*atoi(t, m[2]), signOf(m[3])*atoi(t, m[4])
		r := atoi(t, ex.CorrectAnswer)
		if r*r+b*r+c != 0 {
			t.Fatalf("%d is not a root of %q", r, ex.Question)
		}
		if other := -b - r; other < r {
			t.Fatalf("%d is not the smaller root of %q (other %d)", r, ex.Question, other)
		}
	}
}

var fractionRe = regexp.MustCompile(`(\d+)/(\d+)`)

func TestFractions_SimplifiedResult(t *testing.T) {
	g := testGenerator(5)
	for range 200 {
		for _, d := range topic.AllDifficulties() {
			ex := g.fractions(d)
			parts := fractionRe.FindAllStringSubmatch(ex.Question, -1)
			if len(parts) != 2 {
				t.Fatalf("question %q", ex.Question)
			}
			x := big.NewRat(int64(atoi(t, parts[0][1])), int64(atoi(t, parts[0][2])))
			y := big.NewRat(int64(atoi(t, parts[1][1])), int64(atoi(t, parts[1][2])))

			want := new(big.Rat)
			switch {
			case strings.Contains(ex.Question, "×"):
				want.Mul(x, y)
			case strings.Contains(ex.Question, "÷"):
				want.Quo(x, y)
			default:
				want.Add(x, y)
			}

			got, ok := new(big.Rat).SetString(ex.CorrectAnswer)
			if !ok {
				t.Fatalf("unparsable answer %q", ex.CorrectAnswer)
			}
			if got.Cmp(want) != 0 {
				t.Fatalf("%q: answer %s, want %s", ex.Question, ex.CorrectAnswer, want.RatString())
			}
			if ex.CorrectAnswer != want.RatString() {
				t.Fatalf("%q: answer %q not in lowest terms (%s)", ex.Question, ex.CorrectAnswer, want.RatString())
			}
		}
	}
}

var percentRe = regexp.MustCompile(`^¿Cuánto es el (\d+)% de (\d+)\?$`)

func TestPercentages(t *testing.T) {
	g := testGenerator(6)
	for range 200 {
		for _, d := range []topic.Difficulty{topic.Easy, topic.Hard} {
			ex := g.percentages(d)
			m := percentRe.FindStringSubmatch(ex.Question)
			if m == nil {
				t.Fatalf("question %q", ex.Question)
			}
			pct, number := atoi(t, m[1]), atoi(t, m[2])
			got, err := strconv.ParseFloat(ex.CorrectAnswer, 64)
			if err != nil {
				t.Fatalf("answer %q: %v", ex.CorrectAnswer, err)
			}
			if want := float64(pct*number) / 100; math.Abs(got-want) > 1e-9 {
				t.Fatalf("%q: answer %v, want %v", ex.Question, got, want)
			}
			if d == topic.Easy && strings.Contains(ex.CorrectAnswer, ".") {
				t.Fatalf("easy answer %q is not whole", ex.CorrectAnswer)
			}
		}
	}
}

var operationRe = regexp.MustCompile(`^¿Cuánto es (\d+) (\S+) (\d+)\?$`)

func TestOperations(t *testing.T) {
	g := testGenerator(8)
	for range 200 {
		for _, d := range topic.AllDifficulties() {
			ex := g.operations(d)
			m := operationRe.FindStringSubmatch(ex.Question)
			if m == nil {
				t.Fatalf("question %q", ex.Question)
			}
			a, b := atoi(t, m[1]), atoi(t, m[3])
			var want int
			switch m[2] {
			case "+":
				want = a + b
			case "-":
				want = a - b
			case "×":
				want = a * b
			case "÷":
				if d == topic.Easy {
					t.Fatalf("easy exercise used division: %q", ex.Question)
				}
				if a%b != 0 {
					t.Fatalf("%q does not divide evenly", ex.Question)
				}
				want = a / b
			default:
				t.Fatalf("unknown operator %q", m[2])
			}
			if ex.CorrectAnswer != strconv.Itoa(want) {
				t.Fatalf("%q: answer %s, want %d", ex.Question, ex.CorrectAnswer, want)
			}
		}
	}
}

func TestCombinedOperations_TemplatesPerTier(t *testing.T) {
	g := testGenerator(9)
	seen := map[topic.Difficulty]map[string]bool{}
	shape := regexp.MustCompile(`\d+`)
	for range 500 {
		for _, d := range topic.AllDifficulties() {
			ex := g.combinedOperations(d)
			if !strings.HasPrefix(ex.Question, "¿Cuál es el resultado de: ") {
				t.Fatalf("question %q", ex.Question)
			}
			if seen[d] == nil {
				seen[d] = map[string]bool{}
			}
			seen[d][shape.ReplaceAllString(ex.Question, "n")] = true
		}
	}
	want := map[topic.Difficulty]int{topic.Easy: 3, topic.Medium: 4, topic.Hard: 3}
	for d, n := range want {
		if len(seen[d]) != n {
			t.Errorf("%s: saw %d templates, want %d: %v", d, len(seen[d]), n, seen[d])
		}
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{7, 2, 3},
		{-7, 2, -4},
		{6, 3, 2},
		{-6, 3, -2},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValidate_MissingAnswer(t *testing.T) {
	ex := Exercise{
		Title:         "Fracciones",
		Question:      "Calcula: 1/2 + 1/2",
		CorrectAnswer: "1",
		Options:       []string{"2/2", "3/2", "1/3", "0/2"},
		Topic:         topic.Fractions,
		Difficulty:    topic.Easy,
	}
	err := Validate(ex)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Check != "options" {
		t.Fatalf("Validate() = %v, want options ValidationError", err)
	}
}

func TestValidate_WrongOptionCount(t *testing.T) {
	ex := Exercise{
		Title:         "Fracciones",
		Question:      "Calcula: 1/2 + 1/2",
		CorrectAnswer: "1",
		Options:       []string{"1", "2"},
		Topic:         topic.Fractions,
		Difficulty:    topic.Easy,
	}
	var verr *ValidationError
	if err := Validate(ex); !errors.As(err, &verr) || verr.Check != "schema" {
		t.Fatalf("Validate() = %v, want schema ValidationError", err)
	}
}

func TestCheckAnswer(t *testing.T) {
	if !CheckAnswer(" 5/6 ", "5/6") {
		t.Error("trimmed answer should match")
	}
	if CheckAnswer("10/12", "5/6") {
		t.Error("equivalent but different text should not match")
	}
}
