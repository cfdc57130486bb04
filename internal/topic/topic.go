package topic

import "fmt"

// Topic identifies a math subject area a student practices.
// The string values are stored in the database and used in URLs.
type Topic string

const (
	Operations         Topic = "operations"
	CombinedOperations Topic = "combined_operations"
	LinearEquations    Topic = "linear_equations"
	QuadraticEquations Topic = "quadratic_equations"
	Fractions          Topic = "fractions"
	Percentages        Topic = "percentages"
	Geometry           Topic = "geometry"
	Algebra            Topic = "algebra"
)

// All returns every topic in declaration order.
func All() []Topic {
	return []Topic{
		Operations,
		CombinedOperations,
		LinearEquations,
		QuadraticEquations,
		Fractions,
		Percentages,
		Geometry,
		Algebra,
	}
}

// DisplayName returns the Spanish label shown to students and teachers.
func (t Topic) DisplayName() string {
	switch t {
	case Operations:
		return "Operaciones Básicas"
	case CombinedOperations:
		return "Operaciones Combinadas"
	case LinearEquations:
		return "Ecuaciones Lineales"
	case QuadraticEquations:
		return "Ecuaciones Cuadráticas"
	case Fractions:
		return "Fracciones"
	case Percentages:
		return "Porcentajes"
	case Geometry:
		return "Geometría"
	case Algebra:
		return "Álgebra"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the known topics.
func (t Topic) Valid() bool {
	for _, k := range All() {
		if k == t {
			return true
		}
	}
	return false
}

// Parse converts a wire value into a Topic.
func Parse(s string) (Topic, error) {
	t := Topic(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown topic %q", s)
	}
	return t, nil
}

// Difficulty is the exercise difficulty tier.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// AllDifficulties returns the tiers from easiest to hardest.
func AllDifficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// Rank orders difficulties: easy < medium < hard. Unknown values rank as easy.
func (d Difficulty) Rank() int {
	switch d {
	case Medium:
		return 1
	case Hard:
		return 2
	default:
		return 0
	}
}

// ParseDifficulty converts a wire value into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}
