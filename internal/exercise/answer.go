package exercise

import "strings"

// CheckAnswer reports whether the submitted answer matches the stored
// correct answer. Both sides are trimmed and compared exactly, the same
// way persisted exercises have always been graded.
func CheckAnswer(submitted, correct string) bool {
	return strings.TrimSpace(submitted) == strings.TrimSpace(correct)
}
