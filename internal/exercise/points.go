package exercise

import "github.com/mathmaster/mathmaster/internal/topic"

// Score thresholds that drive difficulty adjustment and point multipliers.
const (
	scoreBeginner = 100
	scoreMidBand  = 300
	scoreExpert   = 600

	scoreBonusLow  = 200
	scoreBonusHigh = 500

	fastAnswerSeconds = 30
	fastAnswerBonus   = 5
)

// AdjustDifficulty overrides the requested difficulty from the current score.
// Below 100 everything is easy, from 600 everything is hard. Between 300
// and 600 easy is bumped to medium. Between 100 and 300 the request stands.
func AdjustDifficulty(requested topic.Difficulty, score int) topic.Difficulty {
	switch {
	case score < scoreBeginner:
		return topic.Easy
	case score < scoreMidBand:
		return requested
	case score < scoreExpert:
		if requested == topic.Easy {
			return topic.Medium
		}
		return requested
	default:
		return topic.Hard
	}
}

// BasePoints returns the points an exercise of difficulty d is worth before
// bonuses. Unknown difficulties are worth as much as easy ones.
func BasePoints(d topic.Difficulty) int {
	switch d {
	case topic.Medium:
		return 20
	case topic.Hard:
		return 35
	default:
		return 10
	}
}

// CalculatePoints scores one answer. Multipliers truncate toward zero so
// scores stay integral.
func CalculatePoints(d topic.Difficulty, correct bool, timeTakenSeconds, score int) ScoreDelta {
	points := BasePoints(d)

	if correct {
		if timeTakenSeconds < fastAnswerSeconds {
			points += fastAnswerBonus
		}
		switch {
		case score > scoreBonusHigh:
			points = int(float64(points) * 1.3)
		case score > scoreBonusLow:
			points = int(float64(points) * 1.15)
		}
		return ScoreDelta{Earned: points}
	}

	penalty := int(float64(points) * 0.4)
	switch {
	case score > scoreBonusHigh:
		penalty = int(float64(penalty) * 1.5)
	case score > scoreBonusLow:
		penalty = int(float64(penalty) * 1.2)
	}
	return ScoreDelta{Lost: penalty}
}

// PossiblePoints is the advertised value of an exercise: base points with
// the score multiplier, without the speed bonus.
func PossiblePoints(d topic.Difficulty, score int) int {
	points := BasePoints(d)
	switch {
	case score > scoreBonusHigh:
		return int(float64(points) * 1.3)
	case score > scoreBonusLow:
		return int(float64(points) * 1.15)
	}
	return points
}
