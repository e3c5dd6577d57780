package quiz

import (
	"fmt"
	"math"
	"strings"
)

const (
	// PassingThreshold is the percentage a level quiz must reach to pass.
	// The same value unlocks the next level and completes a module.
	PassingThreshold = 80.0

	// FullCreditRatio is the share of key points a free-text answer must
	// cover for full credit.
	FullCreditRatio = 0.70

	// PartialCreditRatio is the share of key points needed for half credit.
	PartialCreditRatio = 0.40

	// GoodJobThreshold selects the middle result message.
	GoodJobThreshold = 60.0
)

// Credit values awarded per question.
const (
	CreditNone    = 0.0
	CreditPartial = 0.5
	CreditFull    = 1.0
)

// IsPassing reports whether a percentage meets the passing threshold.
func IsPassing(percentage float64) bool {
	return percentage >= PassingThreshold
}

// ResultMessage returns the learner-facing summary for a final percentage.
func ResultMessage(percentage float64) string {
	switch {
	case IsPassing(percentage):
		return "Excellent! You've mastered this level and unlocked the next one."
	case percentage >= GoodJobThreshold:
		return "Good job! You have a solid foundation, but you need to score at least 80% to unlock the next level."
	default:
		return "Keep learning! Review the material and try again to strengthen your knowledge."
	}
}

// RoundedPercentage rounds a percentage for display.
func RoundedPercentage(percentage float64) int {
	return int(math.Round(percentage))
}

// scoreMultipleChoice grades a selected option index.
func scoreMultipleChoice(q Question, choice int) (correct bool, credit float64, feedback string) {
	if choice == q.CorrectIndex {
		feedback = "Correct!"
		if q.Explanation != "" {
			feedback += " " + q.Explanation
		}
		return true, CreditFull, feedback
	}
	feedback = fmt.Sprintf("Incorrect. The correct answer is: %s.", q.CorrectOption())
	if q.Explanation != "" {
		feedback += " " + q.Explanation
	}
	return false, CreditNone, feedback
}

// MatchKeyPoints returns the key points that appear in the answer as
// case-insensitive substrings, in key point order.
func MatchKeyPoints(answer string, keyPoints []string) []string {
	lower := strings.ToLower(answer)
	var matched []string
	for _, kp := range keyPoints {
		if strings.Contains(lower, strings.ToLower(kp)) {
			matched = append(matched, kp)
		}
	}
	return matched
}

// CreditForRatio maps a key point match ratio to a credit tier.
func CreditForRatio(ratio float64) float64 {
	switch {
	case ratio >= FullCreditRatio:
		return CreditFull
	case ratio >= PartialCreditRatio:
		return CreditPartial
	default:
		return CreditNone
	}
}

// scoreFreeText grades an open-ended answer by key point coverage.
func scoreFreeText(q Question, text string) (matched []string, credit float64, feedback string) {
	matched = MatchKeyPoints(text, q.KeyPoints)
	ratio := float64(len(matched)) / float64(len(q.KeyPoints))
	credit = CreditForRatio(ratio)

	switch credit {
	case CreditFull:
		feedback = "Great answer! You covered the key points."
	case CreditPartial:
		feedback = "Partially correct. You covered some key points."
	default:
		feedback = "Your answer missed most of the key points."
	}

	if missed := missedKeyPoints(q.KeyPoints, matched); len(missed) > 0 {
		feedback += " Missing: " + strings.Join(missed, ", ") + "."
	}
	return matched, credit, feedback
}

func missedKeyPoints(all, matched []string) []string {
	hit := make(map[string]bool, len(matched))
	for _, m := range matched {
		hit[m] = true
	}
	var missed []string
	for _, kp := range all {
		if !hit[kp] {
			missed = append(missed, kp)
		}
	}
	return missed
}
