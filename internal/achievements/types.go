package achievements

// BadgeType identifies a badge.
type BadgeType string

const (
	BadgeFirstSteps        BadgeType = "first-steps"
	BadgeQuizMaster        BadgeType = "quiz-master"
	BadgeConsistentLearner BadgeType = "consistent-learner"
	BadgeInvestmentGuru    BadgeType = "investment-guru"
	BadgeBudgetMaster      BadgeType = "budget-master"
	BadgeFinancialPlanner  BadgeType = "financial-planner"
)

// AllBadgeTypes returns all badge types in display order.
func AllBadgeTypes() []BadgeType {
	return []BadgeType{
		BadgeFirstSteps,
		BadgeQuizMaster,
		BadgeConsistentLearner,
		BadgeInvestmentGuru,
		BadgeBudgetMaster,
		BadgeFinancialPlanner,
	}
}

// DisplayName returns a human-readable label for the badge.
func (t BadgeType) DisplayName() string {
	switch t {
	case BadgeFirstSteps:
		return "First Steps"
	case BadgeQuizMaster:
		return "Quiz Master"
	case BadgeConsistentLearner:
		return "Consistent Learner"
	case BadgeInvestmentGuru:
		return "Investment Guru"
	case BadgeBudgetMaster:
		return "Budget Master"
	case BadgeFinancialPlanner:
		return "Financial Planner"
	default:
		return string(t)
	}
}

// Description explains how the badge is earned.
func (t BadgeType) Description() string {
	switch t {
	case BadgeFirstSteps:
		return "Completed your first module"
	case BadgeQuizMaster:
		return "Scored 100% on 3 quizzes"
	case BadgeConsistentLearner:
		return "Passed quizzes on 5 different days"
	case BadgeInvestmentGuru:
		return "Completed all investment modules"
	case BadgeBudgetMaster:
		return "Completed all budgeting modules"
	case BadgeFinancialPlanner:
		return "Completed 5 modules"
	default:
		return ""
	}
}

// Icon returns the display icon for the badge.
func (t BadgeType) Icon() string {
	switch t {
	case BadgeFirstSteps:
		return "🎓"
	case BadgeQuizMaster:
		return "🏆"
	case BadgeConsistentLearner:
		return "📅"
	case BadgeInvestmentGuru:
		return "📈"
	case BadgeBudgetMaster:
		return "🐷"
	case BadgeFinancialPlanner:
		return "📋"
	default:
		return "✦"
	}
}

// ParseBadgeType returns the badge type named by s.
func ParseBadgeType(s string) (BadgeType, bool) {
	for _, t := range AllBadgeTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
