package achievements

import "github.com/finscholars/finscholars/internal/catalog"

// Badge thresholds.
const (
	QuizMasterPerfectScores = 3
	ConsistentLearnerDays   = 5
	FinancialPlannerModules = 5

	categoryInvestment = "investment"
	categoryBudgeting  = "budgeting"
)

// Facts is everything badge eligibility depends on.
type Facts struct {
	CompletedModules []string
	PerfectScores    int // attempts scoring 100%
	PassingDays      int // distinct days with a passing attempt
	Catalog          []catalog.Summary
}

// Eligible returns every badge the facts qualify for, in display order.
func Eligible(f Facts) []BadgeType {
	completed := make(map[string]bool, len(f.CompletedModules))
	for _, id := range f.CompletedModules {
		completed[id] = true
	}

	var out []BadgeType
	if len(completed) >= 1 {
		out = append(out, BadgeFirstSteps)
	}
	if f.PerfectScores >= QuizMasterPerfectScores {
		out = append(out, BadgeQuizMaster)
	}
	if f.PassingDays >= ConsistentLearnerDays {
		out = append(out, BadgeConsistentLearner)
	}
	if categoryCompleted(f.Catalog, categoryInvestment, completed) {
		out = append(out, BadgeInvestmentGuru)
	}
	if categoryCompleted(f.Catalog, categoryBudgeting, completed) {
		out = append(out, BadgeBudgetMaster)
	}
	if len(completed) >= FinancialPlannerModules {
		out = append(out, BadgeFinancialPlanner)
	}
	return out
}

// categoryCompleted reports whether the catalog has modules in category and
// all of them are completed.
func categoryCompleted(modules []catalog.Summary, category string, completed map[string]bool) bool {
	found := false
	for _, m := range modules {
		if m.Category != category {
			continue
		}
		found = true
		if !completed[m.ID] {
			return false
		}
	}
	return found
}
