package nettrace

import "time"

// Budget is an optional set of expectations a caller can compare a
// collected Timeline against; exceeding it never fails a send, it only
// shows up as a breach in the resulting Report.
type Budget struct {
	Total     time.Duration
	Tolerance time.Duration
	Phases    map[PhaseKind]time.Duration
}

// Clone returns a deep copy of the budget.
func (b Budget) Clone() Budget {
	clone := b
	if b.Phases != nil {
		clone.Phases = make(map[PhaseKind]time.Duration, len(b.Phases))
		for k, v := range b.Phases {
			clone.Phases[k] = v
		}
	}
	return clone
}

func hasBudget(b Budget) bool {
	if b.Total > 0 || b.Tolerance > 0 {
		return true
	}
	return len(b.Phases) > 0
}

// BudgetBreach names one phase (or the total) that exceeded its budget.
type BudgetBreach struct {
	Kind     PhaseKind
	Limit    time.Duration
	Actual   time.Duration
	OverBy   time.Duration
}

// BudgetReport is the outcome of evaluating a Timeline against a Budget.
type BudgetReport struct {
	Breaches []BudgetBreach
}

// EvaluateBudget compares tl against budget and returns every breach found.
func EvaluateBudget(tl *Timeline, budget Budget) BudgetReport {
	var report BudgetReport
	if tl == nil {
		return report
	}

	tolerance := budget.Tolerance
	if budget.Total > 0 {
		limit := budget.Total + tolerance
		if tl.Duration > limit {
			report.Breaches = append(report.Breaches, BudgetBreach{
				Kind:   PhaseTotal,
				Limit:  budget.Total,
				Actual: tl.Duration,
				OverBy: tl.Duration - budget.Total,
			})
		}
	}

	for _, phase := range tl.Phases {
		limit, ok := budget.Phases[phase.Kind]
		if !ok {
			continue
		}
		if phase.Duration > limit+tolerance {
			report.Breaches = append(report.Breaches, BudgetBreach{
				Kind:   phase.Kind,
				Limit:  limit,
				Actual: phase.Duration,
				OverBy: phase.Duration - limit,
			})
		}
	}

	return report
}

// Report summarises one send: the collected timeline, any evaluated
// budget breaches, and the redirect outcome the request engine reached
// while producing it. RedirectHops and FinalURL are what distinguish a
// trace from a bare timeline — a caller inspecting Response.Trace() can
// tell whether a slow send was slow because of the network or because it
// bounced through several redirects before returning.
type Report struct {
	Timeline     *Timeline
	Budget       Budget
	BudgetReport BudgetReport
	RedirectHops int
	FinalURL     string
}

// NewReport builds a trace report for the provided timeline and budget,
// tagging it with how many redirect hops the send followed and which URL
// it ultimately returned from. The timeline is cloned to keep the report
// immutable.
func NewReport(tl *Timeline, budget Budget, redirectHops int, finalURL string) *Report {
	if tl == nil {
		return nil
	}

	cloned := tl.Clone()
	budgetCopy := budget.Clone()

	var evaluation BudgetReport
	if hasBudget(budgetCopy) {
		evaluation = EvaluateBudget(cloned, budgetCopy)
	}

	return &Report{
		Timeline:     cloned,
		Budget:       budgetCopy,
		BudgetReport: evaluation,
		RedirectHops: redirectHops,
		FinalURL:     finalURL,
	}
}

// Clone returns a deep copy of the report so callers can safely mutate it.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}

	clone := &Report{
		Budget:       r.Budget.Clone(),
		RedirectHops: r.RedirectHops,
		FinalURL:     r.FinalURL,
	}

	if r.Timeline != nil {
		clone.Timeline = r.Timeline.Clone()
	}

	if len(r.BudgetReport.Breaches) > 0 {
		clone.BudgetReport.Breaches = make([]BudgetBreach, len(r.BudgetReport.Breaches))
		copy(clone.BudgetReport.Breaches, r.BudgetReport.Breaches)
	}

	return clone
}
