package netshield

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"netshield/models"
)

var ipv4Pattern = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)

const (
	nextStepsAttack = "Isolate the affected hosts, capture a fresh traffic sample, and re-run the analysis to confirm the attack is contained."
	nextStepsClean  = "No attack traffic on record. Continue routine monitoring and upload new captures as they arrive."
)

// Agent answers free-text risk questions by aggregating history records.
// It is a heuristic summarizer: counts, a mean, and fixed thresholds. No
// model, no external calls.
type Agent struct {
	store HistoryStore
}

func NewAgent(store HistoryStore) *Agent {
	return &Agent{store: store}
}

// Summarize scans the prompt for the first IPv4-shaped token. If one is
// found, only records where that address appears as source or destination
// are considered (a record matching both sides counts twice); otherwise the
// whole history is summarized.
func (a *Agent) Summarize(ctx context.Context, prompt string) (RiskSummary, error) {
	address := ipv4Pattern.FindString(prompt)

	var (
		records []models.AnalysisRecord
		err     error
	)
	if address != "" {
		records, err = a.store.RecordsByEndpoint(ctx, address)
	} else {
		records, err = a.store.AllRecords(ctx)
	}
	if err != nil {
		return RiskSummary{}, err
	}

	summary := RiskSummary{
		Address:        address,
		TotalIncidents: len(records),
	}

	var confidenceSum, attackConfidenceSum float64
	for _, record := range records {
		if strings.EqualFold(record.Result, "Attack") {
			summary.AttackIncidents++
			attackConfidenceSum += record.Confidence
		}
		confidenceSum += record.Confidence
	}
	if summary.TotalIncidents > 0 {
		summary.AverageConfidence = confidenceSum / float64(summary.TotalIncidents)
	}

	// The Critical threshold applies to the attack incidents' confidences;
	// AverageConfidence stays the mean over everything matched, so benign
	// records cannot dilute a confidently flagged attack below the bar.
	var attackConfidenceMean float64
	if summary.AttackIncidents > 0 {
		attackConfidenceMean = attackConfidenceSum / float64(summary.AttackIncidents)
	}

	switch {
	case summary.AttackIncidents > 0 && attackConfidenceMean > 0.7:
		summary.RiskLevel = RiskCritical
	case summary.AttackIncidents > 0:
		summary.RiskLevel = RiskElevated
	default:
		summary.RiskLevel = RiskLow
	}

	if summary.AttackIncidents > 0 {
		summary.NextSteps = nextStepsAttack
	} else {
		summary.NextSteps = nextStepsClean
	}

	summary.Summary = describe(summary)

	return summary, nil
}

func describe(s RiskSummary) string {
	scope := "across all recorded traffic"
	if s.Address != "" {
		scope = fmt.Sprintf("for %s", s.Address)
	}

	if s.TotalIncidents == 0 {
		return fmt.Sprintf("No incidents on record %s.", scope)
	}

	return fmt.Sprintf("Found %d incident(s) %s: %d flagged as attacks (average confidence %.2f). Risk level: %s.",
		s.TotalIncidents, scope, s.AttackIncidents, s.AverageConfidence, s.RiskLevel)
}
