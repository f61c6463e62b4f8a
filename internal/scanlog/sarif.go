package scanlog

import (
	"encoding/json"
	"io"

	sarif "github.com/owenrumney/go-sarif/v2/sarif"
)

// Diagnostic is one recoverable failure recorded during a scan, ready to
// be rendered as a SARIF informational result rather than just a log line.
type Diagnostic struct {
	Component Component
	Message   string
	Token     string // the classpath token or file path the diagnostic concerns, if any
}

// WriteSARIF renders diagnostics as a SARIF 2.1.0 run, one informational
// result per diagnostic, grouped into rules by Component. Grounded on the
// teacher's output.SARIFFormatter, generalized from rule-match detections
// to scan diagnostics: one rule per component instead of one per security
// rule ID, one result per recovered error instead of per vulnerability
// finding.
func WriteSARIF(w io.Writer, diagnostics []Diagnostic) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}
	run := sarif.NewRunWithInformationURI("classgraph", "https://github.com/go-classgraph/classgraph")

	seenRules := make(map[string]bool)
	for _, d := range diagnostics {
		ruleID := string(d.Component)
		if !seenRules[ruleID] {
			seenRules[ruleID] = true
			run.AddRule(ruleID).
				WithDescription("Recoverable " + ruleID + " diagnostic surfaced during a classpath scan").
				WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel("note"))
		}

		result := run.CreateResultForRule(ruleID).
			WithMessage(sarif.NewTextMessage(d.Message))
		if d.Token != "" {
			result.AddLocation(
				sarif.NewLocation().WithPhysicalLocation(
					sarif.NewPhysicalLocation().WithArtifactLocation(
						sarif.NewArtifactLocation().WithUri(d.Token),
					),
				),
			)
		}
	}

	report.AddRun(run)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
