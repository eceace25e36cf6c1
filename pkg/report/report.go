// Package report renders quasi-experimental design findings for a chosen
// outcome attribute as a plain-text report.
package report

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dgarant/qed/pkg/logic"
)

const nonequivControlGroupDesc = `Nonequivalent Control Group Design
    ---------------------------------
    This design exploits pre-test and a post-test, but
    it cannot be assumed that the group receiving
    the treatment and the control group
    were equivalent before treatment was applied,
    so any differences in the post-test may actually be
    a result of this inequivalence. Validity
    can be strengthened by finding a subset of the
    data set for which treatment is quasi-random.
    `

const counterbalancedDesc = `Counterbalanced Designs
    ---------------------------------
    These designs assume that treatment has been
    assigned on a rotating basis, and each unit
    has experienced each treatment.
    `

// Design pairs an inference goal with the prose shown when the goal has
// solutions.
type Design struct {
	Name        string
	Predicate   string
	Description string
}

// Designs are the supported quasi-experimental designs, reported in order.
var Designs = []Design{
	{
		Name:        "nonequivalent control group",
		Predicate:   "nonequivControlGroup",
		Description: nonequivControlGroupDesc,
	},
	{
		Name:        "counterbalanced",
		Predicate:   "counterbalancedDesign",
		Description: counterbalancedDesc,
	},
}

// Finding is one design with its distinct candidate treatments, in
// first-derived order.
type Finding struct {
	Design     Design
	Treatments []string
}

// UnknownOutcomeError reports an outcome attribute absent from the fact
// base, with near-miss identifiers when any score close enough.
type UnknownOutcomeError struct {
	Outcome     string
	Suggestions []string
}

func (e *UnknownOutcomeError) Error() string {
	return fmt.Sprintf("unknown outcome attribute %q", e.Outcome)
}

// Reporter runs the design queries against one engine and writes the
// findings report.
type Reporter struct {
	engine *logic.Engine
	log    *slog.Logger
}

// NewReporter wraps an engine. A nil logger falls back to slog's default.
func NewReporter(e *logic.Engine, log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{engine: e, log: log}
}

// Findings evaluates every design for the outcome and returns the distinct
// treatments per design. A query failure on one design is logged and does
// not stop the others; the first such error is returned alongside whatever
// findings succeeded.
func (r *Reporter) Findings(outcome string) ([]Finding, error) {
	if err := r.checkOutcome(outcome); err != nil {
		return nil, err
	}

	var firstErr error
	findings := make([]Finding, 0, len(Designs))
	for _, d := range Designs {
		goal := fmt.Sprintf("%s(%s, T)", d.Predicate, outcome)
		sols, err := r.engine.Query(goal)
		if err != nil {
			r.log.Error("design query failed", "design", d.Name, "goal", goal, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("design %s: %w", d.Name, err)
			}
			continue
		}
		findings = append(findings, Finding{Design: d, Treatments: distinctTreatments(sols)})
	}
	return findings, firstErr
}

// Report writes the plain-text report for the outcome to w. Designs with no
// candidate treatments produce no section; sections are separated by a blank
// line either way.
func (r *Reporter) Report(w io.Writer, outcome string) error {
	findings, err := r.Findings(outcome)
	if err != nil && len(findings) == 0 {
		return err
	}

	for i, f := range findings {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if len(f.Treatments) == 0 {
			continue
		}
		fmt.Fprintln(w, f.Design.Description)
		fmt.Fprintf(w, "Candidate treatments for outcome %s:\n", outcome)
		for _, treat := range f.Treatments {
			fmt.Fprintf(w, "\t%s\n", treat)
		}
	}
	return err
}

// checkOutcome verifies the outcome is a known attribute, attaching
// similarity suggestions when it is not.
func (r *Reporter) checkOutcome(outcome string) error {
	attrs, err := r.knownAttributes()
	if err != nil {
		return err
	}
	for _, a := range attrs {
		if a == outcome {
			return nil
		}
	}
	return &UnknownOutcomeError{Outcome: outcome, Suggestions: Suggest(outcome, attrs)}
}

func (r *Reporter) knownAttributes() ([]string, error) {
	sols, err := r.engine.Query("attribute(X, T)")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(sols))
	var attrs []string
	for _, s := range sols {
		if a := s["X"]; a != "" && !seen[a] {
			seen[a] = true
			attrs = append(attrs, a)
		}
	}
	return attrs, nil
}

// distinctTreatments keeps the first occurrence of each binding of T, in
// derivation order. Rule resolution yields one solution per proof, so the
// same treatment can appear many times.
func distinctTreatments(sols []logic.Solution) []string {
	seen := make(map[string]bool, len(sols))
	var out []string
	for _, s := range sols {
		t := s["T"]
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
