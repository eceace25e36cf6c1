package report

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/dgarant/qed/pkg/logic"
)

func movieEngine(t *testing.T, studioLevels, movieRecords int) *logic.Engine {
	t.Helper()
	kb, err := logic.NewQEDKnowledgeBase()
	if err != nil {
		t.Fatalf("NewQEDKnowledgeBase() error = %v", err)
	}
	facts := []string{
		"table(movies)",
		fmt.Sprintf("recordCount(movies, %d)", movieRecords),
		"attribute(movies_gross, movies)",
		"dataType(movies_gross, numeric)",
		"levels(movies_gross, 600)",
		"attribute(movies_release_date, movies)",
		"dataType(movies_release_date, time)",
		"levels(movies_release_date, 900)",
		"attribute(movies_studio_id, movies)",
		"dataType(movies_studio_id, numeric)",
		"levels(movies_studio_id, 15)",
		"table(studios)",
		"recordCount(studios, 15)",
		"attribute(studios_id, studios)",
		"dataType(studios_id, numeric)",
		"levels(studios_id, 15)",
		"primaryKey(studios_id, studios)",
		"attribute(studios_studio, studios)",
		"dataType(studios_studio, numeric)",
		fmt.Sprintf("levels(studios_studio, %d)", studioLevels),
		"attribute(studios_founded, studios)",
		"dataType(studios_founded, time)",
		"levels(studios_founded, 12)",
		"related(studios, movies, fk_movies_studio_id)",
		"key(studios_id, fk_movies_studio_id)",
		"key(movies_studio_id, fk_movies_studio_id)",
		"averageManySize(fk_movies_studio_id, 66.7)",
	}
	if err := kb.LoadClauses(facts); err != nil {
		t.Fatalf("LoadClauses() error = %v", err)
	}
	return logic.NewEngine(kb)
}

func TestReportBothDesigns(t *testing.T) {
	r := NewReporter(movieEngine(t, 15, 1000), nil)

	var buf strings.Builder
	if err := r.Report(&buf, "movies_gross"); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Nonequivalent Control Group Design",
		"Counterbalanced Designs",
		"Candidate treatments for outcome movies_gross:",
		"\tstudios_studio\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\tstudios_studio\n"); n != 2 {
		t.Errorf("studios_studio listed %d times, want once per design", n)
	}
}

func TestReportCounterbalancedNeedsLevels(t *testing.T) {
	// Three treatment levels qualify for the control-group design only.
	r := NewReporter(movieEngine(t, 3, 1000), nil)

	findings, err := r.Findings("movies_gross")
	if err != nil {
		t.Fatalf("Findings() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Findings() returned %d designs, want 2", len(findings))
	}

	byPred := make(map[string][]string)
	for _, f := range findings {
		byPred[f.Design.Predicate] = f.Treatments
	}
	if got := byPred["nonequivControlGroup"]; !contains(got, "studios_studio") {
		t.Errorf("control-group treatments = %v, want studios_studio", got)
	}
	if got := byPred["counterbalancedDesign"]; contains(got, "studios_studio") {
		t.Errorf("counterbalanced treatments = %v, want none", got)
	}
}

func TestReportNoFindingsPrintsNoSections(t *testing.T) {
	// Too few outcome records for any treatment, so no design section.
	r := NewReporter(movieEngine(t, 15, 100), nil)

	var buf strings.Builder
	if err := r.Report(&buf, "movies_gross"); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if out := buf.String(); strings.Contains(out, "Candidate treatments") {
		t.Errorf("unexpected report output:\n%s", out)
	}
}

func TestReportUnknownOutcome(t *testing.T) {
	r := NewReporter(movieEngine(t, 15, 1000), nil)

	var buf strings.Builder
	err := r.Report(&buf, "movies_grosss")

	var unknown *UnknownOutcomeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Report() error = %v, want *UnknownOutcomeError", err)
	}
	if unknown.Outcome != "movies_grosss" {
		t.Errorf("Outcome = %q", unknown.Outcome)
	}
	if !contains(unknown.Suggestions, "movies_gross") {
		t.Errorf("Suggestions = %v, want movies_gross", unknown.Suggestions)
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{
		"movies_gross", "movies_release_date", "movies_studio_id",
		"studios_studio", "studios_founded",
	}
	tests := []struct {
		query string
		want  []string
	}{
		{query: "movies_gross", want: []string{"movies_gross"}},
		{query: "gross", want: []string{"movies_gross"}},
		{query: "movies_gorss", want: []string{"movies_gross"}},
		{query: "zzzzzzzz", want: nil},
		{query: "", want: nil},
	}
	for _, tt := range tests {
		got := Suggest(tt.query, candidates)
		if tt.want == nil {
			if len(got) != 0 {
				t.Errorf("Suggest(%q) = %v, want none", tt.query, got)
			}
			continue
		}
		if len(got) == 0 || got[0] != tt.want[0] {
			t.Errorf("Suggest(%q) = %v, want %v first", tt.query, got, tt.want)
		}
	}
}

func TestDistinctTreatmentsKeepsOrder(t *testing.T) {
	sols := []logic.Solution{
		{"T": "a"}, {"T": "b"}, {"T": "a"}, {"T": "c"}, {"T": "b"},
	}
	if got := distinctTreatments(sols); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("distinctTreatments() = %v", got)
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
