package logic

import (
	"fmt"
	"sync"
	"testing"
)

// movieStudioFacts builds the canonical two-table scenario: movies carries
// the outcome column and a release timestamp, studios carries a coded studio
// column with the given level count and a founding timestamp, and a foreign
// key links movies to studios.
func movieStudioFacts(studioLevels int) []string {
	return []string{
		"table(movies)",
		"recordCount(movies, 1000)",
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
}

func queryTreatments(t *testing.T, e *Engine, goal string) map[string]bool {
	t.Helper()
	sols, err := e.Query(goal)
	if err != nil {
		t.Fatalf("Query(%q) error = %v", goal, err)
	}
	seen := make(map[string]bool)
	treatments := make(map[string]bool)
	for _, s := range sols {
		if key := s.Key(); seen[key] {
			continue
		} else {
			seen[key] = true
		}
		treatments[s["T"]] = true
	}
	return treatments
}

func TestNonequivControlGroupScenario(t *testing.T) {
	e := buildEngine(t, movieStudioFacts(15)...)

	treatments := queryTreatments(t, e, "nonequivControlGroup(movies_gross, T)")
	if !treatments["studios_studio"] {
		t.Errorf("studios_studio missing from candidates: %v", treatments)
	}
	if treatments["movies_gross"] {
		t.Error("outcome attribute listed as its own treatment")
	}
	// 600 levels puts the outcome's own cardinality far over the bound, and
	// the release date is not numeric.
	if treatments["movies_release_date"] {
		t.Error("time attribute listed as treatment")
	}
}

func TestLevelBoundRemovesCandidate(t *testing.T) {
	e := buildEngine(t, movieStudioFacts(40)...)

	treatments := queryTreatments(t, e, "nonequivControlGroup(movies_gross, T)")
	if treatments["studios_studio"] {
		t.Error("studios_studio still a candidate at 40 levels (bound is < 30)")
	}
}

func TestCounterbalancedRequiresRotation(t *testing.T) {
	e := buildEngine(t, movieStudioFacts(15)...)
	treatments := queryTreatments(t, e, "counterbalancedDesign(movies_gross, T)")
	if !treatments["studios_studio"] {
		t.Errorf("15 levels should qualify for counterbalanced rotation: %v", treatments)
	}

	// Three levels support a nonequivalent control group but not rotation
	// among >= 4 conditions.
	e = buildEngine(t, movieStudioFacts(3)...)
	if ts := queryTreatments(t, e, "counterbalancedDesign(movies_gross, T)"); ts["studios_studio"] {
		t.Error("3 levels should not qualify for counterbalanced design")
	}
	if ts := queryTreatments(t, e, "nonequivControlGroup(movies_gross, T)"); !ts["studios_studio"] {
		t.Error("3 levels should still qualify for nonequivalent control group")
	}
}

func TestSuitableAsTreatmentNeverSelf(t *testing.T) {
	e := buildEngine(t, movieStudioFacts(15)...)

	sols, err := e.Query("suitableAsTreatment(X, X)")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(sols) != 0 {
		t.Errorf("self-treatment derived: %v", sols)
	}
}

func TestSamplesPerLevelBound(t *testing.T) {
	// 100 outcome records over 15 treatment levels is under the 20-per-level
	// bound, so nothing qualifies.
	facts := movieStudioFacts(15)
	facts[1] = "recordCount(movies, 100)"
	e := buildEngine(t, facts...)

	treatments := queryTreatments(t, e, "suitableAsTreatment(T, movies_gross)")
	if len(treatments) != 0 {
		t.Errorf("expected no suitable treatments at 100 records, got %v", treatments)
	}
}

func TestQEDAlias(t *testing.T) {
	e := buildEngine(t, movieStudioFacts(15)...)

	nonequiv := queryTreatments(t, e, "nonequivControlGroup(movies_gross, T)")
	alias := queryTreatments(t, e, "qed(movies_gross, T)")
	if len(nonequiv) != len(alias) {
		t.Errorf("qed alias differs: %v vs %v", alias, nonequiv)
	}
	for treat := range nonequiv {
		if !alias[treat] {
			t.Errorf("qed alias missing %s", treat)
		}
	}
}

func TestDeduplicationIdempotent(t *testing.T) {
	e := buildEngine(t, movieStudioFacts(15)...)

	first := queryTreatments(t, e, "nonequivControlGroup(movies_gross, T)")
	second := queryTreatments(t, e, "nonequivControlGroup(movies_gross, T)")
	if len(first) != len(second) {
		t.Fatalf("dedup not idempotent: %v vs %v", first, second)
	}
	for k := range first {
		if !second[k] {
			t.Errorf("second run missing %s", k)
		}
	}
}

func TestConcurrentQueriesOnSharedEngine(t *testing.T) {
	e := buildEngine(t, movieStudioFacts(15)...)

	want := map[string]map[string]bool{
		"nonequivControlGroup(movies_gross, T)":  queryTreatments(t, e, "nonequivControlGroup(movies_gross, T)"),
		"counterbalancedDesign(movies_gross, T)": queryTreatments(t, e, "counterbalancedDesign(movies_gross, T)"),
	}

	var wg sync.WaitGroup
	errc := make(chan error, 8*len(want))
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for goal, expected := range want {
				sols, err := e.Query(goal)
				if err != nil {
					errc <- fmt.Errorf("Query(%q) error: %w", goal, err)
					return
				}
				got := make(map[string]bool)
				for _, s := range sols {
					got[s["T"]] = true
				}
				if len(got) != len(expected) {
					errc <- fmt.Errorf("Query(%q) = %v, want %v", goal, got, expected)
					return
				}
				for treat := range expected {
					if !got[treat] {
						errc <- fmt.Errorf("Query(%q) missing %s", goal, treat)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Error(err)
	}
}
