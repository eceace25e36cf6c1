package logic

import (
	"reflect"
	"testing"
)

func TestParseClause(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Clause
		wantErr bool
	}{
		{
			name: "Ground Fact",
			line: "related(studios, movies, fk_movies_studio)",
			want: Clause{Head: Literal{Predicate: "related", Args: []Term{Const("studios"), Const("movies"), Const("fk_movies_studio")}}},
		},
		{
			name: "Fact With Trailing Dot",
			line: "table(movies).",
			want: Clause{Head: Literal{Predicate: "table", Args: []Term{Const("movies")}}},
		},
		{
			name: "Numeric Fact",
			line: "recordCount(movies, 1000)",
			want: Clause{Head: Literal{Predicate: "recordCount", Args: []Term{Const("movies"), Number(1000)}}},
		},
		{
			name: "Float Fact",
			line: "averageManySize(fk_movies_studio, 66.7)",
			want: Clause{Head: Literal{Predicate: "averageManySize", Args: []Term{Const("fk_movies_studio"), Number(66.7)}}},
		},
		{
			name: "Simple Rule",
			line: "tablesDirectlyRelated(X, Y) :- related(Y, X, R)",
			want: Clause{
				Head: Literal{Predicate: "tablesDirectlyRelated", Args: []Term{Var("X"), Var("Y")}},
				Body: []Literal{{Predicate: "related", Args: []Term{Var("Y"), Var("X"), Var("R")}}},
			},
		},
		{
			name: "Rule With Negation And Cons",
			line: `tablesRelatedByPath(X, Y, P) :- tablesDirectlyRelated(Z, X), \+ member(Z, P), tablesRelatedByPath(Z, Y, [X|P])`,
			want: Clause{
				Head: Literal{Predicate: "tablesRelatedByPath", Args: []Term{Var("X"), Var("Y"), Var("P")}},
				Body: []Literal{
					{Predicate: "tablesDirectlyRelated", Args: []Term{Var("Z"), Var("X")}},
					{Predicate: "member", Args: []Term{Var("Z"), Var("P")}, Negated: true},
					{Predicate: "tablesRelatedByPath", Args: []Term{Var("Z"), Var("Y"), List{Items: []Term{Var("X")}, Tail: Var("P")}}},
				},
			},
		},
		{
			name: "Rule With Comparisons",
			line: `suitable(T, O) :- levels(T, L), L < 30, R / L > 20, T \= O`,
			want: Clause{
				Head: Literal{Predicate: "suitable", Args: []Term{Var("T"), Var("O")}},
				Body: []Literal{
					{Predicate: "levels", Args: []Term{Var("T"), Var("L")}},
					{Predicate: "<", Args: []Term{Var("L"), Number(30)}},
					{Predicate: ">", Args: []Term{Expr{Left: Var("R"), Right: Var("L")}, Number(20)}},
					{Predicate: `\=`, Args: []Term{Var("T"), Var("O")}},
				},
			},
		},
		{
			name: "Empty List Argument",
			line: "tablesRelatedByPath(X, Y) :- tablesRelatedByPath(X, Y, [])",
			want: Clause{
				Head: Literal{Predicate: "tablesRelatedByPath", Args: []Term{Var("X"), Var("Y")}},
				Body: []Literal{{Predicate: "tablesRelatedByPath", Args: []Term{Var("X"), Var("Y"), List{}}}},
			},
		},
		{
			name:    "Missing Paren",
			line:    "table(movies",
			wantErr: true,
		},
		{
			name:    "Empty Line",
			line:    "",
			wantErr: true,
		},
		{
			name:    "Negated Head",
			line:    `\+ table(movies)`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClause(tt.line)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseClause() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseClause() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseGoal(t *testing.T) {
	got, err := ParseGoal("suitableAsTreatment(Treat, Out), variesWithTime(Treat, Out)")
	if err != nil {
		t.Fatalf("ParseGoal() error = %v", err)
	}
	want := []Literal{
		{Predicate: "suitableAsTreatment", Args: []Term{Var("Treat"), Var("Out")}},
		{Predicate: "variesWithTime", Args: []Term{Var("Treat"), Var("Out")}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseGoal() = %v, want %v", got, want)
	}

	if _, err := ParseGoal("  "); err == nil {
		t.Error("ParseGoal() expected error for blank goal")
	}
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		raw  string
		want Term
	}{
		{"movies", Const("movies")},
		{"X", Var("X")},
		{"_anon", Var("_anon")},
		{"42", Number(42)},
		{"66.7", Number(66.7)},
		{`"quoted atom"`, Const("quoted atom")},
		{"'single'", Const("single")},
		{"[a, b]", List{Items: []Term{Const("a"), Const("b")}}},
		{"[X|P]", List{Items: []Term{Var("X")}, Tail: Var("P")}},
		{"[]", List{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTerm(tt.raw)
			if err != nil {
				t.Fatalf("ParseTerm(%q) error = %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTerm(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}

	if _, err := ParseTerm("f(x)"); err == nil {
		t.Error("ParseTerm() should reject compound terms")
	}
}

func TestSmartSplit(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{`a, "b,c", d`, []string{"a", `"b,c"`, "d"}},
		{"member(Z, P), rel(Z, Y, [X|P])", []string{"member(Z, P)", "rel(Z, Y, [X|P])"}},
		{"[a, b], c", []string{"[a, b]", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SmartSplit(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SmartSplit(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClauseRoundTrip(t *testing.T) {
	lines := []string{
		"table(movies)",
		"recordCount(movies, 1000)",
		`suitableAsTreatment(T, O) :- attribute(O, OTable), recordCount(OTable, OutRecords), isNumeric(T), levels(T, TreatLevels), TreatLevels < 30, OutRecords / TreatLevels > 20, T \= O`,
	}
	for _, line := range lines {
		c, err := ParseClause(line)
		if err != nil {
			t.Fatalf("ParseClause(%q) error = %v", line, err)
		}
		if got := c.String(); got != line {
			t.Errorf("round trip = %q, want %q", got, line)
		}
	}
}
