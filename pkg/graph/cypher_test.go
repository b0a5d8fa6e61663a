package graph

import "testing"

func TestQueryBuilderDeterministic(t *testing.T) {
	build := func() (string, map[string]any) {
		return NewQueryBuilder().
			Match("(p:Person {id: $id})").
			Return("p").
			Limit("k", 5).
			Build()
	}

	q1, p1 := build()
	q2, p2 := build()

	if q1 != q2 {
		t.Errorf("QueryBuilder produced different text across identical calls:\n%q\n%q", q1, q2)
	}
	if p1["k"] != p2["k"] {
		t.Errorf("QueryBuilder params differ across identical calls: %v vs %v", p1, p2)
	}
}

func TestQueryBuilderLimitNeverInlinesLiteral(t *testing.T) {
	q, params := NewQueryBuilder().Match("(n)").Return("n").Limit("k", 42).Build()

	if params["k"] != 42 {
		t.Errorf("params[k] = %v, want 42", params["k"])
	}
	if want := "LIMIT $k"; !containsLine(q, want) {
		t.Errorf("query %q does not contain %q", q, want)
	}
}

func containsLine(q, line string) bool {
	for _, l := range splitLines(q) {
		if l == line {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
