package condition

import (
	"testing"

	"taskweaver/internal/task"
)

func TestEvalLiterals(t *testing.T) {
	for _, tc := range []struct {
		expr string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"!true", false},
		{"!false", true},
		{"true && false", false},
		{"true || false", true},
		{"!true || !false", true},
	} {
		got, err := Eval(tc.expr, nil)
		if err != nil {
			t.Fatalf("Eval(%q): %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvalEnvLookup(t *testing.T) {
	env := []task.EnvVar{{Key: "ENV", Value: "prod"}}
	got, err := Eval(`ENV == "prod"`, env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Fatal("expected true for matching env value")
	}
	got, err = Eval(`ENV != "staging"`, env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Fatal("expected true for non-matching comparison")
	}
}

func TestEvalUnsetIdentIsEmptyString(t *testing.T) {
	got, err := Eval(`MISSING == ""`, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Fatal("expected unset ident to equal empty string")
	}
}

func TestEvalParens(t *testing.T) {
	got, err := Eval(`(true || false) && !false`, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Fatal("expected true")
	}
}

func TestEvalMalformedExpression(t *testing.T) {
	_, err := Eval(`(true`, nil)
	if err == nil {
		t.Fatal("expected parse error for unbalanced paren")
	}
}
