package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseInputs(t *testing.T) {
	got, err := parseInputs([]string{"env=staging", " debug =true", "query=a=b"})
	if err != nil {
		t.Fatalf("parseInputs: %v", err)
	}

	want := map[string]string{"env": "staging", "debug": "true", "query": "a=b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}

	if _, err := parseInputs([]string{"novalue"}); err == nil {
		t.Fatal("expected error for input without '='")
	}

	if got, err := parseInputs(nil); err != nil || got != nil {
		t.Fatalf("expected nil inputs, got %v, %v", got, err)
	}
}
