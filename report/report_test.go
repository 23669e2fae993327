package report

import (
	"strings"
	"testing"
)

func TestFailureStringIncludesMethodAndDiagnostic(t *testing.T) {
	f := NewFailure("CreateFile", []any{"x"}, 1, 3, "predicate rejected implementation return false")
	s := f.String()
	for _, want := range []string{"CreateFile", "predicate rejected"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected failure string %q to contain %q", s, want)
		}
	}
}

func TestFailureStringReportsPanics(t *testing.T) {
	f := NewFailure("CreateFile", []any{"x"}, 0, 1, "")
	f.PanicValue = "boom"
	s := f.String()
	if !strings.Contains(s, "panic=boom") {
		t.Errorf("expected failure string %q to report the panic value", s)
	}
}

func TestContractViolationError(t *testing.T) {
	cv := NewContractViolation("CreateFile", []any{"x"}, true, "predicate rejected implementation return true")
	err := cv.Error()
	if !strings.Contains(err, "CreateFile") || !strings.Contains(err, "contract violation") {
		t.Errorf("expected contract violation error %q to name the method and say \"contract violation\"", err)
	}
}

func TestNewFailureAssignsDistinctRunIDs(t *testing.T) {
	a := NewFailure("m", nil, 0, 1, "")
	b := NewFailure("m", nil, 0, 1, "")
	if a.RunID == b.RunID {
		t.Errorf("expected each Failure to get its own run id")
	}
}
