package diag

import (
	"strings"
	"testing"
)

func TestInfoLogLine(t *testing.T) {
	d := New(KindType, Span{Start: Position{Line: 3, Column: 7}}, "integer varying %q must be qualified flat", "v")
	want := "ERROR: integer varying \"v\" must be qualified flat (3:7)"
	if got := d.InfoLogLine(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	w := New(KindWarning, Span{}, "unused uniform")
	if strings.HasPrefix(w.InfoLogLine(), "ERROR:") {
		t.Error("warnings must not carry the ERROR: prefix")
	}
}

func TestDiagnosticsAccumulate(t *testing.T) {
	var ds Diagnostics
	if ds.HasErrors() {
		t.Error("empty list has no errors")
	}
	ds.Addf(KindWarning, Span{}, "just a warning")
	if ds.HasErrors() {
		t.Error("warnings alone are not errors")
	}
	ds.Addf(KindSyntax, Span{Start: Position{Line: 1, Column: 2}}, "unexpected token")
	ds.Addf(KindLink, Span{}, "unmatched varying")
	if !ds.HasErrors() {
		t.Error("expected errors")
	}

	log := ds.InfoLog()
	lines := strings.Split(strings.TrimRight(log, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 log lines, got %d:\n%s", len(lines), log)
	}
	if !strings.Contains(lines[1], "(1:2)") {
		t.Errorf("line should carry position, got %q", lines[1])
	}
}

func TestDiagnosticsError(t *testing.T) {
	var ds Diagnostics
	ds.Addf(KindType, Span{}, "first")
	ds.Addf(KindType, Span{}, "second")
	if !strings.Contains(ds.Error(), "first") || !strings.Contains(ds.Error(), "1 more") {
		t.Errorf("unexpected summary: %q", ds.Error())
	}
}

func TestInternalError(t *testing.T) {
	defer func() {
		r := recover()
		ie, ok := r.(*InternalError)
		if !ok {
			t.Fatalf("expected *InternalError panic, got %#v", r)
		}
		if !strings.Contains(ie.Error(), "internal invariant violation") {
			t.Errorf("unexpected message: %q", ie.Error())
		}
	}()
	Internalf("classifier and emitter disagree on %q", "f")
}
