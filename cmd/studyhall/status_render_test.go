package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"studyhall/internal/preflight"
	"studyhall/internal/studyapi"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Backend", statusError, "unreachable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Backend:", "[ERROR] unreachable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Backend", statusOK, "reachable", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "Backend", Passed: true, Detail: "reachable"},
		{Name: "LLM", Passed: true, Detail: "Disabled (AI generation returns 503)"},
		{Name: "API token", Detail: "missing"},
	}, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] reachable") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[INFO] Disabled") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[ERROR] missing") {
		t.Fatalf("unexpected third line %q", lines[2])
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := map[int]string{
		0:   "[....................]",
		50:  "[##########..........]",
		100: "[####################]",
		140: "[####################]",
		-5:  "[....................]",
	}
	for pct, want := range tests {
		if got := renderProgressBar(pct); got != want {
			t.Fatalf("renderProgressBar(%d) = %q, want %q", pct, got, want)
		}
	}
}

func TestShouldColorizeRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(os.Stdout) {
		t.Fatalf("expected NO_COLOR to disable color")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestDescribeError(t *testing.T) {
	apiErr := &studyapi.APIError{Op: "get document", StatusCode: 404, Message: "Document not found"}
	if got := describeError(fmt.Errorf("wrapped: %w", apiErr)); got != "Error: Document not found" {
		t.Fatalf("unexpected api error description %q", got)
	}
	if got := describeError(errors.New("boom")); got != "Error: boom" {
		t.Fatalf("unexpected plain error description %q", got)
	}
}

func TestLineConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tc := range tests {
		var out strings.Builder
		ok, err := lineConfirmer(strings.NewReader(tc.input), &out).Confirm(context.Background(), "Delete?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", tc.input, err)
		}
		if ok != tc.want {
			t.Fatalf("Confirm(%q) = %v, want %v", tc.input, ok, tc.want)
		}
		if out.String() != "Delete? [y/N]: " {
			t.Fatalf("unexpected prompt %q", out.String())
		}
	}
}
