package services_test

import (
	"errors"
	"strings"
	"testing"

	"pfbverify/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "dspsr", "fold", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"dspsr", "fold", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestDetailsClassifiesMarker(t *testing.T) {
	err := services.Wrap(services.ErrMissingArtifact, "channelize", "load", "output absent", nil)
	details := services.Details(err)
	if details.Kind != services.ErrMissingArtifact.Error() {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if strings.HasPrefix(details.Message, "missing artifact") {
		t.Fatalf("expected marker stripped from message, got %q", details.Message)
	}
	if got := services.Details(nil); got.Kind != "" || got.Message != "" {
		t.Fatalf("expected empty details for nil, got %+v", got)
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{services.Wrap(services.ErrConfiguration, "config", "", "", nil), 2},
		{services.Wrap(services.ErrExternalTool, "dspsr", "", "", nil), 3},
		{services.Wrap(services.ErrMissingArtifact, "dspsr", "", "", nil), 4},
		{services.Wrap(services.ErrArithmeticDomain, "rational", "", "", nil), 5},
		{errors.New("plain"), 1},
	}
	for _, tc := range cases {
		if got := services.ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
