package logging

import "testing"

func TestParseLevelKnownAndDefault(t *testing.T) {
	cases := map[string]Level{
		"trace": TRACE,
		"DEBUG": DEBUG,
		"Info":  INFO, // mixed case falls through to the default
		"warn":  WARN,
		"ERROR": ERROR,
		"":      INFO,
		"bogus": INFO,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestSetLevelFiltersLowerSeverity(t *testing.T) {
	defer SetLevel(INFO)

	SetLevel(ERROR)
	if getLevel() != ERROR {
		t.Fatalf("getLevel() = %v, want ERROR", getLevel())
	}

	l := New("test")
	// Below-threshold calls must not panic even though they're filtered out.
	l.Trace("ignored")
	l.Debug("ignored")
	l.Info("ignored")
	l.Warn("ignored")
	l.Error("recorded")
}

func TestLevelString(t *testing.T) {
	if TRACE.String() != "TRACE" {
		t.Fatalf("TRACE.String() = %q", TRACE.String())
	}
	if Level(99).String() != "UNKNOWN" {
		t.Fatalf("Level(99).String() = %q, want UNKNOWN", Level(99).String())
	}
}
