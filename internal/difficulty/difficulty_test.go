package difficulty

import "testing"

func TestParse_Known(t *testing.T) {
	cases := map[string]Difficulty{
		"easy":     Easy,
		"EASY":     Easy,
		" Medium ": Medium,
		"hard":     Hard,
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParse_FailsClosedToMedium(t *testing.T) {
	for _, in := range []string{"", "nightmare", "3"} {
		if got := Parse(in); got != Medium {
			t.Errorf("Parse(%q) = %q, want %q", in, got, Medium)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, ok := Lookup("impossible"); ok {
		t.Error("Lookup() should reject unknown difficulty")
	}
}

func TestLabel(t *testing.T) {
	if Easy.Label() != "Easy" || Medium.Label() != "Medium" || Hard.Label() != "Hard" {
		t.Error("unexpected labels")
	}
}
