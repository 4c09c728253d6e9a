package shared

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"underscores become spaces", "brighter_than_today", "brighter than today"},
		{"trims whitespace", "  Time Wrote the Rocks  ", "Time Wrote the Rocks"},
		{"plain title unchanged", "Bitter Wind Blown", "Bitter Wind Blown"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTitle(tc.input); got != tc.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTitleKey(t *testing.T) {
	if TitleKey("Brighter_Than_Today") != TitleKey("brighter than today") {
		t.Error("expected keys for underscore and space forms to match")
	}
	if TitleKey("Brighter Than Today") == TitleKey("Darker Than Today") {
		t.Error("expected distinct titles to have distinct keys")
	}
}

func TestLabelFromFilename(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"strips extension", "five_thousand_years.txt", "five thousand years"},
		{"handles paths", "archive/songs/gen/five_thousand_years.ly", "five thousand years"},
		{"no extension", "chorus", "chorus"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LabelFromFilename(tc.input); got != tc.want {
				t.Errorf("LabelFromFilename(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestRawLabel(t *testing.T) {
	if got := RawLabel("five_thousand_years.txt"); got != "five_thousand_years" {
		t.Errorf("RawLabel = %q, want %q", got, "five_thousand_years")
	}
}

func TestSlugKey(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Five Thousand Years", "five-thousand-years"},
		{"What's_This?", "what-s-this"},
		{"  edge  ", "edge"},
	}

	for _, tc := range cases {
		if got := SlugKey(tc.input); got != tc.want {
			t.Errorf("SlugKey(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
