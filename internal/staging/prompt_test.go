package staging

import (
	"strings"
	"testing"
)

func TestStyleByID(t *testing.T) {
	s, ok := StyleByID("scandi")
	if !ok {
		t.Fatal("scandi preset missing")
	}
	if s.Label != "Scandinavian" {
		t.Errorf("label = %q", s.Label)
	}
	if _, ok := StyleByID("baroque"); ok {
		t.Error("unknown id resolved")
	}
}

func TestBuildInstruction(t *testing.T) {
	got := BuildInstruction("Stage it.", "Kitchen")
	for _, want := range []string{
		"Expert AI Real Estate Stager",
		"This is a Kitchen.",
		"Task: Stage it.",
		"remain 100% identical",
		"realistically scaled for a Kitchen",
		"One single transformed image.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("instruction missing %q:\n%s", want, got)
		}
	}
}

func TestRefinementTask(t *testing.T) {
	got := RefinementTask("Make it brighter")
	want := "Refine this design with the following request: Make it brighter. Keep the existing style and architecture consistent."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestResolveAspectRatio(t *testing.T) {
	tests := []struct {
		name   string
		choice string
		w, h   int
		want   string
	}{
		{"explicit choice wins", "9:16", 1600, 1200, "9:16"},
		{"auto landscape", AspectRatioAuto, 1600, 1200, "4:3"},
		{"auto wide", AspectRatioAuto, 1920, 1080, "16:9"},
		{"auto portrait", AspectRatioAuto, 1080, 1920, "9:16"},
		{"auto square", AspectRatioAuto, 1000, 1020, "1:1"},
		{"auto tall", AspectRatioAuto, 1200, 1600, "3:4"},
		{"unknown dimensions", AspectRatioAuto, 0, 0, "4:3"},
		{"empty choice falls back", "", 0, 0, "4:3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveAspectRatio(tt.choice, tt.w, tt.h); got != tt.want {
				t.Errorf("ResolveAspectRatio(%q, %d, %d) = %q, want %q", tt.choice, tt.w, tt.h, got, tt.want)
			}
		})
	}
}
