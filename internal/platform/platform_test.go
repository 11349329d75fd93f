package platform

import "testing"

func TestResolveKnownProfiles(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"YouTube", 1080, 1920},
		{"YouTube Standard", 1920, 1080},
		{"TikTok", 1080, 1920},
		{"Instagram", 1080, 1920},
	}

	for _, tt := range tests {
		p := Resolve(tt.name)
		if p.Width != tt.width || p.Height != tt.height {
			t.Errorf("Resolve(%q) = %dx%d, want %dx%d", tt.name, p.Width, p.Height, tt.width, tt.height)
		}
		if p.Name != tt.name {
			t.Errorf("Resolve(%q).Name = %q", tt.name, p.Name)
		}
	}
}

func TestResolveUnknownFallsBackToDefault(t *testing.T) {
	for _, name := range []string{"Unknown-XYZ", "", "youtube"} {
		p := Resolve(name)
		if p.Width != DefaultWidth || p.Height != DefaultHeight {
			t.Errorf("Resolve(%q) = %dx%d, want default %dx%d", name, p.Width, p.Height, DefaultWidth, DefaultHeight)
		}
	}
}

func TestProfilesOrderIsStable(t *testing.T) {
	first := Profiles()
	second := Profiles()
	if len(first) != 4 {
		t.Fatalf("Profiles() returned %d entries, want 4", len(first))
	}
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Errorf("profile order changed between calls: %q vs %q", first[i].Name, second[i].Name)
		}
	}
}

func TestSuggestedCaption(t *testing.T) {
	if got := SuggestedCaption("TikTok"); got == "" {
		t.Error("TikTok caption is empty")
	}
	if got := SuggestedCaption("Unknown-XYZ"); got != "" {
		t.Errorf("unknown platform caption = %q, want empty", got)
	}
}
