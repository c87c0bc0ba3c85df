package normalize

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Théâtre", "theatre"},
		{"Müller", "muller"},
		{"VIP Ticket", "vip ticket"},
		{"", ""},
		{"Früh-Bucher", "fruh-bucher"},
	}

	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("  Day Pass\x00  "); got != "Day Pass" {
		t.Errorf("Sanitize() = %q, want %q", got, "Day Pass")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Festival", "summer-festival"},
		{"Atelier Müller e.V.", "atelier-muller-e-v"},
		{"  --Weird   Input-- ", "weird-input"},
		{"2026 Open Air", "2026-open-air"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
