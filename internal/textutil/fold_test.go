package textutil

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Beyoncé", "beyonce"},
		{"  The   Band ", "the band"},
		{"Sigur Rós", "sigur ros"},
		{"AC/DC", "ac dc"},
		{"Guns N' Roses", "guns n roses"},
		{"STRASSE", "strasse"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEqualFold(t *testing.T) {
	if !EqualFold("Björk", "bjork") {
		t.Fatal("expected diacritic-insensitive match")
	}
	if EqualFold("Björk", "Bjorn") {
		t.Fatal("unexpected match for different names")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AC/DC", "AC-DC"},
		{"What?", "What"},
		{"Title: Subtitle", "Title- Subtitle"},
		{"Ends With Dots...", "Ends With Dots"},
		{"  spaced  ", "spaced"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasStrayWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"The Band", false},
		{" The Band", true},
		{"The Band ", true},
		{"The  Band", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasStrayWhitespace(tt.in); got != tt.want {
			t.Errorf("HasStrayWhitespace(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
