package release

import (
	"slices"
	"testing"
)

func TestStripCategoryMarker(t *testing.T) {
	tests := []struct {
		title string
		want  string
		found []string
	}{
		{"Title (EP)", "Title", []string{"EP"}},
		{"Title [single]", "Title", []string{"single"}},
		{"Title (Deluxe) [EP] [WEB]", "Title (Deluxe) [WEB]", []string{"EP"}},
		{"Title (Album)", "Title (Album)", nil},
		{"(EP)", "(EP)", nil},
		{"Plain Title", "Plain Title", nil},
	}
	for _, tt := range tests {
		got, found := StripCategoryMarker(tt.title)
		if got != tt.want || !slices.Equal(found, tt.found) {
			t.Errorf("StripCategoryMarker(%q) = %q, %v; want %q, %v", tt.title, got, found, tt.want, tt.found)
		}
	}
}

func TestStripSourceMarker(t *testing.T) {
	if got, found := StripSourceMarker("Title [WEB]"); got != "Title" || len(found) != 1 {
		t.Fatalf("got %q, %v", got, found)
	}
	if got, found := StripSourceMarker("Title (CD)"); got != "Title (CD)" || found != nil {
		t.Fatalf("CD is not a marker, got %q, %v", got, found)
	}
	if got := StripMarkers("Title (EP) {Vinyl}"); got != "Title" {
		t.Fatalf("StripMarkers = %q", got)
	}
}
