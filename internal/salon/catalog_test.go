package salon

import (
	"strings"
	"testing"
)

func TestResolveProfessionalPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"Carla", "Carla", true},
		{"Car", "Carla", true},
		{"car", "Carla", true},
		{"ana", "Ana", true},
		{"quero a Beatriz por favor", "Beatriz", true},
		{"bea", "Beatriz", true},
		{"  Ana  ", "Ana", true},
		{"Marcela", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveProfessional(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ResolveProfessional(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSlotCatalogOrder(t *testing.T) {
	want := []string{"10:00", "11:00", "14:00", "16:00"}
	if len(SlotCatalog) != len(want) {
		t.Fatalf("unexpected catalog size %d", len(SlotCatalog))
	}
	for i, s := range want {
		if SlotCatalog[i] != s {
			t.Fatalf("catalog[%d] = %s, want %s", i, SlotCatalog[i], s)
		}
	}
	for _, s := range want {
		if !KnownSlot(s) {
			t.Fatalf("expected %s to be a known slot", s)
		}
	}
	if KnownSlot("13:00") {
		t.Fatalf("13:00 should not be in the catalog")
	}
}

func TestServiceCatalogListsAllAreas(t *testing.T) {
	out := ServiceCatalog()
	for _, area := range []string{"Cabelo", "Unhas", "Estética"} {
		if !strings.Contains(out, area) {
			t.Fatalf("service catalog missing area %s: %s", area, out)
		}
	}
}
