package core

import "testing"

func TestCanonicalRegion(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", AllRegions, true},
		{"Brasil", AllRegions, true},
		{"sul", Sul, true},
		{"CENTRO-OESTE", CentroOeste, true},
		{" Nordeste ", Nordeste, true},
		{"Pampa", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalRegion(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("CanonicalRegion(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEveryStateHasOneRegion(t *testing.T) {
	total := 0
	for _, r := range Regions() {
		if r == AllRegions {
			continue
		}
		for _, uf := range StatesOf(r) {
			if RegionOf(uf) != r {
				t.Fatalf("%s maps to %q, want %q", uf, RegionOf(uf), r)
			}
			total++
		}
	}
	if total != 27 {
		t.Fatalf("expected 27 federative units, got %d", total)
	}
	if RegionOf("XX") != "" {
		t.Fatalf("unknown state must have no region")
	}
}
