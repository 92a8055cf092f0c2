package core

import "testing"

func TestParameterSnapshotLookup(t *testing.T) {
	snap := ParameterSnapshot{Groups: []ParameterGroup{
		{Name: "A", Params: []Parameter{{Key: "w", Value: "3"}}},
		{Name: "B", Params: []Parameter{{Key: "interval", Value: "16"}}},
	}}
	p, ok := snap.Lookup("interval")
	if !ok || p.Value != "16" {
		t.Fatalf("Lookup(interval) = %+v, %v", p, ok)
	}
	if _, ok := snap.Lookup("missing"); ok {
		t.Fatal("unexpected parameter")
	}
}

func TestParameterControlAdjust(t *testing.T) {
	ctrl := ParameterControl{Key: "interval", Factor: 4, Min: 1, Max: 65536}
	cases := []struct {
		value, dir, want int
		ok               bool
	}{
		{16, 1, 64, true},
		{16, -1, 4, true},
		{3, -1, 1, true},
		{1, -1, 1, false},
		{30000, 1, 65536, true},
		{65536, 1, 65536, false},
		{16, 0, 16, false},
	}
	for _, tc := range cases {
		got, ok := ctrl.Adjust(tc.value, tc.dir)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Adjust(%d, %d) = %d, %v; want %d, %v", tc.value, tc.dir, got, ok, tc.want, tc.ok)
		}
	}
}
