package random

import "testing"

func TestNewSeedVaries(t *testing.T) {
	first, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	second, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct seeds, got %d twice", first)
	}
}

func TestNewRand(t *testing.T) {
	rng, err := NewRand()
	if err != nil {
		t.Fatalf("new rand: %v", err)
	}
	if v := rng.IntN(10); v < 0 || v >= 10 {
		t.Fatalf("IntN out of range: %d", v)
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a := Seeded(42)
	b := Seeded(42)
	for i := 0; i < 16; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}
