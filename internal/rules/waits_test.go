package rules

import (
	"reflect"
	"testing"

	"github.com/minefield/server/internal/tile"
)

func waitsOf(t *testing.T, hand string) []tile.Tile {
	t.Helper()
	return Waits(parseTiles(t, hand), ScoringContext{Riichi: true})
}

func TestWaitsKokushiThirteenSided(t *testing.T) {
	got := waitsOf(t, "M1 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7")
	want := []tile.Tile{"M1", "M9", "P1", "P9", "S1", "S9", "X1", "X2", "X3", "X4", "X5", "X6", "X7"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWaitsMultiple(t *testing.T) {
	got := waitsOf(t, "M6 M7 M8 P6 P7 P8 S2 S3 S4 S5 S6 S7 S8")
	want := []tile.Tile{"S2", "S5", "S8"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWaitsNone(t *testing.T) {
	if got := waitsOf(t, "M2 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7"); len(got) != 0 {
		t.Fatalf("junk hand should have no waits, got %v", got)
	}
}

func TestWaitsRequireYaku(t *testing.T) {
	// Structurally complete on X1, but without the standing-riichi context
	// the completed hand has no yaku, so X1 is not a wait.
	hand := parseTiles(t, "M1 M2 M3 M4 M5 M6 M6 M7 M8 P2 P2 P2 X1")
	if got := Waits(hand, ScoringContext{}); len(got) != 0 {
		t.Fatalf("yaku-less completions must not count as waits, got %v", got)
	}
	if got := Waits(hand, ScoringContext{Riichi: true}); len(got) != 1 || got[0] != "X1" {
		t.Fatalf("with riichi the X1 completion should win, got %v", got)
	}
}

func TestWaitsConsistentWithBestHand(t *testing.T) {
	hands := []string{
		"M6 M7 M8 P6 P7 P8 S2 S3 S4 S5 S6 S7 S8",
		"M1 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7",
		"M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4",
	}
	opts := ScoringContext{Riichi: true}
	for _, hs := range hands {
		h13 := parseTiles(t, hs)
		waits := Waits(h13, opts)
		inWaits := make(map[tile.Tile]bool, len(waits))
		for _, w := range waits {
			inWaits[w] = true
		}
		for _, cand := range tile.All {
			if tile.Count(h13, cand) >= 4 {
				continue
			}
			full := tile.Sorted(append(append([]tile.Tile(nil), h13...), cand))
			best := BestHand(full, cand, opts)
			if (best != nil) != inWaits[cand] {
				t.Errorf("%s: wait solver and best hand disagree on %s", hs, cand)
			}
		}
	}
}
