package rules

import (
	"sort"
	"strings"
	"testing"

	"github.com/minefield/server/internal/tile"
)

// yakuSets evaluates every interpretation of the hand and returns the set
// of yaku multisets, each rendered as a sorted space-joined string.
// East (X1) is the only fanpai wind, as in a dealer's minefield hand.
func yakuSets(t *testing.T, hand, wait string) map[string]bool {
	t.Helper()
	tiles := parseTiles(t, hand)
	opts := ScoringContext{FanpaiWinds: []tile.Tile{tile.East}}
	got := make(map[string]bool)
	for _, h := range AllHands(tiles, tile.Tile(wait), opts) {
		ys := h.Yaku()
		sort.Strings(ys)
		got[strings.Join(ys, " ")] = true
	}
	return got
}

func assertYaku(t *testing.T, hand, wait string, want ...string) {
	t.Helper()
	got := yakuSets(t, hand, wait)
	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
	}
	if len(got) != len(wantSet) {
		t.Errorf("%s on %s: got %v, want %v", hand, wait, keys(got), want)
		return
	}
	for w := range wantSet {
		if !got[w] {
			t.Errorf("%s on %s: got %v, want %v", hand, wait, keys(got), want)
			return
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestYaku(t *testing.T) {
	assertYaku(t, "M2 M2 M3 M3 M4 M4 P2 P3 P4 P7 P7 P7 S2 S2", "M3",
		"iipeiko tanyao")
	assertYaku(t, "M1 M2 M3 M4 M5 M6 M6 M7 M8 P2 P2 P2 X1 X1", "M1",
		"")
	assertYaku(t, "M1 M1 M1 M1 M2 M2 M2 M2 M3 M3 M3 M3 M9 M9", "M1",
		"chinitsu junchan pinfu ryanpeiko",
		"chinitsu sananko")
	assertYaku(t, "M1 M2 M2 M3 M3 M3 M3 M4 M4 M4 M5 M5 M6 M6", "M1",
		"chinitsu iipeiko pinfu")
	assertYaku(t, "P1 P2 P3 S5 S5 X5 X5 X5 X6 X6 X6 X7 X7 X7", "S5",
		"daisangen")
	assertYaku(t, "P1 P2 P3 S5 S5 S5 X5 X5 X5 X6 X6 X6 X7 X7", "S5",
		"fanpai fanpai shosangen")
	assertYaku(t, "P1 P2 P3 S9 S9 S9 X5 X5 X5 X6 X6 X7 X7 X7", "P1",
		"chanta fanpai fanpai sananko shosangen")
	assertYaku(t, "M1 M9 P1 P9 S1 S9 S9 X1 X2 X3 X4 X5 X6 X7", "S1",
		"kokushi")
	// Also a valid seven-pairs hand, so two interpretations come out.
	assertYaku(t, "M1 M1 M2 M2 M3 M3 M7 M7 M8 M8 M9 M9 X5 X5", "M3",
		"chanta honitsu ryanpeiko",
		"honitsu nikoniko")
	assertYaku(t, "M2 M3 M4 M5 M6 M7 P3 P3 P3 P5 P6 P7 S4 S4", "M7",
		"tanyao")
	assertYaku(t, "X1 X1 X1 M2 M3 M4 M5 M6 M7 M8 M8 M8 M9 M9", "X1",
		"fanpai honitsu")
	assertYaku(t, "X1 X1 M2 M3 M4 M5 M6 M7 M8 M8 M8 M9 M9 M9", "X1",
		"honitsu")
	assertYaku(t, "M2 M3 M4 M5 M6 M7 P2 P3 P4 P5 P6 P7 P8 P8", "P7",
		"pinfu tanyao")
}

func TestYakuSanshoku(t *testing.T) {
	assertYaku(t, "M6 M7 M8 P6 P7 P8 S2 S3 S4 S5 S5 S6 S7 S8", "S5",
		"sanshoku tanyao")
}

func TestYakuNikoniko(t *testing.T) {
	assertYaku(t, "M2 M2 M4 M4 P3 P3 P5 P5 S6 S6 S8 S8 X5 X5", "X5",
		"nikoniko")
}

func TestContextYaku(t *testing.T) {
	tiles := parseTiles(t, "M2 M3 M4 M5 M6 M7 P2 P3 P4 P5 P6 P7 P8 P8")
	opts := ScoringContext{Riichi: true, Ippatsu: true, Hotei: true}
	h := BestHand(tiles, "P7", opts)
	if h == nil {
		t.Fatal("expected a winning hand")
	}
	got := strings.Join(h.Yaku(), " ")
	if got != "riichi ippatsu hotei pinfu tanyao" {
		t.Fatalf("unexpected yaku order/content: %q", got)
	}
}
