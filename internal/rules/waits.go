package rules

import "github.com/minefield/server/internal/tile"

// Waits lists every tile that completes the 13-tile hand into a
// yaku-bearing 14-tile hand under the given context. Candidates the hand
// already holds four copies of are skipped — no fifth tile exists.
func Waits(hand13 []tile.Tile, opts ScoringContext) []tile.Tile {
	var out []tile.Tile
	for _, t := range tile.All {
		if tile.Count(hand13, t) >= 4 {
			continue
		}
		full := tile.Sorted(append(append([]tile.Tile(nil), hand13...), t))
		if BestHand(full, t, opts) != nil {
			out = append(out, t)
		}
	}
	return out
}
