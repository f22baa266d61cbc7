package rules

import (
	"github.com/minefield/server/internal/data"
	"github.com/minefield/server/internal/tile"
)

// BasePoints is the non-dealer payout indexed by limit code:
// below mangan, mangan, haneman, baiman, sanbaiman, yakuman.
var BasePoints = [6]int{0, 8000, 12000, 16000, 24000, 32000}

func yakuTable() *data.YakuTable {
	return data.DefaultYakuTable()
}

// Fan sums the fan values of the hand's yaku.
func (h *Hand) Fan() int {
	t := yakuTable()
	fan := 0
	for _, name := range h.Yaku() {
		fan += t.Fan(name)
	}
	return fan
}

// Yakuman reports whether any of the hand's yaku is a yakuman.
func (h *Hand) Yakuman() bool {
	t := yakuTable()
	for _, name := range h.Yaku() {
		if t.Yakuman(name) {
			return true
		}
	}
	return false
}

// Dora counts dora (and uradora, if revealed) among the 14 tiles.
func (h *Hand) Dora() int {
	n := 0
	if h.Options.DoraInd != "" {
		n += tile.Count(h.Tiles, h.Options.DoraInd.Dora())
	}
	if h.Options.UradoraInd != "" {
		n += tile.Count(h.Tiles, h.Options.UradoraInd.Dora())
	}
	return n
}

// Limit buckets fan+dora into the scoring tiers: 0 below mangan, then
// mangan through yakuman.
func (h *Hand) Limit() int {
	if h.Yakuman() {
		return 5
	}
	switch f := h.Fan() + h.Dora(); {
	case f < 5:
		return 0
	case f == 5:
		return 1
	case f <= 7:
		return 2
	case f <= 10:
		return 3
	case f <= 12:
		return 4
	default:
		return 5
	}
}

// BestHand picks the highest-scoring interpretation of the 14 tiles, or
// nil when no interpretation carries a yaku (such a hand cannot win).
func BestHand(tiles14 []tile.Tile, wait tile.Tile, opts ScoringContext) *Hand {
	var best *Hand
	for _, h := range AllHands(tiles14, wait, opts) {
		h := h
		if len(h.Yaku()) == 0 {
			continue
		}
		if best == nil || better(&h, best) {
			best = &h
		}
	}
	return best
}

// better orders interpretations by (limit, fan, yakuman, yaku count).
func better(a, b *Hand) bool {
	if al, bl := a.Limit(), b.Limit(); al != bl {
		return al > bl
	}
	if af, bf := a.Fan(), b.Fan(); af != bf {
		return af > bf
	}
	if ay, by := a.Yakuman(), b.Yakuman(); ay != by {
		return ay
	}
	return len(a.Yaku()) > len(b.Yaku())
}
