package rules

import "github.com/minefield/server/internal/tile"

type HandType int

const (
	Regular HandType = iota
	Pairs
	Kokushi
)

// ScoringContext carries the game-side facts that affect scoring.
type ScoringContext struct {
	// FanpaiWinds are the wind tiles worth fan for this seat. The
	// two-player layout has no round wind, only the seat wind.
	FanpaiWinds []tile.Tile
	DoraInd     tile.Tile // dora indicator; empty when not scoring dora
	UradoraInd  tile.Tile // revealed only on a win
	Riichi      bool      // a committed minefield hand is a standing riichi
	Ippatsu     bool      // opponent has made exactly one discard
	Hotei       bool      // won on the last discard of the hand
}

// Hand is one interpretation of a complete 14-tile hand.
type Hand struct {
	Tiles   []tile.Tile // sorted 14 tiles
	Wait    tile.Tile   // the winning tile
	Type    HandType
	Groups  []Group // regular hands only: [pair, g1..g4]
	Options ScoringContext
}

// AllHands enumerates every interpretation of the sorted 14 tiles.
func AllHands(tiles14 []tile.Tile, wait tile.Tile, opts ScoringContext) []Hand {
	var out []Hand
	for _, groups := range Decompose(tiles14) {
		out = append(out, Hand{tiles14, wait, Regular, groups, opts})
	}
	if IsSevenPairs(tiles14) {
		out = append(out, Hand{tiles14, wait, Pairs, nil, opts})
	}
	if IsKokushi(tiles14) {
		out = append(out, Hand{tiles14, wait, Kokushi, nil, opts})
	}
	return out
}

// Yaku lists the hand's yaku in catalog order. Fanpai appears once per
// qualifying triplet. A yakuman hand lists only the yakuman.
func (h *Hand) Yaku() []string {
	if h.Type == Kokushi {
		return []string{"kokushi"}
	}
	if h.Type == Regular && h.dragonPons() == 3 {
		return []string{"daisangen"}
	}

	var out []string
	add := func(name string, ok bool) {
		if ok {
			out = append(out, name)
		}
	}

	add("riichi", h.Options.Riichi)
	add("ippatsu", h.Options.Ippatsu)
	add("hotei", h.Options.Hotei)
	add("pinfu", h.pinfu())

	peiko := h.peikoCount()
	add("iipeiko", peiko == 1)
	add("ryanpeiko", peiko == 2)

	add("tanyao", h.tanyao())
	for i := 0; i < h.fanpaiPons(); i++ {
		out = append(out, "fanpai")
	}
	add("nikoniko", h.Type == Pairs)

	junchan := h.junchan()
	add("chanta", !junchan && h.chanta())
	add("junchan", junchan)
	add("honitsu", h.honitsu())
	add("chinitsu", h.chinitsu())
	add("sanshoku", h.sanshoku())
	add("sananko", h.concealedPons() >= 3)
	add("shosangen", h.shosangen())

	return out
}

func (h *Hand) isFanpaiTile(t tile.Tile) bool {
	if t.IsDragon() {
		return true
	}
	for _, w := range h.Options.FanpaiWinds {
		if t == w {
			return true
		}
	}
	return false
}

func (h *Hand) pinfu() bool {
	if h.Type != Regular {
		return false
	}
	if h.isFanpaiTile(h.Groups[0].Tile) {
		return false
	}
	for _, g := range h.Groups[1:] {
		if g.Kind != Chi {
			return false
		}
	}
	// The winning tile must sit at the low or high end of some run.
	for _, g := range h.Groups[1:] {
		if h.Wait.Suit() == g.Tile.Suit() &&
			(h.Wait.Rank() == g.Tile.Rank() || h.Wait.Rank() == g.Tile.Rank()+2) {
			return true
		}
	}
	return false
}

// peikoCount counts disjoint adjacent identical chi pairs. Identical runs
// sit next to each other in a decomposition, so adjacency is enough.
func (h *Hand) peikoCount() int {
	if h.Type != Regular {
		return 0
	}
	n := 0
	for i := 1; i+1 < len(h.Groups); i++ {
		if h.Groups[i].Kind == Chi && h.Groups[i] == h.Groups[i+1] {
			n++
			i++
		}
	}
	return n
}

func (h *Hand) tanyao() bool {
	for _, t := range h.Tiles {
		if t.IsTerminal() || t.IsHonor() {
			return false
		}
	}
	return true
}

func (h *Hand) fanpaiPons() int {
	if h.Type != Regular {
		return 0
	}
	n := 0
	for _, g := range h.Groups {
		if g.Kind == Pon && h.isFanpaiTile(g.Tile) {
			n++
		}
	}
	return n
}

// junchanGroup reports whether the group touches a terminal.
func junchanGroup(g Group) bool {
	switch g.Kind {
	case Chi:
		return !g.Tile.IsHonor() && (g.Tile.Rank() == 1 || g.Tile.Rank() == 7)
	default:
		return g.Tile.IsTerminal()
	}
}

func chantaGroup(g Group) bool {
	return junchanGroup(g) || g.Tile.IsHonor()
}

func (h *Hand) junchan() bool {
	if h.Type != Regular {
		return false
	}
	hasChi := false
	for _, g := range h.Groups {
		if !junchanGroup(g) {
			return false
		}
		if g.Kind == Chi {
			hasChi = true
		}
	}
	return hasChi
}

func (h *Hand) chanta() bool {
	if h.Type != Regular {
		return false
	}
	hasChi := false
	for _, g := range h.Groups {
		if !chantaGroup(g) {
			return false
		}
		if g.Kind == Chi {
			hasChi = true
		}
	}
	return hasChi
}

func (h *Hand) suits() map[byte]bool {
	set := make(map[byte]bool, 4)
	for _, t := range h.Tiles {
		set[t.Suit()] = true
	}
	return set
}

func (h *Hand) honitsu() bool {
	set := h.suits()
	return len(set) == 2 && set['X']
}

func (h *Hand) chinitsu() bool {
	set := h.suits()
	return len(set) == 1 && !set['X']
}

func (h *Hand) sanshoku() bool {
	if h.Type != Regular {
		return false
	}
	for _, g := range h.Groups[1:] {
		if g.Kind != Chi || g.Tile.Suit() != 'M' {
			continue
		}
		r := g.Tile.Rank()
		if h.hasChi('P', r) && h.hasChi('S', r) {
			return true
		}
	}
	return false
}

func (h *Hand) hasChi(suit byte, rank int) bool {
	for _, g := range h.Groups[1:] {
		if g.Kind == Chi && g.Tile.Suit() == suit && g.Tile.Rank() == rank {
			return true
		}
	}
	return false
}

// concealedPons counts triplets not completed by the winning tile. A pon
// of the wait tile still counts when some run also holds the wait (the
// ron tile finished the run, not the triplet).
func (h *Hand) concealedPons() int {
	if h.Type != Regular {
		return 0
	}
	waitInChi := false
	for _, g := range h.Groups[1:] {
		if g.Kind == Chi && g.Tile.Suit() == h.Wait.Suit() &&
			g.Tile.Rank() <= h.Wait.Rank() && h.Wait.Rank() <= g.Tile.Rank()+2 {
			waitInChi = true
		}
	}
	n := 0
	for _, g := range h.Groups {
		if g.Kind == Pon && (g.Tile != h.Wait || waitInChi) {
			n++
		}
	}
	return n
}

func (h *Hand) dragonPons() int {
	if h.Type != Regular {
		return 0
	}
	n := 0
	for _, g := range h.Groups {
		if g.Kind == Pon && g.Tile.IsDragon() {
			n++
		}
	}
	return n
}

func (h *Hand) shosangen() bool {
	if h.Type != Regular {
		return false
	}
	return h.Groups[0].Tile.IsDragon() && h.dragonPons() == 2
}
