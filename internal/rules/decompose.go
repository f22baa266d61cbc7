// Package rules implements the riichi rules engine: hand decomposition,
// yaku detection, scoring and wait computation for the minefield variant.
package rules

import "github.com/minefield/server/internal/tile"

type GroupKind int

const (
	Pair GroupKind = iota
	Pon
	Chi
)

func (k GroupKind) String() string {
	switch k {
	case Pair:
		return "pair"
	case Pon:
		return "pon"
	case Chi:
		return "chi"
	}
	return "?"
}

// Group is a pair, triplet, or run anchored at its lowest tile.
type Group struct {
	Kind GroupKind
	Tile tile.Tile
}

// Decompose enumerates the {pair + pon/chi groups} decompositions of a
// sorted hand. The pair comes first; the remaining groups are peeled off
// anchored at the lowest remaining tile. A hand with a quad can yield the
// same group multiset twice in different orders (pon-then-chi vs
// chi-then-pon off the same tile); callers score per decomposition, so
// the duplicate is harmless. Works for any 3n+2 tile count (the game
// uses 14).
func Decompose(tiles []tile.Tile) [][]Group {
	var out [][]Group
	forEachPair(tiles, func(pair Group, rest []tile.Tile) {
		groups := make([]Group, 0, 5)
		groups = append(groups, pair)
		allGroups(rest, groups, &out)
	})
	return out
}

// forEachPair yields every candidate pair position. A position i where
// tiles[i] == tiles[i+1] == tiles[i+2] is skipped: taking the first two
// tiles of a triplet as the pair would just duplicate the i+1 candidate.
func forEachPair(tiles []tile.Tile, fn func(Group, []tile.Tile)) {
	for i := 0; i+1 < len(tiles); i++ {
		if tiles[i] != tiles[i+1] {
			continue
		}
		if i+2 < len(tiles) && tiles[i+1] == tiles[i+2] {
			continue
		}
		rest := make([]tile.Tile, 0, len(tiles)-2)
		rest = append(rest, tiles[:i]...)
		rest = append(rest, tiles[i+2:]...)
		fn(Group{Pair, tiles[i]}, rest)
	}
}

// allGroups recursively peels pon/chi groups off the lowest tile of the
// residue. Depth is bounded by the group count (four for a full hand).
func allGroups(rest []tile.Tile, acc []Group, out *[][]Group) {
	if len(rest) == 0 {
		*out = append(*out, append([]Group(nil), acc...))
		return
	}
	if p, ok := beginPon(rest); ok {
		allGroups(rest[3:], append(acc, p), out)
	}
	if c, newRest, ok := beginChi(rest); ok {
		allGroups(newRest, append(acc, c), out)
	}
}

func beginPon(tiles []tile.Tile) (Group, bool) {
	if len(tiles) >= 3 && tiles[0] == tiles[1] && tiles[1] == tiles[2] {
		return Group{Pon, tiles[0]}, true
	}
	return Group{}, false
}

func beginChi(tiles []tile.Tile) (Group, []tile.Tile, bool) {
	t1 := tiles[0]
	if t1.IsHonor() || t1.Rank() >= 8 {
		return Group{}, nil, false
	}
	t2, t3 := t1.Next(), t1.Next().Next()
	if !tile.Contains(tiles, t2) || !tile.Contains(tiles, t3) {
		return Group{}, nil, false
	}
	rest := append([]tile.Tile(nil), tiles[1:]...)
	rest, _ = tile.Remove(rest, t2)
	rest, _ = tile.Remove(rest, t3)
	return Group{Chi, t1}, rest, true
}

// IsSevenPairs reports whether the sorted 14 tiles form seven distinct
// pairs. A tile appearing four times is not two pairs.
func IsSevenPairs(tiles []tile.Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	for i := 0; i < 14; i += 2 {
		if tiles[i] != tiles[i+1] {
			return false
		}
		if i > 0 && tiles[i] == tiles[i-1] {
			return false
		}
	}
	return true
}

// IsKokushi reports whether the sorted 14 tiles are the thirteen orphans:
// every terminal and honor once, plus a duplicate of one of them.
func IsKokushi(tiles []tile.Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	seen := make(map[tile.Tile]int, 14)
	for _, t := range tiles {
		if !t.IsTerminal() && !t.IsHonor() {
			return false
		}
		seen[t]++
	}
	return len(seen) == 13
}
