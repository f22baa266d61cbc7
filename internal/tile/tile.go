// Package tile models the 34 distinct mahjong tiles and their ordering.
package tile

import (
	"fmt"
	"sort"
)

// Tile is a two-character code: suit + rank. Suits are M (man), P (pin),
// S (sou) and X (honors). Number suits rank 1-9; honors rank 1-7 where
// X1-X4 are the winds E/S/W/N and X5-X7 the dragons. The codes sort
// lexicographically, which is also the canonical tile order.
type Tile string

// Wind and dragon tiles referenced by name throughout the rules.
const (
	East  Tile = "X1"
	South Tile = "X2"
	West  Tile = "X3"
	North Tile = "X4"
	Haku  Tile = "X5"
	Hatsu Tile = "X6"
	Chun  Tile = "X7"
)

// All lists the 34 distinct tiles in canonical order.
var All = makeAll()

func makeAll() []Tile {
	out := make([]Tile, 0, 34)
	for _, suit := range []byte{'M', 'P', 'S'} {
		for r := 1; r <= 9; r++ {
			out = append(out, Tile([]byte{suit, byte('0' + r)}))
		}
	}
	for r := 1; r <= 7; r++ {
		out = append(out, Tile([]byte{'X', byte('0' + r)}))
	}
	return out
}

func (t Tile) Suit() byte {
	return t[0]
}

func (t Tile) Rank() int {
	return int(t[1] - '0')
}

func (t Tile) Valid() bool {
	if len(t) != 2 {
		return false
	}
	switch t[0] {
	case 'M', 'P', 'S':
		return t[1] >= '1' && t[1] <= '9'
	case 'X':
		return t[1] >= '1' && t[1] <= '7'
	}
	return false
}

func (t Tile) IsHonor() bool {
	return t[0] == 'X'
}

func (t Tile) IsDragon() bool {
	return t == Haku || t == Hatsu || t == Chun
}

func (t Tile) IsTerminal() bool {
	return !t.IsHonor() && (t[1] == '1' || t[1] == '9')
}

// Next returns the tile with rank+1 in the same numeric suit.
// Only meaningful for number tiles of rank <= 8.
func (t Tile) Next() Tile {
	return Tile([]byte{t[0], t[1] + 1})
}

// Dora maps a dora indicator to the dora tile: number suits cycle 1..9,
// winds cycle X1..X4, dragons cycle X5..X7.
func (t Tile) Dora() Tile {
	switch {
	case !t.IsHonor():
		if t.Rank() == 9 {
			return Tile([]byte{t[0], '1'})
		}
		return t.Next()
	case t == North:
		return East
	case t == Chun:
		return Haku
	default:
		return t.Next()
	}
}

// FullSet returns the 136-tile set: four copies of each tile, grouped in
// four canonical runs (copy 0 of everything, then copy 1, and so on).
func FullSet() []Tile {
	out := make([]Tile, 0, 136)
	for i := 0; i < 4; i++ {
		out = append(out, All...)
	}
	return out
}

// Sort orders tiles in place in canonical order.
func Sort(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool { return tiles[i] < tiles[j] })
}

// Sorted returns a sorted copy.
func Sorted(tiles []Tile) []Tile {
	out := append([]Tile(nil), tiles...)
	Sort(out)
	return out
}

// Remove deletes one copy of t from tiles, reporting whether it was found.
func Remove(tiles []Tile, t Tile) ([]Tile, bool) {
	for i, x := range tiles {
		if x == t {
			return append(tiles[:i:i], tiles[i+1:]...), true
		}
	}
	return tiles, false
}

// Count returns the number of copies of t in tiles.
func Count(tiles []Tile, t Tile) int {
	n := 0
	for _, x := range tiles {
		if x == t {
			n++
		}
	}
	return n
}

// Contains reports whether tiles holds at least one copy of t.
func Contains(tiles []Tile, t Tile) bool {
	return Count(tiles, t) > 0
}

// ParseAll converts a list of string codes, validating each.
func ParseAll(codes []string) ([]Tile, error) {
	out := make([]Tile, len(codes))
	for i, c := range codes {
		t := Tile(c)
		if !t.Valid() {
			return nil, fmt.Errorf("invalid tile %q", c)
		}
		out[i] = t
	}
	return out, nil
}
