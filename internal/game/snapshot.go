package game

import "github.com/minefield/server/internal/tile"

// Snapshot is the serializable state of a game. A nil hand means the
// seat has not committed one yet.
type Snapshot struct {
	East         int            `json:"east"`
	InitialTiles [2][]tile.Tile `json:"initial_tiles"`
	Tiles        [2][]tile.Tile `json:"tiles"`
	DoraInd      tile.Tile      `json:"dora_ind"`
	UradoraInd   tile.Tile      `json:"uradora_ind"`
	Hands        [2][]tile.Tile `json:"hands"`
	Waits        [2][]tile.Tile `json:"waits"`
	Discards     [2][]tile.Tile `json:"discards"`
	T            int            `json:"t"`
	Moves        [2]*Move       `json:"moves"`
	Finished     bool           `json:"finished"`
}

func copyTiles(ts []tile.Tile) []tile.Tile {
	if ts == nil {
		return nil
	}
	return append([]tile.Tile{}, ts...)
}

// Snapshot captures the game state for persistence.
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		East:       g.east,
		DoraInd:    g.doraInd,
		UradoraInd: g.uradoraInd,
		T:          g.t,
		Finished:   g.finished,
	}
	for i := 0; i < 2; i++ {
		snap.InitialTiles[i] = copyTiles(g.initialTiles[i])
		snap.Tiles[i] = copyTiles(g.tiles[i])
		snap.Hands[i] = copyTiles(g.hands[i])
		snap.Waits[i] = copyTiles(g.waits[i])
		snap.Discards[i] = copyTiles(g.discards[i])
		if m := g.moves[i]; m != nil {
			mc := *m
			snap.Moves[i] = &mc
		}
	}
	return snap
}

// Restore rebuilds a game from a snapshot. No events are emitted; the
// room replays its journal instead.
func Restore(snap Snapshot, cb Callback) *Game {
	g := &Game{
		callback:   cb,
		east:       snap.East,
		doraInd:    snap.DoraInd,
		uradoraInd: snap.UradoraInd,
		t:          snap.T,
		finished:   snap.Finished,
	}
	for i := 0; i < 2; i++ {
		g.initialTiles[i] = copyTiles(snap.InitialTiles[i])
		g.tiles[i] = copyTiles(snap.Tiles[i])
		g.hands[i] = copyTiles(snap.Hands[i])
		g.waits[i] = copyTiles(snap.Waits[i])
		g.discards[i] = copyTiles(snap.Discards[i])
		if g.discards[i] == nil {
			g.discards[i] = []tile.Tile{}
		}
		if m := snap.Moves[i]; m != nil {
			mc := *m
			g.moves[i] = &mc
		}
	}
	return g
}
