// Package game implements the minefield match state machine: hand
// selection, alternating discards, ron/draw resolution and timeouts.
// The game itself is transport-blind; every outbound event goes through
// a single callback and all timing arrives via Beat.
package game

import (
	"github.com/minefield/server/internal/protocol"
	"github.com/minefield/server/internal/rules"
	"github.com/minefield/server/internal/tile"
)

const (
	// PlayerTiles is the size of each seat's initial pool.
	PlayerTiles = 34
	// Discards is the number of discards each seat makes in phase two.
	Discards = 17

	// Time limits in seconds. ExtraTime is a server-side grace window
	// for network delay; it is never reported to clients.
	HandTimeLimit    = 180
	DiscardTimeLimit = 15
	ExtraTime        = 10
)

// seatWinds[0] is East's seat wind, seatWinds[1] is West's. The
// two-player layout skips South and North.
var seatWinds = [2]tile.Tile{tile.East, tile.West}

// Callback receives every outbound event together with the seat it is
// addressed to.
type Callback func(seat int, ev protocol.Event)

// Move is a pending obligation for one seat. The deadline is in game
// seconds and includes ExtraTime.
type Move struct {
	Type     string `json:"type"`
	Deadline int    `json:"deadline"`
}

type phase int

const (
	phaseHands phase = iota + 1
	phaseDiscards
	phaseFinished
)

// Game holds the full state of one match. It is not safe for concurrent
// use; the room serializes access.
type Game struct {
	callback Callback

	east         int
	initialTiles [2][]tile.Tile
	tiles        [2][]tile.Tile
	doraInd      tile.Tile
	uradoraInd   tile.Tile
	hands        [2][]tile.Tile
	waits        [2][]tile.Tile
	discards     [2][]tile.Tile
	t            int
	moves        [2]*Move
	finished     bool
}

// New deals a fresh game. Nothing is sent until Start.
func New(src DealSource, cb Callback) *Game {
	d := src.Deal()
	g := &Game{callback: cb, east: d.East}
	g.doraInd = d.Deck[2*PlayerTiles]
	g.uradoraInd = d.Deck[2*PlayerTiles+1]
	for i := 0; i < 2; i++ {
		seat := append([]tile.Tile(nil), d.Deck[i*PlayerTiles:(i+1)*PlayerTiles]...)
		g.initialTiles[i] = seat
		g.tiles[i] = append([]tile.Tile(nil), seat...)
		g.discards[i] = []tile.Tile{}
	}
	return g
}

// Start announces phase one to both seats and opens their hand moves.
func (g *Game) Start() {
	for i := 0; i < 2; i++ {
		g.callback(i, protocol.PhaseOne{
			Tiles:   g.initialTiles[i],
			DoraInd: g.doraInd,
			You:     i,
			East:    g.east,
		})
		g.startMove(i, protocol.MoveHand, HandTimeLimit)
	}
}

func (g *Game) phase() phase {
	switch {
	case g.hands[0] == nil || g.hands[1] == nil:
		return phaseHands
	case !g.finished:
		return phaseDiscards
	default:
		return phaseFinished
	}
}

// playerTurn is the seat expected to discard next: East opens every
// round, so equal pile lengths mean East's turn.
func (g *Game) playerTurn() int {
	if len(g.discards[0]) == len(g.discards[1]) {
		return g.east
	}
	return 1 - g.east
}

// Finished reports whether the game reached a terminal state.
func (g *Game) Finished() bool {
	return g.finished
}

// T is the elapsed game time in seconds.
func (g *Game) T() int {
	return g.t
}

// Abort ends the game, blaming culprit. Idempotent once finished.
func (g *Game) Abort(culprit int, description string) {
	if g.finished {
		return
	}
	g.finished = true
	g.moves = [2]*Move{}
	for i := 0; i < 2; i++ {
		g.callback(i, protocol.Abort{Culprit: culprit, Description: description})
	}
}

// Beat advances game time by one second and enforces move deadlines.
func (g *Game) Beat() {
	g.t++
	for i := 0; i < 2; i++ {
		if g.moves[i] != nil && g.t >= g.moves[i].Deadline {
			g.Abort(i, "time limit exceeded")
			return
		}
	}
}

func (g *Game) startMove(seat int, moveType string, timeLimit int) {
	g.moves[seat] = &Move{Type: moveType, Deadline: g.t + timeLimit + ExtraTime}
	g.SendMove(seat)
}

func (g *Game) endMove(seat int) {
	g.moves[seat] = nil
	g.callback(seat, protocol.EndMove{})
}

// SendMove re-emits the pending start_move for a seat, with the grace
// window subtracted from the reported limit. Rooms call this after a
// journal replay so a reconnecting client sees its current deadline.
func (g *Game) SendMove(seat int) {
	m := g.moves[seat]
	if m == nil {
		return
	}
	g.callback(seat, protocol.StartMove{
		MoveType:  m.Type,
		TimeLimit: m.Deadline - g.t - ExtraTime,
	})
}

// Handle routes one decoded seat message into the state machine. Any
// validation failure aborts the game with the sender as culprit.
func (g *Game) Handle(seat int, msg protocol.ClientMsg) {
	switch m := msg.(type) {
	case *protocol.HandMsg:
		g.handleHand(seat, m.Hand)
	case *protocol.DiscardMsg:
		g.handleDiscard(seat, m.Tile)
	default:
		g.Abort(seat, "unexpected message")
	}
}

func (g *Game) handleHand(seat int, hand []tile.Tile) {
	if g.phase() != phaseHands {
		g.Abort(seat, "on_hand: wrong phase")
		return
	}
	if len(hand) != 13 {
		g.Abort(seat, "on_hand: len != 13")
		return
	}
	if g.hands[seat] != nil {
		g.Abort(seat, "on_hand: hand already sent")
		return
	}
	pool := g.tiles[seat]
	for _, t := range hand {
		var ok bool
		if pool, ok = tile.Remove(pool, t); !ok {
			g.Abort(seat, "on_hand: tile not found in choices")
			return
		}
	}
	g.tiles[seat] = pool

	g.hands[seat] = append([]tile.Tile(nil), hand...)
	g.waits[seat] = rules.Waits(g.hands[seat], g.options(seat, false))

	g.endMove(seat)

	// Echo the hand so a reconnecting client can reconstruct it from
	// the journal alone.
	g.callback(seat, protocol.HandEvent{Hand: g.hands[seat]})

	if g.hands[0] != nil && g.hands[1] != nil {
		for i := 0; i < 2; i++ {
			g.callback(i, protocol.PhaseTwo{})
		}
		g.startMove(g.east, protocol.MoveDiscard, DiscardTimeLimit)
	} else {
		g.callback(seat, protocol.WaitForPhaseTwo{})
	}
}

func (g *Game) handleDiscard(seat int, t tile.Tile) {
	if g.phase() != phaseDiscards {
		g.Abort(seat, "on_discard: wrong phase")
		return
	}
	if g.playerTurn() != seat {
		g.Abort(seat, "on_discard: not your turn")
		return
	}
	pool, ok := tile.Remove(g.tiles[seat], t)
	if !ok {
		g.Abort(seat, "on_discard: tile not found in choices")
		return
	}
	g.tiles[seat] = pool
	g.discards[seat] = append(g.discards[seat], t)

	g.endMove(seat)

	for i := 0; i < 2; i++ {
		g.callback(i, protocol.Discarded{Player: seat, Tile: t})
	}

	if tile.Contains(g.waits[1-seat], t) && !g.furiten(1-seat) {
		if g.checkRon(seat, t) {
			return
		}
	}

	if len(g.discards[0]) == Discards && len(g.discards[1]) == Discards {
		g.finished = true
		for i := 0; i < 2; i++ {
			g.callback(i, protocol.Draw{})
		}
	} else {
		g.startMove(g.playerTurn(), protocol.MoveDiscard, DiscardTimeLimit)
	}
}

// options builds the scoring context for a seat. A committed minefield
// hand counts as a standing riichi; the uradora indicator is withheld
// until a win is confirmed.
func (g *Game) options(seat int, uradora bool) rules.ScoringContext {
	ctx := rules.ScoringContext{
		FanpaiWinds: []tile.Tile{seatWinds[seat^g.east]},
		DoraInd:     g.doraInd,
		Riichi:      true,
		Hotei:       len(g.discards[0]) == Discards && len(g.discards[1]) == Discards,
		Ippatsu:     len(g.discards[1-seat]) == 1,
	}
	if uradora {
		ctx.UradoraInd = g.uradoraInd
	}
	return ctx
}

// furiten reports whether a seat is barred from ron: any of its waits
// already lies in its own discards or in the opponent's discards other
// than the most recent one (which is the live ron candidate).
func (g *Game) furiten(seat int) bool {
	opp := g.discards[1-seat]
	if len(opp) > 0 {
		opp = opp[:len(opp)-1]
	}
	for _, w := range g.waits[seat] {
		if tile.Contains(g.discards[seat], w) || tile.Contains(opp, w) {
			return true
		}
	}
	return false
}

// checkRon resolves a potential win by 1-seat on seat's discard. Hands
// below the mangan limit do not win; winning hands are rescored with
// uradora before being announced.
func (g *Game) checkRon(seat int, t tile.Tile) bool {
	winner := 1 - seat
	full := tile.Sorted(append(append([]tile.Tile(nil), g.hands[winner]...), t))
	h := rules.BestHand(full, t, g.options(winner, false))
	if h == nil || h.Limit() == 0 {
		return false
	}

	h = rules.BestHand(full, t, g.options(winner, true))
	g.finished = true
	for i := 0; i < 2; i++ {
		g.callback(i, protocol.Ron{
			Player:     winner,
			Hand:       full,
			Tile:       t,
			Yaku:       h.Yaku(),
			Yakuman:    h.Yakuman(),
			Dora:       h.Dora(),
			Points:     rules.BasePoints[h.Limit()],
			Limit:      h.Limit(),
			UradoraInd: g.uradoraInd,
		})
	}
	return true
}
