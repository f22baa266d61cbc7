package game

import (
	"reflect"
	"strings"
	"testing"

	"github.com/minefield/server/internal/protocol"
	"github.com/minefield/server/internal/tile"
)

type eventRec struct {
	seat int
	ev   protocol.Event
}

// fixture drives a deterministic game (canonical deck, seat 0 East) and
// records every outbound event for in-order assertions.
type fixture struct {
	t      *testing.T
	g      *Game
	events []eventRec
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{t: t}
	f.g = New(FixedDeal{East: 0}, func(seat int, ev protocol.Event) {
		f.events = append(f.events, eventRec{seat, ev})
	})
	f.g.Start()
	return f
}

func (f *fixture) expect(seat int, ev protocol.Event) {
	f.t.Helper()
	if len(f.events) == 0 {
		f.t.Fatalf("expected (%d, %#v), but no events queued", seat, ev)
	}
	got := f.events[0]
	f.events = f.events[1:]
	if got.seat != seat || !reflect.DeepEqual(got.ev, ev) {
		f.t.Fatalf("got (%d, %#v), want (%d, %#v)", got.seat, got.ev, seat, ev)
	}
}

func (f *fixture) expectBoth(ev protocol.Event) {
	f.t.Helper()
	f.expect(0, ev)
	f.expect(1, ev)
}

func (f *fixture) expectNone(msgType string) {
	f.t.Helper()
	for _, e := range f.events {
		if e.ev.EventType() == msgType {
			f.t.Fatalf("unexpected %s event: %#v", msgType, e.ev)
		}
	}
}

func parse(t *testing.T, s string) []tile.Tile {
	t.Helper()
	tiles, err := tile.ParseAll(strings.Fields(s))
	if err != nil {
		t.Fatalf("bad tiles %q: %v", s, err)
	}
	return tiles
}

// expectInit consumes the opening events. The canonical deck deals each
// seat one copy of every tile and puts M1/M2 at the indicator slots.
func (f *fixture) expectInit() {
	f.t.Helper()
	for i := 0; i < 2; i++ {
		f.expect(i, protocol.PhaseOne{Tiles: tile.All, DoraInd: "M1", You: i, East: 0})
		f.expect(i, protocol.StartMove{MoveType: protocol.MoveHand, TimeLimit: HandTimeLimit})
	}
}

func (f *fixture) sendHand(seat int, hand string) {
	f.t.Helper()
	f.g.Handle(seat, &protocol.HandMsg{Hand: parse(f.t, hand)})
}

func (f *fixture) startGame(h0, h1 string) {
	f.t.Helper()
	f.expectInit()
	f.sendHand(0, h0)
	f.expect(0, protocol.EndMove{})
	f.expect(0, protocol.HandEvent{Hand: parse(f.t, h0)})
	f.expect(0, protocol.WaitForPhaseTwo{})
	f.sendHand(1, h1)
	f.expect(1, protocol.EndMove{})
	f.expect(1, protocol.HandEvent{Hand: parse(f.t, h1)})
	f.expectBoth(protocol.PhaseTwo{})
}

func (f *fixture) discard(seat int, t tile.Tile) {
	f.t.Helper()
	f.expect(seat, protocol.StartMove{MoveType: protocol.MoveDiscard, TimeLimit: DiscardTimeLimit})
	f.g.Handle(seat, &protocol.DiscardMsg{Tile: t})
	f.expect(seat, protocol.EndMove{})
	f.expectBoth(protocol.Discarded{Player: seat, Tile: t})
}

func TestInit(t *testing.T) {
	f := newFixture(t)
	f.expectInit()
	if len(f.events) != 0 {
		t.Fatalf("unexpected trailing events: %#v", f.events)
	}
}

func TestDrawScenario(t *testing.T) {
	f := newFixture(t)
	f.startGame("M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4",
		"M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4")

	for i := 0; i < Discards; i++ {
		for j := 0; j < 2; j++ {
			f.discard(j, f.g.tiles[j][0])
		}
	}
	f.expectBoth(protocol.Draw{})
	if !f.g.Finished() {
		t.Fatal("game must be finished after a draw")
	}
}

func TestWin(t *testing.T) {
	// Seat 0 waits thirteen-sided kokushi. Seat 1's hand wins on S4 but
	// only for three fan, short of the mangan floor.
	f := newFixture(t)
	f.startGame("M1 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7",
		"M1 M2 M3 M4 M5 M6 P7 P8 P9 S1 S2 S3 S4")

	f.discard(0, "S4")
	f.expectNone("ron")

	f.discard(1, "P1")
	f.expectBoth(protocol.Ron{
		Player:     0,
		Hand:       parse(t, "M1 M9 P1 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7"),
		Tile:       "P1",
		Yaku:       []string{"kokushi"},
		Yakuman:    true,
		Dora:       0,
		Points:     32000,
		Limit:      5,
		UradoraInd: "M2",
	})
	if !f.g.Finished() {
		t.Fatal("game must be finished after a ron")
	}
}

func TestFuriten(t *testing.T) {
	// Seat 1 waits on S2/S5/S8 but S8 is worth too little to win. Once
	// S8 has passed, a later S5 discard must stay silent.
	f := newFixture(t)
	f.startGame("M2 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7",
		"M6 M7 M8 P6 P7 P8 S2 S3 S4 S5 S6 S7 S8")

	f.discard(0, "S8")
	f.expectNone("ron")

	f.discard(1, "P1")

	f.discard(0, "S5")
	f.expectNone("ron")
}

func TestShortHand(t *testing.T) {
	f := newFixture(t)
	f.expectInit()
	f.sendHand(1, "M1 M2 M3")
	f.expectBoth(protocol.Abort{Culprit: 1, Description: "on_hand: len != 13"})
	if !f.g.Finished() {
		t.Fatal("game must be finished after an abort")
	}
}

func TestTilesOutsideInitial(t *testing.T) {
	f := newFixture(t)
	f.expectInit()
	f.g.Handle(0, &protocol.HandMsg{Hand: []tile.Tile{
		"M1", "M1", "M1", "M1", "M1", "M1", "M1", "M1", "M1", "M1", "M1", "M1", "M1",
	}})
	f.expectBoth(protocol.Abort{Culprit: 0, Description: "on_hand: tile not found in choices"})
	if !f.g.Finished() {
		t.Fatal("game must be finished after an abort")
	}
}

func TestDuplicateHand(t *testing.T) {
	const hand = "M2 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7"
	f := newFixture(t)
	f.expectInit()
	f.sendHand(0, hand)
	f.expect(0, protocol.EndMove{})
	f.expect(0, protocol.HandEvent{Hand: parse(t, hand)})
	f.expect(0, protocol.WaitForPhaseTwo{})
	f.sendHand(0, hand)
	f.expectBoth(protocol.Abort{Culprit: 0, Description: "on_hand: hand already sent"})
}

func TestHandTimeLimit(t *testing.T) {
	const hand = "M2 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7"
	f := newFixture(t)
	f.expectInit()
	f.sendHand(0, hand)
	f.expect(0, protocol.EndMove{})
	f.expect(0, protocol.HandEvent{Hand: parse(t, hand)})
	f.expect(0, protocol.WaitForPhaseTwo{})
	for i := 0; i < HandTimeLimit+ExtraTime; i++ {
		f.g.Beat()
	}
	f.expectBoth(protocol.Abort{Culprit: 1, Description: "time limit exceeded"})
}

func TestDiscardTimeLimit(t *testing.T) {
	f := newFixture(t)
	f.startGame("M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4",
		"M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4")
	f.expect(0, protocol.StartMove{MoveType: protocol.MoveDiscard, TimeLimit: DiscardTimeLimit})
	for i := 0; i < DiscardTimeLimit+ExtraTime; i++ {
		f.g.Beat()
	}
	f.expectBoth(protocol.Abort{Culprit: 0, Description: "time limit exceeded"})
}

func TestOutOfTurnDiscard(t *testing.T) {
	f := newFixture(t)
	f.startGame("M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4",
		"M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4")
	f.expect(0, protocol.StartMove{MoveType: protocol.MoveDiscard, TimeLimit: DiscardTimeLimit})
	f.g.Handle(1, &protocol.DiscardMsg{Tile: f.g.tiles[1][0]})
	f.expectBoth(protocol.Abort{Culprit: 1, Description: "on_discard: not your turn"})
}

func TestTileConservation(t *testing.T) {
	f := newFixture(t)
	f.startGame("M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4",
		"M1 M9 P1 P9 S1 S9 X1 X2 X3 X4 X5 X6 X7")
	f.discard(0, f.g.tiles[0][0])
	f.discard(1, f.g.tiles[1][0])
	f.discard(0, f.g.tiles[0][0])

	for i := 0; i < 2; i++ {
		var all []tile.Tile
		all = append(all, f.g.tiles[i]...)
		all = append(all, f.g.hands[i]...)
		all = append(all, f.g.discards[i]...)
		if got, want := tile.Sorted(all), tile.Sorted(f.g.initialTiles[i]); !reflect.DeepEqual(got, want) {
			t.Fatalf("seat %d lost tiles: got %v, want %v", i, got, want)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t)
	f.startGame("M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4",
		"M1 M2 M3 M4 M5 M6 M7 M8 M9 P1 P2 P3 P4")
	f.discard(0, f.g.tiles[0][0])

	snap := f.g.Snapshot()

	g2 := &fixture{t: t}
	g2.g = Restore(snap, func(seat int, ev protocol.Event) {
		g2.events = append(g2.events, eventRec{seat, ev})
	})
	if g2.g.Finished() {
		t.Fatal("restored game must not be finished")
	}

	// The pending move survives the round trip; re-emitting it is the
	// reconnect flow.
	g2.g.SendMove(1)
	g2.discard(1, g2.g.tiles[1][0])
	g2.expect(0, protocol.StartMove{MoveType: protocol.MoveDiscard, TimeLimit: DiscardTimeLimit})
}

func TestSendMove(t *testing.T) {
	f := newFixture(t)
	f.expectInit()
	f.g.SendMove(0)
	f.expect(0, protocol.StartMove{MoveType: protocol.MoveHand, TimeLimit: HandTimeLimit})

	// Deadlines shrink as time passes.
	f.g.Beat()
	f.g.Beat()
	f.g.SendMove(1)
	f.expect(1, protocol.StartMove{MoveType: protocol.MoveHand, TimeLimit: HandTimeLimit - 2})
}

func TestAbortIdempotent(t *testing.T) {
	f := newFixture(t)
	f.expectInit()
	f.g.Abort(0, "first")
	f.expectBoth(protocol.Abort{Culprit: 0, Description: "first"})
	f.g.Abort(1, "second")
	if len(f.events) != 0 {
		t.Fatalf("abort after finish must emit nothing, got %#v", f.events)
	}
}

func TestShuffledDealIsPermutation(t *testing.T) {
	d := ShuffledDeal{}.Deal()
	if len(d.Deck) != 136 {
		t.Fatalf("deck size %d, want 136", len(d.Deck))
	}
	for _, x := range tile.All {
		if n := tile.Count(d.Deck, x); n != 4 {
			t.Fatalf("tile %s appears %d times, want 4", x, n)
		}
	}
	if d.East != 0 && d.East != 1 {
		t.Fatalf("east = %d", d.East)
	}
}
