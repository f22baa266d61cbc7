// Package room binds one game to its two seats. The room journals every
// outbound event per seat, forwards live events to whichever seat is
// attached, and replays the journal to reconnecting seats. A fault in
// the game takes down this room only.
package room

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minefield/server/internal/game"
	"github.com/minefield/server/internal/protocol"
)

// Seat is the room's view of a connected client.
type Seat interface {
	Send(ev protocol.Event)
	Kick()
}

// engine is the part of the game the room drives. Tests substitute a
// mock to observe routing without real game rules.
type engine interface {
	Start()
	Handle(seat int, msg protocol.ClientMsg)
	Beat()
	SendMove(seat int)
	Finished() bool
	T() int
	Snapshot() game.Snapshot
}

// Room owns a game, its per-seat event journals and rejoin keys.
type Room struct {
	ID    int64
	Nicks [2]string
	Keys  [2]string

	game    engine
	seats   [2]Seat
	journal [2][]json.RawMessage
	aborted bool
	log     *zap.Logger
}

// New creates a room for the two nicks and deals its game. Nothing is
// sent until StartGame.
func New(nicks [2]string, src game.DealSource, log *zap.Logger) *Room {
	r := &Room{
		Nicks: nicks,
		Keys:  [2]string{uuid.NewString(), uuid.NewString()},
		log:   log,
	}
	r.game = game.New(src, r.gameCallback)
	return r
}

// newWithEngine backs the room tests.
func newWithEngine(nicks [2]string, build func(cb game.Callback) engine, log *zap.Logger) *Room {
	r := &Room{
		Nicks: nicks,
		Keys:  [2]string{uuid.NewString(), uuid.NewString()},
		log:   log,
	}
	r.game = build(r.gameCallback)
	return r
}

// StartGame kicks off the game; its opening events land in the journals
// and reach any attached seats.
func (r *Room) StartGame() {
	r.log.Info("starting game", zap.Int64("room", r.ID),
		zap.String("nicks", fmt.Sprintf("%s vs %s", r.Nicks[0], r.Nicks[1])))
	r.game.Start()
}

func (r *Room) gameCallback(idx int, ev protocol.Event) {
	raw, err := protocol.EncodeEvent(ev)
	if err != nil {
		// Events are plain structs; this cannot happen for well-formed ones.
		r.log.Error("event encode failed", zap.Int64("room", r.ID), zap.Error(err))
		return
	}
	r.journal[idx] = append(r.journal[idx], raw)
	if s := r.seats[idx]; s != nil {
		r.log.Debug("send", zap.Int64("room", r.ID), zap.Int("seat", idx),
			zap.String("type", ev.EventType()))
		s.Send(ev)
	}
}

// Attach installs a seat and brings it up to date: the room header, a
// replay of journal entries past nReceived, and finally the pending
// move re-emitted by the game. start_move/end_move are skipped during
// replay because only the current one is valid.
func (r *Room) Attach(idx int, seat Seat, nReceived int) error {
	if r.seats[idx] != nil {
		return fmt.Errorf("room %d: seat %d occupied", r.ID, idx)
	}
	r.seats[idx] = seat

	seat.Send(protocol.RoomInfo{Key: r.Keys[idx], Nicks: r.Nicks, You: idx})

	entries := r.journal[idx]
	if nReceived < 0 || nReceived > len(entries) {
		nReceived = len(entries)
	}
	for _, raw := range entries[nReceived:] {
		tp, err := protocol.TypeOf(raw)
		if err != nil {
			return fmt.Errorf("room %d: corrupt journal entry: %w", r.ID, err)
		}
		if tp == "start_move" || tp == "end_move" {
			continue
		}
		r.log.Debug("replay", zap.Int64("room", r.ID), zap.Int("seat", idx),
			zap.String("type", tp))
		seat.Send(protocol.Replay{Msg: raw})
	}
	r.game.SendMove(idx)
	return nil
}

// Detach removes a seat. The game keeps running; its events keep
// accumulating in the journal for the next Attach.
func (r *Room) Detach(idx int) {
	r.seats[idx] = nil
}

// Seat returns the seat attached at idx, or nil.
func (r *Room) Seat(idx int) Seat {
	return r.seats[idx]
}

// Attached reports whether any seat is currently connected.
func (r *Room) Attached() bool {
	return r.seats[0] != nil || r.seats[1] != nil
}

// HandleMessage routes one inbound seat message into the game. A panic
// in the game aborts this room only.
func (r *Room) HandleMessage(idx int, msg protocol.ClientMsg) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("game panic recovered", zap.Int64("room", r.ID),
				zap.Int("seat", idx), zap.Any("panic", rec))
			r.Abort()
		}
	}()
	r.game.Handle(idx, msg)
}

// Beat forwards the 1 Hz tick, with the same fault containment as
// HandleMessage. Finished rooms stop ticking.
func (r *Room) Beat() {
	if r.Finished() {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("beat panic recovered", zap.Int64("room", r.ID),
				zap.Any("panic", rec))
			r.Abort()
		}
	}()
	r.game.Beat()
}

// Abort marks the room dead and kicks both seats. Idempotent.
func (r *Room) Abort() {
	r.aborted = true
	for idx := 0; idx < 2; idx++ {
		if s := r.seats[idx]; s != nil {
			s.Kick()
		}
	}
}

// Finished reports whether the room reached a terminal state, either
// through the game or through an abort.
func (r *Room) Finished() bool {
	return r.aborted || r.game.Finished()
}

// GameTime is the game's elapsed seconds, used for zombie detection.
func (r *Room) GameTime() int {
	return r.game.T()
}
