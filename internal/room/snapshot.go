package room

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/minefield/server/internal/game"
)

// Snapshot is the serializable state of a room: identity, keys, the
// game state and the full outbound journals. Replaying the journal is
// how reconnecting clients catch up, so the journal is part of the
// canonical state.
type Snapshot struct {
	ID       int64                `json:"id"`
	Nicks    [2]string            `json:"nicks"`
	Keys     [2]string            `json:"keys"`
	Aborted  bool                 `json:"aborted"`
	Game     game.Snapshot        `json:"game"`
	Messages [2][]json.RawMessage `json:"messages"`
}

// Snapshot captures the room for persistence.
func (r *Room) Snapshot() Snapshot {
	snap := Snapshot{
		ID:      r.ID,
		Nicks:   r.Nicks,
		Keys:    r.Keys,
		Aborted: r.aborted,
		Game:    r.game.Snapshot(),
	}
	for i := 0; i < 2; i++ {
		snap.Messages[i] = append([]json.RawMessage(nil), r.journal[i]...)
	}
	return snap
}

// Restore rebuilds a room with no seats attached.
func Restore(snap Snapshot, log *zap.Logger) *Room {
	r := &Room{
		ID:      snap.ID,
		Nicks:   snap.Nicks,
		Keys:    snap.Keys,
		aborted: snap.Aborted,
		log:     log,
	}
	for i := 0; i < 2; i++ {
		r.journal[i] = append([]json.RawMessage(nil), snap.Messages[i]...)
	}
	r.game = game.Restore(snap.Game, r.gameCallback)
	return r
}
