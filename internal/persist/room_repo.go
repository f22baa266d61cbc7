package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minefield/server/internal/room"
)

// RoomRepo persists room snapshots. It satisfies the server's Store
// interface.
type RoomRepo struct {
	db *DB
}

func NewRoomRepo(db *DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// SaveRoom inserts the snapshot on first save, assigning its id, and
// updates the existing row afterwards.
func (r *RoomRepo) SaveRoom(ctx context.Context, snap room.Snapshot) (int64, error) {
	finished := snap.Aborted || snap.Game.Finished

	if snap.ID == 0 {
		var id int64
		if err := r.db.Pool.QueryRow(ctx,
			`INSERT INTO rooms (finished, snapshot) VALUES ($1, $2) RETURNING id`,
			finished, mustMarshal(snap),
		).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert room: %w", err)
		}
		return id, nil
	}

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE rooms SET finished = $2, snapshot = $3, updated_at = now() WHERE id = $1`,
		snap.ID, finished, mustMarshal(snap))
	if err != nil {
		return 0, fmt.Errorf("update room %d: %w", snap.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("update room %d: row missing", snap.ID)
	}
	return snap.ID, nil
}

// LoadUnfinishedRooms returns the snapshots of every room that has not
// reached a terminal state. Called once at startup.
func (r *RoomRepo) LoadUnfinishedRooms(ctx context.Context) ([]room.Snapshot, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, snapshot FROM rooms WHERE NOT finished ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var out []room.Snapshot
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		var snap room.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("decode room %d: %w", id, err)
		}
		// The column is authoritative; the embedded id lags one save
		// behind on freshly created rooms.
		snap.ID = id
		out = append(out, snap)
	}
	return out, rows.Err()
}

func mustMarshal(snap room.Snapshot) []byte {
	raw, err := json.Marshal(snap)
	if err != nil {
		// Snapshots are plain data; marshalling cannot fail.
		panic(err)
	}
	return raw
}
