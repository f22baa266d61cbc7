// Package server is the session registry: it tracks connections,
// matches waiting players into rooms, routes messages, and drives the
// heartbeat that enforces deadlines and persistence.
//
// All methods must be called from the single server goroutine; the
// transport delivers connects, frames and disconnects into that
// goroutine via channels.
package server

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minefield/server/internal/game"
	"github.com/minefield/server/internal/protocol"
	"github.com/minefield/server/internal/room"
)

const (
	// saveInterval is how often (in beats) rooms are persisted and the
	// room list is swept.
	saveInterval = 30
	// zombieAge is the game age in seconds past which an unfinished
	// room is aborted during a sweep.
	zombieAge = 60 * 60
)

// Conn is the server's handle on one client connection.
type Conn interface {
	Send(ev protocol.Event)
	Kick()
}

// Store persists room snapshots. SaveRoom assigns an id on first save
// and returns it; subsequent saves are idempotent.
type Store interface {
	SaveRoom(ctx context.Context, snap room.Snapshot) (int64, error)
	LoadUnfinishedRooms(ctx context.Context) ([]room.Snapshot, error)
}

// client is the per-connection state. It doubles as the room.Seat for
// whichever room the connection sits in.
type client struct {
	conn Conn
	nick string
	key  string
	room *room.Room
	idx  int
}

func (c *client) Send(ev protocol.Event) { c.conn.Send(ev) }
func (c *client) Kick()                  { c.conn.Kick() }

// Server owns all rooms and the waiting-players index.
type Server struct {
	log   *zap.Logger
	store Store
	deals game.DealSource

	clients map[Conn]*client
	waiting map[string]*client
	rooms   []*room.Room
	t       int
}

func New(store Store, deals game.DealSource, log *zap.Logger) *Server {
	return &Server{
		log:     log,
		store:   store,
		deals:   deals,
		clients: make(map[Conn]*client),
		waiting: make(map[string]*client),
	}
}

// LoadRooms restores all unfinished rooms from the store. Called once
// at startup, before any connection is accepted.
func (s *Server) LoadRooms(ctx context.Context) error {
	snaps, err := s.store.LoadUnfinishedRooms(ctx)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		s.rooms = append(s.rooms, room.Restore(snap, s.log))
	}
	s.log.Info("restored rooms", zap.Int("count", len(s.rooms)))
	return nil
}

// Rooms returns the live room list.
func (s *Server) Rooms() []*room.Room {
	return s.rooms
}

// HandleConnect registers a fresh connection and assigns its key.
func (s *Server) HandleConnect(conn Conn) {
	s.clients[conn] = &client{conn: conn, key: uuid.NewString(), idx: -1}
}

// HandleMessage decodes and dispatches one inbound frame. Protocol
// errors kick the offending connection only.
func (s *Server) HandleMessage(ctx context.Context, conn Conn, data []byte) {
	c, ok := s.clients[conn]
	if !ok {
		return
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		s.log.Warn("bad frame", zap.String("nick", c.nick), zap.Error(err))
		conn.Kick()
		return
	}

	switch m := msg.(type) {
	case *protocol.NewGame:
		s.handleNewGame(c, m)
	case *protocol.CancelNewGame:
		delete(s.waiting, c.key)
	case *protocol.Join:
		s.handleJoin(ctx, c, m)
	case *protocol.Rejoin:
		s.handleRejoin(c, m)
	case *protocol.GetGames:
		c.Send(protocol.Games{Games: s.describeGames()})
	case *protocol.HandMsg, *protocol.DiscardMsg:
		if c.room == nil {
			s.log.Warn("game message outside a room", zap.String("nick", c.nick))
			conn.Kick()
			return
		}
		c.room.HandleMessage(c.idx, msg)
	}
}

// HandleDisconnect detaches the connection from whatever it was doing.
// A room seat is only suspended; the game keeps running.
func (s *Server) HandleDisconnect(conn Conn) {
	c, ok := s.clients[conn]
	if !ok {
		return
	}
	delete(s.clients, conn)
	delete(s.waiting, c.key)
	if c.room != nil {
		s.log.Info("seat detached", zap.Int64("room", c.room.ID), zap.Int("seat", c.idx))
		c.room.Detach(c.idx)
		c.room = nil
	}
}

func (s *Server) handleNewGame(c *client, m *protocol.NewGame) {
	if c.room != nil {
		c.conn.Kick()
		return
	}
	c.nick = m.Nick
	s.waiting[c.key] = c
	s.log.Info("player waiting", zap.String("nick", c.nick), zap.String("key", c.key))
}

func (s *Server) handleJoin(ctx context.Context, c *client, m *protocol.Join) {
	if c.room != nil {
		c.conn.Kick()
		return
	}
	opponent, ok := s.waiting[m.Key]
	if !ok {
		c.Send(protocol.JoinFailed{Description: "Opponent not found."})
		return
	}
	delete(s.waiting, m.Key)
	c.nick = m.Nick

	r := room.New([2]string{opponent.nick, c.nick}, s.deals, s.log)
	s.rooms = append(s.rooms, r)
	s.attach(r, 0, opponent, 0)
	s.attach(r, 1, c, 0)
	r.StartGame()

	// First save assigns the room id.
	s.saveRoom(ctx, r)
}

func (s *Server) handleRejoin(c *client, m *protocol.Rejoin) {
	for _, r := range s.rooms {
		for idx := 0; idx < 2; idx++ {
			if r.Keys[idx] != m.Key {
				continue
			}
			if old := r.Seat(idx); old != nil {
				r.Detach(idx)
				if oc, ok := old.(*client); ok {
					oc.room = nil
					oc.conn.Kick()
				}
			}
			delete(s.waiting, c.key)
			s.attach(r, idx, c, m.NReceived)
			return
		}
	}
	s.log.Warn("rejoin with unknown key", zap.String("key", m.Key))
}

func (s *Server) attach(r *room.Room, idx int, c *client, nReceived int) {
	c.room = r
	c.idx = idx
	if err := r.Attach(idx, c, nReceived); err != nil {
		s.log.Error("attach failed", zap.Int64("room", r.ID), zap.Error(err))
		c.room = nil
		c.idx = -1
		c.conn.Kick()
	}
}

func (s *Server) describeGames() []protocol.GameEntry {
	// Never nil: an empty lobby is sent as [], not null.
	out := make([]protocol.GameEntry, 0, len(s.rooms)+len(s.waiting))
	for _, r := range s.rooms {
		if !r.Finished() {
			out = append(out, protocol.GameEntry{Type: "game", Nicks: r.Nicks[:]})
		}
	}
	for _, c := range s.waiting {
		out = append(out, protocol.GameEntry{Type: "player", Nick: c.nick, Key: c.key})
	}
	return out
}

// Beat drives every room's clock. Every saveInterval beats it also
// persists all rooms, drops finished rooms nobody is attached to, and
// aborts games that have been running for over an hour.
func (s *Server) Beat(ctx context.Context) {
	s.t++
	for _, r := range s.rooms {
		r.Beat()
	}
	if s.t%saveInterval != 0 {
		return
	}
	s.saveRooms(ctx)

	kept := s.rooms[:0]
	for _, r := range s.rooms {
		if r.Finished() && !r.Attached() {
			s.log.Info("dropping inactive room", zap.Int64("room", r.ID))
			continue
		}
		if !r.Finished() && r.GameTime() > zombieAge {
			s.log.Warn("aborting zombie room", zap.Int64("room", r.ID))
			r.Abort()
			s.saveRoom(ctx, r)
		}
		kept = append(kept, r)
	}
	s.rooms = kept
}

// Stop snapshots everything for a clean shutdown.
func (s *Server) Stop(ctx context.Context) {
	s.log.Info("stopping", zap.Int("rooms", len(s.rooms)))
	s.saveRooms(ctx)
}

func (s *Server) saveRooms(ctx context.Context) {
	for _, r := range s.rooms {
		s.saveRoom(ctx, r)
	}
}

func (s *Server) saveRoom(ctx context.Context, r *room.Room) {
	id, err := s.store.SaveRoom(ctx, r.Snapshot())
	if err != nil {
		s.log.Error("save room failed", zap.Int64("room", r.ID), zap.Error(err))
		return
	}
	r.ID = id
}
