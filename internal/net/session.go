package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/minefield/server/internal/protocol"
)

// maxFrameSize bounds inbound frames; the largest legitimate message is
// a 13-tile hand, far below this.
const maxFrameSize = 4096

// Session is one websocket connection. Send and Kick are called only
// from the server loop; the reader and writer goroutines never touch
// game state.
type Session struct {
	ID   uint64
	conn *websocket.Conn
	srv  *Server

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func newSession(conn *websocket.Conn, id uint64, srv *Server) *Session {
	return &Session{
		ID:   id,
		conn: conn,
		srv:  srv,
		out:  make(chan []byte, srv.cfg.OutQueueSize),
		done: make(chan struct{}),
		log:  srv.log.With(zap.Uint64("session", id)),
	}
}

func (s *Session) start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send encodes and queues one event. A client that cannot keep up fills
// its queue and is disconnected rather than stalling the server loop;
// it can rejoin and catch up from the journal.
func (s *Session) Send(ev protocol.Event) {
	if s.closed.Load() {
		return
	}
	raw, err := protocol.EncodeEvent(ev)
	if err != nil {
		s.log.Error("encode event", zap.Error(err))
		return
	}
	select {
	case s.out <- raw:
	default:
		s.log.Warn("out queue full, disconnecting")
		s.Close()
	}
}

// Kick closes the connection. The disconnect event follows through the
// usual read-loop path.
func (s *Session) Kick() {
	s.Close()
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.conn.Close()
	})
}

func (s *Session) readLoop() {
	defer func() {
		s.Close()
		s.srv.events <- Event{Kind: Disconnected, Sess: s}
	}()

	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(s.srv.cfg.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.srv.cfg.PongTimeout))
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.srv.events <- Event{Kind: Frame, Sess: s, Data: data}
	}
}

func (s *Session) writeLoop() {
	pingPeriod := s.srv.cfg.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case raw := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.log.Debug("write error", zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			s.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
