// Package net is the websocket transport. Each connection gets a
// reader and a writer goroutine; everything they learn is funneled into
// one ordered event channel consumed by the server loop, so per-session
// connect → frames → disconnect ordering is guaranteed by construction.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/minefield/server/internal/config"
)

type EventKind int

const (
	Connected EventKind = iota
	Frame
	Disconnected
)

// Event is one transport occurrence delivered to the server loop.
type Event struct {
	Kind EventKind
	Sess *Session
	Data []byte // set for Frame only
}

// Server accepts websocket connections on /ws. In debug mode it also
// serves the static client files.
type Server struct {
	cfg config.NetworkConfig
	log *zap.Logger

	events   chan Event
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	nextID   atomic.Uint64
}

func NewServer(cfg config.NetworkConfig, debug bool, log *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		log:    log,
		events: make(chan Event, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The rejoin key is the only credential; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	if debug {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	s.httpSrv = &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler: mux,
	}
	return s
}

// Events is the ordered stream the server loop consumes.
func (s *Server) Events() <-chan Event {
	return s.events
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpSrv.Addr
}

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	sess := newSession(conn, s.nextID.Add(1), s)
	// The connect event must precede every frame from this session, so
	// it is sent before the read loop starts.
	s.events <- Event{Kind: Connected, Sess: sess}
	sess.start()
}
