// Package protocol defines the JSON wire messages exchanged with seats.
// Both directions use a discriminated union: every frame is an object
// with a "type" field selecting the payload shape.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/minefield/server/internal/tile"
)

// Move types carried by start_move events and pending moves.
const (
	MoveHand    = "hand"
	MoveDiscard = "discard"
)

// ── Inbound (client → server) ──────────────────────────────────────

// ClientMsg is the sealed union of messages a seat may send.
type ClientMsg interface {
	clientMsg()
}

type NewGame struct {
	Nick string `json:"nick"`
}

type CancelNewGame struct{}

type Join struct {
	Nick string `json:"nick"`
	Key  string `json:"key"`
}

type Rejoin struct {
	Key       string `json:"key"`
	NReceived int    `json:"n_received"`
}

type GetGames struct{}

type HandMsg struct {
	Hand []tile.Tile `json:"hand"`
}

type DiscardMsg struct {
	Tile tile.Tile `json:"tile"`
}

func (*NewGame) clientMsg()       {}
func (*CancelNewGame) clientMsg() {}
func (*Join) clientMsg()          {}
func (*Rejoin) clientMsg()        {}
func (*GetGames) clientMsg()      {}
func (*HandMsg) clientMsg()       {}
func (*DiscardMsg) clientMsg()    {}

// clientTypes is the static dispatch table for inbound frames. Unknown
// types are a protocol error, never a silent no-op.
var clientTypes = map[string]func() ClientMsg{
	"new_game":        func() ClientMsg { return &NewGame{} },
	"cancel_new_game": func() ClientMsg { return &CancelNewGame{} },
	"join":            func() ClientMsg { return &Join{} },
	"rejoin":          func() ClientMsg { return &Rejoin{} },
	"get_games":       func() ClientMsg { return &GetGames{} },
	"hand":            func() ClientMsg { return &HandMsg{} },
	"discard":         func() ClientMsg { return &DiscardMsg{} },
}

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one inbound frame.
func Decode(data []byte) (ClientMsg, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	ctor, ok := clientTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	msg := ctor()
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", env.Type, err)
	}
	return msg, nil
}

// ── Outbound (server → client) ─────────────────────────────────────

// Event is the sealed union of messages sent to seats. EventType is the
// wire discriminator; EncodeEvent injects it.
type Event interface {
	EventType() string
}

type PhaseOne struct {
	Tiles   []tile.Tile `json:"tiles"`
	DoraInd tile.Tile   `json:"dora_ind"`
	You     int         `json:"you"`
	East    int         `json:"east"`
}

type PhaseTwo struct{}

type StartMove struct {
	MoveType  string `json:"move_type"`
	TimeLimit int    `json:"time_limit"` // seconds, grace window excluded
}

type EndMove struct{}

type HandEvent struct {
	Hand []tile.Tile `json:"hand"`
}

type WaitForPhaseTwo struct{}

type Discarded struct {
	Player int       `json:"player"`
	Tile   tile.Tile `json:"tile"`
}

type Ron struct {
	Player     int         `json:"player"`
	Hand       []tile.Tile `json:"hand"`
	Tile       tile.Tile   `json:"tile"`
	Yaku       []string    `json:"yaku"`
	Yakuman    bool        `json:"yakuman"`
	Dora       int         `json:"dora"`
	Points     int         `json:"points"`
	Limit      int         `json:"limit"`
	UradoraInd tile.Tile   `json:"uradora_ind"`
}

type Draw struct{}

type Abort struct {
	Culprit     int    `json:"culprit"`
	Description string `json:"description"`
}

type RoomInfo struct {
	Key   string    `json:"key"`
	Nicks [2]string `json:"nicks"`
	You   int       `json:"you"`
}

type Replay struct {
	Msg json.RawMessage `json:"msg"`
}

type GameEntry struct {
	Type  string   `json:"type"` // "game" or "player"
	Nicks []string `json:"nicks,omitempty"`
	Nick  string   `json:"nick,omitempty"`
	Key   string   `json:"key,omitempty"`
}

type Games struct {
	Games []GameEntry `json:"games"`
}

type JoinFailed struct {
	Description string `json:"description"`
}

func (PhaseOne) EventType() string        { return "phase_one" }
func (PhaseTwo) EventType() string        { return "phase_two" }
func (StartMove) EventType() string       { return "start_move" }
func (EndMove) EventType() string         { return "end_move" }
func (HandEvent) EventType() string       { return "hand" }
func (WaitForPhaseTwo) EventType() string { return "wait_for_phase_two" }
func (Discarded) EventType() string       { return "discarded" }
func (Ron) EventType() string             { return "ron" }
func (Draw) EventType() string            { return "draw" }
func (Abort) EventType() string           { return "abort" }
func (RoomInfo) EventType() string        { return "room" }
func (Replay) EventType() string          { return "replay" }
func (Games) EventType() string           { return "games" }
func (JoinFailed) EventType() string      { return "join_failed" }

// EncodeEvent marshals an event and splices in the type discriminator.
func EncodeEvent(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	head := []byte(`{"type":"` + ev.EventType() + `"`)
	if len(body) == 2 { // empty object
		return append(head, '}'), nil
	}
	head = append(head, ',')
	return append(head, body[1:]...), nil
}

// TypeOf extracts the discriminator of an encoded frame.
func TypeOf(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.Type, nil
}
