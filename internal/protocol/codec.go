package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Direction selects which vocabulary a decoder accepts. "join",
// "get_client_names" and "gamestate" mean different things each way.
type Direction int

const (
	ToHost Direction = iota
	ToClient
)

type variant struct {
	new      func() Message
	required []string
}

var vocab = map[Direction]map[string]variant{
	ToHost: {
		CmdJoin:           {func() Message { return &Join{} }, []string{"name"}},
		CmdGetClientNames: {func() Message { return &GetClientNames{} }, nil},
		CmdPing:           {func() Message { return &Ping{} }, nil},
		CmdLeave:          {func() Message { return &Leave{} }, nil},
		CmdGameState:      {func() Message { return &GameStateRequest{} }, nil},
		CmdPickDeck:       {func() Message { return &PickDeck{} }, nil},
		CmdPickDiscard:    {func() Message { return &PickDiscard{} }, []string{"cards"}},
		CmdExpose:         {func() Message { return &Expose{} }, []string{"cards"}},
		CmdLayOff:         {func() Message { return &LayOff{} }, []string{"card", "owner", "meld"}},
		CmdDiscard:        {func() Message { return &Discard{} }, []string{"card"}},
		CmdDraw:           {func() Message { return &Draw{} }, nil},
		CmdChallenge:      {func() Message { return &Challenge{} }, []string{"value"}},
		CmdDone:           {func() Message { return &Done{} }, nil},
		CmdRematch:        {func() Message { return &Rematch{} }, []string{"value"}},
	},
	ToClient: {
		CmdJoin:           {func() Message { return &JoinReply{} }, []string{"status"}},
		CmdGetClientNames: {func() Message { return &ClientNames{} }, []string{"host", "client_names"}},
		CmdRefresh:        {func() Message { return &Refresh{} }, []string{"host", "client_names"}},
		CmdKick:           {func() Message { return &Kick{} }, nil},
		CmdDisband:        {func() Message { return &Disband{} }, nil},
		CmdAbort:          {func() Message { return &Abort{} }, nil},
		CmdStart:          {func() Message { return &Start{} }, []string{"round"}},
		CmdGameState:      {func() Message { return &GameState{} }, []string{"view"}},
		CmdResult:         {func() Message { return &Result{} }, []string{"action", "status"}},
	},
}

// Encode renders m as a JSON object with its command field first.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", m.Command(), err)
	}
	cmd, err := json.Marshal(m.Command())
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", m.Command(), err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"command":`)
	buf.Write(cmd)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a payload travelling in direction dir. The command is read
// first, then the rest of the object is decoded strictly into that command's
// type: unknown fields, missing required fields and invalid values are all
// ErrMalformed. The returned Message is a value, not a pointer.
func Decode(payload []byte, dir Direction) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rawCmd, ok := fields["command"]
	if !ok {
		return nil, fmt.Errorf("%w: missing command", ErrMalformed)
	}
	var cmd string
	if err := json.Unmarshal(rawCmd, &cmd); err != nil {
		return nil, fmt.Errorf("%w: command: %v", ErrMalformed, err)
	}
	v, ok := vocab[dir][cmd]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", ErrMalformed, cmd)
	}
	for _, name := range v.required {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%w: %s: missing field %q", ErrMalformed, cmd, name)
		}
	}

	delete(fields, "command")
	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	msg := v.new()
	dec := json.NewDecoder(bytes.NewReader(rest))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, cmd, err)
	}

	msg = deref(msg)
	if val, ok := msg.(validator); ok {
		if err := val.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, cmd, err)
		}
	}
	return msg, nil
}

// deref turns the decode target back into a plain value so callers can
// type-switch on value types.
func deref(m Message) Message {
	switch v := m.(type) {
	case *Join:
		return *v
	case *GetClientNames:
		return *v
	case *Ping:
		return *v
	case *Leave:
		return *v
	case *GameStateRequest:
		return *v
	case *PickDeck:
		return *v
	case *PickDiscard:
		return *v
	case *Expose:
		return *v
	case *LayOff:
		return *v
	case *Discard:
		return *v
	case *Draw:
		return *v
	case *Challenge:
		return *v
	case *Done:
		return *v
	case *Rematch:
		return *v
	case *JoinReply:
		return *v
	case *ClientNames:
		return *v
	case *Refresh:
		return *v
	case *Kick:
		return *v
	case *Disband:
		return *v
	case *Abort:
		return *v
	case *Start:
		return *v
	case *GameState:
		return *v
	case *Result:
		return *v
	}
	return m
}

// Send encodes m and writes it as one frame.
func Send(w io.Writer, m Message) error {
	payload, err := Encode(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// Receive reads one frame from r and decodes it.
func Receive(r io.Reader, max int64, dir Direction) (Message, error) {
	payload, err := ReadFrame(r, max)
	if err != nil {
		return nil, err
	}
	return Decode(payload, dir)
}
