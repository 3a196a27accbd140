package editor

import (
	"encoding/json"
	"fmt"
)

// The wire format is a JSON envelope with a tagged command union:
//
//	{"responseId": "...", "command": {"type": "createHitObject", "payload": {...}}}
//
// The responseId is an opaque correlation token chosen by the client; the
// server echoes it back on the messages that resulted from that command so
// the client can match acknowledgments to its optimistic local state.

type UserInfo struct {
	Id          int    `json:"id"`
	DisplayName string `json:"displayName"`
	CursorPos   *Vec2  `json:"cursorPos,omitempty"`
	CurrentTime int    `json:"currentTime"`
}

type UserTick struct {
	Id          int   `json:"id"`
	CursorPos   *Vec2 `json:"cursorPos,omitempty"`
	CurrentTime int   `json:"currentTime"`
}

// --- Client to server ---

type ClientMessage struct {
	ResponseId string
	Command    ClientCommand
}

type ClientCommand interface {
	clientCommand()
}

type CursorPosCommand struct {
	Pos Vec2
}

type CurrentTimeCommand struct {
	Time int
}

type SelectHitObjectCommand struct {
	Ids      []int `json:"ids"`
	Selected bool  `json:"selected"`
	Unique   bool  `json:"unique"`
}

type CreateHitObjectCommand struct {
	HitObject HitObject
}

type UpdateHitObjectCommand struct {
	HitObject HitObject
}

type DeleteHitObjectCommand struct {
	Ids []int `json:"ids"`
}

type CreateTimingPointCommand struct {
	TimingPoint TimingPoint
}

type UpdateTimingPointCommand struct {
	TimingPoint TimingPoint
}

type DeleteTimingPointCommand struct {
	Ids []int `json:"ids"`
}

type SetHitObjectOverridesCommand struct {
	Id        int                `json:"id"`
	Overrides HitObjectOverrides `json:"overrides"`
}

func (CursorPosCommand) clientCommand()             {}
func (CurrentTimeCommand) clientCommand()           {}
func (SelectHitObjectCommand) clientCommand()       {}
func (CreateHitObjectCommand) clientCommand()       {}
func (UpdateHitObjectCommand) clientCommand()       {}
func (DeleteHitObjectCommand) clientCommand()       {}
func (CreateTimingPointCommand) clientCommand()     {}
func (UpdateTimingPointCommand) clientCommand()     {}
func (DeleteTimingPointCommand) clientCommand()     {}
func (SetHitObjectOverridesCommand) clientCommand() {}

type rawCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type clientEnvelope struct {
	ResponseId string     `json:"responseId,omitempty"`
	Command    rawCommand `json:"command"`
}

// DecodeClientMessage parses one inbound frame. An unknown command type or a
// malformed payload yields an error wrapping ErrInvalidPayload; the caller
// drops the frame and keeps the connection.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var envelope clientEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	command, err := decodeClientCommand(envelope.Command)
	if err != nil {
		return ClientMessage{}, err
	}

	return ClientMessage{ResponseId: envelope.ResponseId, Command: command}, nil
}

func decodeClientCommand(envelope rawCommand) (ClientCommand, error) {
	unmarshal := func(v any) error {
		if len(envelope.Payload) == 0 {
			return fmt.Errorf("%w: missing payload for %q", ErrInvalidPayload, envelope.Type)
		}
		if err := json.Unmarshal(envelope.Payload, v); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return nil
	}

	switch envelope.Type {
	case "cursorPos":
		var cmd CursorPosCommand
		return cmd, unmarshal(&cmd.Pos)
	case "currentTime":
		var cmd CurrentTimeCommand
		return cmd, unmarshal(&cmd.Time)
	case "selectHitObject":
		var cmd SelectHitObjectCommand
		return cmd, unmarshal(&cmd)
	case "createHitObject":
		var cmd CreateHitObjectCommand
		return cmd, unmarshal(&cmd.HitObject)
	case "updateHitObject":
		var cmd UpdateHitObjectCommand
		return cmd, unmarshal(&cmd.HitObject)
	case "deleteHitObject":
		var cmd DeleteHitObjectCommand
		return cmd, unmarshal(&cmd)
	case "createTimingPoint":
		var cmd CreateTimingPointCommand
		return cmd, unmarshal(&cmd.TimingPoint)
	case "updateTimingPoint":
		var cmd UpdateTimingPointCommand
		return cmd, unmarshal(&cmd.TimingPoint)
	case "deleteTimingPoint":
		var cmd DeleteTimingPointCommand
		return cmd, unmarshal(&cmd)
	case "setHitObjectOverrides":
		var cmd SetHitObjectOverridesCommand
		return cmd, unmarshal(&cmd)
	default:
		return nil, fmt.Errorf("%w: unknown command type %q", ErrInvalidPayload, envelope.Type)
	}
}

// --- Server to client ---

type ServerMessage struct {
	ResponseId string
	Command    ServerCommand
}

type ServerCommand interface {
	commandType() string
	payload() any
}

type MultipleCommand struct {
	Messages []ServerMessage
}

type OwnIdCommand struct {
	Id int
}

type UserJoinedCommand struct {
	User UserInfo
}

type UserLeftCommand struct {
	User UserInfo
}

type TickCommand struct {
	UserTicks []UserTick `json:"userTicks"`
}

type UserListCommand struct {
	Users []UserInfo
}

type HitObjectCreatedCommand struct {
	HitObject HitObject
}

type HitObjectUpdatedCommand struct {
	HitObject HitObject
}

type HitObjectDeletedCommand struct {
	Id int
}

type HitObjectSelectedCommand struct {
	Ids        []int `json:"ids"`
	SelectedBy *int  `json:"selectedBy,omitempty"`
}

type StateCommand struct {
	Beatmap Beatmap
}

type TimingPointCreatedCommand struct {
	TimingPoint TimingPoint
}

type TimingPointUpdatedCommand struct {
	TimingPoint TimingPoint
}

type TimingPointDeletedCommand struct {
	Id int
}

type HitObjectOverriddenCommand struct {
	Id        int                `json:"id"`
	Overrides HitObjectOverrides `json:"overrides"`
}

// RejectedCommand is only ever sent to the connection whose command failed;
// it carries the reason so clients can debug a missing acknowledgment.
type RejectedCommand struct {
	Reason string `json:"reason"`
}

func (MultipleCommand) commandType() string            { return "multiple" }
func (OwnIdCommand) commandType() string               { return "ownId" }
func (UserJoinedCommand) commandType() string          { return "userJoined" }
func (UserLeftCommand) commandType() string            { return "userLeft" }
func (TickCommand) commandType() string                { return "tick" }
func (UserListCommand) commandType() string            { return "userList" }
func (HitObjectCreatedCommand) commandType() string    { return "hitObjectCreated" }
func (HitObjectUpdatedCommand) commandType() string    { return "hitObjectUpdated" }
func (HitObjectDeletedCommand) commandType() string    { return "hitObjectDeleted" }
func (HitObjectSelectedCommand) commandType() string   { return "hitObjectSelected" }
func (StateCommand) commandType() string               { return "state" }
func (TimingPointCreatedCommand) commandType() string  { return "timingPointCreated" }
func (TimingPointUpdatedCommand) commandType() string  { return "timingPointUpdated" }
func (TimingPointDeletedCommand) commandType() string  { return "timingPointDeleted" }
func (HitObjectOverriddenCommand) commandType() string { return "hitObjectOverridden" }
func (RejectedCommand) commandType() string            { return "rejected" }

func (c MultipleCommand) payload() any {
	encoded := make([]json.RawMessage, 0, len(c.Messages))
	for _, msg := range c.Messages {
		data, err := EncodeServerMessage(msg)
		if err != nil {
			continue
		}
		encoded = append(encoded, data)
	}
	return encoded
}

func (c OwnIdCommand) payload() any               { return c.Id }
func (c UserJoinedCommand) payload() any          { return c.User }
func (c UserLeftCommand) payload() any            { return c.User }
func (c TickCommand) payload() any                { return c }
func (c UserListCommand) payload() any            { return c.Users }
func (c HitObjectCreatedCommand) payload() any    { return c.HitObject }
func (c HitObjectUpdatedCommand) payload() any    { return c.HitObject }
func (c HitObjectDeletedCommand) payload() any    { return c.Id }
func (c HitObjectSelectedCommand) payload() any   { return c }
func (c StateCommand) payload() any               { return c.Beatmap }
func (c TimingPointCreatedCommand) payload() any  { return c.TimingPoint }
func (c TimingPointUpdatedCommand) payload() any  { return c.TimingPoint }
func (c TimingPointDeletedCommand) payload() any  { return c.Id }
func (c HitObjectOverriddenCommand) payload() any { return c }
func (c RejectedCommand) payload() any            { return c }

type serverEnvelope struct {
	ResponseId string `json:"responseId,omitempty"`
	Command    struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	} `json:"command"`
}

func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	var envelope serverEnvelope
	envelope.ResponseId = msg.ResponseId
	envelope.Command.Type = msg.Command.commandType()
	envelope.Command.Payload = msg.Command.payload()
	return json.Marshal(envelope)
}
