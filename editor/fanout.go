package editor

import "log/slog"

// Dispatcher queues the outbound messages produced while handling one
// command (or one membership change) and delivers them on Flush. Related
// messages for the same recipient are coalesced into a single "multiple"
// envelope, preserving the order they were queued in.
type Dispatcher struct {
	queue []outgoingMessage
}

type outgoingMessage struct {
	only       *Client // deliver to this client only, nil means broadcast
	except     *Client // skipped on broadcast
	responseTo *Client // this recipient's copy carries the responseId
	responseId string
	command    ServerCommand
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) BroadcastAll(cmd ServerCommand) {
	d.queue = append(d.queue, outgoingMessage{command: cmd})
}

func (d *Dispatcher) BroadcastExcept(except *Client, cmd ServerCommand) {
	d.queue = append(d.queue, outgoingMessage{except: except, command: cmd})
}

// BroadcastResponse broadcasts to everyone; the issuer's copy additionally
// carries the correlation token of the command that caused it.
func (d *Dispatcher) BroadcastResponse(issuer *Client, responseId string, cmd ServerCommand) {
	d.queue = append(d.queue, outgoingMessage{responseTo: issuer, responseId: responseId, command: cmd})
}

func (d *Dispatcher) SendTo(to *Client, cmd ServerCommand) {
	d.queue = append(d.queue, outgoingMessage{only: to, command: cmd})
}

// Respond sends to the issuer only, echoing its correlation token.
func (d *Dispatcher) Respond(to *Client, responseId string, cmd ServerCommand) {
	d.queue = append(d.queue, outgoingMessage{only: to, responseTo: to, responseId: responseId, command: cmd})
}

func (d *Dispatcher) Empty() bool {
	return len(d.queue) == 0
}

// Flush delivers the queued messages to every recipient among members and
// clears the queue. A recipient with more than one pending message gets them
// wrapped in one "multiple" envelope instead of separate frames.
func (d *Dispatcher) Flush(members []*Client) {
	if len(d.queue) == 0 {
		return
	}

	for _, client := range members {
		var pending []ServerMessage
		for _, out := range d.queue {
			if out.only != nil && out.only != client {
				continue
			}
			if out.only == nil && out.except == client {
				continue
			}
			msg := ServerMessage{Command: out.command}
			if out.responseTo == client {
				msg.ResponseId = out.responseId
			}
			pending = append(pending, msg)
		}

		if len(pending) == 0 {
			continue
		}

		msg := pending[0]
		if len(pending) > 1 {
			msg = ServerMessage{Command: MultipleCommand{Messages: pending}}
		}

		data, err := EncodeServerMessage(msg)
		if err != nil {
			slog.Error("failed to encode outbound message", "err", err)
			continue
		}
		client.Send(data)
	}

	d.queue = d.queue[:0]
}
