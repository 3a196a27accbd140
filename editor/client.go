package editor

import (
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

const (
	// Durable edit events cannot be dropped without desynchronizing the
	// client's view of the document, so overflowing this queue disconnects.
	outboxSize = 256

	// Document commands per second one connection may issue. Presence
	// updates are not counted; they collapse into the next tick anyway.
	commandRate  = 50
	commandBurst = 100
)

type commandEnvelope struct {
	msg  ClientMessage
	from *Client
}

// Client is one connected editor. The read pump routes presence updates
// straight into the atomic presence slot and everything else into the
// session inbox; the write pump drains the durable outbox, the latest-only
// tick slot and the ping channel.
type Client struct {
	displayName string
	userId      int // assigned by the session on join

	conn    NetworkSession
	session *Session
	limiter *rate.Limiter

	outbox   chan []byte
	tickSlot chan []byte
	pingChan chan struct{}
	done     chan struct{}

	closeOnce sync.Once
	presence  presenceSlot
}

func NewClient(displayName string, conn NetworkSession) *Client {
	return &Client{
		displayName: displayName,
		conn:        conn,
		limiter:     rate.NewLimiter(commandRate, commandBurst),
		outbox:      make(chan []byte, outboxSize),
		tickSlot:    make(chan []byte, 1),
		pingChan:    make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

func (c *Client) UserId() int {
	return c.userId
}

func (c *Client) DisplayName() string {
	return c.displayName
}

func (c *Client) userInfo() UserInfo {
	info := UserInfo{Id: c.userId, DisplayName: c.displayName}
	if state := c.presence.Load(); state != nil {
		info.CursorPos = state.CursorPos
		info.CurrentTime = state.CurrentTime
	}
	return info
}

// attach is called by the session actor when the join is accepted, before
// the pumps start.
func (c *Client) attach(session *Session, userId int) {
	c.session = session
	c.userId = userId
}

// Send queues a durable event. A consumer too slow to drain its queue is
// disconnected rather than silently losing edits.
func (c *Client) Send(data []byte) {
	select {
	case c.outbox <- data:
	default:
		slog.Warn("outbound queue overflow, disconnecting slow consumer",
			"user", c.userId, "displayName", c.displayName)
		c.Close("slow-consumer")
	}
}

// SendTick replaces whatever tick payload is still pending; only the most
// recent tick is worth delivering.
func (c *Client) SendTick(data []byte) {
	for {
		select {
		case c.tickSlot <- data:
			return
		default:
			select {
			case <-c.tickSlot:
			default:
			}
		}
	}
}

func (c *Client) Ping() {
	select {
	case c.pingChan <- struct{}{}:
	default:
	}
}

// Close tears the connection down and requests the session leave path. Safe
// to call from any goroutine, any number of times; the leave itself runs
// exactly once in the session actor.
func (c *Client) Close(errCode string) {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close(errCode)
		if c.session != nil {
			c.session.RequestRemoval(c)
		}
	})
}

func (c *Client) ReadPump() {
	defer c.Close("")

	for {
		data, err := c.conn.Read()
		if err != nil {
			return
		}

		msg, err := DecodeClientMessage(data)
		if err != nil {
			if errors.Is(err, ErrInvalidPayload) {
				slog.Debug("dropping malformed frame", "user", c.userId, "err", err)
				continue
			}
			return
		}

		switch cmd := msg.Command.(type) {
		case CursorPosCommand:
			c.presence.SetCursorPos(cmd.Pos)
		case CurrentTimeCommand:
			c.presence.SetCurrentTime(cmd.Time)
		default:
			if !c.limiter.Allow() {
				slog.Debug("rate limit exceeded, dropping command", "user", c.userId)
				continue
			}
			c.session.Submit(commandEnvelope{msg: msg, from: c})
		}
	}
}

func (c *Client) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.outbox:
			if err := c.conn.Write(data); err != nil {
				c.Close("")
				return
			}
		case data := <-c.tickSlot:
			if err := c.conn.Write(data); err != nil {
				c.Close("")
				return
			}
		case <-c.pingChan:
			if err := c.conn.Ping(); err != nil {
				c.Close("")
				return
			}
		}
	}
}
