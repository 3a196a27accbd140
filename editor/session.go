package editor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// One aggregated presence snapshot every 50ms.
	TickInterval = 50 * time.Millisecond

	// A session with no connected editors for this many ticks (10s) winds
	// itself down.
	emptyTicksBeforeClose = 200

	// Live documents are snapshotted to the cache every 600 ticks (30s).
	autosaveTicks = 600
)

type sessionJoinRequest struct {
	client  *Client
	errChan chan error
}

func NewSessionJoinRequest(client *Client) sessionJoinRequest {
	return sessionJoinRequest{client: client, errChan: make(chan error, 1)}
}

type sessionParent interface {
	RemoveSession(beatmapId string)
}

// Session is the synchronization engine for one open beatmap. A single actor
// goroutine (Run) owns the document, the selection locks and the member
// list; every mutation funnels through its channels, so two commands can
// never interleave their validate-then-apply steps. Network reads and
// writes stay fully concurrent on the client pumps.
type Session struct {
	id        string
	beatmapId string

	doc   *Document
	locks *SelectionLocks
	proc  *Processor

	members    []*Client
	nextUserId int

	inbox        chan commandEnvelope
	joinRequests chan sessionJoinRequest
	removals     chan *Client
	ticks        chan time.Time
	pingMembers  chan struct{}
	closed       chan struct{}

	emptyTicks     int
	ticksSinceSave int

	parent sessionParent
	store  BeatmapStore
	cache  SnapshotCache
	logger *slog.Logger
}

func NewSession(beatmapId string, beatmap Beatmap, store BeatmapStore, cache SnapshotCache, logger *slog.Logger) *Session {
	doc := NewDocument(beatmap)
	locks := NewSelectionLocks()

	s := &Session{
		id:           uuid.NewString(),
		beatmapId:    beatmapId,
		doc:          doc,
		locks:        locks,
		nextUserId:   1,
		inbox:        make(chan commandEnvelope, 1024),
		joinRequests: make(chan sessionJoinRequest, 8),
		removals:     make(chan *Client, 64),
		ticks:        make(chan time.Time, 24),
		pingMembers:  make(chan struct{}, 24),
		closed:       make(chan struct{}),
		store:        store,
		cache:        cache,
		logger:       logger.With("session", beatmapId),
	}
	s.proc = NewProcessor(doc, locks, s.logger)
	return s
}

func (s *Session) BeatmapId() string {
	return s.beatmapId
}

func (s *Session) SetParent(parent sessionParent) {
	s.parent = parent
}

// Submit feeds one decoded command into the actor. Called from read pumps.
func (s *Session) Submit(env commandEnvelope) {
	select {
	case s.inbox <- env:
	case <-env.from.done:
	case <-s.closed:
	}
}

// RequestJoin hands a connection to the actor and reports the outcome on
// the request's errChan.
func (s *Session) RequestJoin(jr sessionJoinRequest) {
	select {
	case s.joinRequests <- jr:
	case <-s.closed:
		jr.errChan <- ErrSessionClosed
	}
}

// RequestRemoval queues the leave path for a client. May fire more than
// once per client (read error and heartbeat timeout can race); the actor
// deduplicates against the member list. The actor itself reaches here when a
// flush overflows a member's outbox, so a full removal queue spills into a
// goroutine instead of blocking the caller.
func (s *Session) RequestRemoval(client *Client) {
	select {
	case s.removals <- client:
	case <-s.closed:
	default:
		go func() {
			select {
			case s.removals <- client:
			case <-s.closed:
			}
		}()
	}
}

// Tick and PingAll are fanned in by the lobby's shared tickers. Both drop
// on a full channel rather than stall the lobby actor.
func (s *Session) Tick(now time.Time) {
	select {
	case s.ticks <- now:
	default:
	}
}

func (s *Session) PingAll() {
	select {
	case s.pingMembers <- struct{}{}:
	default:
	}
}

func (s *Session) Run() {
	s.logger.Info("session started", "instance", s.id)

	for {
		select {
		case env := <-s.inbox:
			if !s.isMember(env.from) {
				continue
			}
			d := NewDispatcher()
			s.proc.Process(env.from, env.msg, d)
			d.Flush(s.members)

		case jr := <-s.joinRequests:
			s.handleJoin(jr)

		case client := <-s.removals:
			s.handleLeave(client)

		case <-s.ticks:
			if s.handleTick() {
				s.logger.Info("session closed", "instance", s.id)
				return
			}

		case <-s.pingMembers:
			for _, client := range s.members {
				client.Ping()
			}
		}
	}
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Session) isMember(client *Client) bool {
	for _, member := range s.members {
		if member == client {
			return true
		}
	}
	return false
}

// handleJoin adds the connection and establishes its causal baseline: the
// joiner receives ownId, the user list and the full document snapshot in one
// envelope before any incremental event; everyone else learns about the
// join afterwards.
func (s *Session) handleJoin(jr sessionJoinRequest) {
	client := jr.client
	userId := s.nextUserId
	s.nextUserId++
	client.attach(s, userId)

	s.members = append(s.members, client)
	s.emptyTicks = 0

	users := make([]UserInfo, 0, len(s.members))
	for _, member := range s.members {
		users = append(users, member.userInfo())
	}

	d := NewDispatcher()
	d.SendTo(client, OwnIdCommand{Id: userId})
	d.SendTo(client, UserListCommand{Users: users})
	d.SendTo(client, StateCommand{Beatmap: s.doc.Snapshot()})
	d.BroadcastExcept(client, UserJoinedCommand{User: client.userInfo()})
	d.Flush(s.members)

	s.logger.Info("user joined", "user", userId, "displayName", client.DisplayName(), "members", len(s.members))
	jr.errChan <- nil
}

// handleLeave runs the leave path exactly once per client: release every
// lock the user held, announce the deselection so other editors
// un-highlight, then announce the departure.
func (s *Session) handleLeave(client *Client) {
	if !s.isMember(client) {
		return
	}

	for i, member := range s.members {
		if member == client {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}

	released := s.locks.ForceReleaseAll(client.UserId())
	for _, id := range released {
		if h := s.doc.FindHitObject(id); h != nil {
			h.SelectedBy = nil
		}
	}

	d := NewDispatcher()
	if len(released) > 0 {
		d.BroadcastAll(HitObjectSelectedCommand{Ids: released})
	}
	d.BroadcastAll(UserLeftCommand{User: client.userInfo()})
	d.Flush(s.members)

	client.Close("")
	s.logger.Info("user left", "user", client.UserId(), "members", len(s.members))
}

// handleTick broadcasts the aggregated presence snapshot, drives the
// autosave cadence and winds the session down once it has sat empty long
// enough. Returns true when the session is closed.
func (s *Session) handleTick() bool {
	if len(s.members) > 0 {
		msg := ServerMessage{Command: TickCommand{UserTicks: collectUserTicks(s.members)}}
		if data, err := EncodeServerMessage(msg); err == nil {
			for _, client := range s.members {
				client.SendTick(data)
			}
		}
		s.emptyTicks = 0
	} else {
		s.emptyTicks++
		if s.emptyTicks >= emptyTicksBeforeClose {
			s.shutdown()
			return true
		}
	}

	s.ticksSinceSave++
	if s.ticksSinceSave >= autosaveTicks {
		s.ticksSinceSave = 0
		s.autosave()
	}

	return false
}

func (s *Session) autosave() {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(s.doc.Snapshot())
	if err != nil {
		return
	}
	beatmapId := s.beatmapId
	logger := s.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.PutSnapshot(ctx, beatmapId, data); err != nil {
			logger.Warn("autosave snapshot failed", "err", err)
		}
	}()
}

func (s *Session) shutdown() {
	close(s.closed)
	if s.parent != nil {
		s.parent.RemoveSession(s.beatmapId)
	}

	// A join forwarded just before the close still gets an answer; the
	// caller retries against a fresh session.
	for drained := false; !drained; {
		select {
		case jr := <-s.joinRequests:
			jr.errChan <- ErrSessionClosed
		default:
			drained = true
		}
	}

	snapshot := s.doc.Snapshot()
	beatmapId := s.beatmapId
	logger := s.logger
	if s.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.store.SaveBeatmap(ctx, beatmapId, snapshot); err != nil {
				logger.Error("failed to persist beatmap on close", "err", err)
			}
		}()
	}
}
