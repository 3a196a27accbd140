package editor

import (
	"context"
	"log/slog"
	"time"
)

const pingInterval = 30 * time.Second

type lobbyJoinRequest struct {
	beatmapId string
	join      sessionJoinRequest
}

// lobby is the registry of live editing sessions, one per open beatmap. A
// single actor goroutine owns the map and fans the shared tick and ping
// tickers out to every session.
type lobby struct {
	sessions map[string]*Session

	addAndRunChan chan *Session
	removeChan    chan string
	joinReqs      chan lobbyJoinRequest

	tickerCreator PeriodicTickerChannelCreator
	logger        *slog.Logger
}

func NewLobby(tickerCreator PeriodicTickerChannelCreator, logger *slog.Logger) *lobby {
	return &lobby{
		sessions:      map[string]*Session{},
		addAndRunChan: make(chan *Session, 32),
		removeChan:    make(chan string, 32),
		joinReqs:      make(chan lobbyJoinRequest, 256),
		tickerCreator: tickerCreator,
		logger:        logger,
	}
}

// RequestAddAndRunSession registers a freshly loaded session. If another
// connection won the race for the same beatmap, the loser is discarded and
// the caller's join lands on the winner.
func (l *lobby) RequestAddAndRunSession(ctx context.Context, s *Session) {
	select {
	case l.addAndRunChan <- s:
	case <-ctx.Done():
	}
}

func (l *lobby) ForwardJoinRequest(ctx context.Context, beatmapId string, jr sessionJoinRequest) {
	select {
	case l.joinReqs <- lobbyJoinRequest{beatmapId: beatmapId, join: jr}:
	case <-ctx.Done():
	}
}

// RemoveSession is called by a session that wound itself down.
func (l *lobby) RemoveSession(beatmapId string) {
	l.removeChan <- beatmapId
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(TickInterval)
	pingTicker := l.tickerCreator.Create(pingInterval)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, s := range l.sessions {
				s.Tick(now)
			}

		case <-pingTicker:
			for _, s := range l.sessions {
				s.PingAll()
			}

		case s := <-l.addAndRunChan:
			l.handleAddAndRun(s)

		case beatmapId := <-l.removeChan:
			l.handleRemove(beatmapId)

		case jreq := <-l.joinReqs:
			l.handleJoinReq(jreq)
		}
	}
}

func (l *lobby) handleAddAndRun(s *Session) {
	if existing, ok := l.sessions[s.BeatmapId()]; ok && !existing.isClosed() {
		return
	}
	s.SetParent(l)
	l.sessions[s.BeatmapId()] = s
	go s.Run()
	l.logger.Info("session registered", "beatmap", s.BeatmapId(), "sessions", len(l.sessions))
}

func (l *lobby) handleRemove(beatmapId string) {
	if s, ok := l.sessions[beatmapId]; ok && s.isClosed() {
		delete(l.sessions, beatmapId)
		l.logger.Info("session removed", "beatmap", beatmapId, "sessions", len(l.sessions))
	}
}

func (l *lobby) handleJoinReq(jreq lobbyJoinRequest) {
	s, ok := l.sessions[jreq.beatmapId]
	if !ok {
		jreq.join.errChan <- ErrSessionNotFound
		return
	}
	s.RequestJoin(jreq.join)
}
