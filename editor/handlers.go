package editor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"beatsync/domain"
)

type Lobby interface {
	RequestAddAndRunSession(ctx context.Context, s *Session)
	ForwardJoinRequest(ctx context.Context, beatmapId string, jr sessionJoinRequest)
}

type EditorHandler struct {
	lobby  Lobby
	store  BeatmapStore
	cache  SnapshotCache
	logger *slog.Logger
}

func NewEditorHandler(lobby Lobby, store BeatmapStore, cache SnapshotCache, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{lobby: lobby, store: store, cache: cache, logger: logger}
}

// EditHandler upgrades the connection and joins the editing session for the
// requested beatmap, creating the session first if this is the first editor
// to open it.
func (h *EditorHandler) EditHandler(ctx *gin.Context) {
	user, ok := ctx.MustGet("user").(domain.User)
	if !ok {
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	beatmapId := ctx.Param("beatmapid")

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // origin enforced by middleware
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(user.DisplayName, NewWebsocketConnection(conn))

	if err := h.joinSession(ctx.Request.Context(), beatmapId, client); err != nil {
		h.logger.Warn("join failed", "beatmap", beatmapId, "displayName", user.DisplayName, "err", err)
		client.Close("join-failed")
		return
	}

	go client.ReadPump()
	go client.WritePump()
}

// joinSession forwards the join through the lobby, loading the beatmap and
// spinning up a session when none is live. The bounded retry covers losing
// a session-creation race or hitting a session in its final tick.
func (h *EditorHandler) joinSession(ctx context.Context, beatmapId string, client *Client) error {
	joinCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for attempt := 0; attempt < 3; attempt++ {
		jr := NewSessionJoinRequest(client)
		h.lobby.ForwardJoinRequest(joinCtx, beatmapId, jr)

		var err error
		select {
		case err = <-jr.errChan:
		case <-joinCtx.Done():
			return joinCtx.Err()
		}

		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionClosed) {
			return err
		}

		beatmap, loadErr := h.loadBeatmap(joinCtx, beatmapId)
		if loadErr != nil {
			return loadErr
		}
		s := NewSession(beatmapId, beatmap, h.store, h.cache, h.logger)
		h.lobby.RequestAddAndRunSession(joinCtx, s)
	}

	return ErrSessionNotFound
}

// loadBeatmap prefers the autosave snapshot over the stored copy: the store
// is only written when a session winds down, so after a crash the cache is
// the fresher of the two.
func (h *EditorHandler) loadBeatmap(ctx context.Context, beatmapId string) (Beatmap, error) {
	if h.cache != nil {
		data, err := h.cache.GetSnapshot(ctx, beatmapId)
		switch {
		case err == nil:
			var beatmap Beatmap
			if jsonErr := json.Unmarshal(data, &beatmap); jsonErr == nil {
				return beatmap, nil
			}
			h.logger.Warn("discarding corrupt cached snapshot", "beatmap", beatmapId)
		case !errors.Is(err, domain.ErrSnapshotNotFound):
			h.logger.Warn("snapshot cache read failed", "beatmap", beatmapId, "err", err)
		}
	}
	return h.store.GetBeatmap(ctx, beatmapId)
}
