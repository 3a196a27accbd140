package editor

import "sync/atomic"

// presenceState is the latest cursor position and local playback time a user
// reported. Every update is a full overwrite of the previous value.
type presenceState struct {
	CursorPos   *Vec2
	CurrentTime int
}

// presenceSlot holds a client's presence behind an atomic pointer so the
// read pump can write it and the tick broadcast can read it without going
// through the session actor. A tick may observe a value that is one update
// stale; only the most recent value within a tick interval matters.
type presenceSlot struct {
	state atomic.Pointer[presenceState]
}

func (ps *presenceSlot) SetCursorPos(pos Vec2) {
	next := presenceState{CursorPos: &pos}
	if prev := ps.state.Load(); prev != nil {
		next.CurrentTime = prev.CurrentTime
	}
	ps.state.Store(&next)
}

func (ps *presenceSlot) SetCurrentTime(time int) {
	next := presenceState{CurrentTime: time}
	if prev := ps.state.Load(); prev != nil {
		next.CursorPos = prev.CursorPos
	}
	ps.state.Store(&next)
}

// Load returns the latest reported state, or nil if the user never reported.
func (ps *presenceSlot) Load() *presenceState {
	return ps.state.Load()
}

// collectUserTicks builds the payload of one aggregated tick: the latest
// state of every member that has reported at least once. Members that never
// reported are omitted entirely.
func collectUserTicks(members []*Client) []UserTick {
	ticks := make([]UserTick, 0, len(members))
	for _, client := range members {
		state := client.presence.Load()
		if state == nil {
			continue
		}
		ticks = append(ticks, UserTick{
			Id:          client.UserId(),
			CursorPos:   state.CursorPos,
			CurrentTime: state.CurrentTime,
		})
	}
	return ticks
}
