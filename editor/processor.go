package editor

import (
	"errors"
	"log/slog"
)

// Processor applies one decoded client command at a time against the
// document and the selection locks, queueing the resulting messages on the
// dispatcher. It never blocks and never partially applies: a command that
// fails any check queues at most a local rejection and leaves all state
// untouched.
type Processor struct {
	doc    *Document
	locks  *SelectionLocks
	logger *slog.Logger
}

func NewProcessor(doc *Document, locks *SelectionLocks, logger *slog.Logger) *Processor {
	return &Processor{doc: doc, locks: locks, logger: logger}
}

func (p *Processor) Process(issuer *Client, msg ClientMessage, d *Dispatcher) {
	switch cmd := msg.Command.(type) {
	case CursorPosCommand:
		issuer.presence.SetCursorPos(cmd.Pos)
	case CurrentTimeCommand:
		issuer.presence.SetCurrentTime(cmd.Time)
	case SelectHitObjectCommand:
		p.handleSelection(issuer, cmd, msg.ResponseId, d)
	case CreateHitObjectCommand:
		p.handleCreateHitObject(issuer, cmd.HitObject, msg.ResponseId, d)
	case UpdateHitObjectCommand:
		p.handleUpdateHitObject(issuer, cmd.HitObject, msg.ResponseId, d)
	case DeleteHitObjectCommand:
		p.handleDeleteHitObjects(issuer, cmd.Ids, msg.ResponseId, d)
	case CreateTimingPointCommand:
		p.handleCreateTimingPoint(issuer, cmd.TimingPoint, msg.ResponseId, d)
	case UpdateTimingPointCommand:
		p.handleUpdateTimingPoint(issuer, cmd.TimingPoint, msg.ResponseId, d)
	case DeleteTimingPointCommand:
		p.handleDeleteTimingPoints(issuer, cmd.Ids, msg.ResponseId, d)
	case SetHitObjectOverridesCommand:
		p.handleOverrides(issuer, cmd, msg.ResponseId, d)
	default:
		p.logger.Warn("unhandled client command", "user", issuer.UserId())
	}
}

// reject reports a failed command back to the issuer only. Commands sent
// without a correlation token are dropped silently; either way nothing is
// broadcast and nothing was mutated.
func (p *Processor) reject(issuer *Client, responseId string, err error) {
	p.logger.Debug("command rejected", "user", issuer.UserId(), "reason", err)
	if responseId == "" {
		return
	}
	d := NewDispatcher()
	d.Respond(issuer, responseId, RejectedCommand{Reason: rejectionReason(err)})
	d.Flush([]*Client{issuer})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrLockDenied):
		return "lock-denied"
	default:
		return "invalid-payload"
	}
}

// handleCreateHitObject places a new object. Objects already sitting at the
// exact same start time are deleted first when the issuer may touch them
// (the editor never stacks two objects on one time). The new object starts
// unowned; a creator that wants the lock selects it like anyone else.
func (p *Processor) handleCreateHitObject(issuer *Client, spec HitObject, responseId string, d *Dispatcher) {
	if err := spec.Validate(); err != nil {
		p.reject(issuer, responseId, err)
		return
	}

	userId := issuer.UserId()

	var overlapping []int
	for _, h := range p.doc.HitObjectsAt(spec.StartTime) {
		if p.locks.CanMutate(h.Id, userId) {
			overlapping = append(overlapping, h.Id)
		}
	}
	for _, id := range p.doc.DeleteHitObjects(overlapping) {
		p.locks.ReleaseObject(id)
		d.BroadcastAll(HitObjectDeletedCommand{Id: id})
	}

	spec.SelectedBy = nil
	created := p.doc.CreateHitObject(spec)

	d.BroadcastResponse(issuer, responseId, HitObjectCreatedCommand{HitObject: created.Clone()})
}

func (p *Processor) handleUpdateHitObject(issuer *Client, spec HitObject, responseId string, d *Dispatcher) {
	if err := spec.Validate(); err != nil {
		p.reject(issuer, responseId, err)
		return
	}
	if p.doc.FindHitObject(spec.Id) == nil {
		p.reject(issuer, responseId, ErrNotFound)
		return
	}
	if !p.locks.CanMutate(spec.Id, issuer.UserId()) {
		p.reject(issuer, responseId, ErrLockDenied)
		return
	}

	updated, err := p.doc.UpdateHitObject(spec.Id, spec)
	if err != nil {
		p.reject(issuer, responseId, err)
		return
	}

	d.BroadcastResponse(issuer, responseId, HitObjectUpdatedCommand{HitObject: updated.Clone()})
}

// handleDeleteHitObjects removes every listed object the issuer may touch.
// Missing ids and ids locked by someone else are skipped without error, so a
// repeated delete is a no-op and emits nothing.
func (p *Processor) handleDeleteHitObjects(issuer *Client, ids []int, responseId string, d *Dispatcher) {
	userId := issuer.UserId()

	var deletable []int
	for _, id := range ids {
		if p.doc.FindHitObject(id) != nil && p.locks.CanMutate(id, userId) {
			deletable = append(deletable, id)
		}
	}

	for _, id := range p.doc.DeleteHitObjects(deletable) {
		p.locks.ReleaseObject(id)
		d.BroadcastResponse(issuer, responseId, HitObjectDeletedCommand{Id: id})
	}
}

func (p *Processor) handleSelection(issuer *Client, cmd SelectHitObjectCommand, responseId string, d *Dispatcher) {
	userId := issuer.UserId()

	var existing []int
	for _, id := range cmd.Ids {
		if p.doc.FindHitObject(id) != nil {
			existing = append(existing, id)
		}
	}

	if !cmd.Selected {
		released := p.locks.Deselect(existing, userId)
		if len(released) > 0 {
			p.clearSelection(released)
			d.BroadcastResponse(issuer, responseId, HitObjectSelectedCommand{Ids: released})
		}
		return
	}

	granted, denied, released := p.locks.Select(existing, userId, cmd.Unique)
	p.logger.Debug("selection processed",
		"user", userId, "granted", granted, "denied", denied, "released", released)

	for _, id := range granted {
		if h := p.doc.FindHitObject(id); h != nil {
			owner := userId
			h.SelectedBy = &owner
		}
	}
	p.clearSelection(released)

	if len(released) > 0 {
		d.BroadcastAll(HitObjectSelectedCommand{Ids: released})
	}
	if len(granted) > 0 {
		d.BroadcastResponse(issuer, responseId, HitObjectSelectedCommand{Ids: granted, SelectedBy: &userId})
	}
}

func (p *Processor) clearSelection(ids []int) {
	for _, id := range ids {
		if h := p.doc.FindHitObject(id); h != nil {
			h.SelectedBy = nil
		}
	}
}

func (p *Processor) handleCreateTimingPoint(issuer *Client, spec TimingPoint, responseId string, d *Dispatcher) {
	if err := spec.Validate(); err != nil {
		p.reject(issuer, responseId, err)
		return
	}

	created := p.doc.CreateTimingPoint(spec)
	d.BroadcastResponse(issuer, responseId, TimingPointCreatedCommand{TimingPoint: created.Clone()})
}

func (p *Processor) handleUpdateTimingPoint(issuer *Client, spec TimingPoint, responseId string, d *Dispatcher) {
	if err := spec.Validate(); err != nil {
		p.reject(issuer, responseId, err)
		return
	}

	updated, err := p.doc.UpdateTimingPoint(spec.Id, spec)
	if err != nil {
		p.reject(issuer, responseId, err)
		return
	}

	d.BroadcastResponse(issuer, responseId, TimingPointUpdatedCommand{TimingPoint: updated.Clone()})
}

func (p *Processor) handleDeleteTimingPoints(issuer *Client, ids []int, responseId string, d *Dispatcher) {
	for _, id := range p.doc.DeleteTimingPoints(ids) {
		d.BroadcastResponse(issuer, responseId, TimingPointDeletedCommand{Id: id})
	}
}

func (p *Processor) handleOverrides(issuer *Client, cmd SetHitObjectOverridesCommand, responseId string, d *Dispatcher) {
	if err := cmd.Overrides.Validate(); err != nil {
		p.reject(issuer, responseId, err)
		return
	}

	existing := p.doc.FindHitObject(cmd.Id)
	if existing == nil {
		p.reject(issuer, responseId, ErrNotFound)
		return
	}
	if !p.locks.CanMutate(cmd.Id, issuer.UserId()) {
		p.reject(issuer, responseId, ErrLockDenied)
		return
	}

	patched := existing.Clone()
	cmd.Overrides.ApplyTo(&patched)
	if _, err := p.doc.UpdateHitObject(cmd.Id, patched); err != nil {
		p.reject(issuer, responseId, err)
		return
	}

	d.BroadcastResponse(issuer, responseId, HitObjectOverriddenCommand{Id: cmd.Id, Overrides: cmd.Overrides})
}
