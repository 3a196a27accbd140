package editor

import "sort"

// SelectionLocks tracks which connected user, if any, owns each hit object
// for editing. It is the single place the "who may mutate this object"
// decision lives; the command processor consults it before touching the
// document. Like the document it is only accessed from the session actor.
type SelectionLocks struct {
	owners map[int]int              // hit object id -> user id
	byUser map[int]map[int]struct{} // user id -> owned hit object ids
}

func NewSelectionLocks() *SelectionLocks {
	return &SelectionLocks{
		owners: make(map[int]int),
		byUser: make(map[int]map[int]struct{}),
	}
}

// OwnerOf reports the current owner of the hit object, if any.
func (sl *SelectionLocks) OwnerOf(id int) (int, bool) {
	owner, ok := sl.owners[id]
	return owner, ok
}

func (sl *SelectionLocks) OwnedBy(userId int) []int {
	owned := make([]int, 0, len(sl.byUser[userId]))
	for id := range sl.byUser[userId] {
		owned = append(owned, id)
	}
	sort.Ints(owned)
	return owned
}

// CanMutate reports whether the user may update, delete or override the hit
// object: allowed when the object is unowned or owned by the user itself.
// Acting on an unowned object does not implicitly grant ownership.
func (sl *SelectionLocks) CanMutate(id, userId int) bool {
	owner, ok := sl.owners[id]
	return !ok || owner == userId
}

// Select grants ownership of the requested ids to the user. An id owned by
// someone else is denied and silently skipped. With unique set, every other
// id the user currently owns is released first; the released ids are
// returned so the callers can announce the deselection.
func (sl *SelectionLocks) Select(ids []int, userId int, unique bool) (granted, denied, released []int) {
	requested := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}

	if unique {
		for _, id := range sl.OwnedBy(userId) {
			if _, keep := requested[id]; !keep {
				sl.release(id, userId)
				released = append(released, id)
			}
		}
	}

	for _, id := range ids {
		owner, owned := sl.owners[id]
		switch {
		case !owned:
			sl.grant(id, userId)
			granted = append(granted, id)
		case owner != userId:
			denied = append(denied, id)
		}
	}

	return granted, denied, released
}

// Deselect releases the listed ids, skipping any the user does not own.
func (sl *SelectionLocks) Deselect(ids []int, userId int) (released []int) {
	for _, id := range ids {
		if owner, ok := sl.owners[id]; ok && owner == userId {
			sl.release(id, userId)
			released = append(released, id)
		}
	}
	return released
}

// ForceReleaseAll releases everything the user owns, used when the user
// disconnects.
func (sl *SelectionLocks) ForceReleaseAll(userId int) (released []int) {
	released = sl.OwnedBy(userId)
	for _, id := range released {
		sl.release(id, userId)
	}
	return released
}

// ReleaseObject drops the lock on a single hit object regardless of owner,
// used when the object itself is deleted.
func (sl *SelectionLocks) ReleaseObject(id int) {
	if owner, ok := sl.owners[id]; ok {
		sl.release(id, owner)
	}
}

func (sl *SelectionLocks) grant(id, userId int) {
	sl.owners[id] = userId
	owned, ok := sl.byUser[userId]
	if !ok {
		owned = make(map[int]struct{})
		sl.byUser[userId] = owned
	}
	owned[id] = struct{}{}
}

func (sl *SelectionLocks) release(id, userId int) {
	delete(sl.owners, id)
	if owned, ok := sl.byUser[userId]; ok {
		delete(owned, id)
		if len(owned) == 0 {
			delete(sl.byUser, userId)
		}
	}
}
