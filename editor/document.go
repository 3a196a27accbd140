package editor

import "sort"

// Document is the authoritative in-memory beatmap. It is only ever touched
// from the session actor goroutine; see Session.Run.
type Document struct {
	difficulty   Difficulty
	hitObjects   []*HitObject
	timingPoints []*TimingPoint

	nextHitObjectId   int
	nextTimingPointId int
}

func NewDocument(beatmap Beatmap) *Document {
	doc := &Document{
		difficulty:        beatmap.Difficulty,
		nextHitObjectId:   1,
		nextTimingPointId: 1,
	}

	for i := range beatmap.HitObjects {
		h := beatmap.HitObjects[i].Clone()
		h.SelectedBy = nil
		h.Id = doc.nextHitObjectId
		doc.nextHitObjectId++
		doc.hitObjects = append(doc.hitObjects, &h)
	}
	sort.SliceStable(doc.hitObjects, func(i, j int) bool {
		return doc.hitObjects[i].StartTime < doc.hitObjects[j].StartTime
	})

	for i := range beatmap.TimingPoints {
		tp := beatmap.TimingPoints[i].Clone()
		tp.Id = doc.nextTimingPointId
		doc.nextTimingPointId++
		doc.timingPoints = append(doc.timingPoints, &tp)
	}

	return doc
}

// CreateHitObject inserts a copy of spec, keeping the list ordered by start
// time. The id is always allocated server-side; whatever the client sent in
// the id field is overwritten.
func (doc *Document) CreateHitObject(spec HitObject) *HitObject {
	h := spec.Clone()
	h.Id = doc.nextHitObjectId
	doc.nextHitObjectId++

	index := doc.insertIndex(h.StartTime)
	doc.hitObjects = append(doc.hitObjects, nil)
	copy(doc.hitObjects[index+1:], doc.hitObjects[index:])
	doc.hitObjects[index] = &h

	return &h
}

// insertIndex returns the position a hit object with the given start time
// should be inserted at to keep the slice sorted.
func (doc *Document) insertIndex(startTime int) int {
	return sort.Search(len(doc.hitObjects), func(i int) bool {
		return doc.hitObjects[i].StartTime >= startTime
	})
}

func (doc *Document) FindHitObject(id int) *HitObject {
	for _, h := range doc.hitObjects {
		if h.Id == id {
			return h
		}
	}
	return nil
}

// HitObjectsAt returns every hit object sharing the exact start time.
func (doc *Document) HitObjectsAt(startTime int) []*HitObject {
	var found []*HitObject
	for _, h := range doc.hitObjects {
		if h.StartTime == startTime {
			found = append(found, h)
		}
	}
	return found
}

// UpdateHitObject replaces the object's editable fields. The id, the kind and
// the selection owner are kept from the existing object; a spec whose kind
// disagrees with the stored one is rejected.
func (doc *Document) UpdateHitObject(id int, spec HitObject) (*HitObject, error) {
	existing := doc.FindHitObject(id)
	if existing == nil {
		return nil, ErrNotFound
	}
	if spec.Kind != existing.Kind {
		return nil, ErrInvalidPayload
	}

	updated := spec.Clone()
	updated.Id = id
	updated.SelectedBy = existing.SelectedBy

	doc.removeHitObject(id)
	index := doc.insertIndex(updated.StartTime)
	doc.hitObjects = append(doc.hitObjects, nil)
	copy(doc.hitObjects[index+1:], doc.hitObjects[index:])
	doc.hitObjects[index] = &updated

	return &updated, nil
}

// DeleteHitObjects removes the listed objects and reports which ids actually
// existed. Missing ids are skipped, so deleting twice is harmless.
func (doc *Document) DeleteHitObjects(ids []int) []int {
	var removed []int
	for _, id := range ids {
		if doc.removeHitObject(id) {
			removed = append(removed, id)
		}
	}
	return removed
}

func (doc *Document) removeHitObject(id int) bool {
	for i, h := range doc.hitObjects {
		if h.Id == id {
			doc.hitObjects = append(doc.hitObjects[:i], doc.hitObjects[i+1:]...)
			return true
		}
	}
	return false
}

func (doc *Document) CreateTimingPoint(spec TimingPoint) *TimingPoint {
	tp := spec.Clone()
	tp.Id = doc.nextTimingPointId
	doc.nextTimingPointId++
	doc.timingPoints = append(doc.timingPoints, &tp)
	return &tp
}

func (doc *Document) FindTimingPoint(id int) *TimingPoint {
	for _, tp := range doc.timingPoints {
		if tp.Id == id {
			return tp
		}
	}
	return nil
}

func (doc *Document) UpdateTimingPoint(id int, spec TimingPoint) (*TimingPoint, error) {
	for i, tp := range doc.timingPoints {
		if tp.Id == id {
			updated := spec.Clone()
			updated.Id = id
			doc.timingPoints[i] = &updated
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}

func (doc *Document) DeleteTimingPoints(ids []int) []int {
	var removed []int
	for _, id := range ids {
		for i, tp := range doc.timingPoints {
			if tp.Id == id {
				doc.timingPoints = append(doc.timingPoints[:i], doc.timingPoints[i+1:]...)
				removed = append(removed, id)
				break
			}
		}
	}
	return removed
}

func (doc *Document) Difficulty() Difficulty {
	return doc.difficulty
}

func (doc *Document) ReplaceDifficulty(spec Difficulty) {
	doc.difficulty = spec
}

// Snapshot returns a deep copy of the whole document, used to bring a newly
// joined connection up to the current state before it sees any deltas.
func (doc *Document) Snapshot() Beatmap {
	snapshot := Beatmap{
		Difficulty:   doc.difficulty,
		HitObjects:   make([]HitObject, 0, len(doc.hitObjects)),
		TimingPoints: make([]TimingPoint, 0, len(doc.timingPoints)),
	}
	for _, h := range doc.hitObjects {
		snapshot.HitObjects = append(snapshot.HitObjects, h.Clone())
	}
	for _, tp := range doc.timingPoints {
		snapshot.TimingPoints = append(snapshot.TimingPoints, tp.Clone())
	}
	return snapshot
}
