package editor

import "math"

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type IVec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type HitObjectKind string

const (
	KindCircle  HitObjectKind = "circle"
	KindSlider  HitObjectKind = "slider"
	KindSpinner HitObjectKind = "spinner"
)

type ControlPointKind int

const (
	ControlPointNone ControlPointKind = iota
	ControlPointBezier
	ControlPointCircle
	ControlPointLinear
)

type SliderControlPoint struct {
	Position IVec2            `json:"position"`
	Kind     ControlPointKind `json:"kind"`
}

// HitObject is one placeable element of the beatmap. The slider fields are
// meaningful only when Kind is KindSlider; the wire format flattens them into
// the object the same way.
type HitObject struct {
	Id         int  `json:"id"`
	SelectedBy *int `json:"selectedBy,omitempty"`

	StartTime int   `json:"startTime"`
	Position  IVec2 `json:"position"`
	NewCombo  bool  `json:"newCombo"`

	Kind HitObjectKind `json:"type"`

	ExpectedDistance float64              `json:"expectedDistance,omitempty"`
	ControlPoints    []SliderControlPoint `json:"controlPoints,omitempty"`
	Repeats          int                  `json:"repeats,omitempty"`
}

func (h *HitObject) Clone() HitObject {
	clone := *h
	if h.SelectedBy != nil {
		selectedBy := *h.SelectedBy
		clone.SelectedBy = &selectedBy
	}
	if h.ControlPoints != nil {
		clone.ControlPoints = make([]SliderControlPoint, len(h.ControlPoints))
		copy(clone.ControlPoints, h.ControlPoints)
	}
	return clone
}

func (h *HitObject) Validate() error {
	switch h.Kind {
	case KindCircle, KindSpinner:
	case KindSlider:
		if !isFinite(h.ExpectedDistance) || h.Repeats < 0 {
			return ErrInvalidPayload
		}
		for _, cp := range h.ControlPoints {
			if cp.Kind < ControlPointNone || cp.Kind > ControlPointLinear {
				return ErrInvalidPayload
			}
		}
	default:
		return ErrInvalidPayload
	}
	return nil
}

type TimingInfo struct {
	BPM       float64 `json:"bpm"`
	Signature int     `json:"signature"`
}

// TimingPoint with a nil Timing is an inherited (SV-only) point; that is a
// legitimate variant, not a decoding failure.
type TimingPoint struct {
	Id     int         `json:"id"`
	Offset float64     `json:"offset"`
	Timing *TimingInfo `json:"timing,omitempty"`
	SV     *float64    `json:"sv,omitempty"`
	Volume *float64    `json:"volume,omitempty"`
}

func (tp *TimingPoint) Clone() TimingPoint {
	clone := *tp
	if tp.Timing != nil {
		timing := *tp.Timing
		clone.Timing = &timing
	}
	if tp.SV != nil {
		sv := *tp.SV
		clone.SV = &sv
	}
	if tp.Volume != nil {
		volume := *tp.Volume
		clone.Volume = &volume
	}
	return clone
}

func (tp *TimingPoint) Validate() error {
	if !isFinite(tp.Offset) {
		return ErrInvalidPayload
	}
	if tp.Timing != nil && (!isFinite(tp.Timing.BPM) || tp.Timing.BPM <= 0 || tp.Timing.Signature < 0) {
		return ErrInvalidPayload
	}
	if tp.SV != nil && !isFinite(*tp.SV) {
		return ErrInvalidPayload
	}
	if tp.Volume != nil && !isFinite(*tp.Volume) {
		return ErrInvalidPayload
	}
	return nil
}

type Difficulty struct {
	HPDrainRate       float64 `json:"hpDrainRate"`
	CircleSize        float64 `json:"circleSize"`
	OverallDifficulty float64 `json:"overallDifficulty"`
	ApproachRate      float64 `json:"approachRate"`
	SliderMultiplier  float64 `json:"sliderMultiplier"`
	SliderTickRate    float64 `json:"sliderTickRate"`
}

func (d Difficulty) Validate() error {
	for _, v := range []float64{d.HPDrainRate, d.CircleSize, d.OverallDifficulty, d.ApproachRate, d.SliderMultiplier, d.SliderTickRate} {
		if !isFinite(v) {
			return ErrInvalidPayload
		}
	}
	return nil
}

// Beatmap is the shared editable document.
type Beatmap struct {
	Difficulty   Difficulty    `json:"difficulty"`
	HitObjects   []HitObject   `json:"hitObjects"`
	TimingPoints []TimingPoint `json:"timingPoints"`
}

// HitObjectOverrides is a sparse patch: only non-nil fields overwrite the
// target. A pointer to an empty ControlPoints slice replaces the list with
// the empty list, which is distinct from leaving it unchanged.
type HitObjectOverrides struct {
	StartTime        *int                  `json:"time,omitempty"`
	Position         *IVec2                `json:"position,omitempty"`
	NewCombo         *bool                 `json:"newCombo,omitempty"`
	ControlPoints    *[]SliderControlPoint `json:"controlPoints,omitempty"`
	ExpectedDistance *float64              `json:"expectedDistance,omitempty"`
	Repeats          *int                  `json:"repeatCount,omitempty"`
}

func (o *HitObjectOverrides) Validate() error {
	if o.StartTime == nil && o.Position == nil && o.NewCombo == nil &&
		o.ControlPoints == nil && o.ExpectedDistance == nil && o.Repeats == nil {
		return ErrInvalidPayload
	}
	if o.ExpectedDistance != nil && !isFinite(*o.ExpectedDistance) {
		return ErrInvalidPayload
	}
	if o.Repeats != nil && *o.Repeats < 0 {
		return ErrInvalidPayload
	}
	if o.ControlPoints != nil {
		for _, cp := range *o.ControlPoints {
			if cp.Kind < ControlPointNone || cp.Kind > ControlPointLinear {
				return ErrInvalidPayload
			}
		}
	}
	return nil
}

// ApplyTo patches the target in place.
func (o *HitObjectOverrides) ApplyTo(h *HitObject) {
	if o.StartTime != nil {
		h.StartTime = *o.StartTime
	}
	if o.Position != nil {
		h.Position = *o.Position
	}
	if o.NewCombo != nil {
		h.NewCombo = *o.NewCombo
	}
	if o.ControlPoints != nil {
		h.ControlPoints = make([]SliderControlPoint, len(*o.ControlPoints))
		copy(h.ControlPoints, *o.ControlPoints)
	}
	if o.ExpectedDistance != nil {
		h.ExpectedDistance = *o.ExpectedDistance
	}
	if o.Repeats != nil {
		h.Repeats = *o.Repeats
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
